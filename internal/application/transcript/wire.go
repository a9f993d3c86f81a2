package transcript

import "github.com/google/wire"

// ProviderSet 转写应用服务 ProviderSet
var ProviderSet = wire.NewSet(
	NewService,
)
