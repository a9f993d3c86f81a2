package application

import (
	"github.com/chatvault/backend/internal/application/transcript"
	"github.com/google/wire"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	transcript.ProviderSet,
	// 可以继续添加其他应用服务模块
)
