package transcript

import "github.com/google/wire"

// ProviderSet 转写领域 ProviderSet
var ProviderSet = wire.NewSet(
	NewTranscriptStore,
)
