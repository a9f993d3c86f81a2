package infrastructure

import (
	"github.com/chatvault/backend/internal/infrastructure/config"
	"github.com/chatvault/backend/internal/infrastructure/storage"
	"github.com/chatvault/backend/internal/infrastructure/watcher"
	"github.com/google/wire"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	storage.ProviderSet,
	watcher.ProviderSet,
	// 可以继续添加其他基础设施模块
)
