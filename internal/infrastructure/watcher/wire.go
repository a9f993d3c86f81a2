package watcher

import (
	"github.com/chatvault/backend/internal/domain/events"
	"github.com/chatvault/backend/internal/infrastructure/config"
	"github.com/google/wire"
)

// ProvideEventBus 提供事件总线实例
func ProvideEventBus() events.EventBus {
	return NewEventBus()
}

// ProvideFileWatcher 提供收件目录监听器实例
func ProvideFileWatcher(eventBus events.EventBus, intakeCfg *config.IntakeConfig) (*FileWatcher, error) {
	return NewFileWatcher(DefaultWatchConfig(intakeCfg.Dir), eventBus)
}

// ProviderSet Watcher 基础设施层 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideEventBus,
	ProvideFileWatcher,
)
