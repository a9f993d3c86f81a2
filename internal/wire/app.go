package wire

import (
	"database/sql"
	"log/slog"

	appTranscript "github.com/chatvault/backend/internal/application/transcript"
	"github.com/chatvault/backend/internal/domain/events"
	domainTranscript "github.com/chatvault/backend/internal/domain/transcript"
	applog "github.com/chatvault/backend/internal/infrastructure/log"
	"github.com/chatvault/backend/internal/infrastructure/storage"
	"github.com/chatvault/backend/internal/infrastructure/watcher"
)

// App 应用主结构，组合所有服务
type App struct {
	Store   *domainTranscript.TranscriptStore
	Service *appTranscript.Service

	repo        storage.TranscriptRepository
	eventBus    events.EventBus
	fileWatcher *watcher.FileWatcher
	db          *sql.DB
	logger      *slog.Logger
}

// NewApp 创建应用实例
func NewApp(
	store *domainTranscript.TranscriptStore,
	service *appTranscript.Service,
	repo storage.TranscriptRepository,
	eventBus events.EventBus,
	fileWatcher *watcher.FileWatcher,
	db *sql.DB,
) *App {
	return &App{
		Store:       store,
		Service:     service,
		repo:        repo,
		eventBus:    eventBus,
		fileWatcher: fileWatcher,
		db:          db,
		logger:      applog.NewModuleLogger("app", "main"),
	}
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting ChatVault backend application")

	// 初始化归档表结构
	if err := a.repo.InitTables(); err != nil {
		return err
	}

	// 注册事件订阅者并启动收件目录监听
	a.setupEventSubscribers()
	if a.fileWatcher != nil {
		if err := a.fileWatcher.Start(); err != nil {
			a.logger.Error("Failed to start file watcher",
				"error", err,
			)
		} else {
			a.logger.Info("File watcher started successfully")
		}
	}

	a.logger.Info("ChatVault backend application started successfully")
	return nil
}

// setupEventSubscribers 注册事件订阅者
func (a *App) setupEventSubscribers() {
	if a.eventBus == nil {
		return
	}

	// 转写服务订阅收件文件事件，自动归档新到的转写
	a.eventBus.SubscribeMultiple(
		[]events.EventType{
			events.TranscriptFileCreated,
			events.TranscriptFileModified,
		},
		events.HandlerFunc(func(event events.Event) error {
			fileEvent, ok := event.(*events.TranscriptFileEvent)
			if !ok {
				return nil
			}
			return a.Service.HandleTranscriptFileEvent(fileEvent)
		}),
	)
	a.logger.Info("Transcript service subscribed to intake file events")
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("Stopping ChatVault backend application")

	// 停止收件目录监听
	if a.fileWatcher != nil {
		a.fileWatcher.Stop()
		a.logger.Info("File watcher stopped")
	}

	// 关闭事件总线
	if a.eventBus != nil {
		a.eventBus.Close()
		a.logger.Info("Event bus closed")
	}

	// 关闭数据库连接
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database",
				"error", err,
			)
		}
	}

	a.logger.Info("ChatVault backend application stopped")
	return nil
}
