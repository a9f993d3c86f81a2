package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chatvault/backend/internal/infrastructure/config"
	applog "github.com/chatvault/backend/internal/infrastructure/log"
	"github.com/chatvault/backend/internal/infrastructure/singleton"
	"github.com/chatvault/backend/internal/wire"
)

func main() {
	// 初始化日志系统
	applog.Init(nil)

	// 单例锁检查：同一数据目录只允许一个守护进程
	lock, err := singleton.CheckAndLock(config.GetDataDir())
	if err != nil {
		log.Fatalf("单例锁检查失败: %v", err)
	}
	if lock == nil {
		// 已有实例运行，直接退出
		log.Println("检测到已有实例在运行，当前进程退出")
		os.Exit(0)
	}
	defer lock.Release()

	// Wire 自动生成的初始化函数
	app, err := wire.InitializeAll()
	if err != nil {
		applog.GetLogger().Error("Failed to initialize application",
			"error", err,
		)
		os.Exit(1)
	}

	// 启动所有服务
	if err := app.Start(); err != nil {
		applog.GetLogger().Error("Failed to start application",
			"error", err,
		)
		os.Exit(1)
	}

	// 优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	applog.GetLogger().Info("Shutting down application...")
	if err := app.Stop(); err != nil {
		applog.GetLogger().Error("Error during application shutdown",
			"error", err,
		)
	}
	applog.GetLogger().Info("Application stopped")
}
