//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/chatvault/backend/internal/application"
	domainTranscript "github.com/chatvault/backend/internal/domain/transcript"
	"github.com/chatvault/backend/internal/infrastructure"
	"github.com/google/wire"
)

// InitializeAll 初始化所有服务
func InitializeAll() (*App, error) {
	wire.Build(
		// 按层组合 ProviderSet
		infrastructure.ProviderSet,   // 基础设施层
		domainTranscript.ProviderSet, // 领域层
		application.ProviderSet,      // 应用层
		NewApp,                       // 组合所有服务的应用结构
	)
	return nil, nil
}
