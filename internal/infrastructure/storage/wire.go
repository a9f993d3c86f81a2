package storage

import "github.com/google/wire"

// ProviderSet Storage 基础设施层 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideDB,               // 提供数据库连接
	NewTranscriptRepository, // 转写归档仓储
)
