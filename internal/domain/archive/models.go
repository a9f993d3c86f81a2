// Package archive 归档领域模型
// 一份归档是某个时刻整个转写的序列化快照
package archive

import "time"

// ArchivedTranscript 归档的转写
type ArchivedTranscript struct {
	// ID 归档标识（UUID）
	ID string
	// Title 归档标题
	Title string
	// FormatVersion 序列化时使用的格式版本
	FormatVersion int
	// TurnCount 轮次数量（不含系统轮）
	TurnCount int
	// Payload 序列化后的转写内容
	Payload []byte
	// CreatedAt 创建时间
	CreatedAt time.Time
	// UpdatedAt 最后更新时间
	UpdatedAt time.Time
}

// ListItem 归档列表项（不含 Payload）
type ListItem struct {
	ID            string
	Title         string
	FormatVersion int
	TurnCount     int
	PayloadSize   int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
