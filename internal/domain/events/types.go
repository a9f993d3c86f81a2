// Package events 定义领域事件类型和接口
// 用于系统内部的事件驱动通信
package events

import "time"

// EventType 事件类型标识
type EventType string

// 转写记录相关事件类型
const (
	// TranscriptCountChanged 轮次数量变更事件
	TranscriptCountChanged EventType = "transcript.count.changed"
	// TranscriptRowsInserted 轮次插入事件
	TranscriptRowsInserted EventType = "transcript.rows.inserted"
	// TranscriptRowsReset 轮次整体重置事件
	TranscriptRowsReset EventType = "transcript.rows.reset"
	// TranscriptFieldChanged 单行字段变更事件
	TranscriptFieldChanged EventType = "transcript.field.changed"
	// TranscriptTextCommitted 正文提交事件（SetText 实际变更后触发）
	TranscriptTextCommitted EventType = "transcript.text.committed"
)

// 转写文件相关事件类型
const (
	// TranscriptFileCreated 转写文件创建事件
	TranscriptFileCreated EventType = "transcript.file.created"
	// TranscriptFileModified 转写文件修改事件
	TranscriptFileModified EventType = "transcript.file.modified"
	// TranscriptFileDeleted 转写文件删除事件
	TranscriptFileDeleted EventType = "transcript.file.deleted"
)

// Event 领域事件接口
// 所有事件类型都必须实现此接口
type Event interface {
	// Type 返回事件类型
	Type() EventType
	// Timestamp 返回事件发生时间
	Timestamp() time.Time
}
