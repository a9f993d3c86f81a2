package events

import "time"

// TranscriptFileEvent 转写文件变更事件
// 当收件目录下的 *.chat 文件发生变更时触发
type TranscriptFileEvent struct {
	// EventType 事件类型（created/modified/deleted）
	EventType EventType
	// TranscriptID 转写标识（文件名去掉 .chat 后缀）
	TranscriptID string
	// FilePath 文件完整路径
	FilePath string
	// ModTime 文件最后修改时间
	ModTime time.Time
	// FileSize 文件大小（字节）
	FileSize int64
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *TranscriptFileEvent) Type() EventType {
	return e.EventType
}

// Timestamp 实现 Event 接口
func (e *TranscriptFileEvent) Timestamp() time.Time {
	return e.EventTime
}
