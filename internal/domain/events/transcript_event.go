package events

import "time"

// Field 转写轮次对外暴露的字段标识
// 仅在事件边界使用的封闭枚举，核心内部不依赖它
type Field string

const (
	// FieldKindLabel 轮次类别标签
	FieldKindLabel Field = "kind_label"
	// FieldText 正文内容
	FieldText Field = "text"
	// FieldStreamingDelta 流式增量片段
	FieldStreamingDelta Field = "streaming_delta"
	// FieldActiveResponse 是否为当前响应
	FieldActiveResponse Field = "active_response"
	// FieldStopped 是否被中止
	FieldStopped Field = "stopped"
	// FieldThumbsUp 点赞标记
	FieldThumbsUp Field = "thumbs_up"
	// FieldThumbsDown 点踩标记
	FieldThumbsDown Field = "thumbs_down"
	// FieldCitations 引用记录列表
	FieldCitations Field = "citations"
	// FieldConsolidatedCitations 归并后的引用记录列表
	FieldConsolidatedCitations Field = "consolidated_citations"
	// FieldAttachments 提问附件列表
	FieldAttachments Field = "attachments"
)

// CountChangedEvent 轮次数量变更事件
type CountChangedEvent struct {
	// Count 变更后的轮次总数
	Count int
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *CountChangedEvent) Type() EventType { return TranscriptCountChanged }

// Timestamp 实现 Event 接口
func (e *CountChangedEvent) Timestamp() time.Time { return e.EventTime }

// RowsInsertedEvent 轮次插入事件
// First 和 Last 为包含端点的行号区间
type RowsInsertedEvent struct {
	First     int
	Last      int
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *RowsInsertedEvent) Type() EventType { return TranscriptRowsInserted }

// Timestamp 实现 Event 接口
func (e *RowsInsertedEvent) Timestamp() time.Time { return e.EventTime }

// RowsResetEvent 轮次整体重置事件（clear 触发）
type RowsResetEvent struct {
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *RowsResetEvent) Type() EventType { return TranscriptRowsReset }

// Timestamp 实现 Event 接口
func (e *RowsResetEvent) Timestamp() time.Time { return e.EventTime }

// FieldChangedEvent 单行字段变更事件
// 仅在字段值确实发生变化时发布
type FieldChangedEvent struct {
	// Index 变更的行号
	Index int
	// Fields 变更的字段集合
	Fields []Field
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *FieldChangedEvent) Type() EventType { return TranscriptFieldChanged }

// Timestamp 实现 Event 接口
func (e *FieldChangedEvent) Timestamp() time.Time { return e.EventTime }

// TextCommittedEvent 正文提交事件
// 携带提交后的完整正文，供需要对已提交文本作出反应的观察者使用
type TextCommittedEvent struct {
	Index     int
	Text      string
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *TextCommittedEvent) Type() EventType { return TranscriptTextCommitted }

// Timestamp 实现 Event 接口
func (e *TextCommittedEvent) Timestamp() time.Time { return e.EventTime }
