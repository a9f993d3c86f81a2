// Package transcript 定义会话转写的核心领域模型
// 一次会话由有序的轮次（System/Prompt/Response）组成
package transcript

import (
	"errors"
	"strings"
)

// TurnKind 轮次类别
type TurnKind int

const (
	// TurnKindUnknown 未知类别（零值轮次，表示"未找到"）
	TurnKindUnknown TurnKind = iota
	// TurnKindSystem 系统轮次（仅存在于内存，不参与持久化）
	TurnKindSystem
	// TurnKindPrompt 用户提问轮次
	TurnKindPrompt
	// TurnKindResponse 模型响应轮次
	TurnKindResponse
)

// 轮次类别标签
// 标签同时是持久化格式中的类别字段，修改会破坏旧文件的兼容性
const (
	LabelSystem   = "System: "
	LabelPrompt   = "Prompt: "
	LabelResponse = "Response: "
)

// ErrUnknownKindLabel 反序列化遇到无法识别的类别标签
var ErrUnknownKindLabel = errors.New("transcript: unknown turn kind label")

// Turn 转写中的一个轮次
// label 在构造时确定且不可变，轮次不能在类别之间迁移
type Turn struct {
	label string

	// Text 正文内容
	Text string
	// StreamingDelta 生成过程中最近一次的增量文本片段
	StreamingDelta string
	// Attachments 提问附件（仅 Prompt 轮次填充）
	Attachments []PromptAttachment
	// Citations 引用记录，与 ConsolidatedCitations 成对更新
	Citations []CitationRecord
	// ConsolidatedCitations 按文件归并后的引用记录
	ConsolidatedCitations []CitationRecord

	// IsActiveResponse 是否为当前正在生成的响应
	IsActiveResponse bool
	// IsStopped 是否被用户中止
	IsStopped bool
	// ThumbsUp 点赞标记
	ThumbsUp bool
	// ThumbsDown 点踩标记
	ThumbsDown bool
}

// NewSystemTurn 创建系统轮次
// 系统轮次不会被存储进转写存储，也不参与序列化
func NewSystemTurn(text string) Turn {
	return Turn{label: LabelSystem, Text: text}
}

// NewPromptTurn 创建提问轮次
func NewPromptTurn(text string, attachments []PromptAttachment) Turn {
	return Turn{label: LabelPrompt, Text: text, Attachments: attachments}
}

// NewResponseTurn 创建响应轮次
func NewResponseTurn(active bool) Turn {
	return Turn{label: LabelResponse, IsActiveResponse: active}
}

// NewTurnFromLabel 根据类别标签重建轮次
// 反序列化路径使用；无法识别的标签返回 ErrUnknownKindLabel
func NewTurnFromLabel(label string) (Turn, error) {
	switch label {
	case LabelSystem, LabelPrompt, LabelResponse:
		return Turn{label: label}, nil
	}
	return Turn{}, ErrUnknownKindLabel
}

// KindLabel 返回类别标签
func (t Turn) KindLabel() string {
	return t.label
}

// Kind 返回轮次类别
// 零值轮次返回 TurnKindUnknown，调用方应将其视为"未找到"
func (t Turn) Kind() TurnKind {
	switch t.label {
	case LabelSystem:
		return TurnKindSystem
	case LabelPrompt:
		return TurnKindPrompt
	case LabelResponse:
		return TurnKindResponse
	}
	return TurnKindUnknown
}

// Clone 返回轮次的深拷贝
// 存储对外只交出拷贝，保证多线程读取时不会出现撕裂
func (t Turn) Clone() Turn {
	c := t
	if t.Attachments != nil {
		c.Attachments = make([]PromptAttachment, len(t.Attachments))
		for i, a := range t.Attachments {
			c.Attachments[i] = a.Clone()
		}
	}
	c.Citations = cloneCitations(t.Citations)
	c.ConsolidatedCitations = cloneCitations(t.ConsolidatedCitations)
	return c
}

// PromptPlusAttachments 返回附件渲染结果与正文的拼接文本
// 没有附件时直接返回正文
func (t Turn) PromptPlusAttachments(renderer SpreadsheetRenderer) (string, error) {
	if len(t.Attachments) == 0 {
		return t.Text, nil
	}

	parts := make([]string, 0, len(t.Attachments)+1)
	for i := range t.Attachments {
		rendered, err := t.Attachments[i].RenderedText(renderer)
		if err != nil {
			return "", err
		}
		parts = append(parts, rendered)
	}
	parts = append(parts, t.Text)
	return strings.Join(parts, "\n\n"), nil
}
