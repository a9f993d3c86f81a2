// Package codec 实现转写序列的版本化二进制编解码
//
// 格式至少经历了十次不兼容的修订。编码只产出当前版本
//（或显式指定的历史版本），解码必须能读取从最早版本到
// 当前版本的所有修订。
package codec

import (
	"errors"
	"fmt"
	"io"

	"github.com/chatvault/backend/internal/domain/transcript"
)

const (
	// CurrentVersion 当前写出的格式版本
	CurrentVersion = 10
	// MinVersion 最早支持读取的格式版本
	MinVersion = 1
)

var (
	// ErrUnsupportedVersion 版本号不在支持范围内
	ErrUnsupportedVersion = errors.New("codec: unsupported format version")
	// ErrEmptyCitationFile 引用记录的 File 为空，违反写出时不变量
	ErrEmptyCitationFile = errors.New("codec: citation record has empty file")
	// ErrEmptyAttachmentLocator 附件定位符为空，违反写出时不变量
	ErrEmptyAttachmentLocator = errors.New("codec: attachment has empty source locator")
)

// TurnSink 解码输出目标
// 由转写存储实现：AppendRow 逐轮追加（仅行插入通知），
// LoadComplete 在整个序列加载结束后统一发布一次数量变更通知
type TurnSink interface {
	AppendRow(turn transcript.Turn)
	LoadComplete()
}

// Encode 将轮次序列以指定版本写入 w
//
// System 轮次是瞬态的，不参与持久化。返回值反映底层流的最终状态；
// 写入中途失败时 w 可能已收到部分数据。
func Encode(w io.Writer, turns []transcript.Turn, version int) error {
	if version < MinVersion || version > CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	persisted := make([]transcript.Turn, 0, len(turns))
	for i := range turns {
		if turns[i].Kind() == transcript.TurnKindSystem {
			continue
		}
		persisted = append(persisted, turns[i])
	}

	sw := &writer{w: w}
	sw.writeInt32(len(persisted))
	for i := range persisted {
		if err := encodeTurn(sw, &persisted[i], version); err != nil {
			return err
		}
	}
	return sw.err
}

// encodeTurn 写出单个轮次，字段顺序固定
func encodeTurn(sw *writer, t *transcript.Turn, version int) error {
	// 历史遗留的整型标识字段，从未承载过语义，为保持旧文件
	// 字节布局恒定写 0
	sw.writeInt32(0)
	sw.writeString(t.KindLabel())
	sw.writeString(t.Text)
	if version < 10 {
		// 已废弃的 prompt 字段；按旧布局写出空串占位，
		// 否则旧版本文件无法按原字节顺序读回
		sw.writeString("")
	}
	sw.writeString(t.StreamingDelta)
	sw.writeBool(t.IsActiveResponse)
	sw.writeBool(t.IsStopped)
	sw.writeBool(t.ThumbsUp)
	sw.writeBool(t.ThumbsDown)

	switch {
	case version >= 8:
		if err := encodeCitations(sw, t.Citations); err != nil {
			return err
		}
	case version >= 3:
		refs, contexts := encodeLegacyReferences(t.Citations)
		sw.writeString(refs)
		sw.writeStringList(contexts)
	}

	if version >= 10 {
		sw.writeInt32(len(t.Attachments))
		for i := range t.Attachments {
			a := &t.Attachments[i]
			if a.SourceLocator == "" {
				return ErrEmptyAttachmentLocator
			}
			sw.writeString(a.SourceLocator)
			sw.writeBytes(a.RawContent)
		}
	}
	return sw.err
}

// encodeCitations 写出完整引用记录（版本 8 起的布局）
func encodeCitations(sw *writer, records []transcript.CitationRecord) error {
	sw.writeInt32(len(records))
	for i := range records {
		r := &records[i]
		if r.File == "" {
			return ErrEmptyCitationFile
		}
		sw.writeString(r.Collection)
		sw.writeString(r.Path)
		sw.writeString(r.File)
		sw.writeString(r.Title)
		sw.writeString(r.Author)
		sw.writeString(r.Date)
		sw.writeString(r.Text)
		sw.writeInt32(r.Page)
		sw.writeInt32(r.From)
		sw.writeInt32(r.To)
	}
	return sw.err
}

// sectionReader 按版本读取轮次中的一段字段
type sectionReader func(sr *reader, version int, t *transcript.Turn) error

// sectionsFor 返回指定版本的解码段表
// 新增版本只需在这里增加或替换段，不影响既有版本的路径
func sectionsFor(version int) []sectionReader {
	sections := []sectionReader{readHeaderSection}
	if version < 10 {
		sections = append(sections, readLegacyPromptSection)
	}
	sections = append(sections, readFlagsSection)
	switch {
	case version >= 8:
		sections = append(sections, readCitationSection)
	case version >= 3:
		sections = append(sections, readLegacyReferenceSection)
	}
	if version >= 10 {
		sections = append(sections, readAttachmentSection)
	}
	return sections
}

// Decode 从 r 读取指定版本的轮次序列并逐轮追加到 sink
//
// 每解出一轮立即经正常追加路径进入 sink；整个序列读完后
// 调用一次 LoadComplete。解码失败不回滚已追加的轮次，
// 调用方应把失败的加载视为不完整状态并自行丢弃或重置。
func Decode(r io.Reader, sink TurnSink, version int) error {
	if version < MinVersion || version > CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	defer sink.LoadComplete()

	sr := &reader{r: r}
	count := sr.readInt32()
	if sr.err != nil {
		return fmt.Errorf("failed to read turn count: %w", sr.err)
	}
	if count < 0 {
		return fmt.Errorf("codec: negative turn count %d", count)
	}

	sections := sectionsFor(version)
	for i := 0; i < count; i++ {
		var t transcript.Turn
		for _, section := range sections {
			if err := section(sr, version, &t); err != nil {
				return fmt.Errorf("turn %d: %w", i, err)
			}
		}
		sink.AppendRow(t)
	}
	return nil
}

// readHeaderSection 读取标识、类别标签和正文
func readHeaderSection(sr *reader, _ int, t *transcript.Turn) error {
	// 历史遗留标识字段，读出后丢弃
	sr.readInt32()
	label := sr.readString()
	text := sr.readString()
	if sr.err != nil {
		return sr.err
	}

	turn, err := transcript.NewTurnFromLabel(label)
	if err != nil {
		return fmt.Errorf("%w: %q", err, label)
	}
	turn.Text = text
	*t = turn
	return nil
}

// readLegacyPromptSection 读取并丢弃已废弃的 prompt 字段（版本 < 10）
func readLegacyPromptSection(sr *reader, _ int, _ *transcript.Turn) error {
	sr.readString()
	return sr.err
}

// readFlagsSection 读取增量片段和四个布尔标记
func readFlagsSection(sr *reader, _ int, t *transcript.Turn) error {
	t.StreamingDelta = sr.readString()
	t.IsActiveResponse = sr.readBool()
	t.IsStopped = sr.readBool()
	t.ThumbsUp = sr.readBool()
	t.ThumbsDown = sr.readBool()
	return sr.err
}

// readCitationSection 读取完整引用记录（版本 8 起）
// 归并结果不冗余存储，读取时重新计算
func readCitationSection(sr *reader, _ int, t *transcript.Turn) error {
	count := sr.readInt32()
	if sr.err != nil {
		return sr.err
	}
	if count < 0 {
		return fmt.Errorf("codec: negative citation count %d", count)
	}

	records := make([]transcript.CitationRecord, 0, count)
	for i := 0; i < count; i++ {
		r := transcript.CitationRecord{}
		r.Collection = sr.readString()
		r.Path = sr.readString()
		r.File = sr.readString()
		r.Title = sr.readString()
		r.Author = sr.readString()
		r.Date = sr.readString()
		r.Text = sr.readString()
		r.Page = sr.readInt32()
		r.From = sr.readInt32()
		r.To = sr.readInt32()
		if sr.err != nil {
			return sr.err
		}
		records = append(records, r)
	}

	t.Citations = records
	t.ConsolidatedCitations = transcript.ConsolidateCitations(records)
	return nil
}

// readLegacyReferenceSection 读取文本形式的引用数据（3 ≤ 版本 < 8）
func readLegacyReferenceSection(sr *reader, _ int, t *transcript.Turn) error {
	refs := sr.readString()
	contexts := sr.readStringList()
	if sr.err != nil {
		return sr.err
	}
	if refs == "" {
		return nil
	}

	records, err := parseLegacyReferences(refs, contexts)
	if err != nil {
		return err
	}
	t.Citations = records
	t.ConsolidatedCitations = transcript.ConsolidateCitations(records)
	return nil
}

// readAttachmentSection 读取附件列表（版本 10 起）
func readAttachmentSection(sr *reader, _ int, t *transcript.Turn) error {
	count := sr.readInt32()
	if sr.err != nil {
		return sr.err
	}
	if count < 0 {
		return fmt.Errorf("codec: negative attachment count %d", count)
	}

	attachments := make([]transcript.PromptAttachment, 0, count)
	for i := 0; i < count; i++ {
		a := transcript.PromptAttachment{}
		a.SourceLocator = sr.readString()
		a.RawContent = sr.readBytes()
		if sr.err != nil {
			return sr.err
		}
		attachments = append(attachments, a)
	}
	t.Attachments = attachments
	return nil
}
