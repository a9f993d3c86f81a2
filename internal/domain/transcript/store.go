package transcript

import (
	"errors"
	"sync"
	"time"

	"github.com/chatvault/backend/internal/domain/events"
)

// ErrCitationAdjacency UpdateCitations 的前置条件不满足：
// 存储中必须至少有两个轮次，且倒数第二个为 Prompt、最后一个为 Response
var ErrCitationAdjacency = errors.New("transcript: citation update requires trailing (prompt, response) pair")

// TranscriptStore 线程安全的有序转写存储
//
// 单把粗粒度互斥锁保护整个轮次序列。所有读取都返回深拷贝，
// 展示层与流式生产者可以在不同线程安全并发访问。
// 所有事件都在释放锁之后发布，处理器可以安全地回调存储。
type TranscriptStore struct {
	mu    sync.Mutex
	turns []Turn
	bus   events.EventBus
}

// NewTranscriptStore 创建转写存储
// bus 可以为 nil，此时不发布任何事件
func NewTranscriptStore(bus events.EventBus) *TranscriptStore {
	return &TranscriptStore{
		bus: bus,
	}
}

// Count 返回轮次总数
func (s *TranscriptStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Get 返回指定行的轮次深拷贝
// 越界返回零值轮次（Kind 为 TurnKindUnknown），调用方视其为"未找到"。
// 静默容忍越界是刻意的：观察者持有的行号可能在并发变更后过期。
func (s *TranscriptStore) Get(index int) Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.turns) {
		return Turn{}
	}
	return s.turns[index].Clone()
}

// Append 在末尾追加轮次
// 总是发布 RowsInserted 和 CountChanged 事件
func (s *TranscriptStore) Append(turn Turn) {
	s.mu.Lock()
	index := len(s.turns)
	s.turns = append(s.turns, turn)
	count := len(s.turns)
	s.mu.Unlock()

	s.publish(&events.RowsInsertedEvent{First: index, Last: index, EventTime: time.Now()})
	s.publish(&events.CountChangedEvent{Count: count, EventTime: time.Now()})
}

// AppendRow 追加一个反序列化得到的轮次
// 仅发布 RowsInserted；批量加载结束后由 LoadComplete 统一发布一次
// CountChanged，避免加载 n 个轮次触发 n 次界面刷新
func (s *TranscriptStore) AppendRow(turn Turn) {
	s.mu.Lock()
	index := len(s.turns)
	s.turns = append(s.turns, turn)
	s.mu.Unlock()

	s.publish(&events.RowsInsertedEvent{First: index, Last: index, EventTime: time.Now()})
}

// LoadComplete 批量加载结束，补发一次 CountChanged
func (s *TranscriptStore) LoadComplete() {
	s.mu.Lock()
	count := len(s.turns)
	s.mu.Unlock()

	s.publish(&events.CountChangedEvent{Count: count, EventTime: time.Now()})
}

// Clear 清空所有轮次
// 已空时是空操作且不发布事件；否则发布一次 RowsReset 和 CountChanged
func (s *TranscriptStore) Clear() {
	s.mu.Lock()
	if len(s.turns) == 0 {
		s.mu.Unlock()
		return
	}
	s.turns = nil
	s.mu.Unlock()

	s.publish(&events.RowsResetEvent{EventTime: time.Now()})
	s.publish(&events.CountChangedEvent{Count: 0, EventTime: time.Now()})
}

// SetText 更新正文
// 实际变更时额外发布 TextCommitted 事件，携带提交后的文本
func (s *TranscriptStore) SetText(index int, text string) {
	changed := s.setLocked(index, func(t *Turn) bool {
		if t.Text == text {
			return false
		}
		t.Text = text
		return true
	})
	if changed {
		s.publish(&events.FieldChangedEvent{Index: index, Fields: []events.Field{events.FieldText}, EventTime: time.Now()})
		s.publish(&events.TextCommittedEvent{Index: index, Text: text, EventTime: time.Now()})
	}
}

// SetStreamingDelta 更新流式增量片段
func (s *TranscriptStore) SetStreamingDelta(index int, delta string) {
	changed := s.setLocked(index, func(t *Turn) bool {
		if t.StreamingDelta == delta {
			return false
		}
		t.StreamingDelta = delta
		return true
	})
	if changed {
		s.publishFieldChanged(index, events.FieldStreamingDelta)
	}
}

// SetActiveResponse 更新"当前响应"标记
func (s *TranscriptStore) SetActiveResponse(index int, active bool) {
	changed := s.setLocked(index, func(t *Turn) bool {
		if t.IsActiveResponse == active {
			return false
		}
		t.IsActiveResponse = active
		return true
	})
	if changed {
		s.publishFieldChanged(index, events.FieldActiveResponse)
	}
}

// SetStopped 更新中止标记
func (s *TranscriptStore) SetStopped(index int, stopped bool) {
	changed := s.setLocked(index, func(t *Turn) bool {
		if t.IsStopped == stopped {
			return false
		}
		t.IsStopped = stopped
		return true
	})
	if changed {
		s.publishFieldChanged(index, events.FieldStopped)
	}
}

// SetThumbsUp 更新点赞标记
func (s *TranscriptStore) SetThumbsUp(index int, up bool) {
	changed := s.setLocked(index, func(t *Turn) bool {
		if t.ThumbsUp == up {
			return false
		}
		t.ThumbsUp = up
		return true
	})
	if changed {
		s.publishFieldChanged(index, events.FieldThumbsUp)
	}
}

// SetThumbsDown 更新点踩标记
func (s *TranscriptStore) SetThumbsDown(index int, down bool) {
	changed := s.setLocked(index, func(t *Turn) bool {
		if t.ThumbsDown == down {
			return false
		}
		t.ThumbsDown = down
		return true
	})
	if changed {
		s.publishFieldChanged(index, events.FieldThumbsDown)
	}
}

// UpdateCitations 成对更新末尾 (Prompt, Response) 的引用记录
//
// 前置条件：至少两个轮次，倒数第二个为 Prompt、最后一个为 Response。
// 这是调用方必须保证的编程约定，违反时返回 ErrCitationAdjacency
// 且不修改任何轮次。成功时把 records 及其归并结果同时赋给两个轮次，
// 并以最后一行的行号发布两个引用字段的变更事件。
func (s *TranscriptStore) UpdateCitations(records []CitationRecord) error {
	s.mu.Lock()
	n := len(s.turns)
	if n < 2 ||
		s.turns[n-1].Kind() != TurnKindResponse ||
		s.turns[n-2].Kind() != TurnKindPrompt {
		s.mu.Unlock()
		return ErrCitationAdjacency
	}

	consolidated := ConsolidateCitations(records)
	s.turns[n-1].Citations = cloneCitations(records)
	s.turns[n-1].ConsolidatedCitations = consolidated
	s.turns[n-2].Citations = cloneCitations(records)
	s.turns[n-2].ConsolidatedCitations = cloneCitations(consolidated)
	index := n - 1
	s.mu.Unlock()

	s.publishFieldChanged(index, events.FieldCitations)
	s.publishFieldChanged(index, events.FieldConsolidatedCitations)
	return nil
}

// View 在持锁状态下对完整轮次序列执行 fn
//
// 用于导出/序列化等需要一次性看到一致序列的批量读取路径。
// fn 执行期间所有其他访问都会被阻塞，fn 不得长时间运行、
// 不得保留对切片的引用、不得回调存储自身。
func (s *TranscriptStore) View(fn func(turns []Turn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.turns)
}

// setLocked 在持锁状态下对指定行执行变更
// 越界时静默忽略；返回值表示字段是否实际变更
func (s *TranscriptStore) setLocked(index int, mutate func(*Turn) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.turns) {
		return false
	}
	return mutate(&s.turns[index])
}

// publishFieldChanged 发布单字段变更事件
func (s *TranscriptStore) publishFieldChanged(index int, field events.Field) {
	s.publish(&events.FieldChangedEvent{
		Index:     index,
		Fields:    []events.Field{field},
		EventTime: time.Now(),
	})
}

// publish 发布事件（bus 为 nil 时忽略）
func (s *TranscriptStore) publish(event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event)
}
