package watcher

import (
	"errors"
	"testing"
	"time"

	"github.com/chatvault/backend/internal/domain/events"
	"github.com/stretchr/testify/assert"
)

func fileEvent(eventType events.EventType, id string) *events.TranscriptFileEvent {
	return &events.TranscriptFileEvent{
		EventType:    eventType,
		TranscriptID: id,
		EventTime:    time.Now(),
	}
}

func TestEventBus_Subscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	received := 0

	unsub := bus.Subscribe(events.TranscriptFileCreated, events.HandlerFunc(func(event events.Event) error {
		received++
		return nil
	}))
	defer unsub()

	// 发布是同步的，返回即分发完毕
	bus.Publish(fileEvent(events.TranscriptFileCreated, "test-transcript"))

	assert.Equal(t, 1, received, "handler should have received the event")
}

func TestEventBus_MultipleHandlers(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	count := 0

	// 注册多个处理器
	for i := 0; i < 3; i++ {
		unsub := bus.Subscribe(events.TranscriptFileModified, events.HandlerFunc(func(event events.Event) error {
			count++
			return nil
		}))
		defer unsub()
	}

	bus.Publish(fileEvent(events.TranscriptFileModified, "test-transcript"))

	assert.Equal(t, 3, count, "all 3 handlers should have received the event")
}

func TestEventBus_SubscribeMultiple(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	count := 0

	// 订阅多个事件类型
	unsub := bus.SubscribeMultiple(
		[]events.EventType{events.TranscriptFileCreated, events.TranscriptFileModified},
		events.HandlerFunc(func(event events.Event) error {
			count++
			return nil
		}),
	)
	defer unsub()

	bus.Publish(fileEvent(events.TranscriptFileCreated, "a"))
	bus.Publish(fileEvent(events.TranscriptFileModified, "a"))
	bus.Publish(fileEvent(events.TranscriptFileDeleted, "a"))

	assert.Equal(t, 2, count, "only subscribed types should be delivered")
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	count := 0

	unsub := bus.Subscribe(events.TranscriptFileCreated, events.HandlerFunc(func(event events.Event) error {
		count++
		return nil
	}))

	bus.Publish(fileEvent(events.TranscriptFileCreated, "a"))

	// 取消订阅后不再收到事件
	unsub()
	bus.Publish(fileEvent(events.TranscriptFileCreated, "b"))

	assert.Equal(t, 1, count)
}

func TestEventBus_HandlerError(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	secondCalled := false

	unsub1 := bus.Subscribe(events.TranscriptFileCreated, events.HandlerFunc(func(event events.Event) error {
		return errors.New("handler failed")
	}))
	defer unsub1()

	unsub2 := bus.Subscribe(events.TranscriptFileCreated, events.HandlerFunc(func(event events.Event) error {
		secondCalled = true
		return nil
	}))
	defer unsub2()

	// 单个处理器出错不影响其他处理器
	bus.Publish(fileEvent(events.TranscriptFileCreated, "a"))

	assert.True(t, secondCalled, "remaining handlers should still run")
}

func TestEventBus_HandlerPanic(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	unsub := bus.Subscribe(events.TranscriptFileCreated, events.HandlerFunc(func(event events.Event) error {
		panic("handler panic")
	}))
	defer unsub()

	// panic 被总线捕获，不会传播到发布方
	assert.NotPanics(t, func() {
		bus.Publish(fileEvent(events.TranscriptFileCreated, "a"))
	})
}

func TestEventBus_PublishAfterClose(t *testing.T) {
	bus := NewEventBus()

	count := 0
	bus.Subscribe(events.TranscriptFileCreated, events.HandlerFunc(func(event events.Event) error {
		count++
		return nil
	}))

	bus.Close()
	bus.Publish(fileEvent(events.TranscriptFileCreated, "a"))

	assert.Equal(t, 0, count, "closed bus should drop events")
}

func TestEventBus_ResubscribeFromHandler(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	lateCalled := false

	unsub := bus.Subscribe(events.TranscriptFileCreated, events.HandlerFunc(func(event events.Event) error {
		// 分发期间不持锁，处理器内可以安全订阅
		bus.Subscribe(events.TranscriptFileModified, events.HandlerFunc(func(event events.Event) error {
			lateCalled = true
			return nil
		}))
		return nil
	}))
	defer unsub()

	bus.Publish(fileEvent(events.TranscriptFileCreated, "a"))
	bus.Publish(fileEvent(events.TranscriptFileModified, "a"))

	assert.True(t, lateCalled)
}
