package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chatvault/backend/internal/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectFileEvents 订阅所有转写文件事件并收集
func collectFileEvents(bus events.EventBus) (func() []*events.TranscriptFileEvent, func()) {
	var mu sync.Mutex
	var collected []*events.TranscriptFileEvent

	unsub := bus.SubscribeMultiple(
		[]events.EventType{
			events.TranscriptFileCreated,
			events.TranscriptFileModified,
			events.TranscriptFileDeleted,
		},
		events.HandlerFunc(func(event events.Event) error {
			fe, ok := event.(*events.TranscriptFileEvent)
			if !ok {
				return nil
			}
			mu.Lock()
			collected = append(collected, fe)
			mu.Unlock()
			return nil
		}),
	)

	snapshot := func() []*events.TranscriptFileEvent {
		mu.Lock()
		defer mu.Unlock()
		return append([]*events.TranscriptFileEvent(nil), collected...)
	}
	return snapshot, unsub
}

func TestFileWatcher_StartupScan(t *testing.T) {
	intakeDir := t.TempDir()

	// 预先放置两个转写文件和一个无关文件
	require.NoError(t, os.WriteFile(filepath.Join(intakeDir, "alpha.chat"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(intakeDir, "beta.chat"), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(intakeDir, "notes.txt"), []byte("x"), 0644))

	bus := NewEventBus()
	defer bus.Close()

	snapshot, unsub := collectFileEvents(bus)
	defer unsub()

	fw, err := NewFileWatcher(DefaultWatchConfig(intakeDir), bus)
	require.NoError(t, err)

	require.NoError(t, fw.Start())
	defer fw.Stop()

	got := snapshot()
	require.Len(t, got, 2, "only .chat files should be reported")

	ids := []string{got[0].TranscriptID, got[1].TranscriptID}
	assert.ElementsMatch(t, []string{"alpha", "beta"}, ids)
	for _, e := range got {
		assert.Equal(t, events.TranscriptFileCreated, e.EventType)
		assert.NotZero(t, e.FileSize)
	}
}

func TestFileWatcher_DetectsNewFile(t *testing.T) {
	intakeDir := t.TempDir()

	bus := NewEventBus()
	defer bus.Close()

	snapshot, unsub := collectFileEvents(bus)
	defer unsub()

	config := DefaultWatchConfig(intakeDir)
	config.DebounceDelay = 50 * time.Millisecond

	fw, err := NewFileWatcher(config, bus)
	require.NoError(t, err)

	require.NoError(t, fw.Start())
	defer fw.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(intakeDir, "gamma.chat"), []byte("g"), 0644))

	// 等待防抖窗口过去
	assert.Eventually(t, func() bool {
		for _, e := range snapshot() {
			if e.TranscriptID == "gamma" {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}

func TestFileWatcher_DebounceCollapsesWrites(t *testing.T) {
	intakeDir := t.TempDir()

	bus := NewEventBus()
	defer bus.Close()

	snapshot, unsub := collectFileEvents(bus)
	defer unsub()

	config := DefaultWatchConfig(intakeDir)
	config.DebounceDelay = 200 * time.Millisecond

	fw, err := NewFileWatcher(config, bus)
	require.NoError(t, err)

	require.NoError(t, fw.Start())
	defer fw.Stop()

	// 防抖窗口内的连续写入只产生一个事件
	path := filepath.Join(intakeDir, "delta.chat")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("payload"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return len(snapshot()) >= 1
	}, 2*time.Second, 20*time.Millisecond)

	// 给可能的多余事件留出时间
	time.Sleep(300 * time.Millisecond)
	assert.Len(t, snapshot(), 1)
}

func TestFileWatcher_IgnoresOtherExtensions(t *testing.T) {
	intakeDir := t.TempDir()

	bus := NewEventBus()
	defer bus.Close()

	snapshot, unsub := collectFileEvents(bus)
	defer unsub()

	config := DefaultWatchConfig(intakeDir)
	config.DebounceDelay = 50 * time.Millisecond

	fw, err := NewFileWatcher(config, bus)
	require.NoError(t, err)

	require.NoError(t, fw.Start())
	defer fw.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(intakeDir, "ignored.json"), []byte("{}"), 0644))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, snapshot())
}

func TestFileWatcher_CreatesIntakeDir(t *testing.T) {
	intakeDir := filepath.Join(t.TempDir(), "intake")

	bus := NewEventBus()
	defer bus.Close()

	fw, err := NewFileWatcher(DefaultWatchConfig(intakeDir), bus)
	require.NoError(t, err)

	require.NoError(t, fw.Start())
	fw.Stop()

	info, err := os.Stat(intakeDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
