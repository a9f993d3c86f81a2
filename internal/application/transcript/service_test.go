package transcript

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chatvault/backend/internal/domain/events"
	domain "github.com/chatvault/backend/internal/domain/transcript"
	"github.com/chatvault/backend/internal/infrastructure/codec"
	"github.com/chatvault/backend/internal/infrastructure/config"
	"github.com/chatvault/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// newTestService 创建带临时数据库的服务
func newTestService(t *testing.T) *Service {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := storage.NewTranscriptRepository(db)
	require.NoError(t, repo.InitTables())

	store := domain.NewTranscriptStore(nil)
	svc, err := NewService(store, repo, &config.CodecConfig{})
	require.NoError(t, err)

	return svc
}

// seedStore 填充一问一答
func seedStore(t *testing.T, store *domain.TranscriptStore) {
	t.Helper()
	store.Append(domain.NewPromptTurn("什么是洋流？", nil))
	response := domain.NewResponseTurn(false)
	response.Text = "洋流是海水的大规模定向流动。"
	response.ThumbsUp = true
	store.Append(response)
}

func TestService_SaveLoadFile(t *testing.T) {
	svc := newTestService(t)
	seedStore(t, svc.Store())

	path := filepath.Join(t.TempDir(), "session.chat")
	require.NoError(t, svc.SaveFile(path))

	// 文件头应为魔数 + 版本
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("CVLT"), data[:4])

	// 载入到新服务
	loaded := newTestService(t)
	require.NoError(t, loaded.LoadFile(path))

	require.Equal(t, 2, loaded.Store().Count())
	assert.Equal(t, "什么是洋流？", loaded.Store().Get(0).Text)
	assert.True(t, loaded.Store().Get(1).ThumbsUp)
}

func TestService_SaveFile_ConfiguredVersion(t *testing.T) {
	svc := newTestService(t)
	svc.codecCfg.FormatVersion = 5
	seedStore(t, svc.Store())

	path := filepath.Join(t.TempDir(), "legacy.chat")
	require.NoError(t, svc.SaveFile(path))

	// 旧版本文件也能凭文件头载入
	loaded := newTestService(t)
	require.NoError(t, loaded.LoadFile(path))
	assert.Equal(t, 2, loaded.Store().Count())
}

func TestService_LoadFile_BadMagic(t *testing.T) {
	svc := newTestService(t)

	path := filepath.Join(t.TempDir(), "garbage.chat")
	require.NoError(t, os.WriteFile(path, []byte("NOPE\x00\x00\x00\x0a"), 0644))

	err := svc.LoadFile(path)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestService_ArchiveRestore(t *testing.T) {
	svc := newTestService(t)
	seedStore(t, svc.Store())

	id, err := svc.Archive("洋流问答")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// 清空后恢复
	svc.Store().Clear()
	require.Equal(t, 0, svc.Store().Count())

	require.NoError(t, svc.Restore(id))
	require.Equal(t, 2, svc.Store().Count())
	assert.Equal(t, "洋流是海水的大规模定向流动。", svc.Store().Get(1).Text)
}

func TestService_Restore_NotFound(t *testing.T) {
	svc := newTestService(t)

	err := svc.Restore("no-such-archive")
	assert.ErrorIs(t, err, ErrArchiveNotFound)
}

func TestService_ListAndDeleteArchives(t *testing.T) {
	svc := newTestService(t)
	seedStore(t, svc.Store())

	id1, err := svc.Archive("第一份")
	require.NoError(t, err)
	_, err = svc.Archive("第二份")
	require.NoError(t, err)

	items, err := svc.ListArchives()
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NoError(t, svc.DeleteArchive(id1))

	items, err = svc.ListArchives()
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestService_TokenStats(t *testing.T) {
	svc := newTestService(t)
	seedStore(t, svc.Store())

	stats, err := svc.TokenStats()
	require.NoError(t, err)

	require.Len(t, stats.PerTurn, 2)
	var sum int
	for _, c := range stats.PerTurn {
		assert.Greater(t, c, 0)
		sum += c
	}
	assert.Equal(t, sum, stats.Total)
}

func TestService_ExportImport_RoundTrip(t *testing.T) {
	svc := newTestService(t)
	seedStore(t, svc.Store())

	var buf bytes.Buffer
	require.NoError(t, svc.ExportTo(&buf, codec.CurrentVersion))

	other := newTestService(t)
	require.NoError(t, other.ImportFrom(bytes.NewReader(buf.Bytes()), codec.CurrentVersion))
	assert.Equal(t, 2, other.Store().Count())
}

func TestService_HandleTranscriptFileEvent(t *testing.T) {
	// 先用一个服务生成收件文件
	producer := newTestService(t)
	seedStore(t, producer.Store())

	intakeDir := t.TempDir()
	path := filepath.Join(intakeDir, "imported-session.chat")
	require.NoError(t, producer.SaveFile(path))

	// 消费端处理文件事件
	svc := newTestService(t)
	err := svc.HandleTranscriptFileEvent(&events.TranscriptFileEvent{
		EventType:    events.TranscriptFileCreated,
		TranscriptID: "imported-session",
		FilePath:     path,
		EventTime:    time.Now(),
	})
	require.NoError(t, err)

	// 收件文件应被归档，标题为转写标识
	items, err := svc.ListArchives()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "imported-session", items[0].Title)
	assert.Equal(t, 2, items[0].TurnCount)

	// 主存储不受影响
	assert.Equal(t, 0, svc.Store().Count())
}

func TestService_HandleTranscriptFileEvent_IgnoresDelete(t *testing.T) {
	svc := newTestService(t)

	err := svc.HandleTranscriptFileEvent(&events.TranscriptFileEvent{
		EventType:    events.TranscriptFileDeleted,
		TranscriptID: "gone",
		FilePath:     "/nonexistent/gone.chat",
		EventTime:    time.Now(),
	})
	require.NoError(t, err)

	items, err := svc.ListArchives()
	require.NoError(t, err)
	assert.Empty(t, items)
}
