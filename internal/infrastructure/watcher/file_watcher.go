package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chatvault/backend/internal/domain/events"
	"github.com/chatvault/backend/internal/infrastructure/log"
	"github.com/fsnotify/fsnotify"
)

// TranscriptFileExt 收件目录中转写文件的扩展名
const TranscriptFileExt = ".chat"

// WatchConfig FileWatcher 配置
type WatchConfig struct {
	// IntakeDir 收件目录，其中的 *.chat 文件会被导入归档
	IntakeDir string
	// DebounceDelay 防抖延迟
	DebounceDelay time.Duration
}

// DefaultWatchConfig 返回默认配置
func DefaultWatchConfig(intakeDir string) WatchConfig {
	return WatchConfig{
		IntakeDir:     intakeDir,
		DebounceDelay: 500 * time.Millisecond,
	}
}

// FileWatcher 收件目录监听器
// 把文件系统事件转换为 TranscriptFileEvent 发布到事件总线
type FileWatcher struct {
	config   WatchConfig
	eventBus events.EventBus
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// 防抖相关
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// 控制
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewFileWatcher 创建收件目录监听器
func NewFileWatcher(config WatchConfig, eventBus events.EventBus) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		config:         config,
		eventBus:       eventBus,
		watcher:        watcher,
		logger:         log.NewModuleLogger("watcher", "file_watcher"),
		debounceTimers: make(map[string]*time.Timer),
		stopCh:         make(chan struct{}),
	}, nil
}

// Start 启动监听
// 先对收件目录做一次启动扫描，把已存在的文件当作 Created 事件发布
func (fw *FileWatcher) Start() error {
	fw.logger.Info("Starting transcript file watcher",
		"intake_dir", fw.config.IntakeDir,
	)

	if err := os.MkdirAll(fw.config.IntakeDir, 0755); err != nil {
		return err
	}

	fw.scanIntakeDirectory()

	if err := fw.watcher.Add(fw.config.IntakeDir); err != nil {
		return err
	}

	fw.wg.Add(1)
	go fw.watchLoop()

	return nil
}

// Stop 停止监听
func (fw *FileWatcher) Stop() {
	fw.logger.Info("Stopping transcript file watcher")

	close(fw.stopCh)
	fw.watcher.Close()
	fw.wg.Wait()

	// 取消所有防抖定时器
	fw.debounceMu.Lock()
	for _, timer := range fw.debounceTimers {
		timer.Stop()
	}
	fw.debounceMu.Unlock()

	fw.logger.Info("Transcript file watcher stopped")
}

// scanIntakeDirectory 启动扫描收件目录
func (fw *FileWatcher) scanIntakeDirectory() int {
	count := 0

	entries, err := os.ReadDir(fw.config.IntakeDir)
	if err != nil {
		fw.logger.Error("Failed to read intake directory", "error", err)
		return count
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), TranscriptFileExt) {
			continue
		}

		filePath := filepath.Join(fw.config.IntakeDir, entry.Name())
		fileInfo, err := os.Stat(filePath)
		if err != nil {
			continue
		}

		fw.eventBus.Publish(&events.TranscriptFileEvent{
			EventType:    events.TranscriptFileCreated,
			TranscriptID: strings.TrimSuffix(entry.Name(), TranscriptFileExt),
			FilePath:     filePath,
			ModTime:      fileInfo.ModTime(),
			FileSize:     fileInfo.Size(),
			EventTime:    time.Now(),
		})
		count++
	}

	fw.logger.Info("Intake scan completed", "files", count)
	return count
}

// watchLoop 事件监听循环
func (fw *FileWatcher) watchLoop() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleFsEvent 处理文件系统事件（带防抖）
// 编辑器保存一个文件往往触发多个连续事件，只保留最后一个
func (fw *FileWatcher) handleFsEvent(fsEvent fsnotify.Event) {
	if !strings.HasSuffix(fsEvent.Name, TranscriptFileExt) {
		return
	}

	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if timer, exists := fw.debounceTimers[fsEvent.Name]; exists {
		timer.Stop()
	}

	fw.debounceTimers[fsEvent.Name] = time.AfterFunc(fw.config.DebounceDelay, func() {
		fw.emitFileEvent(fsEvent)

		fw.debounceMu.Lock()
		delete(fw.debounceTimers, fsEvent.Name)
		fw.debounceMu.Unlock()
	})
}

// emitFileEvent 发布转写文件事件
func (fw *FileWatcher) emitFileEvent(fsEvent fsnotify.Event) {
	var eventType events.EventType
	switch {
	case fsEvent.Has(fsnotify.Create):
		eventType = events.TranscriptFileCreated
	case fsEvent.Has(fsnotify.Write):
		eventType = events.TranscriptFileModified
	case fsEvent.Has(fsnotify.Remove), fsEvent.Has(fsnotify.Rename):
		eventType = events.TranscriptFileDeleted
	default:
		return
	}

	var modTime time.Time
	var fileSize int64
	if fileInfo, err := os.Stat(fsEvent.Name); err == nil {
		modTime = fileInfo.ModTime()
		fileSize = fileInfo.Size()
	}

	fw.eventBus.Publish(&events.TranscriptFileEvent{
		EventType:    eventType,
		TranscriptID: strings.TrimSuffix(filepath.Base(fsEvent.Name), TranscriptFileExt),
		FilePath:     fsEvent.Name,
		ModTime:      modTime,
		FileSize:     fileSize,
		EventTime:    time.Now(),
	})

	fw.logger.Debug("Transcript file event emitted",
		"type", eventType,
		"path", fsEvent.Name,
	)
}
