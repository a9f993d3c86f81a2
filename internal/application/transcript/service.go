// Package transcript 转写用例编排
package transcript

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chatvault/backend/internal/domain/archive"
	"github.com/chatvault/backend/internal/domain/events"
	domain "github.com/chatvault/backend/internal/domain/transcript"
	"github.com/chatvault/backend/internal/infrastructure/codec"
	"github.com/chatvault/backend/internal/infrastructure/config"
	"github.com/chatvault/backend/internal/infrastructure/log"
	"github.com/chatvault/backend/internal/infrastructure/storage"
	"github.com/chatvault/backend/internal/infrastructure/tokens"
)

// fileMagic 转写文件头部魔数
const fileMagic = "CVLT"

var (
	// ErrBadMagic 文件头部魔数不匹配
	ErrBadMagic = errors.New("transcript: not a chatvault transcript file")
	// ErrArchiveNotFound 归档不存在
	ErrArchiveNotFound = errors.New("transcript: archive not found")
)

// TokenStats 转写的 Token 统计
type TokenStats struct {
	// PerTurn 每轮的 Token 数，顺序与存储中的轮次一致
	PerTurn []int
	// Total 所有轮次之和
	Total int
}

// Service 转写应用服务（用例编排）
// 组合存储、编解码、归档仓储和 Token 估算
type Service struct {
	store     *domain.TranscriptStore
	repo      storage.TranscriptRepository
	estimator *tokens.TiktokenEstimator
	codecCfg  *config.CodecConfig
	logger    *slog.Logger
}

// NewService 创建转写应用服务
func NewService(
	store *domain.TranscriptStore,
	repo storage.TranscriptRepository,
	codecCfg *config.CodecConfig,
) (*Service, error) {
	estimator, err := tokens.GetTiktokenEstimator()
	if err != nil {
		return nil, fmt.Errorf("初始化 Token 估算器失败: %w", err)
	}

	return &Service{
		store:     store,
		repo:      repo,
		estimator: estimator,
		codecCfg:  codecCfg,
		logger:    log.NewModuleLogger("application", "transcript_service"),
	}, nil
}

// Store 返回服务持有的转写存储
func (s *Service) Store() *domain.TranscriptStore {
	return s.store
}

// effectiveVersion 解析配置的格式版本，0 表示当前版本
func (s *Service) effectiveVersion() int {
	if s.codecCfg != nil && s.codecCfg.FormatVersion != 0 {
		return s.codecCfg.FormatVersion
	}
	return codec.CurrentVersion
}

// ExportTo 以指定版本把存储内容写入 w（不含文件头）
func (s *Service) ExportTo(w io.Writer, version int) error {
	return s.store.View(func(turns []domain.Turn) error {
		return codec.Encode(w, turns, version)
	})
}

// ImportFrom 清空存储并从 r 读入指定版本的序列（不含文件头）
func (s *Service) ImportFrom(r io.Reader, version int) error {
	s.store.Clear()
	return codec.Decode(r, s.store, version)
}

// writeEnvelope 写入文件头并编码内容
// 头部为魔数 "CVLT" + 大端 int32 格式版本，随后是编码流
func (s *Service) writeEnvelope(w io.Writer, version int) error {
	if _, err := w.Write([]byte(fileMagic)); err != nil {
		return fmt.Errorf("写入文件头失败: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, int32(version)); err != nil {
		return fmt.Errorf("写入格式版本失败: %w", err)
	}
	return s.ExportTo(w, version)
}

// readEnvelope 读取文件头并解码内容
// 版本号由文件头给出，调用方无需预先知道
func (s *Service) readEnvelope(r io.Reader) (int, error) {
	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return 0, fmt.Errorf("读取文件头失败: %w", err)
	}
	if string(magic) != fileMagic {
		return 0, ErrBadMagic
	}

	var version int32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return 0, fmt.Errorf("读取格式版本失败: %w", err)
	}

	return int(version), s.ImportFrom(r, int(version))
}

// SaveFile 把存储内容以配置的格式版本写入文件
func (s *Service) SaveFile(path string) error {
	version := s.effectiveVersion()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建转写文件失败: %w", err)
	}
	defer f.Close()

	if err := s.writeEnvelope(f, version); err != nil {
		return err
	}

	s.logger.Info("Transcript saved",
		"path", path,
		"version", version,
		"turns", s.store.Count(),
	)
	return nil
}

// LoadFile 清空存储并从文件读入转写
func (s *Service) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开转写文件失败: %w", err)
	}
	defer f.Close()

	version, err := s.readEnvelope(f)
	if err != nil {
		return err
	}

	s.logger.Info("Transcript loaded",
		"path", path,
		"version", version,
		"turns", s.store.Count(),
	)
	return nil
}

// Archive 把当前存储内容序列化后存入归档仓储，返回归档 ID
func (s *Service) Archive(title string) (string, error) {
	version := s.effectiveVersion()

	var buf bytes.Buffer
	if err := s.ExportTo(&buf, version); err != nil {
		return "", fmt.Errorf("序列化转写失败: %w", err)
	}

	item := &archive.ArchivedTranscript{
		Title:         title,
		FormatVersion: version,
		TurnCount:     s.store.Count(),
		Payload:       buf.Bytes(),
	}
	if err := s.repo.Save(item); err != nil {
		return "", fmt.Errorf("保存归档失败: %w", err)
	}

	s.logger.Info("Transcript archived",
		"id", item.ID,
		"title", title,
		"version", version,
	)
	return item.ID, nil
}

// Restore 清空存储并载入指定归档
func (s *Service) Restore(id string) error {
	item, err := s.repo.FindByID(id)
	if err != nil {
		return fmt.Errorf("查询归档失败: %w", err)
	}
	if item == nil {
		return ErrArchiveNotFound
	}

	if err := s.ImportFrom(bytes.NewReader(item.Payload), item.FormatVersion); err != nil {
		return fmt.Errorf("载入归档失败: %w", err)
	}

	s.logger.Info("Transcript restored",
		"id", id,
		"version", item.FormatVersion,
		"turns", s.store.Count(),
	)
	return nil
}

// ListArchives 查询归档列表
func (s *Service) ListArchives() ([]archive.ListItem, error) {
	return s.repo.List()
}

// DeleteArchive 删除归档
func (s *Service) DeleteArchive(id string) error {
	return s.repo.Delete(id)
}

// TokenStats 计算当前存储内容的 Token 统计
func (s *Service) TokenStats() (TokenStats, error) {
	var stats TokenStats
	err := s.store.View(func(turns []domain.Turn) error {
		stats.PerTurn, stats.Total = s.estimator.CountTurns(turns)
		return nil
	})
	return stats, err
}

// HandleTranscriptFileEvent 处理收件目录的文件事件
// 新建或修改的收件文件被读入临时存储并归档，不影响主存储
func (s *Service) HandleTranscriptFileEvent(event *events.TranscriptFileEvent) error {
	if event.EventType != events.TranscriptFileCreated &&
		event.EventType != events.TranscriptFileModified {
		return nil
	}

	if err := s.intakeFile(event.TranscriptID, event.FilePath); err != nil {
		s.logger.Error("Failed to intake transcript file",
			"path", event.FilePath,
			"error", err,
		)
		return err
	}
	return nil
}

// intakeFile 把单个收件文件读入临时存储并归档
func (s *Service) intakeFile(transcriptID, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("打开收件文件失败: %w", err)
	}
	defer f.Close()

	// 临时存储不接事件总线，导入过程对订阅方不可见
	scratch := domain.NewTranscriptStore(nil)

	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(f, magic); err != nil {
		return fmt.Errorf("读取文件头失败: %w", err)
	}
	if string(magic) != fileMagic {
		return ErrBadMagic
	}

	var version int32
	if err := binary.Read(f, binary.BigEndian, &version); err != nil {
		return fmt.Errorf("读取格式版本失败: %w", err)
	}

	if err := codec.Decode(f, scratch, int(version)); err != nil {
		return fmt.Errorf("解码收件文件失败: %w", err)
	}

	var buf bytes.Buffer
	encodeErr := scratch.View(func(turns []domain.Turn) error {
		return codec.Encode(&buf, turns, codec.CurrentVersion)
	})
	if encodeErr != nil {
		return fmt.Errorf("重编码收件文件失败: %w", encodeErr)
	}

	item := &archive.ArchivedTranscript{
		Title:         transcriptID,
		FormatVersion: codec.CurrentVersion,
		TurnCount:     scratch.Count(),
		Payload:       buf.Bytes(),
	}
	if err := s.repo.Save(item); err != nil {
		return fmt.Errorf("归档收件文件失败: %w", err)
	}

	s.logger.Info("Intake file archived",
		"transcript_id", transcriptID,
		"archive_id", item.ID,
		"turns", item.TurnCount,
	)
	return nil
}
