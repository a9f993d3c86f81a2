package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chatvault/backend/internal/domain/archive"
	"github.com/google/uuid"
)

// TranscriptRepository 转写归档仓储接口
type TranscriptRepository interface {
	// 保存归档（ID 为空时自动生成）
	Save(t *archive.ArchivedTranscript) error
	// 按 ID 查询归档
	FindByID(id string) (*archive.ArchivedTranscript, error)
	// 查询归档列表（不含 Payload）
	List() ([]archive.ListItem, error)
	// 删除归档
	Delete(id string) error
	// 初始化表结构
	InitTables() error
}

// transcriptRepository 转写归档仓储实现
type transcriptRepository struct {
	db *sql.DB
}

// NewTranscriptRepository 创建转写归档仓储实例
func NewTranscriptRepository(db *sql.DB) TranscriptRepository {
	return &transcriptRepository{
		db: db,
	}
}

// InitTables 初始化表结构
func (r *transcriptRepository) InitTables() error {
	createTable := `
		CREATE TABLE IF NOT EXISTS archived_transcripts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			format_version INTEGER NOT NULL,
			turn_count INTEGER NOT NULL,
			payload BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`

	if _, err := r.db.Exec(createTable); err != nil {
		return fmt.Errorf("failed to create archived_transcripts table: %w", err)
	}

	createIndex := `CREATE INDEX IF NOT EXISTS idx_archived_transcripts_updated ON archived_transcripts(updated_at DESC)`
	if _, err := r.db.Exec(createIndex); err != nil {
		return fmt.Errorf("failed to create index idx_archived_transcripts_updated: %w", err)
	}

	return nil
}

// Save 保存归档
// 同一 ID 再次保存会覆盖原有内容
func (r *transcriptRepository) Save(t *archive.ArchivedTranscript) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	query := `
		INSERT INTO archived_transcripts
		(id, title, format_version, turn_count, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			format_version = excluded.format_version,
			turn_count = excluded.turn_count,
			payload = excluded.payload,
			updated_at = excluded.updated_at`

	_, err := r.db.Exec(query,
		t.ID,
		t.Title,
		t.FormatVersion,
		t.TurnCount,
		t.Payload,
		t.CreatedAt.UnixMilli(),
		t.UpdatedAt.UnixMilli(),
	)

	if err != nil {
		return fmt.Errorf("failed to save archived transcript: %w", err)
	}

	return nil
}

// FindByID 按 ID 查询归档
// 未找到返回 nil, nil
func (r *transcriptRepository) FindByID(id string) (*archive.ArchivedTranscript, error) {
	query := `
		SELECT id, title, format_version, turn_count, payload, created_at, updated_at
		FROM archived_transcripts
		WHERE id = ?`

	var t archive.ArchivedTranscript
	var createdAt, updatedAt int64

	err := r.db.QueryRow(query, id).Scan(
		&t.ID,
		&t.Title,
		&t.FormatVersion,
		&t.TurnCount,
		&t.Payload,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query archived transcript: %w", err)
	}

	t.CreatedAt = time.UnixMilli(createdAt)
	t.UpdatedAt = time.UnixMilli(updatedAt)

	return &t, nil
}

// List 查询归档列表（不含 Payload）
func (r *transcriptRepository) List() ([]archive.ListItem, error) {
	query := `
		SELECT id, title, format_version, turn_count, LENGTH(payload), created_at, updated_at
		FROM archived_transcripts
		ORDER BY updated_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived transcripts: %w", err)
	}
	defer rows.Close()

	var items []archive.ListItem
	for rows.Next() {
		var item archive.ListItem
		var createdAt, updatedAt int64

		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.FormatVersion,
			&item.TurnCount,
			&item.PayloadSize,
			&createdAt,
			&updatedAt,
		); err != nil {
			continue
		}

		item.CreatedAt = time.UnixMilli(createdAt)
		item.UpdatedAt = time.UnixMilli(updatedAt)

		items = append(items, item)
	}

	return items, nil
}

// Delete 删除归档
func (r *transcriptRepository) Delete(id string) error {
	query := `DELETE FROM archived_transcripts WHERE id = ?`
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete archived transcript: %w", err)
	}
	return nil
}
