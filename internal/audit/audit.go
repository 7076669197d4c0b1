// Package audit persists the append-only audit trail. Entries are written by
// unsynchronized concurrent writers; nothing orders them beyond their creation
// timestamps, and nothing ever mutates or deletes them.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/visiona-app/visiona/internal/models"
)

type Writer interface {
	Record(ctx context.Context, userID int64, action string, details map[string]any) error
}

type PostgresWriter struct {
	db *bun.DB
}

func NewPostgresWriter(db *bun.DB) *PostgresWriter {
	return &PostgresWriter{db: db}
}

func (w *PostgresWriter) InitializeDatabase(ctx context.Context) error {
	_, err := w.db.NewCreateTable().
		Model((*models.AuditLogEntryDB)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create audit_log table: %w", err)
	}

	_, err = w.db.NewCreateIndex().
		Model((*models.AuditLogEntryDB)(nil)).
		Index("idx_audit_log_user_id").
		Column("user_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create audit_log user_id index: %w", err)
	}
	return nil
}

func (w *PostgresWriter) Record(ctx context.Context, userID int64, action string, details map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return fmt.Errorf("audit action is required")
	}

	entry := &models.AuditLogEntryDB{
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if userID != 0 {
		entry.UserID = &userID
	}

	_, err := w.db.NewInsert().Model(entry).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

func (w *PostgresWriter) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*models.AuditLogEntry, error) {
	var entriesDB []*models.AuditLogEntryDB
	query := w.db.NewSelect().
		Model(&entriesDB).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	result := make([]*models.AuditLogEntry, 0, len(entriesDB))
	for _, e := range entriesDB {
		result = append(result, e.ToAuditLogEntry())
	}
	return result, nil
}
