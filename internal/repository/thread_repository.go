// internal/repository/thread_repository.go
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/unclebandit/creator-negotiator/internal/model"
)

type ThreadRepositoryInterface interface {
	AppendThreadEntry(ctx context.Context, e *model.ThreadEntry) error
	ListByOutreach(ctx context.Context, outreachID int) ([]model.ThreadEntry, error)
	LastOutboundAt(ctx context.Context, outreachID int) (*time.Time, error)
}

type ThreadRepository struct {
	DB *sql.DB
}

func (r *ThreadRepository) AppendThreadEntry(ctx context.Context, e *model.ThreadEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	query := `
        INSERT INTO thread_entries (outreach_id, direction, subject, body, message_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query, e.OutreachID, e.Direction, e.Subject, e.Body, e.MessageID, e.CreatedAt).Scan(&e.ID)
}

// ListByOutreach returns the conversation oldest first.
func (r *ThreadRepository) ListByOutreach(ctx context.Context, outreachID int) ([]model.ThreadEntry, error) {
	query := `
        SELECT id, outreach_id, direction, subject, body, message_id, created_at
        FROM thread_entries
        WHERE outreach_id=$1
        ORDER BY created_at, id
    `
	rows, err := r.DB.QueryContext(ctx, query, outreachID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.ThreadEntry{}
	for rows.Next() {
		var e model.ThreadEntry
		if err := rows.Scan(&e.ID, &e.OutreachID, &e.Direction, &e.Subject, &e.Body, &e.MessageID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastOutboundAt is nil when nothing was ever sent.
func (r *ThreadRepository) LastOutboundAt(ctx context.Context, outreachID int) (*time.Time, error) {
	query := `SELECT MAX(created_at) FROM thread_entries WHERE outreach_id=$1 AND direction='outbound'`
	var last sql.NullTime
	if err := r.DB.QueryRowContext(ctx, query, outreachID).Scan(&last); err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

var _ ThreadRepositoryInterface = (*ThreadRepository)(nil)
