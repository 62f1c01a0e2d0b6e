// internal/repository/processed_message_repository.go
package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/creator-negotiator/internal/model"
)

type ProcessedMessageRepositoryInterface interface {
	MarkProcessed(ctx context.Context, rec model.ProcessedMessage) (bool, error)
	IsProcessed(ctx context.Context, messageID string) (bool, error)
}

type ProcessedMessageRepository struct {
	DB *sql.DB
}

// MarkProcessed inserts the record if absent. It returns false when the message
// was already marked, by this worker or a concurrent one.
func (r *ProcessedMessageRepository) MarkProcessed(ctx context.Context, rec model.ProcessedMessage) (bool, error) {
	query := `
        INSERT INTO processed_messages (message_id, fingerprint, outreach_id, processed_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (message_id) DO NOTHING
    `
	res, err := r.DB.ExecContext(ctx, query, rec.MessageID, rec.Fingerprint, rec.OutreachID, rec.ProcessedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *ProcessedMessageRepository) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	var tmp int
	err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM processed_messages WHERE message_id=$1`, messageID).Scan(&tmp)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var _ ProcessedMessageRepositoryInterface = (*ProcessedMessageRepository)(nil)
