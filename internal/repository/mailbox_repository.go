// internal/repository/mailbox_repository.go
package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/creator-negotiator/internal/model"
)

// MailboxRepositoryInterface defines methods used by the reconciler and dispatcher
type MailboxRepositoryInterface interface {
	Create(ctx context.Context, mb *model.Mailbox) error
	ListActive(ctx context.Context) ([]model.Mailbox, error)
}

type MailboxRepository struct {
	DB *sql.DB
}

const mailboxColumns = `id, email, display_name, smtp_host, smtp_port, imap_host, imap_port, username, password, daily_limit, is_active`

func scanMailbox(row interface{ Scan(dest ...any) error }, mb *model.Mailbox) error {
	return row.Scan(&mb.ID, &mb.Email, &mb.DisplayName, &mb.SMTPHost, &mb.SMTPPort, &mb.IMAPHost,
		&mb.IMAPPort, &mb.Username, &mb.Password, &mb.DailyLimit, &mb.IsActive)
}

func (r *MailboxRepository) Create(ctx context.Context, mb *model.Mailbox) error {
	query := `
        INSERT INTO mailboxes (email, display_name, smtp_host, smtp_port, imap_host, imap_port, username, password, daily_limit, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query, mb.Email, mb.DisplayName, mb.SMTPHost, mb.SMTPPort, mb.IMAPHost,
		mb.IMAPPort, mb.Username, mb.Password, mb.DailyLimit, mb.IsActive).Scan(&mb.ID)
}

// ListActive fetches the mailboxes allowed to send and receive
func (r *MailboxRepository) ListActive(ctx context.Context) ([]model.Mailbox, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+mailboxColumns+` FROM mailboxes WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boxes := []model.Mailbox{}
	for rows.Next() {
		var mb model.Mailbox
		if err := scanMailbox(rows, &mb); err != nil {
			return nil, err
		}
		boxes = append(boxes, mb)
	}
	return boxes, rows.Err()
}

var _ MailboxRepositoryInterface = (*MailboxRepository)(nil)
