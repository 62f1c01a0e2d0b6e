// internal/model/processed_message.go
package model

import "time"

type ProcessedMessage struct {
	MessageID   string    `db:"message_id" json:"message_id"`
	Fingerprint string    `db:"fingerprint" json:"fingerprint"`
	OutreachID  int       `db:"outreach_id" json:"outreach_id"`
	ProcessedAt time.Time `db:"processed_at" json:"processed_at"`
}
