// internal/model/thread_entry.go
package model

import "time"

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// ThreadEntry is one logged message of an outreach conversation. Append-only.
type ThreadEntry struct {
	ID         int       `db:"id" json:"id"`
	OutreachID int       `db:"outreach_id" json:"outreach_id"`
	Direction  string    `db:"direction" json:"direction"`
	Subject    string    `db:"subject" json:"subject"`
	Body       string    `db:"body" json:"body"`
	MessageID  string    `db:"message_id" json:"message_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
