// internal/model/mailbox.go
package model

// Mailbox is a sending/receiving account with its own daily send quota.
type Mailbox struct {
	ID          int    `db:"id" json:"id"`
	Email       string `db:"email" json:"email"`
	DisplayName string `db:"display_name" json:"display_name"`
	SMTPHost    string `db:"smtp_host" json:"smtp_host"`
	SMTPPort    int    `db:"smtp_port" json:"smtp_port"`
	IMAPHost    string `db:"imap_host" json:"imap_host"`
	IMAPPort    int    `db:"imap_port" json:"imap_port"`
	Username    string `db:"username" json:"username"`
	Password    string `db:"password" json:"-"`
	DailyLimit  int    `db:"daily_limit" json:"daily_limit"`
	IsActive    bool   `db:"is_active" json:"is_active"`
}

// InboundMessage is one candidate reply yielded by a mailbox fetch.
type InboundMessage struct {
	MessageID   string `json:"message_id"`
	FromAddress string `json:"from_address"`
	Subject     string `json:"subject"`
	RawBody     string `json:"raw_body"`
}
