// internal/service/result.go
package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/unclebandit/creator-negotiator/internal/model"
)

type Outcome string

const (
	OutcomeHandled    Outcome = "handled"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeTerminal   Outcome = "terminal"
	OutcomeUnmatched  Outcome = "unmatched"
	OutcomeNoCapacity Outcome = "no_capacity"
	OutcomeSendFailed Outcome = "send_failed"
	OutcomeError      Outcome = "error"
)

// Result is the per-item verdict of a pass. Failures never escape a pass; they end up here.
type Result struct {
	MessageID  string      `json:"message_id,omitempty"`
	OutreachID int         `json:"outreach_id,omitempty"`
	Outcome    Outcome     `json:"outcome"`
	Stage      model.Stage `json:"stage,omitempty"`
	Err        error       `json:"-"`
}

const (
	PassReconcile = "reconcile"
	PassFollowups = "followups"
)

// PassReport is what operators see of a pass: counts per outcome and the first few errors.
type PassReport struct {
	PassID           string          `json:"pass_id"`
	Kind             string          `json:"kind"`
	StartedAt        time.Time       `json:"started_at"`
	FinishedAt       time.Time       `json:"finished_at"`
	Counts           map[Outcome]int `json:"counts"`
	SkippedMailboxes int             `json:"skipped_mailboxes"`
	Errors           []string        `json:"errors,omitempty"`

	maxErrors int
}

func NewPassReport(kind string, maxErrors int) *PassReport {
	if maxErrors <= 0 {
		maxErrors = 5
	}
	return &PassReport{
		PassID:    uuid.NewString(),
		Kind:      kind,
		StartedAt: time.Now().UTC(),
		Counts:    map[Outcome]int{},
		maxErrors: maxErrors,
	}
}

func (r *PassReport) Add(res Result) {
	r.Counts[res.Outcome]++
	if res.Err != nil {
		r.recordError(fmt.Sprintf("outreach %d message %s: %v", res.OutreachID, res.MessageID, res.Err))
	}
}

// SkipMailbox records a mailbox the pass could not read.
func (r *PassReport) SkipMailbox(email string, err error) {
	r.SkippedMailboxes++
	r.recordError(fmt.Sprintf("mailbox %s: %v", email, err))
}

func (r *PassReport) Fail(err error) {
	r.recordError(err.Error())
}

func (r *PassReport) recordError(msg string) {
	if len(r.Errors) < r.maxErrors {
		r.Errors = append(r.Errors, msg)
	}
}

func (r *PassReport) Finish() *PassReport {
	r.FinishedAt = time.Now().UTC()
	return r
}

func (r *PassReport) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}

// Failed counts items that needed to act but could not.
func (r *PassReport) Failed() int {
	return r.Counts[OutcomeError] + r.Counts[OutcomeSendFailed] + r.Counts[OutcomeNoCapacity]
}
