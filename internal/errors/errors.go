// internal/errors/errors.go
package appErrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrCampaignNotFound is returned when a campaign row does not exist
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

type ErrOutreachNotFound struct {
	OutreachID int
}

func (e *ErrOutreachNotFound) Error() string {
	return fmt.Sprintf("outreach with ID %d not found", e.OutreachID)
}

func NewOutreachNotFound(id int) error {
	return &ErrOutreachNotFound{OutreachID: id}
}

// ErrValidation wraps a rejected request payload.
type ErrValidation struct {
	Err error
}

func (e *ErrValidation) Error() string {
	return "validation failed: " + e.Err.Error()
}

func (e *ErrValidation) Unwrap() error { return e.Err }

func NewValidation(err error) error {
	return &ErrValidation{Err: err}
}

var (
	// ErrNoCapacity means every active mailbox is over its daily send quota.
	ErrNoCapacity = errors.New("no mailbox with remaining daily quota")

	// ErrAlreadySent guards the initial outreach email against a double send.
	ErrAlreadySent = errors.New("outreach email already sent")

	// ErrTerminalStage is returned when an email is requested for a closed negotiation.
	ErrTerminalStage = errors.New("negotiation is in a terminal stage")
)

func IsNotFound(err error) bool {
	var campaignErr *ErrCampaignNotFound
	var outreachErr *ErrOutreachNotFound
	return errors.As(err, &campaignErr) || errors.As(err, &outreachErr)
}

func IsValidation(err error) bool {
	var v *ErrValidation
	return errors.As(err, &v)
}
