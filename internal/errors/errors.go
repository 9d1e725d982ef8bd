// internal/errors/errors.go
package appErrors

import (
    "errors"
    "fmt"
)

// ErrCampaignNotFound is returned when a campaign id is unknown.
type ErrCampaignNotFound struct {
    CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
    return fmt.Sprintf("campaign %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id string) error {
    return &ErrCampaignNotFound{CampaignID: id}
}

// ErrNotSchedulable is returned when update/deactivate is attempted on a
// campaign that has no live pending timer (it already ran, was never
// scheduled with a future time, or is in a terminal status).
type ErrNotSchedulable struct {
    CampaignID string
}

func (e *ErrNotSchedulable) Error() string {
    return fmt.Sprintf("campaign %s is not schedulable", e.CampaignID)
}

func NewNotSchedulable(id string) error {
    return &ErrNotSchedulable{CampaignID: id}
}

var (
    // ErrAlreadyDispatched means the idempotency gate tripped: a send event
    // already exists for the campaign.
    ErrAlreadyDispatched = errors.New("campaign already dispatched")

    // ErrNoContent means the message body for the chosen channel is empty.
    ErrNoContent = errors.New("campaign has no content for its channel")

    // ErrNoRecipients means a specific-audience campaign resolved to zero
    // deliverable addresses or tokens.
    ErrNoRecipients = errors.New("campaign resolved to no recipients")
)

// IsTerminal reports whether a dispatch error cannot be cured by retrying
// the same job: the campaign is unknown, already dispatched, has nothing to
// send, nobody to send to, or the gateway rejected a send that may have
// partially succeeded. Anything else is an infrastructure failure the queue
// may retry.
func IsTerminal(err error) bool {
    var notFound *ErrCampaignNotFound
    var gateway *ErrGatewayFailure
    return errors.Is(err, ErrAlreadyDispatched) ||
        errors.Is(err, ErrNoContent) ||
        errors.Is(err, ErrNoRecipients) ||
        errors.As(err, &notFound) ||
        errors.As(err, &gateway)
}

// ErrGatewayFailure wraps a delivery-gateway error.
type ErrGatewayFailure struct {
    Cause error
}

func (e *ErrGatewayFailure) Error() string {
    return fmt.Sprintf("delivery gateway failure: %v", e.Cause)
}

func (e *ErrGatewayFailure) Unwrap() error { return e.Cause }

func NewGatewayFailure(cause error) error {
    return &ErrGatewayFailure{Cause: cause}
}
