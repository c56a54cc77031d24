package billing

import (
	"errors"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrNotConfigured    = errors.New("billing provider is not configured")
	ErrUnknownProvider  = errors.New("unknown billing provider")
	ErrUpstream         = errors.New("payment provider request failed")

	errEmptyPayload = errors.New("empty payload")
)

// Transition is the plan change an event asks for.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionPro
	TransitionFree
)

func (t Transition) String() string {
	switch t {
	case TransitionPro:
		return "pro"
	case TransitionFree:
		return "free"
	default:
		return "none"
	}
}

// Event is the provider-neutral view of one webhook delivery.
type Event struct {
	Provider string
	// Reference is the idempotency key in the provider's ledger.
	Reference       string
	Type            string
	BusinessID      string
	Email           string
	BillingCycle    string
	SubscriptionRef string
	PlanCode        string
	Amount          int64
	Status          string
	EndsAt          *time.Time
	Raw             []byte
}

// Outcome describes what the reconciler did with an authentic event.
type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeIgnored        Outcome = "ignored"
	OutcomeUnresolved     Outcome = "unresolved"
	OutcomeAmountMismatch Outcome = "amount_mismatch"
)

// Result is returned for every event that passed verification and parsing.
type Result struct {
	Outcome    Outcome
	Transition Transition
	BusinessID string
	Reference  string
}
