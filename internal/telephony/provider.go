package telephony

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Provider is the outbound calling collaborator. Implementations must bound
// every request by their own timeout; a timeout is reported as an error.
type Provider interface {
	Name() string

	// InitiateCall asks the provider to dial a customer and returns its call id.
	InitiateCall(ctx context.Context, req OutboundCallRequest) (OutboundCallResult, error)

	GetCall(ctx context.Context, providerCallID string) (ProviderCall, error)
	GetRecording(ctx context.Context, providerCallID string) (Recording, error)
}

// OutboundCallRequest describes the customer to dial.
type OutboundCallRequest struct {
	// PhoneNumber is E.164.
	PhoneNumber string
	Name        string
	Email       string

	// FirstMessage overrides the assistant greeting when non-empty.
	FirstMessage string
}

type OutboundCallResult struct {
	ProviderCallID string `json:"id"`
	Status         string `json:"status,omitempty"`
}

// ProviderCall is the provider's view of a call.
type ProviderCall struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	EndedReason  string          `json:"endedReason,omitempty"`
	Transcript   string          `json:"transcript,omitempty"`
	Summary      string          `json:"summary,omitempty"`
	RecordingURL string          `json:"recordingUrl,omitempty"`
	Cost         decimal.Decimal `json:"cost"`

	Raw json.RawMessage `json:"-"`
}

type Recording struct {
	URL string `json:"url"`
}
