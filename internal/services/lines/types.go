package linesvc

import (
	"context"

	"github.com/osamaakb/tempo/pkg/id"
)

// Event is a value travelling through a delay line.
type Event struct {
	ID            id.ID
	Namespace     string
	Line          string
	Payload       []byte
	Headers       map[string]string
	PublishedAtMs int64
	DueAtMs       int64
}

// SubscribeSink is implemented by transports to receive released events.
type SubscribeSink interface {
	Send(Event) error
	Context() context.Context
	Flush() error
}

// SubscribeOptions controls per-subscriber delivery.
type SubscribeOptions struct {
	// Filter is an optional CEL expression evaluated per event.
	// When empty, all events are delivered.
	Filter string
}

// LineMeta stores per-line settings persisted next to the parked items.
// ClosedAtMs and FaultReason record a terminal state so a closed or faulted
// line stays closed across restarts.
type LineMeta struct {
	DelayMs         int64             `json:"delay_ms"`
	PayloadMaxBytes int               `json:"payload_max_bytes,omitempty"`
	MaxParked       int               `json:"max_parked,omitempty"`
	CreatedAtMs     int64             `json:"created_at_ms"`
	Labels          map[string]string `json:"labels,omitempty"`
	ClosedAtMs      int64             `json:"closed_at_ms,omitempty"`
	FaultReason     string            `json:"fault_reason,omitempty"`
}

// LineStats summarizes a single line.
type LineStats struct {
	Namespace   string `json:"namespace"`
	Line        string `json:"line"`
	DelayMs     int64  `json:"delay_ms"`
	Parked      int    `json:"parked"`
	Subscribers int    `json:"subscribers"`
	Closing     bool   `json:"closing"`
}
