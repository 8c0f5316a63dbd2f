package events

import (
	"context"
	"time"
)

const SubjectPrefix = "payment.status."

// PaymentStatusChanged is published once per processed webhook. The donation
// platform consumes it and applies the transition to its own records.
type PaymentStatusChanged struct {
	EventID    string     `json:"event_id"`
	Gateway    string     `json:"gateway"`
	ExternalID string     `json:"external_id"`
	Status     string     `json:"status"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	ReceivedAt time.Time  `json:"received_at"`
}

// Subject is payment.status.<status>.
func (e PaymentStatusChanged) Subject() string {
	return SubjectPrefix + e.Status
}

type Publisher interface {
	PublishPaymentStatus(ctx context.Context, e PaymentStatusChanged) error
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishPaymentStatus(context.Context, PaymentStatusChanged) error {
	return nil
}
