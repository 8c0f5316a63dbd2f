package payment

import (
	"context"
	"time"
)

const (
	manualPrefix = "MANUAL"
	manualExpiry = 48 * time.Hour
)

// manualGateway records administrator-confirmed, off-platform payments
// (cash, bank transfer checked by hand). It makes no network calls.
//
// VerifyWebhook always returns true: there is no provider on the other side.
// Whatever reaches ParseWebhook must already have passed the admin
// authentication in front of it.
type manualGateway struct {
	base
}

func NewManualGateway(opts ...Option) Adapter {
	return &manualGateway{base: newBase(EnvProduction, opts)}
}

func (m *manualGateway) Code() GatewayCode { return GatewayManual }

func (m *manualGateway) CreatePayment(_ context.Context, req PaymentRequest) PaymentResponse {
	if req.DonationID == "" {
		return failure("validation failed: donation_id: is required")
	}
	if req.Amount <= 0 {
		return failure("validation failed: amount: must be greater than 0")
	}

	now := m.now()
	expiredAt := now.Add(manualExpiry)
	return PaymentResponse{
		Success:    true,
		ExternalID: m.externalID(manualPrefix, req.DonationID),
		ExpiredAt:  &expiredAt,
	}
}

func (m *manualGateway) VerifyWebhook(WebhookPayload, string) bool {
	return true
}

// ParseWebhook takes the caller's status as given, as long as it is one of
// the canonical values.
func (m *manualGateway) ParseWebhook(payload WebhookPayload) NormalizedWebhookResult {
	result := NormalizedWebhookResult{
		ExternalID: str(payload, "external_id"),
		Status:     Status(str(payload, "status")),
	}
	if !result.Status.IsValid() {
		result.Status = StatusFailed
	}
	if result.Status == StatusSuccess {
		result.PaidAt = m.paidAt(parseProviderTime(str(payload, "paid_at"), m.jakartaLoc))
	}
	return result
}
