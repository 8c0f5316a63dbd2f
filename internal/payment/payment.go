// internal/payment/payment.go
package payment

import (
	"context"
)

// Adapter is the contract every payment provider integration implements.
//
// CreatePayment never returns an error value: transport failures, provider
// rejections and unsupported methods all come back as a failed
// PaymentResponse. ParseWebhook must only be called after VerifyWebhook
// returned true for the same payload.
type Adapter interface {
	Code() GatewayCode
	CreatePayment(ctx context.Context, req PaymentRequest) PaymentResponse
	VerifyWebhook(payload WebhookPayload, signature string) bool
	ParseWebhook(payload WebhookPayload) NormalizedWebhookResult
}

// RawVerifier is implemented by adapters whose webhook signature covers the
// exact bytes of the request body. Decoding and re-encoding a payload does not
// reproduce those bytes, so callers holding the body must use it.
type RawVerifier interface {
	VerifyWebhookBody(body []byte, signature string) bool
}

// VerifyWebhookRequest authenticates a received webhook. Adapters that sign
// the raw body are checked against body; the rest against the decoded payload.
func VerifyWebhookRequest(a Adapter, body []byte, payload WebhookPayload, signature string) bool {
	if rv, ok := a.(RawVerifier); ok {
		return rv.VerifyWebhookBody(body, signature)
	}
	return a.VerifyWebhook(payload, signature)
}
