package payment

import (
	"time"
)

type GatewayCode string

const (
	GatewayMidtrans GatewayCode = "midtrans"
	GatewayXendit   GatewayCode = "xendit"
	GatewayIpaymu   GatewayCode = "ipaymu"
	GatewayFlip     GatewayCode = "flip"
	GatewayManual   GatewayCode = "manual"
)

// Environment selects production or sandbox endpoints. The zero value is
// invalid so callers always have to pick one.
type Environment int

const (
	EnvSandbox Environment = iota + 1
	EnvProduction
)

func (e Environment) String() string {
	switch e {
	case EnvSandbox:
		return "sandbox"
	case EnvProduction:
		return "production"
	default:
		return "unset"
	}
}

const DefaultExpiryMinutes = 1440

type PaymentRequest struct {
	DonationID    string  `json:"donation_id" validate:"required"`
	Amount        int64   `json:"amount" validate:"gt=0"`
	PayerName     string  `json:"payer_name" validate:"required"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string `json:"phone,omitempty"`
	MethodCode    string  `json:"method_code" validate:"required"`
	ExpiryMinutes int     `json:"expiry_minutes,omitempty" validate:"gte=0"`
}

// Expiry returns the requested lifetime, falling back to 24 hours.
func (r PaymentRequest) Expiry() time.Duration {
	if r.ExpiryMinutes <= 0 {
		return DefaultExpiryMinutes * time.Minute
	}
	return time.Duration(r.ExpiryMinutes) * time.Minute
}

// PaymentResponse is either a success (Success == true, ExternalID set) or a
// failure carrying only Error.
type PaymentResponse struct {
	Success     bool       `json:"success"`
	ExternalID  string     `json:"external_id,omitempty"`
	ProviderRef string     `json:"provider_ref,omitempty"`
	PaymentCode string     `json:"payment_code,omitempty"`
	RedirectURL string     `json:"redirect_url,omitempty"`
	QRString    string     `json:"qr_string,omitempty"`
	ExpiredAt   *time.Time `json:"expired_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func failure(msg string) PaymentResponse {
	return PaymentResponse{Success: false, Error: msg}
}

// WebhookPayload is whatever the provider posted, decoded into a bag.
type WebhookPayload map[string]any

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusExpired Status = "expired"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusExpired:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

type NormalizedWebhookResult struct {
	ExternalID string     `json:"external_id"`
	Status     Status     `json:"status"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
}

type MidtransCredentials struct {
	ServerKey string
	ClientKey string
}

type XenditCredentials struct {
	SecretKey     string
	CallbackToken string
}

type IpaymuCredentials struct {
	VirtualAccount string
	APIKey         string
	NotifyURL      string
}

type FlipCredentials struct {
	SecretKey       string
	ValidationToken string
}

// Credentials groups the secrets of every provider. Each adapter only reads
// its own section.
type Credentials struct {
	Midtrans MidtransCredentials
	Xendit   XenditCredentials
	Ipaymu   IpaymuCredentials
	Flip     FlipCredentials
}
