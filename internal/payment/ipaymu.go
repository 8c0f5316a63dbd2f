package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"donasi-be/internal/logger"
	"donasi-be/internal/utils"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	ipaymuProductionURL = "https://my.ipaymu.com"
	ipaymuSandboxURL    = "https://sandbox.ipaymu.com"
	ipaymuDirectPath    = "/api/v2/payment/direct"
	ipaymuPrefix        = "IPY"
	ipaymuTimestamp     = "20060102150405"
)

type ipaymuGateway struct {
	base
	va        string
	apiKey    string
	notifyURL string
	baseURL   string
}

// ----------------- Constructor -----------------

func NewIpaymuGateway(creds IpaymuCredentials, env Environment, opts ...Option) Adapter {
	if creds.APIKey == "" || creds.VirtualAccount == "" {
		logger.L().Warn("iPaymu credentials are incomplete")
	}

	b := newBase(env, opts)
	baseURL := ipaymuSandboxURL
	if b.production() {
		baseURL = ipaymuProductionURL
	}

	return &ipaymuGateway{
		base:      b,
		va:        creds.VirtualAccount,
		apiKey:    creds.APIKey,
		notifyURL: creds.NotifyURL,
		baseURL:   baseURL,
	}
}

func (g *ipaymuGateway) Code() GatewayCode { return GatewayIpaymu }

// Field order is fixed so the signed bytes are exactly the sent bytes.
type ipaymuDirectRequest struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Amount         int64  `json:"amount"`
	NotifyURL      string `json:"notifyUrl"`
	ReferenceID    string `json:"referenceId"`
	PaymentMethod  string `json:"paymentMethod"`
	PaymentChannel string `json:"paymentChannel"`
	Expired        int    `json:"expired"`
	ExpiredType    string `json:"expiredType"`
}

type ipaymuResponse struct {
	Status  int    `json:"Status"`
	Success bool   `json:"Success"`
	Message string `json:"Message"`
	Data    struct {
		SessionID     string `json:"SessionId"`
		TransactionID any    `json:"TransactionId"`
		ReferenceID   string `json:"ReferenceId"`
		PaymentNo     string `json:"PaymentNo"`
		QrString      string `json:"QrString"`
		Expired       string `json:"Expired"`
	} `json:"Data"`
}

// ----------------- CreatePayment -----------------

func (g *ipaymuGateway) CreatePayment(ctx context.Context, req PaymentRequest) PaymentResponse {
	method, msg := checkRequest(req)
	if msg != "" {
		return failure(msg)
	}

	var paymentMethod, paymentChannel string
	switch method.Kind {
	case KindVA:
		paymentMethod, paymentChannel = "va", method.Channel
	case KindQRIS:
		paymentMethod, paymentChannel = "qris", "qris"
	default:
		return failure(ErrUnsupportedMethod.Error())
	}

	externalID := g.externalID(ipaymuPrefix, req.DonationID)
	log := logger.FromCtx(logger.WithGateway(ctx, string(GatewayIpaymu))).With(
		zap.String("external_id", externalID),
		zap.Int64("amount", req.Amount),
		zap.String("method", method.String()),
	)

	body := ipaymuDirectRequest{
		Name:           req.PayerName,
		Phone:          utils.NormalizePhoneLocal(utils.PtrString(req.Phone)),
		Email:          utils.PtrString(req.Email),
		Amount:         req.Amount,
		NotifyURL:      g.notifyURL,
		ReferenceID:    externalID,
		PaymentMethod:  paymentMethod,
		PaymentChannel: paymentChannel,
		Expired:        int(req.Expiry().Minutes()),
		ExpiredType:    "minutes",
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error("Failed to marshal payment request", zap.Error(err))
		return failure(ErrInvalidRequest.Error())
	}

	now := g.now()
	header := http.Header{}
	header.Set("va", g.va)
	header.Set("signature", IpaymuSignature(http.MethodPost, g.va, jsonBody, g.apiKey))
	header.Set("timestamp", now.In(g.jakartaLoc).Format(ipaymuTimestamp))

	log.Info("Sending payment request to iPaymu")
	expiredAt := now.Add(req.Expiry())

	raw, err := g.post(ctx, g.baseURL+ipaymuDirectPath, "application/json", jsonBody, header, log)
	if err != nil {
		return failure(MsgGatewayUnreachable)
	}

	var res ipaymuResponse
	if err := json.Unmarshal(raw.body, &res); err != nil {
		log.Error("Failed decoding iPaymu response", zap.Error(err))
		return failure(MsgBadGatewayResponse)
	}
	if !raw.ok() || !res.Success {
		if res.Message != "" {
			return failure("ipaymu error: " + res.Message)
		}
		return failure(MsgBadGatewayResponse)
	}

	log.Info("iPaymu payment created",
		zap.String("session_id", res.Data.SessionID),
		zap.String("reference_id", res.Data.ReferenceID),
	)

	out := PaymentResponse{
		Success:     true,
		ExternalID:  externalID,
		ProviderRef: cast.ToString(res.Data.TransactionID),
		ExpiredAt:   &expiredAt,
	}

	switch method.Kind {
	case KindVA:
		out.PaymentCode = res.Data.PaymentNo
		if out.PaymentCode == "" {
			return failure(MsgMissingPayment)
		}
	case KindQRIS:
		out.QRString = res.Data.QrString
		if out.QRString == "" {
			out.QRString = res.Data.PaymentNo
		}
		if out.QRString == "" {
			return failure(MsgMissingPayment)
		}
	}
	return out
}

// ----------------- Webhook -----------------

// CanonicalBody renders a webhook payload as compact JSON with keys in
// lexical order. Only bodies the provider sent in exactly this form verify
// through VerifyWebhook; servers should call VerifyWebhookBody with the bytes
// they received.
func CanonicalBody(payload WebhookPayload) ([]byte, error) {
	return json.Marshal(map[string]any(payload))
}

// VerifyWebhook checks the signature against the canonical rendering of an
// already decoded payload.
func (g *ipaymuGateway) VerifyWebhook(payload WebhookPayload, signature string) bool {
	if len(payload) == 0 {
		return false
	}
	body, err := CanonicalBody(payload)
	if err != nil {
		return false
	}
	return g.VerifyWebhookBody(body, signature)
}

// VerifyWebhookBody recomputes the request signature over the body exactly as
// received and compares it with the signature header.
func (g *ipaymuGateway) VerifyWebhookBody(body []byte, signature string) bool {
	if signature == "" || g.apiKey == "" || g.va == "" || len(body) == 0 {
		return false
	}
	expected := IpaymuSignature(http.MethodPost, g.va, body, g.apiKey)
	return secureEqual(strings.ToLower(signature), expected)
}

func (g *ipaymuGateway) ParseWebhook(payload WebhookPayload) NormalizedWebhookResult {
	result := NormalizedWebhookResult{
		ExternalID: str(payload, "reference_id"),
		Status:     NormalizeStatus(str(payload, "status")),
	}
	if result.Status == StatusSuccess {
		result.PaidAt = g.paidAt(parseProviderTime(str(payload, "paid_at"), g.jakartaLoc))
	}
	return result
}
