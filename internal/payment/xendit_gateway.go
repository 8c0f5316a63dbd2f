package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"donasi-be/internal/logger"
	"donasi-be/internal/utils"

	"go.uber.org/zap"
)

const (
	// Xendit separates test and live mode by key, not by host.
	xenditProductionURL = "https://api.xendit.co"
	xenditSandboxURL    = "https://api.xendit.co"
	xenditQRAPIVersion  = "2022-07-31"
	xenditPrefix        = "XND"
)

type xenditGateway struct {
	base
	secretKey     string
	callbackToken string
	baseURL       string
}

// ----------------- Constructor -----------------

func NewXenditGateway(creds XenditCredentials, env Environment, opts ...Option) Adapter {
	if creds.SecretKey == "" {
		logger.L().Warn("Xendit secret key is empty")
	}

	b := newBase(env, opts)
	baseURL := xenditSandboxURL
	if b.production() {
		baseURL = xenditProductionURL
	}

	return &xenditGateway{
		base:          b,
		secretKey:     creds.SecretKey,
		callbackToken: creds.CallbackToken,
		baseURL:       baseURL,
	}
}

func (x *xenditGateway) Code() GatewayCode { return GatewayXendit }

type xenditError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Errors    []struct {
		Path    string `json:"path"`
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e xenditError) String() string {
	if len(e.Errors) > 0 {
		parts := make([]string, 0, len(e.Errors))
		for _, fe := range e.Errors {
			field := fe.Path
			if field == "" {
				field = fe.Field
			}
			parts = append(parts, fmt.Sprintf("%s: %s", field, fe.Message))
		}
		return "validation failed: " + strings.Join(parts, "; ")
	}
	if e.ErrorCode != "" || e.Message != "" {
		return fmt.Sprintf("xendit error: %s %s", e.ErrorCode, e.Message)
	}
	return MsgBadGatewayResponse
}

// ----------------- CreatePayment -----------------

func (x *xenditGateway) CreatePayment(ctx context.Context, req PaymentRequest) PaymentResponse {
	method, msg := checkRequest(req)
	if msg != "" {
		return failure(msg)
	}

	externalID := x.externalID(xenditPrefix, req.DonationID)
	log := logger.FromCtx(logger.WithGateway(ctx, string(GatewayXendit))).With(
		zap.String("external_id", externalID),
		zap.Int64("amount", req.Amount),
		zap.String("method", method.String()),
	)
	expiredAt := x.now().Add(req.Expiry())

	switch method.Kind {
	case KindVA:
		return x.createVA(ctx, log, externalID, req, method, expiredAt)
	case KindEWallet:
		return x.createEWallet(ctx, log, externalID, req, method, expiredAt)
	case KindQRIS:
		return x.createQR(ctx, log, externalID, req, expiredAt)
	}
	return failure(ErrUnsupportedMethod.Error())
}

func (x *xenditGateway) send(ctx context.Context, log *zap.Logger, path string, body any, extra http.Header, out any) string {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error("Failed to marshal payment request", zap.Error(err))
		return ErrInvalidRequest.Error()
	}

	header := http.Header{}
	header.Set("Authorization", BasicAuthHeader(x.secretKey))
	for k, vs := range extra {
		header[k] = vs
	}

	log.Info("Sending payment request to Xendit", zap.String("path", path))

	raw, err := x.post(ctx, x.baseURL+path, "application/json", jsonBody, header, log)
	if err != nil {
		return MsgGatewayUnreachable
	}
	if !raw.ok() {
		var xe xenditError
		if err := json.Unmarshal(raw.body, &xe); err != nil {
			return MsgBadGatewayResponse
		}
		return xe.String()
	}
	if err := json.Unmarshal(raw.body, out); err != nil {
		log.Error("Failed decoding Xendit response", zap.Error(err))
		return MsgBadGatewayResponse
	}
	return ""
}

func (x *xenditGateway) createVA(ctx context.Context, log *zap.Logger, externalID string, req PaymentRequest, method Method, expiredAt time.Time) PaymentResponse {
	body := map[string]any{
		"external_id":     externalID,
		"bank_code":       strings.ToUpper(method.Channel),
		"name":            req.PayerName,
		"expected_amount": req.Amount,
		"is_closed":       true,
		"is_single_use":   true,
		"expiration_date": expiredAt.UTC().Format(time.RFC3339),
	}

	var res struct {
		ID            string `json:"id"`
		ExternalID    string `json:"external_id"`
		AccountNumber string `json:"account_number"`
		Status        string `json:"status"`
	}
	if msg := x.send(ctx, log, "/callback_virtual_accounts", body, nil, &res); msg != "" {
		return failure(msg)
	}
	if res.AccountNumber == "" {
		return failure(MsgMissingPayment)
	}

	log.Info("Xendit virtual account created", zap.String("va_id", res.ID), zap.String("status", res.Status))

	return PaymentResponse{
		Success:     true,
		ExternalID:  externalID,
		ProviderRef: res.ID,
		PaymentCode: res.AccountNumber,
		ExpiredAt:   &expiredAt,
	}
}

var xenditWalletChannels = map[string]string{
	"ovo":       "ID_OVO",
	"dana":      "ID_DANA",
	"linkaja":   "ID_LINKAJA",
	"shopeepay": "ID_SHOPEEPAY",
}

func (x *xenditGateway) createEWallet(ctx context.Context, log *zap.Logger, externalID string, req PaymentRequest, method Method, expiredAt time.Time) PaymentResponse {
	channel, ok := xenditWalletChannels[method.Channel]
	if !ok {
		return failure(ErrUnsupportedMethod.Error())
	}

	props := map[string]any{}
	if method.Channel == "ovo" {
		if req.Phone == nil || *req.Phone == "" {
			return failure("validation failed: phone: is required for OVO")
		}
		props["mobile_number"] = utils.NormalizePhoneID(*req.Phone)
	} else {
		props["success_redirect_url"] = x.redirectURL
	}

	body := map[string]any{
		"reference_id":       externalID,
		"currency":           "IDR",
		"amount":             req.Amount,
		"checkout_method":    "ONE_TIME_PAYMENT",
		"channel_code":       channel,
		"channel_properties": props,
	}

	var res struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Actions struct {
			DesktopWebCheckoutURL     string `json:"desktop_web_checkout_url"`
			MobileWebCheckoutURL      string `json:"mobile_web_checkout_url"`
			MobileDeeplinkCheckoutURL string `json:"mobile_deeplink_checkout_url"`
		} `json:"actions"`
	}
	if msg := x.send(ctx, log, "/ewallets/charges", body, nil, &res); msg != "" {
		return failure(msg)
	}
	if res.ID == "" {
		return failure(MsgMissingPayment)
	}

	redirect := res.Actions.MobileDeeplinkCheckoutURL
	if redirect == "" {
		redirect = res.Actions.MobileWebCheckoutURL
	}
	if redirect == "" {
		redirect = res.Actions.DesktopWebCheckoutURL
	}

	log.Info("Xendit e-wallet charge created", zap.String("charge_id", res.ID), zap.String("status", res.Status))

	return PaymentResponse{
		Success:     true,
		ExternalID:  externalID,
		ProviderRef: res.ID,
		RedirectURL: redirect,
		ExpiredAt:   &expiredAt,
	}
}

func (x *xenditGateway) createQR(ctx context.Context, log *zap.Logger, externalID string, req PaymentRequest, expiredAt time.Time) PaymentResponse {
	body := map[string]any{
		"reference_id": externalID,
		"type":         "DYNAMIC",
		"currency":     "IDR",
		"amount":       req.Amount,
		"expires_at":   expiredAt.UTC().Format(time.RFC3339),
	}

	header := http.Header{}
	header.Set("api-version", xenditQRAPIVersion)

	var res struct {
		ID       string `json:"id"`
		QRString string `json:"qr_string"`
		Status   string `json:"status"`
	}
	if msg := x.send(ctx, log, "/qr_codes", body, header, &res); msg != "" {
		return failure(msg)
	}
	if res.QRString == "" {
		return failure(MsgMissingPayment)
	}

	log.Info("Xendit QR code created", zap.String("qr_id", res.ID), zap.String("status", res.Status))

	return PaymentResponse{
		Success:     true,
		ExternalID:  externalID,
		ProviderRef: res.ID,
		QRString:    res.QRString,
		ExpiredAt:   &expiredAt,
	}
}

// ----------------- Webhook -----------------

// VerifyWebhook compares the x-callback-token header value with the token
// configured in the Xendit dashboard.
func (x *xenditGateway) VerifyWebhook(_ WebhookPayload, signature string) bool {
	return secureEqual(signature, x.callbackToken)
}

// ParseWebhook handles both the flat callbacks (fixed VA, invoice) and the
// event envelope used by e-wallet and QR callbacks.
func (x *xenditGateway) ParseWebhook(payload WebhookPayload) NormalizedWebhookResult {
	fields := map[string]any(payload)
	if data := nested(payload, "data"); data != nil {
		fields = data
	}

	externalID := str(fields, "external_id")
	if externalID == "" {
		externalID = str(fields, "reference_id")
	}

	result := NormalizedWebhookResult{ExternalID: externalID, Status: StatusFailed}

	rawStatus := str(fields, "status")
	switch {
	case rawStatus == "" && str(fields, "payment_id") != "":
		// Fixed VA paid callbacks carry no status; they only fire on payment.
		result.Status = StatusSuccess
	default:
		result.Status = NormalizeStatus(rawStatus)
	}

	if result.Status == StatusSuccess {
		paid := str(fields, "paid_at")
		if paid == "" {
			paid = str(fields, "transaction_timestamp")
		}
		result.PaidAt = x.paidAt(parseProviderTime(paid, x.jakartaLoc))
	}
	return result
}
