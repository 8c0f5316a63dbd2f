package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"donasi-be/internal/logger"

	"go.uber.org/zap"
)

const (
	midtransProductionURL = "https://api.midtrans.com"
	midtransSandboxURL    = "https://api.sandbox.midtrans.com"
	midtransPrefix        = "MT"
)

type midtransGateway struct {
	base
	serverKey string
	baseURL   string
}

// ----------------- Constructor -----------------

func NewMidtransGateway(creds MidtransCredentials, env Environment, opts ...Option) Adapter {
	if creds.ServerKey == "" {
		logger.L().Warn("Midtrans server key is empty")
	}

	b := newBase(env, opts)
	baseURL := midtransSandboxURL
	if b.production() {
		baseURL = midtransProductionURL
	}

	logger.L().Debug("Midtrans gateway configured",
		zap.String("env", env.String()),
		logger.Secret("server_key", creds.ServerKey),
	)

	return &midtransGateway{
		base:      b,
		serverKey: creds.ServerKey,
		baseURL:   baseURL,
	}
}

func (m *midtransGateway) Code() GatewayCode { return GatewayMidtrans }

type midtransAction struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type midtransChargeResponse struct {
	StatusCode         string           `json:"status_code"`
	StatusMessage      string           `json:"status_message"`
	TransactionID      string           `json:"transaction_id"`
	OrderID            string           `json:"order_id"`
	TransactionStatus  string           `json:"transaction_status"`
	VANumbers          []midtransVA     `json:"va_numbers"`
	PermataVANumber    string           `json:"permata_va_number"`
	BillKey            string           `json:"bill_key"`
	BillerCode         string           `json:"biller_code"`
	Actions            []midtransAction `json:"actions"`
	QRString           string           `json:"qr_string"`
	ValidationMessages []string         `json:"validation_messages"`
}

type midtransVA struct {
	Bank     string `json:"bank"`
	VANumber string `json:"va_number"`
}

// ----------------- CreatePayment -----------------

func (m *midtransGateway) CreatePayment(ctx context.Context, req PaymentRequest) PaymentResponse {
	method, msg := checkRequest(req)
	if msg != "" {
		return failure(msg)
	}

	externalID := m.externalID(midtransPrefix, req.DonationID)
	log := logger.FromCtx(logger.WithGateway(ctx, string(GatewayMidtrans))).With(
		zap.String("external_id", externalID),
		zap.Int64("amount", req.Amount),
		zap.String("method", method.String()),
	)

	body, ok := m.chargeBody(externalID, req, method)
	if !ok {
		return failure(ErrUnsupportedMethod.Error())
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error("Failed to marshal charge request", zap.Error(err))
		return failure(ErrInvalidRequest.Error())
	}

	header := http.Header{}
	header.Set("Authorization", BasicAuthHeader(m.serverKey))

	log.Info("Sending charge request to Midtrans")
	expiredAt := m.now().Add(req.Expiry())

	raw, err := m.post(ctx, m.baseURL+"/v2/charge", "application/json", jsonBody, header, log)
	if err != nil {
		return failure(MsgGatewayUnreachable)
	}

	var res midtransChargeResponse
	if err := json.Unmarshal(raw.body, &res); err != nil {
		log.Error("Failed decoding Midtrans response", zap.Error(err))
		return failure(MsgBadGatewayResponse)
	}

	// Midtrans reports most errors with HTTP 200 and a 4xx/5xx status_code in the body.
	if !raw.ok() || !strings.HasPrefix(res.StatusCode, "2") {
		if len(res.ValidationMessages) > 0 {
			return failure("validation failed: " + strings.Join(res.ValidationMessages, "; "))
		}
		if res.StatusMessage != "" {
			return failure("midtrans error: " + res.StatusMessage)
		}
		return failure(MsgBadGatewayResponse)
	}

	log.Info("Midtrans charge created",
		zap.String("transaction_id", res.TransactionID),
		zap.String("status", res.TransactionStatus),
	)

	out := PaymentResponse{
		Success:     true,
		ExternalID:  externalID,
		ProviderRef: res.TransactionID,
		ExpiredAt:   &expiredAt,
	}

	switch method.Kind {
	case KindVA:
		switch {
		case len(res.VANumbers) > 0:
			out.PaymentCode = res.VANumbers[0].VANumber
		case res.PermataVANumber != "":
			out.PaymentCode = res.PermataVANumber
		case res.BillKey != "":
			out.PaymentCode = res.BillerCode + res.BillKey
		}
		if out.PaymentCode == "" {
			return failure(MsgMissingPayment)
		}
	case KindEWallet:
		out.RedirectURL = midtransActionURL(res.Actions, "deeplink-redirect", "generate-qr-code")
	case KindQRIS:
		out.QRString = res.QRString
		out.RedirectURL = midtransActionURL(res.Actions, "generate-qr-code")
		if out.QRString == "" {
			return failure(MsgMissingPayment)
		}
	}

	return out
}

func (m *midtransGateway) chargeBody(externalID string, req PaymentRequest, method Method) (map[string]any, bool) {
	customer := map[string]any{"first_name": req.PayerName}
	if req.Email != nil {
		customer["email"] = *req.Email
	}
	if req.Phone != nil {
		customer["phone"] = *req.Phone
	}

	body := map[string]any{
		"transaction_details": map[string]any{
			"order_id":     externalID,
			"gross_amount": req.Amount,
		},
		"customer_details": customer,
		"custom_expiry": map[string]any{
			"expiry_duration": int(req.Expiry().Minutes()),
			"unit":            "minute",
		},
	}

	switch method.Kind {
	case KindVA:
		if method.Channel == "mandiri" {
			body["payment_type"] = "echannel"
			body["echannel"] = map[string]any{
				"bill_info1": "Donasi",
				"bill_info2": req.DonationID,
			}
			return body, true
		}
		switch method.Channel {
		case "bca", "bni", "bri", "permata", "cimb":
			body["payment_type"] = "bank_transfer"
			body["bank_transfer"] = map[string]any{"bank": method.Channel}
			return body, true
		}
	case KindEWallet:
		switch method.Channel {
		case "gopay":
			body["payment_type"] = "gopay"
			body["gopay"] = map[string]any{"enable_callback": false}
			return body, true
		case "shopeepay":
			body["payment_type"] = "shopeepay"
			return body, true
		}
	case KindQRIS:
		body["payment_type"] = "qris"
		body["qris"] = map[string]any{"acquirer": "gopay"}
		return body, true
	}
	return nil, false
}

func midtransActionURL(actions []midtransAction, names ...string) string {
	for _, name := range names {
		for _, a := range actions {
			if a.Name == name {
				return a.URL
			}
		}
	}
	return ""
}

// ----------------- Webhook -----------------

// VerifyWebhook recomputes signature_key. The signature argument wins over the
// payload field when both are present.
func (m *midtransGateway) VerifyWebhook(payload WebhookPayload, signature string) bool {
	if signature == "" {
		signature = str(payload, "signature_key")
	}
	orderID := str(payload, "order_id")
	statusCode := str(payload, "status_code")
	grossAmount := str(payload, "gross_amount")
	if orderID == "" || statusCode == "" || grossAmount == "" || m.serverKey == "" {
		return false
	}
	expected := MidtransSignature(orderID, statusCode, grossAmount, m.serverKey)
	return secureEqual(strings.ToLower(signature), expected)
}

func (m *midtransGateway) ParseWebhook(payload WebhookPayload) NormalizedWebhookResult {
	result := NormalizedWebhookResult{
		ExternalID: str(payload, "order_id"),
		Status:     StatusFailed,
	}

	txStatus := strings.ToLower(str(payload, "transaction_status"))
	switch txStatus {
	case "capture":
		if strings.EqualFold(str(payload, "fraud_status"), "accept") {
			result.Status = StatusSuccess
		}
	default:
		result.Status = NormalizeStatus(txStatus)
	}

	if result.Status == StatusSuccess {
		settled := str(payload, "settlement_time")
		if settled == "" {
			settled = str(payload, "transaction_time")
		}
		result.PaidAt = m.paidAt(parseProviderTime(settled, m.jakartaLoc))
	}
	return result
}
