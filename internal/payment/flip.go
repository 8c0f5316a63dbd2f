package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"donasi-be/internal/logger"
	"donasi-be/internal/utils"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	flipProductionURL = "https://bigflip.id/api"
	flipSandboxURL    = "https://bigflip.id/big_sandbox_api"
	flipPrefix        = "FLP"
	flipDateLayout    = "2006-01-02 15:04"
)

type flipGateway struct {
	base
	secretKey       string
	validationToken string
	baseURL         string
}

// ----------------- Constructor -----------------

func NewFlipGateway(creds FlipCredentials, env Environment, opts ...Option) Adapter {
	if creds.SecretKey == "" {
		logger.L().Warn("Flip secret key is empty")
	}

	b := newBase(env, opts)
	baseURL := flipSandboxURL
	if b.production() {
		baseURL = flipProductionURL
	}

	return &flipGateway{
		base:            b,
		secretKey:       creds.SecretKey,
		validationToken: creds.ValidationToken,
		baseURL:         baseURL,
	}
}

func (f *flipGateway) Code() GatewayCode { return GatewayFlip }

var flipWalletBanks = map[string]string{
	"ovo":       "ovo",
	"dana":      "dana",
	"linkaja":   "linkaja",
	"shopeepay": "shopeepay_app",
}

type flipBillResponse struct {
	LinkID      any    `json:"link_id"`
	LinkURL     string `json:"link_url"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	PaymentURL  string `json:"payment_url"`
	BillPayment struct {
		ID                  any    `json:"id"`
		Status              string `json:"status"`
		ReceiverBankAccount struct {
			AccountNumber string `json:"account_number"`
			AccountType   string `json:"account_type"`
			BankCode      string `json:"bank_code"`
			QRCodeData    string `json:"qr_code_data"`
		} `json:"receiver_bank_account"`
	} `json:"bill_payment"`
}

type flipErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Errors  []struct {
		Attribute string `json:"attribute"`
		Code      int    `json:"code"`
		Message   string `json:"message"`
	} `json:"errors"`
}

func (e flipErrorResponse) String() string {
	if len(e.Errors) > 0 {
		parts := make([]string, 0, len(e.Errors))
		for _, fe := range e.Errors {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Attribute, fe.Message))
		}
		return "validation failed: " + strings.Join(parts, "; ")
	}
	if e.Code != "" || e.Message != "" {
		return strings.TrimSpace("flip error: " + e.Code + " " + e.Message)
	}
	return MsgBadGatewayResponse
}

// ----------------- CreatePayment -----------------

func (f *flipGateway) CreatePayment(ctx context.Context, req PaymentRequest) PaymentResponse {
	method, msg := checkRequest(req)
	if msg != "" {
		return failure(msg)
	}

	var senderBank, senderBankType string
	switch method.Kind {
	case KindVA:
		senderBank, senderBankType = method.Channel, "virtual_account"
	case KindEWallet:
		bank, ok := flipWalletBanks[method.Channel]
		if !ok {
			return failure(ErrUnsupportedMethod.Error())
		}
		senderBank, senderBankType = bank, "wallet_account"
	case KindQRIS:
		senderBank, senderBankType = "qris", "wallet_account"
	default:
		return failure(ErrUnsupportedMethod.Error())
	}

	externalID := f.externalID(flipPrefix, req.DonationID)
	log := logger.FromCtx(logger.WithGateway(ctx, string(GatewayFlip))).With(
		zap.String("external_id", externalID),
		zap.Int64("amount", req.Amount),
		zap.String("method", method.String()),
	)

	expiredAt := f.now().Add(req.Expiry())

	form := url.Values{}
	form.Set("title", externalID)
	form.Set("type", "SINGLE")
	form.Set("amount", cast.ToString(req.Amount))
	form.Set("expired_date", expiredAt.In(f.jakartaLoc).Format(flipDateLayout))
	form.Set("step", "3")
	form.Set("sender_name", req.PayerName)
	form.Set("sender_email", utils.PtrString(req.Email))
	form.Set("sender_phone_number", utils.NormalizePhoneLocal(utils.PtrString(req.Phone)))
	form.Set("sender_bank", senderBank)
	form.Set("sender_bank_type", senderBankType)
	if f.redirectURL != "" {
		form.Set("redirect_url", f.redirectURL)
	}

	header := http.Header{}
	header.Set("Authorization", BasicAuthHeader(f.secretKey))

	log.Info("Sending bill request to Flip")

	raw, err := f.post(ctx, f.baseURL+"/v2/pwf/bill", "application/x-www-form-urlencoded", []byte(form.Encode()), header, log)
	if err != nil {
		return failure(MsgGatewayUnreachable)
	}

	if !raw.ok() {
		var fe flipErrorResponse
		if err := json.Unmarshal(raw.body, &fe); err != nil {
			return failure(MsgBadGatewayResponse)
		}
		return failure(fe.String())
	}

	var res flipBillResponse
	if err := json.Unmarshal(raw.body, &res); err != nil {
		log.Error("Failed decoding Flip response", zap.Error(err))
		return failure(MsgBadGatewayResponse)
	}

	if !strings.EqualFold(res.Status, "ACTIVE") {
		log.Warn("Flip bill is not active", zap.String("status", res.Status))
		return failure(MsgInactiveLink)
	}

	log.Info("Flip bill created", zap.String("link_id", cast.ToString(res.LinkID)))

	out := PaymentResponse{
		Success:     true,
		ExternalID:  externalID,
		ProviderRef: cast.ToString(res.LinkID),
		ExpiredAt:   &expiredAt,
	}

	account := res.BillPayment.ReceiverBankAccount
	switch method.Kind {
	case KindVA:
		out.PaymentCode = account.AccountNumber
		if out.PaymentCode == "" {
			return failure(MsgMissingPayment)
		}
	case KindEWallet:
		out.RedirectURL = res.PaymentURL
		if out.RedirectURL == "" && res.LinkURL != "" {
			// link_url comes without a scheme
			out.RedirectURL = "https://" + strings.TrimPrefix(res.LinkURL, "https://")
		}
	case KindQRIS:
		out.QRString = account.QRCodeData
		if out.QRString == "" {
			return failure(MsgMissingPayment)
		}
	}
	return out
}

// ----------------- Webhook -----------------

// VerifyWebhook compares the callback token Flip posts alongside the data
// field with the validation token from the Flip dashboard.
func (f *flipGateway) VerifyWebhook(payload WebhookPayload, signature string) bool {
	if signature == "" {
		signature = str(payload, "token")
	}
	return secureEqual(signature, f.validationToken)
}

// ParseWebhook reads the "data" field, which Flip sends as a JSON string
// inside a form body.
func (f *flipGateway) ParseWebhook(payload WebhookPayload) NormalizedWebhookResult {
	fields := map[string]any(payload)
	if data := nested(payload, "data"); data != nil {
		fields = data
	}

	result := NormalizedWebhookResult{
		ExternalID: str(fields, "bill_title"),
		Status:     NormalizeStatus(str(fields, "status")),
	}
	if result.Status == StatusSuccess {
		result.PaidAt = f.paidAt(parseProviderTime(str(fields, "created_at"), f.jakartaLoc))
	}
	return result
}
