package webhook

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"

	"donasi-be/internal/payment"

	"github.com/spf13/cast"
)

var errUnsupportedBody = errors.New("unsupported webhook body")

// decodePayload turns a JSON or form body into a payload bag. Form fields
// keep their first value only.
func decodePayload(r *http.Request, body []byte) (payment.WebhookPayload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, err
		}
		payload := make(payment.WebhookPayload, len(values))
		for k := range values {
			payload[k] = values.Get(k)
		}
		return payload, nil
	case "application/json", "":
		var payload payment.WebhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, err
		}
		if payload == nil {
			return nil, errUnsupportedBody
		}
		return payload, nil
	default:
		return nil, errUnsupportedBody
	}
}

// signatureFor picks the authentication material each provider sends.
func signatureFor(code payment.GatewayCode, r *http.Request, payload payment.WebhookPayload) string {
	switch code {
	case payment.GatewayXendit:
		return r.Header.Get("x-callback-token")
	case payment.GatewayIpaymu:
		return r.Header.Get("signature")
	case payment.GatewayMidtrans:
		return cast.ToString(payload["signature_key"])
	case payment.GatewayFlip:
		return cast.ToString(payload["token"])
	default:
		return ""
	}
}
