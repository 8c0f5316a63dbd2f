package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// BasicAuthToken renders the token used by providers that authenticate with
// the secret key as username and an empty password.
func BasicAuthToken(secretKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(secretKey + ":"))
}

// BasicAuthHeader is BasicAuthToken with the scheme prefix.
func BasicAuthHeader(secretKey string) string {
	return "Basic " + BasicAuthToken(secretKey)
}

// SHA256Hex returns the lowercase hex SHA-256 digest of body.
func SHA256Hex(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// HMACSHA256Hex returns the lowercase hex HMAC-SHA256 of message under key.
func HMACSHA256Hex(key, message string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// IpaymuStringToSign builds METHOD:va:sha256hex(body):apiKey.
func IpaymuStringToSign(method, va string, body []byte, apiKey string) string {
	return strings.ToUpper(method) + ":" + va + ":" + SHA256Hex(body) + ":" + apiKey
}

// IpaymuSignature signs a request body for the iPaymu v2 API. The API key is
// both the HMAC key and the last component of the signed string.
func IpaymuSignature(method, va string, body []byte, apiKey string) string {
	return HMACSHA256Hex(apiKey, IpaymuStringToSign(method, va, body, apiKey))
}

// MidtransSignature is SHA-512 over order_id + status_code + gross_amount +
// server key, hex encoded.
func MidtransSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// secureEqual compares two secrets in constant time. Empty values never match.
func secureEqual(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
