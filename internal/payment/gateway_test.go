package payment

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRoundTripper allows us to mock the HTTP response
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

var testNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func testClock() Option {
	return WithClock(func() time.Time { return testNow })
}

func withTransport(rt http.RoundTripper) Option {
	return WithHTTPClient(&http.Client{Transport: rt, Timeout: defaultHTTPTimeout})
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func readBody(t *testing.T, req *http.Request) []byte {
	t.Helper()
	b, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	return b
}

func unreachable() Option {
	return withTransport(MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: i/o timeout")
	}))
}

// noNetwork fails the test if the adapter makes any HTTP call.
func noNetwork(t *testing.T) Option {
	return withTransport(MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
		t.Errorf("unexpected request to %s", req.URL)
		return nil, errors.New("unexpected request")
	}))
}

func testCredentials() Credentials {
	return Credentials{
		Midtrans: MidtransCredentials{ServerKey: goldenMidtransKey, ClientKey: "SB-Mid-client-abc"},
		Xendit:   XenditCredentials{SecretKey: "xnd_development_secret", CallbackToken: "xnd-callback-token"},
		Ipaymu:   IpaymuCredentials{VirtualAccount: goldenIpaymuVA, APIKey: goldenIpaymuKey, NotifyURL: "https://donasi.example/webhook/ipaymu"},
		Flip:     FlipCredentials{SecretKey: "JDJ5JDEzJGZsaXA=", ValidationToken: "flip-validation-token"},
	}
}

func allAdapters(t *testing.T, opts ...Option) []Adapter {
	t.Helper()
	var out []Adapter
	for _, code := range []string{"midtrans", "xendit", "ipaymu", "flip", "manual"} {
		a, err := NewAdapter(code, testCredentials(), EnvSandbox, opts...)
		require.NoError(t, err)
		out = append(out, a)
	}
	return out
}

func TestExternalID_Distinct(t *testing.T) {
	b := newBase(EnvSandbox, nil)
	pattern := regexp.MustCompile(`^MT-DON-1-\d+$`)

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
		wg   sync.WaitGroup
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				id := b.externalID("MT", "DON-1")
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 4000)
	for id := range seen {
		assert.Regexp(t, pattern, id)
		break
	}
}

func TestExternalID_CustomNode(t *testing.T) {
	node, err := snowflake.NewNode(42)
	require.NoError(t, err)
	b := newBase(EnvSandbox, []Option{WithIDNode(node)})

	id := b.externalID("XND", "DON-7")
	assert.Regexp(t, `^XND-DON-7-\d+$`, id)

	sf, err := snowflake.ParseString(id[len("XND-DON-7-"):])
	require.NoError(t, err)
	assert.Equal(t, int64(42), sf.Node())
}

func TestPaidAt(t *testing.T) {
	b := newBase(EnvSandbox, []Option{testClock()})

	provider := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, &provider, b.paidAt(&provider))
	assert.True(t, b.paidAt(nil).Equal(testNow))
}

func TestParseWebhook_TotalAndClosed(t *testing.T) {
	payloads := []WebhookPayload{
		{},
		{"status": nil},
		{"status": 12345},
		{"transaction_status": []any{"settlement"}},
		{"data": "not-json"},
		{"data": map[string]any{"status": true}},
		{"order_id": 99, "status_code": 200, "gross_amount": 1.5},
		{"external_id": "X", "status": "PENDING"},
	}

	for _, a := range allAdapters(t, testClock()) {
		for _, p := range payloads {
			var result NormalizedWebhookResult
			assert.NotPanics(t, func() { result = a.ParseWebhook(p) }, "%s %v", a.Code(), p)
			assert.True(t, result.Status.IsValid(), "%s %v", a.Code(), p)
			if result.Status != StatusSuccess {
				assert.Nil(t, result.PaidAt)
			}
		}
	}
}

func TestParseWebhook_Idempotent(t *testing.T) {
	cases := map[GatewayCode]WebhookPayload{
		GatewayMidtrans: {"order_id": "MT-DON-1-1", "transaction_status": "settlement"},
		GatewayXendit:   {"external_id": "XND-DON-1-1", "status": "PAID"},
		GatewayIpaymu:   {"reference_id": "IPY-DON-1-1", "status": "berhasil"},
		GatewayFlip:     {"data": `{"bill_title":"FLP-DON-1-1","status":"SUCCESSFUL"}`},
		GatewayManual:   {"external_id": "MANUAL-DON-1-1", "status": "success"},
	}

	for _, a := range allAdapters(t, testClock()) {
		p := cases[a.Code()]
		first := a.ParseWebhook(p)
		second := a.ParseWebhook(p)

		assert.Equal(t, StatusSuccess, first.Status, a.Code())
		assert.NotEmpty(t, first.ExternalID, a.Code())
		assert.Equal(t, first, second, a.Code())
	}
}

func TestVerifyWebhook_EmptySignatureRejected(t *testing.T) {
	for _, a := range allAdapters(t) {
		if a.Code() == GatewayManual {
			continue
		}
		assert.False(t, a.VerifyWebhook(WebhookPayload{}, ""), a.Code())
	}
}

func TestCreatePayment_InvalidRequestMakesNoCall(t *testing.T) {
	bad := []PaymentRequest{
		{DonationID: "", Amount: 50000, PayerName: "A", MethodCode: "qris"},
		{DonationID: "DON-1", Amount: 0, PayerName: "A", MethodCode: "qris"},
		{DonationID: "DON-1", Amount: -1, PayerName: "A", MethodCode: "qris"},
	}

	for _, a := range allAdapters(t, noNetwork(t)) {
		for _, req := range bad {
			resp := a.CreatePayment(context.Background(), req)
			assert.False(t, resp.Success, a.Code())
			assert.NotEmpty(t, resp.Error, a.Code())
			assert.Empty(t, resp.ExternalID, a.Code())
		}
	}
}

func TestCreatePayment_UnsupportedMethod(t *testing.T) {
	req := PaymentRequest{DonationID: "DON-1", Amount: 50000, PayerName: "A", MethodCode: "cash"}
	for _, a := range allAdapters(t, noNetwork(t)) {
		if a.Code() == GatewayManual {
			continue
		}
		resp := a.CreatePayment(context.Background(), req)
		assert.False(t, resp.Success)
		assert.Equal(t, "unsupported payment method", resp.Error, a.Code())
	}
}

func TestCreatePayment_Unreachable(t *testing.T) {
	req := PaymentRequest{DonationID: "DON-1", Amount: 50000, PayerName: "Hamba Allah", MethodCode: "va:bca"}
	for _, a := range allAdapters(t, unreachable()) {
		if a.Code() == GatewayManual {
			continue
		}
		resp := a.CreatePayment(context.Background(), req)
		assert.False(t, resp.Success, a.Code())
		assert.Equal(t, MsgGatewayUnreachable, resp.Error, a.Code())
	}
}

func TestCreatePayment_ValidationMessage(t *testing.T) {
	a := NewMidtransGateway(testCredentials().Midtrans, EnvSandbox, noNetwork(t))
	bad := "not-an-email"
	resp := a.CreatePayment(context.Background(), PaymentRequest{
		DonationID: "DON-1",
		Amount:     0,
		Email:      &bad,
		MethodCode: "va:bca",
	})

	assert.False(t, resp.Success)
	assert.Equal(t,
		"validation failed: amount: must be greater than 0; payer_name: is required; email: must be a valid email",
		resp.Error,
	)
}
