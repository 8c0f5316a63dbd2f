package payment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"donasi-be/internal/logger"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const defaultHTTPTimeout = 15 * time.Second

var (
	validate *validator.Validate

	defaultNodeOnce sync.Once
	defaultNode     *snowflake.Node
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func sharedNode() *snowflake.Node {
	defaultNodeOnce.Do(func() {
		n, err := snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
		defaultNode = n
	})
	return defaultNode
}

// Option customises adapter construction.
type Option func(*base)

// WithHTTPClient replaces the outbound client. The client should keep a timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(b *base) {
		if c != nil {
			b.httpClient = c
		}
	}
}

// WithClock overrides the wall clock used for expiry and paid-at times.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

// WithRedirectURL sets where e-wallet and hosted checkouts send the payer
// after completion.
func WithRedirectURL(url string) Option {
	return func(b *base) {
		b.redirectURL = url
	}
}

// WithIDNode sets the snowflake node used to disambiguate external ids.
func WithIDNode(n *snowflake.Node) Option {
	return func(b *base) {
		if n != nil {
			b.ids = n
		}
	}
}

// base carries what every live adapter needs. It is never mutated after
// construction.
type base struct {
	env         Environment
	httpClient  *http.Client
	now         func() time.Time
	ids         *snowflake.Node
	jakartaLoc  *time.Location
	redirectURL string
}

func newBase(env Environment, opts []Option) base {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		logger.L().Error("failed to load Jakarta location, defaulting to UTC+7", zap.Error(err))
		loc = time.FixedZone("WIB", 7*60*60)
	}

	b := base{
		env:        env,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		now:        time.Now,
		ids:        sharedNode(),
		jakartaLoc: loc,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b base) production() bool {
	return b.env == EnvProduction
}

// externalID composes PREFIX-donation-snowflake.
func (b base) externalID(prefix, donationID string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, donationID, b.ids.Generate().String())
}

// paidAt prefers the provider's own timestamp.
func (b base) paidAt(providerTime *time.Time) *time.Time {
	if providerTime != nil {
		return providerTime
	}
	return timePtr(b.now())
}

// checkRequest validates the request and resolves its method code. The
// returned string is a user-facing failure message.
func checkRequest(req PaymentRequest) (Method, string) {
	if err := validate.Struct(req); err != nil {
		return Method{}, validationMessage(err)
	}
	m, err := ParseMethod(req.MethodCode)
	if err != nil {
		return Method{}, ErrUnsupportedMethod.Error()
	}
	return m, ""
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ErrInvalidRequest.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields = append(fields, fe.Field()+": is required")
		case "gt":
			fields = append(fields, fe.Field()+": must be greater than "+fe.Param())
		case "gte":
			fields = append(fields, fe.Field()+": must not be negative")
		case "email":
			fields = append(fields, fe.Field()+": must be a valid email")
		default:
			fields = append(fields, fe.Field()+": is invalid")
		}
	}
	return "validation failed: " + strings.Join(fields, "; ")
}

type rawResponse struct {
	status int
	body   []byte
}

func (r rawResponse) ok() bool {
	return r.status >= 200 && r.status < 300
}

// post sends one request and reads the whole body. Errors are transport
// errors only; HTTP status handling is left to the adapter.
func (b base) post(ctx context.Context, url, contentType string, body []byte, header http.Header, log *zap.Logger) (rawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return rawResponse{}, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		log.Error("Gateway request failed", zap.Error(err))
		return rawResponse{}, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body", zap.Error(err))
		return rawResponse{}, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if !(resp.StatusCode >= 200 && resp.StatusCode < 300) {
		log.Warn("Gateway returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
	}

	return rawResponse{status: resp.StatusCode, body: bodyBytes}, nil
}
