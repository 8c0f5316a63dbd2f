package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"donasi-be/internal/idempotency"
	"donasi-be/internal/logger"
	"donasi-be/internal/metrics"
	"donasi-be/internal/payment"
	"donasi-be/internal/utils"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	maxBodyBytes      = 64 << 10
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	idempotencyScope  = "payments"
)

type AdapterSource interface {
	Get(code string) (payment.Adapter, error)
}

type IdempotencyStore interface {
	Claim(ctx context.Context, scope, key, fingerprint string) (*idempotency.Record, error)
	Complete(ctx context.Context, scope, key, fingerprint string, statusCode int, body []byte) error
	Release(ctx context.Context, scope, key string) error
}

type Handler struct {
	Adapters    AdapterSource
	Idempotency IdempotencyStore
	Metrics     *metrics.PaymentMetrics
}

// NewCheckoutHandler wires the payment endpoints. store may be nil, in which
// case Idempotency-Key headers are ignored. m may be nil.
func NewCheckoutHandler(adapters AdapterSource, store IdempotencyStore, m *metrics.PaymentMetrics) *Handler {
	return &Handler{Adapters: adapters, Idempotency: store, Metrics: m}
}

type createPaymentInput struct {
	Gateway string `json:"gateway"`
	payment.PaymentRequest
}

// CreatePaymentHandler serves POST /payments for backend callers.
func (h *Handler) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in createPaymentInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	adapter, err := h.Adapters.Get(in.Gateway)
	if err != nil || adapter.Code() == payment.GatewayManual {
		utils.WriteJSONError(w, "unknown gateway", http.StatusBadRequest)
		return
	}

	ctx = logger.WithGateway(ctx, string(adapter.Code()))
	log := logger.FromCtx(ctx).With(zap.String("donation_id", in.DonationID))

	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	fingerprint := requestFingerprint(in)
	if key != "" && h.Idempotency != nil {
		rec, err := h.Idempotency.Claim(ctx, idempotencyScope, key, fingerprint)
		switch {
		case errors.Is(err, idempotency.ErrKeyReused):
			log.Warn("Idempotency key reused with a different request")
			utils.WriteJSONError(w, "idempotency key already used for a different request", http.StatusUnprocessableEntity)
			return
		case errors.Is(err, idempotency.ErrInProgress):
			utils.WriteJSONError(w, "request already in progress", http.StatusConflict)
			return
		case err != nil:
			log.Error("Idempotency store unavailable", zap.Error(err))
			utils.WriteJSONError(w, "idempotency store unavailable", http.StatusServiceUnavailable)
			return
		case rec != nil:
			log.Info("Replaying stored payment response")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(replayedHeader, "true")
			w.WriteHeader(rec.StatusCode)
			w.Write(rec.Body)
			return
		}
	}

	start := time.Now()
	resp := adapter.CreatePayment(ctx, in.PaymentRequest)
	latency := time.Since(start)
	h.Metrics.ObserveGatewayLatency(string(adapter.Code()), resp.Success, latency)

	status := statusFor(resp)
	log = log.With(zap.Duration("gateway_latency", latency))

	if key != "" && h.Idempotency != nil {
		h.settleKey(ctx, log, key, fingerprint, status, resp)
	}

	if resp.Success {
		log.Info("Payment created", zap.String("external_id", resp.ExternalID))
	} else {
		log.Warn("Payment creation failed", zap.String("error", resp.Error))
	}
	utils.WriteJSON(w, status, resp)
}

// settleKey stores successful responses and frees the key after a failure
// so the caller can retry.
func (h *Handler) settleKey(ctx context.Context, log *zap.Logger, key, fingerprint string, status int, resp payment.PaymentResponse) {
	if !resp.Success {
		if err := h.Idempotency.Release(ctx, idempotencyScope, key); err != nil {
			log.Error("Failed to release idempotency key", zap.Error(err))
		}
		return
	}

	body, err := json.Marshal(resp)
	if err == nil {
		err = h.Idempotency.Complete(ctx, idempotencyScope, key, fingerprint, status, body)
	}
	if err != nil {
		log.Error("Failed to store idempotent response", zap.Error(err))
	}
}

// requestFingerprint hashes the decoded request, so formatting differences
// in the body do not count as a different request.
func requestFingerprint(in createPaymentInput) string {
	canonical, _ := json.Marshal(in)
	return payment.SHA256Hex(canonical)
}

func statusFor(resp payment.PaymentResponse) int {
	switch {
	case resp.Success:
		return http.StatusCreated
	case resp.Error == payment.MsgGatewayUnreachable, resp.Error == payment.MsgBadGatewayResponse:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

// ManualPaymentHandler serves POST /admin/payments/manual.
func (h *Handler) ManualPaymentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req payment.PaymentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	adapter, err := h.Adapters.Get(string(payment.GatewayManual))
	if err != nil {
		utils.WriteJSONError(w, "manual payments are disabled", http.StatusNotFound)
		return
	}

	resp := adapter.CreatePayment(ctx, req)

	adminID, _ := utils.GetUserIDFromContext(ctx)
	logger.FromCtx(ctx).Info("Manual payment recorded",
		zap.String("admin_id", adminID),
		zap.String("donation_id", req.DonationID),
		zap.String("external_id", resp.ExternalID),
		zap.Bool("success", resp.Success),
	)

	utils.WriteJSON(w, statusFor(resp), resp)
}

type instructionsResponse struct {
	Method string   `json:"method"`
	Steps  []string `json:"steps"`
}

// InstructionsHandler serves GET /payments/instructions.
func (h *Handler) InstructionsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	method := q.Get("method")
	if method == "" {
		utils.WriteJSONError(w, "method is required", http.StatusBadRequest)
		return
	}

	vars := payment.InstructionVars{
		"payment_code": q.Get("payment_code"),
	}
	if amount := q.Get("amount"); amount != "" {
		n, err := cast.ToInt64E(amount)
		if err != nil || n <= 0 {
			utils.WriteJSONError(w, "amount must be a positive integer", http.StatusBadRequest)
			return
		}
		vars["amount"] = utils.FormatIDR(n)
	}

	name := method
	if m, err := payment.ParseMethod(method); err == nil {
		name = m.String()
	}

	utils.WriteJSON(w, http.StatusOK, instructionsResponse{
		Method: name,
		Steps:  payment.InjectVariables(payment.GetInstructions(method), vars),
	})
}
