package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"donasi-be/internal/events"
	"donasi-be/internal/logger"
	"donasi-be/internal/metrics"
	"donasi-be/internal/payment"
	"donasi-be/internal/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type AdapterSource interface {
	Get(code string) (payment.Adapter, error)
}

// Handler receives provider callbacks, authenticates them through the
// matching adapter and hands the normalized status to the platform.
type Handler struct {
	Adapters  AdapterSource
	Repo      Repository
	Publisher events.Publisher
	Metrics   *metrics.PaymentMetrics
	now       func() time.Time
}

// NewWebhookHandler wires the webhook endpoints. m may be nil.
func NewWebhookHandler(adapters AdapterSource, repo Repository, publisher events.Publisher, m *metrics.PaymentMetrics) *Handler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Handler{
		Adapters:  adapters,
		Repo:      repo,
		Publisher: publisher,
		Metrics:   m,
		now:       time.Now,
	}
}

// PaymentWebhookHandler serves POST /webhook/{gateway}.
func (h *Handler) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("gateway")
	ctx := logger.WithGateway(r.Context(), code)
	log := logger.FromCtx(ctx)

	adapter, err := h.Adapters.Get(code)
	if err != nil || adapter.Code() == payment.GatewayManual {
		// manual confirmations only come through the admin endpoint
		utils.WriteJSONError(w, "unknown gateway", http.StatusNotFound)
		return
	}
	h.Metrics.IncWebhook(string(adapter.Code()), metrics.OutcomeReceived)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.WriteJSONError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	payload, err := decodePayload(r, body)
	if err != nil {
		log.Warn("Undecodable webhook body", zap.Error(err))
		utils.WriteJSONError(w, "invalid payload", http.StatusBadRequest)
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		utils.WriteJSONError(w, "invalid payload", http.StatusBadRequest)
		return
	}

	signature := signatureFor(adapter.Code(), r, payload)
	if !payment.VerifyWebhookRequest(adapter, body, payload, signature) {
		// rejected deliveries are never stored: the body is unauthenticated
		log.Warn("Rejected webhook with invalid signature",
			zap.String("body_sha256", payment.SHA256Hex(body)),
			zap.Int("body_bytes", len(body)),
			zap.String("remote_addr", r.RemoteAddr),
		)
		h.Metrics.IncWebhook(string(adapter.Code()), metrics.OutcomeRejected)
		utils.WriteJSONError(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	result := adapter.ParseWebhook(payload)
	if result.ExternalID == "" {
		log.Warn("Webhook without external id", zap.String("status", result.Status.String()))
		utils.WriteJSONError(w, "cannot correlate webhook", http.StatusUnprocessableEntity)
		return
	}

	h.process(ctx, w, adapter.Code(), result, raw)
}

type manualConfirmRequest struct {
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	PaidAt     string `json:"paid_at,omitempty"`
}

// ManualConfirmHandler serves POST /admin/payments/manual/confirm. It must sit
// behind admin authentication: the manual adapter trusts whatever it gets.
func (h *Handler) ManualConfirmHandler(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithGateway(r.Context(), string(payment.GatewayManual))

	var in manualConfirmRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if in.ExternalID == "" {
		utils.WriteJSONError(w, "external_id is required", http.StatusBadRequest)
		return
	}

	adapter, err := h.Adapters.Get(string(payment.GatewayManual))
	if err != nil {
		utils.WriteJSONError(w, "manual payments are disabled", http.StatusNotFound)
		return
	}

	payload := payment.WebhookPayload{
		"external_id": in.ExternalID,
		"status":      in.Status,
	}
	if in.PaidAt != "" {
		payload["paid_at"] = in.PaidAt
	}
	raw, _ := json.Marshal(payload)

	if !adapter.VerifyWebhook(payload, "") {
		utils.WriteJSONError(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	h.process(ctx, w, adapter.Code(), adapter.ParseWebhook(payload), raw)
}

// process stores the normalized event, publishes it once and acknowledges.
func (h *Handler) process(ctx context.Context, w http.ResponseWriter, code payment.GatewayCode, result payment.NormalizedWebhookResult, raw json.RawMessage) {
	log := logger.FromCtx(ctx).With(
		zap.String("external_id", result.ExternalID),
		zap.String("status", result.Status.String()),
	)

	eventID := result.ExternalID + ":" + result.Status.String()
	webhookID, processed, err := h.Repo.SaveWebhook(ctx, Event{
		Provider:       string(code),
		EventID:        eventID,
		ExternalID:     result.ExternalID,
		Status:         result.Status.String(),
		Payload:        raw,
		SignatureValid: true,
	})
	if err != nil {
		log.Error("Failed to store webhook", zap.Error(err))
		utils.WriteJSONError(w, "failed to store webhook", http.StatusInternalServerError)
		return
	}
	if processed {
		log.Info("Duplicate webhook ignored")
		h.Metrics.IncWebhook(string(code), metrics.OutcomeDuplicate)
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	err = h.Publisher.PublishPaymentStatus(ctx, events.PaymentStatusChanged{
		EventID:    string(code) + ":" + eventID,
		Gateway:    string(code),
		ExternalID: result.ExternalID,
		Status:     result.Status.String(),
		PaidAt:     result.PaidAt,
		ReceivedAt: h.now().UTC(),
	})
	if err != nil {
		h.Metrics.IncWebhook(string(code), metrics.OutcomeFailed)
		if markErr := h.Repo.MarkWebhookFailed(ctx, webhookID, err.Error()); markErr != nil {
			log.Error("Failed to mark webhook failed", zap.Error(markErr))
		}
		// non-2xx makes the provider redeliver
		utils.WriteJSONError(w, "failed to process webhook", http.StatusInternalServerError)
		return
	}

	if err := h.Repo.MarkWebhookProcessed(ctx, webhookID); err != nil {
		log.Error("Failed to mark webhook processed", zap.Error(err))
	}

	h.Metrics.IncWebhook(string(code), metrics.OutcomeProcessed)
	log.Info("Webhook processed")
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"external_id":    result.ExternalID,
		"payment_status": result.Status.String(),
	})
}
