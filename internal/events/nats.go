package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"donasi-be/internal/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Connect dials NATS with reconnects enabled for the lifetime of the process.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(
		url,
		nats.Name("donasi-be"),
		nats.ReconnectWait(3*time.Second),
		nats.MaxReconnects(-1),
		nats.MaxPingsOutstanding(5),
		nats.PingInterval(10*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.L().Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.L().Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return nc, nil
}

type natsConn interface {
	PublishMsg(m *nats.Msg) error
}

type NatsPublisher struct {
	conn natsConn
}

func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{conn: nc}
}

// PublishPaymentStatus sends the event as JSON. The Nats-Msg-Id header lets a
// JetStream stream drop redeliveries of the same webhook.
func (p *NatsPublisher) PublishPaymentStatus(ctx context.Context, e PaymentStatusChanged) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode payment event: %w", err)
	}

	msg := nats.NewMsg(e.Subject())
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, e.EventID)

	if err := p.conn.PublishMsg(msg); err != nil {
		logger.FromCtx(ctx).Error("failed to publish payment event",
			zap.String("subject", msg.Subject),
			zap.String("external_id", e.ExternalID),
			zap.Error(err),
		)
		return err
	}

	logger.FromCtx(ctx).Info("payment event published",
		zap.String("subject", msg.Subject),
		zap.String("external_id", e.ExternalID),
	)
	return nil
}
