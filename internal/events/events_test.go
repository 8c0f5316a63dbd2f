package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"donasi-be/internal/logger"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeConn struct {
	msgs []*nats.Msg
	err  error
}

func (f *fakeConn) PublishMsg(m *nats.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, m)
	return nil
}

func sampleEvent() PaymentStatusChanged {
	paid := time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
	return PaymentStatusChanged{
		EventID:    "midtrans:MT-DON-1-1:success",
		Gateway:    "midtrans",
		ExternalID: "MT-DON-1-1",
		Status:     "success",
		PaidAt:     &paid,
		ReceivedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestPaymentStatusChanged_Subject(t *testing.T) {
	assert.Equal(t, "payment.status.success", sampleEvent().Subject())
	assert.Equal(t, "payment.status.expired", PaymentStatusChanged{Status: "expired"}.Subject())
}

func TestNatsPublisher_Publish(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	defer logger.Replace(zap.New(core))()

	conn := &fakeConn{}
	p := &NatsPublisher{conn: conn}

	err := p.PublishPaymentStatus(context.Background(), sampleEvent())
	require.NoError(t, err)
	require.Len(t, conn.msgs, 1)

	msg := conn.msgs[0]
	assert.Equal(t, "payment.status.success", msg.Subject)
	assert.Equal(t, "midtrans:MT-DON-1-1:success", msg.Header.Get(nats.MsgIdHdr))

	var decoded PaymentStatusChanged
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, "MT-DON-1-1", decoded.ExternalID)
	assert.True(t, decoded.PaidAt.Equal(*sampleEvent().PaidAt))

	assert.Equal(t, 1, observed.FilterMessage("payment event published").Len())
}

func TestNatsPublisher_PublishError(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	defer logger.Replace(zap.New(core))()

	p := &NatsPublisher{conn: &fakeConn{err: nats.ErrConnectionClosed}}

	err := p.PublishPaymentStatus(context.Background(), sampleEvent())
	assert.True(t, errors.Is(err, nats.ErrConnectionClosed))
	assert.Equal(t, 1, observed.FilterMessage("failed to publish payment event").Len())
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.PublishPaymentStatus(context.Background(), sampleEvent()))
}
