package payment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAdapter(t *testing.T) {
	tests := []struct {
		code string
		want GatewayCode
	}{
		{"midtrans", GatewayMidtrans},
		{"xendit", GatewayXendit},
		{"ipaymu", GatewayIpaymu},
		{"flip", GatewayFlip},
		{"manual", GatewayManual},
		{"  Midtrans ", GatewayMidtrans},
		{"XENDIT", GatewayXendit},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			a, err := NewAdapter(tt.code, testCredentials(), EnvSandbox)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Code())
		})
	}
}

func TestNewAdapter_UnknownGateway(t *testing.T) {
	for _, code := range []string{"", "doku", "stripe"} {
		a, err := NewAdapter(code, testCredentials(), EnvSandbox)
		assert.Nil(t, a)
		assert.True(t, errors.Is(err, ErrUnknownGateway), code)
	}
}

func TestNewAdapter_EnvironmentMissing(t *testing.T) {
	a, err := NewAdapter("midtrans", testCredentials(), Environment(0))

	assert.Nil(t, a)
	assert.ErrorIs(t, err, ErrEnvironmentMissing)
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry([]string{"xendit", "midtrans", "manual"}, testCredentials(), EnvProduction)
	require.NoError(t, err)

	assert.Equal(t, []string{"manual", "midtrans", "xendit"}, r.Codes())

	a, err := r.Get("Midtrans")
	require.NoError(t, err)
	assert.Equal(t, GatewayMidtrans, a.Code())

	_, err = r.Get("flip")
	assert.ErrorIs(t, err, ErrUnknownGateway)
}

func TestRegistry_RejectsUnknownCode(t *testing.T) {
	r, err := NewRegistry([]string{"midtrans", "paypal"}, testCredentials(), EnvSandbox)

	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrUnknownGateway)
}
