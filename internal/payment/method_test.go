package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		code    string
		want    Method
		wantErr bool
	}{
		{code: "va:bca", want: Method{Kind: KindVA, Channel: "bca"}},
		{code: "VA:Mandiri", want: Method{Kind: KindVA, Channel: "mandiri"}},
		{code: "bni", want: Method{Kind: KindVA, Channel: "bni"}},
		{code: "ewallet:ovo", want: Method{Kind: KindEWallet, Channel: "ovo"}},
		{code: "shopeepay", want: Method{Kind: KindEWallet, Channel: "shopeepay"}},
		{code: "qris", want: Method{Kind: KindQRIS}},
		{code: " QRIS ", want: Method{Kind: KindQRIS}},
		{code: "qris:qris", want: Method{Kind: KindQRIS}},
		{code: "va:ovo", wantErr: true},
		{code: "ewallet:bca", wantErr: true},
		{code: "va:", wantErr: true},
		{code: "qris:gopay", wantErr: true},
		{code: "cash", wantErr: true},
		{code: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := ParseMethod(tt.code)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedMethod)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMethodString(t *testing.T) {
	assert.Equal(t, "va:bca", Method{Kind: KindVA, Channel: "bca"}.String())
	assert.Equal(t, "qris", Method{Kind: KindQRIS}.String())
}
