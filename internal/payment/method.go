package payment

import "strings"

type MethodKind string

const (
	KindVA      MethodKind = "va"
	KindEWallet MethodKind = "ewallet"
	KindQRIS    MethodKind = "qris"
)

// Method is a parsed method code: a kind and, for va/ewallet, a channel.
type Method struct {
	Kind    MethodKind
	Channel string
}

func (m Method) String() string {
	if m.Channel == "" {
		return string(m.Kind)
	}
	return string(m.Kind) + ":" + m.Channel
}

var bankChannels = map[string]struct{}{
	"bca": {}, "bni": {}, "bri": {}, "mandiri": {}, "permata": {}, "cimb": {},
}

var walletChannels = map[string]struct{}{
	"gopay": {}, "shopeepay": {}, "ovo": {}, "dana": {}, "linkaja": {},
}

// ParseMethod reads "kind[:channel]" codes and the bare shorthands "bca",
// "ovo", "qris". Unknown codes return ErrUnsupportedMethod.
func ParseMethod(code string) (Method, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return Method{}, ErrUnsupportedMethod
	}

	kind, channel, hasChannel := strings.Cut(code, ":")
	if !hasChannel {
		switch {
		case code == string(KindQRIS):
			return Method{Kind: KindQRIS}, nil
		case isBank(code):
			return Method{Kind: KindVA, Channel: code}, nil
		case isWallet(code):
			return Method{Kind: KindEWallet, Channel: code}, nil
		}
		return Method{}, ErrUnsupportedMethod
	}

	switch MethodKind(kind) {
	case KindVA:
		if isBank(channel) {
			return Method{Kind: KindVA, Channel: channel}, nil
		}
	case KindEWallet:
		if isWallet(channel) {
			return Method{Kind: KindEWallet, Channel: channel}, nil
		}
	case KindQRIS:
		if channel == "" || channel == "qris" {
			return Method{Kind: KindQRIS}, nil
		}
	}
	return Method{}, ErrUnsupportedMethod
}

func isBank(c string) bool {
	_, ok := bankChannels[c]
	return ok
}

func isWallet(c string) bool {
	_, ok := walletChannels[c]
	return ok
}
