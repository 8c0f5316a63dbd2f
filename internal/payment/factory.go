package payment

import (
	"fmt"
	"sort"
	"strings"
)

// NewAdapter builds the adapter registered under code. This is the only place
// a provider is wired in.
func NewAdapter(code string, creds Credentials, env Environment, opts ...Option) (Adapter, error) {
	if env != EnvSandbox && env != EnvProduction {
		return nil, ErrEnvironmentMissing
	}

	switch GatewayCode(strings.ToLower(strings.TrimSpace(code))) {
	case GatewayMidtrans:
		return NewMidtransGateway(creds.Midtrans, env, opts...), nil
	case GatewayXendit:
		return NewXenditGateway(creds.Xendit, env, opts...), nil
	case GatewayIpaymu:
		return NewIpaymuGateway(creds.Ipaymu, env, opts...), nil
	case GatewayFlip:
		return NewFlipGateway(creds.Flip, env, opts...), nil
	case GatewayManual:
		return NewManualGateway(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, code)
	}
}

// Registry holds one adapter per enabled gateway, built once at startup.
type Registry struct {
	adapters map[GatewayCode]Adapter
}

func NewRegistry(codes []string, creds Credentials, env Environment, opts ...Option) (*Registry, error) {
	r := &Registry{adapters: make(map[GatewayCode]Adapter, len(codes))}
	for _, code := range codes {
		a, err := NewAdapter(code, creds, env, opts...)
		if err != nil {
			return nil, err
		}
		r.adapters[a.Code()] = a
	}
	return r, nil
}

// Get returns the adapter for code or ErrUnknownGateway when it is not enabled.
func (r *Registry) Get(code string) (Adapter, error) {
	a, ok := r.adapters[GatewayCode(strings.ToLower(strings.TrimSpace(code)))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, code)
	}
	return a, nil
}

// Codes lists the enabled gateways in sorted order.
func (r *Registry) Codes() []string {
	out := make([]string, 0, len(r.adapters))
	for code := range r.adapters {
		out = append(out, string(code))
	}
	sort.Strings(out)
	return out
}
