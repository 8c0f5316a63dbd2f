package payment

import "errors"

var (
	ErrUnknownGateway     = errors.New("unknown payment gateway")
	ErrUnsupportedMethod  = errors.New("unsupported payment method")
	ErrEnvironmentMissing = errors.New("payment environment must be set explicitly")
	ErrInvalidRequest     = errors.New("invalid payment request")
)

// Failure messages placed in PaymentResponse.Error. Details stay in the logs.
const (
	MsgGatewayUnreachable = "payment gateway unreachable"
	MsgBadGatewayResponse = "unexpected response from payment gateway"
	MsgInactiveLink       = "payment link created but inactive"
	MsgMissingPayment     = "payment gateway returned no payment reference"
)
