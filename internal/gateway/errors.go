package gateway

import (
	"errors"
	"fmt"
)

var (
	ErrAuth              = errors.New("gateway authentication failed")
	ErrOrder             = errors.New("gateway order registration failed")
	ErrKey               = errors.New("gateway payment key request failed")
	ErrTimeout           = errors.New("gateway request timed out")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
)

// Step identifies one call of the checkout handshake.
type Step string

const (
	StepAuthenticate Step = "authenticate"
	StepCreateOrder  Step = "create_order"
	StepPaymentKey   Step = "payment_key"
	StepPayable      Step = "build_payable"
)

func (s Step) kind() error {
	switch s {
	case StepAuthenticate:
		return ErrAuth
	case StepCreateOrder:
		return ErrOrder
	case StepPaymentKey:
		return ErrKey
	default:
		return ErrUnsupportedMethod
	}
}

// Error is returned by every Client call. It matches its Kind and its
// underlying cause with errors.Is.
type Error struct {
	Step Step
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("paymob %s: %v", e.Step, e.Kind)
	}
	return fmt.Sprintf("paymob %s: %v: %v", e.Step, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(step Step, kind, err error) *Error {
	return &Error{Step: step, Kind: kind, Err: err}
}
