package common

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrLeaseHeld        = errors.New("a settlement attempt already owns this reservation")
	ErrAlreadyCancelled = errors.New("cancellation has already been recorded")
)

// FailedPrecondition is the "rejected, do not retry" error class: wrong
// status, wrong caller, missing gateway prerequisites. No state is mutated.
type FailedPrecondition struct {
	Code    string
	Message string
}

func (e *FailedPrecondition) Error() string {
	return e.Message
}

func Precondition(code, format string, args ...any) error {
	return &FailedPrecondition{Code: code, Message: fmt.Sprintf(format, args...)}
}

// RetryableError is the "failed, safe to retry" class: a transient gateway or
// store failure that left the reservation unmodified.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err.Error())
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

func Retryable(op string, err error) error {
	return &RetryableError{Op: op, Err: err}
}

// storeFault classifies a store error: sentinel and precondition rejections
// pass through unchanged, anything else is a transient fault the caller may
// retry.
func storeFault(op string, err error) error {
	var pre *FailedPrecondition
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyCancelled) || errors.As(err, &pre) {
		return err
	}
	return Retryable(op, err)
}

const (
	CodeNotRequester    = "not_requester"
	CodeNotConfirmed    = "not_confirmed"
	CodeAlreadyStarted  = "already_started"
	CodeNoAccount       = "no_account"
	CodeHostNotPayable  = "host_not_payable"
	CodeNoCustomer      = "no_customer"
	CodeNoPaymentMethod = "no_payment_method"
)
