// Package parking defines the domain error taxonomy shared by the wire
// layer, the services and the repositories. Every rule violation that a
// gate or an admin client can trigger is one of these types, so the
// dispatch layers can map errors to protocol responses exhaustively with
// errors.As instead of string matching.
package parking

import "fmt"

// InvalidTicketCodeError reports a ticket code that is either unknown
// (no ongoing visit) or already in use (duplicate entry attempt).
type InvalidTicketCodeError struct {
	Detail string
}

func (e *InvalidTicketCodeError) Error() string { return e.Detail }

// UnpaidFeeError reports an exit attempt while the visit still owes a
// positive balance.
type UnpaidFeeError struct {
	TicketCode uint64
	Balance    float64
}

func (e *UnpaidFeeError) Error() string {
	return fmt.Sprintf("fee for visit with ticket code %d is not fully paid, balance: %.2f",
		e.TicketCode, e.Balance)
}

// IllegalPaymentAttemptError reports a start or complete operation that
// violates the payment-session rules (non-existent session, session not
// PENDING, session expired, or payment attempted during the exit
// allowance period).
type IllegalPaymentAttemptError struct {
	Detail string
}

func (e *IllegalPaymentAttemptError) Error() string { return e.Detail }

// IllegalPaymentCancellationAttemptError is the cancellation counterpart
// of IllegalPaymentAttemptError. It is a distinct type because callers
// surface the two differently.
type IllegalPaymentCancellationAttemptError struct {
	Detail string
}

func (e *IllegalPaymentCancellationAttemptError) Error() string { return e.Detail }

// InvalidSettingError reports a configuration value that is present but
// unparseable. There is no safe numeric fallback once a value exists, so
// the computation that needed the setting fails hard with this error.
type InvalidSettingError struct {
	Setting string
	Cause   error
}

func (e *InvalidSettingError) Error() string {
	return fmt.Sprintf("invalid value for setting %q: %v", e.Setting, e.Cause)
}

func (e *InvalidSettingError) Unwrap() error { return e.Cause }

// DecodingError reports a malformed request payload, e.g. an RFID tag
// field that is not exactly 8 bytes.
type DecodingError struct {
	Detail string
}

func (e *DecodingError) Error() string { return e.Detail }
