package model

import "time"

// Payment is an immutable record of a completed payment against a
// visit. Payments are only ever created by completing a payment
// session; they are re-parented to the finished visit when the vehicle
// exits.
//
// Fields:
//  ID      – primary key identifier.
//  VisitID – visit the payment was made for.
//  MadeAt  – completion timestamp.
//  Amount  – amount paid.
type Payment struct {
	ID      uint64    // payments.id
	VisitID uint64    // payments.visit_id
	MadeAt  time.Time // payments.made_at
	Amount  float64   // payments.amount
}

// IsExpired reports whether the payment is older than the configured
// maximum payment-validity age, i.e. whether its exit allowance window
// has lapsed.
func (p *Payment) IsExpired(maxAge time.Duration, now time.Time) bool {
	return now.Sub(p.MadeAt) > maxAge
}

// SessionStatus is the stored state of a payment session. Expiry is not
// a stored status: a PENDING session older than the configured maximum
// session age is treated as expired at the moment of use.
type SessionStatus string

const (
	SessionPending   SessionStatus = "PENDING"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionCancelled SessionStatus = "CANCELLED"
)

// PaymentSession is a time-boxed intent to pay the fee computed when
// the session was started. It references, but does not own, its visit.
// Once COMPLETED or CANCELLED the session is terminal.
//
// Fields:
//  ID         – primary key identifier.
//  VisitID    – ongoing visit the session was started for.
//  StartedAt  – creation timestamp; expiry is derived from it.
//  Amount     – fee computed at start time.
//  Status     – PENDING, COMPLETED or CANCELLED.
//  FinishedAt – when the session reached a terminal status.
type PaymentSession struct {
	ID         uint64        // payment_sessions.id
	VisitID    uint64        // payment_sessions.visit_id
	StartedAt  time.Time     // payment_sessions.started_at
	Amount     float64       // payment_sessions.amount
	Status     SessionStatus // payment_sessions.status
	FinishedAt *time.Time    // payment_sessions.finished_at (nil while pending)
}

// IsExpired reports whether the session is older than the configured
// maximum session age. The check is evaluated fresh at every use; the
// stored status is never trusted to reflect expiry.
func (s *PaymentSession) IsExpired(maxAge time.Duration, now time.Time) bool {
	return now.Sub(s.StartedAt) > maxAge
}
