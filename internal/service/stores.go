// Package service holds the fee, entry, exit and payment domain logic.
// Services depend only on the narrow store interfaces below, injected
// through their constructors, so tests substitute in-memory fakes and
// the MySQL repositories plug in unchanged.
package service

import (
	"context"
	"time"

	"github.com/johngachihi/parkgate/internal/model"
	"github.com/johngachihi/parkgate/internal/queue"
)

// VisitStore persists visits. Lookups that find nothing return
// sql.ErrNoRows, matching the database/sql contract the repositories
// already have.
type VisitStore interface {
	// CreateOngoing inserts a new ongoing visit. A concurrent or
	// duplicate entry with the same ticket code fails with
	// parking.InvalidTicketCodeError, backed by a storage-level
	// uniqueness constraint.
	CreateOngoing(ctx context.Context, ticketCode uint64, entryTime time.Time) (*model.Visit, error)
	ExistsOngoingByTicket(ctx context.Context, ticketCode uint64) (bool, error)
	// FindOngoingByTicket loads the ongoing visit and its payments.
	FindOngoingByTicket(ctx context.Context, ticketCode uint64) (*model.Visit, error)
	// FinishOngoingVisit atomically records the finished visit
	// (preserving entry time and ticket code), re-parents the visit's
	// payments to it and removes the ongoing visit.
	FinishOngoingVisit(ctx context.Context, visit *model.Visit, exitTime time.Time) error
}

// PaymentStore persists payments and payment sessions.
type PaymentStore interface {
	SaveSession(ctx context.Context, session *model.PaymentSession) error
	FindSessionByID(ctx context.Context, id uint64) (*model.PaymentSession, error)
	// CompleteSession creates the payment and marks the session
	// COMPLETED in one transaction. It fails if the session is no
	// longer PENDING in storage.
	CompleteSession(ctx context.Context, session *model.PaymentSession, madeAt time.Time) (*model.Payment, error)
	// CancelSession marks the session CANCELLED. It fails if the
	// session is no longer PENDING in storage.
	CancelSession(ctx context.Context, session *model.PaymentSession, finishedAt time.Time) error
}

// SettingsStore reads the typed configuration values the fee and
// payment logic depends on. Implementations apply the declared default
// when a key is absent and fail with parking.InvalidSettingError when a
// stored value is malformed.
type SettingsStore interface {
	// MaxPaymentAge is the payment-validity window: how long after a
	// completed payment the exit allowance lasts.
	MaxPaymentAge(ctx context.Context) (time.Duration, error)
	// MaxPaymentSessionAge is how long a pending payment session may be
	// completed or cancelled before it counts as expired.
	MaxPaymentSessionAge(ctx context.Context) (time.Duration, error)
}

// TariffStore reads and replaces the parking tariff tiers.
type TariffStore interface {
	// ListAscending returns all tiers ordered ascending by upper bound.
	ListAscending(ctx context.Context) ([]model.TariffTier, error)
	// Overwrite atomically replaces all tiers and invalidates any
	// cached tier list.
	Overwrite(ctx context.Context, tiers []model.TariffTier) error
}

// EventPublisher emits gate events. Publishing is best-effort: callers
// ignore the returned error so a broker outage never blocks a gate.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.GateEvent) error
}
