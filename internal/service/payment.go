package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/johngachihi/parkgate/internal/model"
	"github.com/johngachihi/parkgate/internal/parking"
	"github.com/johngachihi/parkgate/internal/queue"
)

// PaymentService manages time-boxed payment sessions against ongoing
// visits. A session reserves the fee computed at start time; it must be
// completed or cancelled before the configured session age elapses.
// Expiry is derived from the start time at every use, never read from
// the stored status.
type PaymentService struct {
	visits   VisitStore
	payments PaymentStore
	settings SettingsStore
	fees     *FeeService
	events   EventPublisher
}

func NewPaymentService(
	visits VisitStore,
	payments PaymentStore,
	settings SettingsStore,
	fees *FeeService,
	events EventPublisher,
) *PaymentService {
	return &PaymentService{
		visits:   visits,
		payments: payments,
		settings: settings,
		fees:     fees,
		events:   events,
	}
}

// StartPayment opens a PENDING session holding the balance currently
// owed by the ongoing visit for the ticket code. Starting a payment
// while the visit is inside its exit allowance window is an
// IllegalPaymentAttemptError: the fee is already paid.
func (s *PaymentService) StartPayment(ctx context.Context, ticketCode uint64) (*model.PaymentSession, error) {
	visit, err := s.visits.FindOngoingByTicket(ctx, ticketCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &parking.InvalidTicketCodeError{
				Detail: fmt.Sprintf("the ticket code provided (%d) is not for an ongoing visit", ticketCode),
			}
		}
		return nil, err
	}

	inAllowance, err := s.fees.InExitAllowancePeriod(ctx, visit)
	if err != nil {
		return nil, err
	}
	if inAllowance {
		left, err := s.allowanceLeft(ctx, visit)
		if err != nil {
			return nil, err
		}
		return nil, &parking.IllegalPaymentAttemptError{
			Detail: fmt.Sprintf("parking fee already paid, %d minutes left before charging resumes",
				int(left.Minutes())),
		}
	}

	fee, err := s.fees.OutstandingFee(ctx, visit)
	if err != nil {
		return nil, err
	}

	session := &model.PaymentSession{
		VisitID:   visit.ID,
		StartedAt: time.Now().UTC(),
		Amount:    fee,
		Status:    model.SessionPending,
	}
	if err := s.payments.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// CompletePayment turns a live PENDING session into an immutable
// payment for its visit and terminalizes the session as COMPLETED.
func (s *PaymentService) CompletePayment(ctx context.Context, sessionID uint64) error {
	session, err := s.payments.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &parking.IllegalPaymentAttemptError{
				Detail: "attempted to complete a non-existent payment session",
			}
		}
		return err
	}

	if session.Status != model.SessionPending {
		return &parking.IllegalPaymentAttemptError{
			Detail: fmt.Sprintf("attempted to complete a payment session that is %s", session.Status),
		}
	}

	// Age is checked from started_at in case the session should be,
	// but has not been, treated as expired by its stored status.
	expired, err := s.isExpired(ctx, session)
	if err != nil {
		return err
	}
	if expired {
		return &parking.IllegalPaymentAttemptError{
			Detail: "attempted to complete a payment session that is EXPIRED",
		}
	}

	now := time.Now().UTC()
	if _, err := s.payments.CompleteSession(ctx, session, now); err != nil {
		return err
	}

	if s.events != nil {
		_ = s.events.Publish(ctx, queue.GateEvent{
			Kind:    queue.EventPaymentCompleted,
			VisitID: session.VisitID,
			Amount:  session.Amount,
			At:      now.Format(time.RFC3339),
		})
	}
	return nil
}

// CancelPayment terminalizes a live PENDING session as CANCELLED. The
// checks mirror CompletePayment with the cancellation error kind.
func (s *PaymentService) CancelPayment(ctx context.Context, sessionID uint64) error {
	session, err := s.payments.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &parking.IllegalPaymentCancellationAttemptError{
				Detail: "attempted to cancel a non-existent payment session",
			}
		}
		return err
	}

	if session.Status != model.SessionPending {
		return &parking.IllegalPaymentCancellationAttemptError{
			Detail: fmt.Sprintf("attempted to cancel a payment session that is %s", session.Status),
		}
	}

	expired, err := s.isExpired(ctx, session)
	if err != nil {
		return err
	}
	if expired {
		return &parking.IllegalPaymentCancellationAttemptError{
			Detail: "attempted to cancel a payment session that is EXPIRED",
		}
	}

	return s.payments.CancelSession(ctx, session, time.Now().UTC())
}

func (s *PaymentService) isExpired(ctx context.Context, session *model.PaymentSession) (bool, error) {
	maxAge, err := s.settings.MaxPaymentSessionAge(ctx)
	if err != nil {
		return false, err
	}
	return session.IsExpired(maxAge, time.Now().UTC()), nil
}

// allowanceLeft computes how long the current exit allowance window has
// left to run.
func (s *PaymentService) allowanceLeft(ctx context.Context, visit *model.Visit) (time.Duration, error) {
	maxAge, err := s.settings.MaxPaymentAge(ctx)
	if err != nil {
		return 0, err
	}
	expiry := visit.LatestPayment().MadeAt.Add(maxAge)
	return time.Until(expiry), nil
}
