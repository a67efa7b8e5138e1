package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/johngachihi/parkgate/internal/parking"
	"github.com/johngachihi/parkgate/internal/queue"
)

// ExitService decides whether a vehicle may leave and, when it may,
// converts its ongoing visit into a finished one.
type ExitService struct {
	visits VisitStore
	fees   *FeeService
	events EventPublisher
}

func NewExitService(visits VisitStore, fees *FeeService, events EventPublisher) *ExitService {
	return &ExitService{visits: visits, fees: fees, events: events}
}

// FinishVisit finalizes the ongoing visit for the ticket code. An
// unknown code fails with parking.InvalidTicketCodeError; a positive
// outstanding balance fails with parking.UnpaidFeeError and leaves the
// visit ongoing. On success the visit becomes finished, keeping its
// entry time, ticket code and payments.
func (s *ExitService) FinishVisit(ctx context.Context, ticketCode uint64) error {
	visit, err := s.visits.FindOngoingByTicket(ctx, ticketCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &parking.InvalidTicketCodeError{
				Detail: "the ticket code provided is not for an ongoing visit",
			}
		}
		return err
	}

	balance, err := s.fees.OutstandingFee(ctx, visit)
	if err != nil {
		return err
	}
	if balance > 0 {
		return &parking.UnpaidFeeError{TicketCode: ticketCode, Balance: balance}
	}

	now := time.Now().UTC()
	if err := s.visits.FinishOngoingVisit(ctx, visit, now); err != nil {
		return err
	}

	if s.events != nil {
		_ = s.events.Publish(ctx, queue.GateEvent{
			Kind:       queue.EventVehicleExited,
			TicketCode: ticketCode,
			At:         now.Format(time.RFC3339),
		})
	}
	return nil
}
