package service

import (
	"context"
	"fmt"
	"time"

	"github.com/johngachihi/parkgate/internal/parking"
	"github.com/johngachihi/parkgate/internal/queue"
)

// EntryService admits vehicles: one ongoing visit per ticket code.
type EntryService struct {
	visits VisitStore
	events EventPublisher
}

func NewEntryService(visits VisitStore, events EventPublisher) *EntryService {
	return &EntryService{visits: visits, events: events}
}

// AddVisit creates a new ongoing visit for the ticket code with the
// current entry time. A code already attached to an ongoing visit fails
// with parking.InvalidTicketCodeError; the existence check is backed by
// the store's uniqueness constraint, so a concurrent duplicate entry
// fails the same way.
func (s *EntryService) AddVisit(ctx context.Context, ticketCode uint64) error {
	inUse, err := s.visits.ExistsOngoingByTicket(ctx, ticketCode)
	if err != nil {
		return err
	}
	if inUse {
		return &parking.InvalidTicketCodeError{
			Detail: fmt.Sprintf("the ticket code provided (%d) is already in use", ticketCode),
		}
	}

	now := time.Now().UTC()
	if _, err := s.visits.CreateOngoing(ctx, ticketCode, now); err != nil {
		return err
	}

	if s.events != nil {
		_ = s.events.Publish(ctx, queue.GateEvent{
			Kind:       queue.EventVehicleEntered,
			TicketCode: ticketCode,
			At:         now.Format(time.RFC3339),
		})
	}
	return nil
}
