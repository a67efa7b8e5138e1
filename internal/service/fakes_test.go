package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/johngachihi/parkgate/internal/model"
	"github.com/johngachihi/parkgate/internal/parking"
	"github.com/johngachihi/parkgate/internal/queue"
)

// fakeStore is an in-memory VisitStore and PaymentStore with the same
// contracts as the MySQL repositories: sql.ErrNoRows on missing rows,
// typed errors on constraint violations, conditional terminal updates
// on sessions.
type fakeStore struct {
	mu       sync.Mutex
	nextID   uint64
	ongoing  map[uint64]*model.Visit // keyed by visit id
	finished []*model.Visit
	sessions map[uint64]*model.PaymentSession
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ongoing:  make(map[uint64]*model.Visit),
		sessions: make(map[uint64]*model.PaymentSession),
	}
}

func (f *fakeStore) id() uint64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateOngoing(_ context.Context, ticketCode uint64, entryTime time.Time) (*model.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.ongoing {
		if v.TicketCode == ticketCode {
			return nil, &parking.InvalidTicketCodeError{Detail: "ticket code already in use"}
		}
	}
	v := &model.Visit{
		ID:         f.id(),
		Type:       model.VisitOngoing,
		EntryTime:  entryTime,
		TicketCode: ticketCode,
	}
	f.ongoing[v.ID] = v
	return v, nil
}

func (f *fakeStore) ExistsOngoingByTicket(_ context.Context, ticketCode uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.ongoing {
		if v.TicketCode == ticketCode {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) FindOngoingByTicket(_ context.Context, ticketCode uint64) (*model.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.ongoing {
		if v.TicketCode == ticketCode {
			cp := *v
			cp.Payments = append([]model.Payment(nil), v.Payments...)
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) FinishOngoingVisit(_ context.Context, visit *model.Visit, exitTime time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.ongoing[visit.ID]
	if !ok {
		return sql.ErrNoRows
	}
	done := &model.Visit{
		ID:         f.id(),
		Type:       model.VisitFinished,
		EntryTime:  stored.EntryTime,
		TicketCode: stored.TicketCode,
		ExitTime:   &exitTime,
		Payments:   stored.Payments,
	}
	f.finished = append(f.finished, done)
	delete(f.ongoing, visit.ID)
	return nil
}

func (f *fakeStore) SaveSession(_ context.Context, session *model.PaymentSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session.ID = f.id()
	cp := *session
	f.sessions[session.ID] = &cp
	return nil
}

func (f *fakeStore) FindSessionByID(_ context.Context, id uint64) (*model.PaymentSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) CompleteSession(_ context.Context, session *model.PaymentSession, madeAt time.Time) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.sessions[session.ID]
	if !ok || stored.Status != model.SessionPending {
		return nil, &parking.IllegalPaymentAttemptError{Detail: "payment session is no longer PENDING"}
	}
	stored.Status = model.SessionCompleted
	stored.FinishedAt = &madeAt
	p := model.Payment{
		ID:      f.id(),
		VisitID: stored.VisitID,
		MadeAt:  madeAt,
		Amount:  stored.Amount,
	}
	if v, ok := f.ongoing[stored.VisitID]; ok {
		v.Payments = append(v.Payments, p)
	}
	return &p, nil
}

func (f *fakeStore) CancelSession(_ context.Context, session *model.PaymentSession, finishedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.sessions[session.ID]
	if !ok || stored.Status != model.SessionPending {
		return &parking.IllegalPaymentCancellationAttemptError{Detail: "payment session is no longer PENDING"}
	}
	stored.Status = model.SessionCancelled
	stored.FinishedAt = &finishedAt
	return nil
}

// backdateEntry moves a stored ongoing visit's entry time into the past
// to simulate elapsed stay.
func (f *fakeStore) backdateEntry(ticketCode uint64, by time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.ongoing {
		if v.TicketCode == ticketCode {
			v.EntryTime = v.EntryTime.Add(-by)
		}
	}
}

// backdateSession moves a stored session's start time into the past to
// simulate an aged session.
func (f *fakeStore) backdateSession(id uint64, by time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		s.StartedAt = s.StartedAt.Add(-by)
	}
}

// backdatePayments moves every payment of an ongoing visit into the
// past, e.g. to push it beyond the payment-validity window.
func (f *fakeStore) backdatePayments(ticketCode uint64, by time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.ongoing {
		if v.TicketCode == ticketCode {
			for i := range v.Payments {
				v.Payments[i].MadeAt = v.Payments[i].MadeAt.Add(-by)
			}
		}
	}
}

type fakeSettings struct {
	paymentAge time.Duration
	sessionAge time.Duration
}

func (f *fakeSettings) MaxPaymentAge(context.Context) (time.Duration, error) {
	return f.paymentAge, nil
}

func (f *fakeSettings) MaxPaymentSessionAge(context.Context) (time.Duration, error) {
	return f.sessionAge, nil
}

type fakeTariffs struct {
	mu    sync.Mutex
	tiers []model.TariffTier
}

func (f *fakeTariffs) ListAscending(context.Context) ([]model.TariffTier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.TariffTier(nil), f.tiers...), nil
}

func (f *fakeTariffs) Overwrite(_ context.Context, tiers []model.TariffTier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tiers = append([]model.TariffTier(nil), tiers...)
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []queue.GateEvent
}

func (f *fakeEvents) Publish(_ context.Context, e queue.GateEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEvents) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Kind)
	}
	return out
}

func minuteTiers(pairs ...float64) []model.TariffTier {
	// pairs come as upperBoundMinutes, fee, upperBoundMinutes, fee, ...
	tiers := make([]model.TariffTier, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		tiers = append(tiers, model.TariffTier{
			UpperBound: time.Duration(pairs[i]) * time.Minute,
			Fee:        pairs[i+1],
		})
	}
	return tiers
}
