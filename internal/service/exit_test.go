package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/johngachihi/parkgate/internal/model"
	"github.com/johngachihi/parkgate/internal/parking"
	"github.com/johngachihi/parkgate/internal/queue"
)

func newExitFixture(tiers []model.TariffTier) (*ExitService, *EntryService, *fakeStore, *fakeEvents) {
	store := newFakeStore()
	events := &fakeEvents{}
	settings := &fakeSettings{paymentAge: 20 * time.Minute, sessionAge: 10 * time.Minute}
	fees := NewFeeService(&fakeTariffs{tiers: tiers}, settings)
	return NewExitService(store, fees, events), NewEntryService(store, events), store, events
}

func TestFinishVisitUnknownTicket(t *testing.T) {
	exit, _, _, _ := newExitFixture(nil)

	err := exit.FinishVisit(context.Background(), 99)
	var invalid *parking.InvalidTicketCodeError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidTicketCodeError", err)
	}
}

func TestFinishVisitUnpaidFee(t *testing.T) {
	exit, entry, store, events := newExitFixture(minuteTiers(10, 1, 20, 2))
	ctx := context.Background()

	if err := entry.AddVisit(ctx, 42); err != nil {
		t.Fatalf("AddVisit: %v", err)
	}
	store.backdateEntry(42, 15*time.Minute)

	err := exit.FinishVisit(ctx, 42)
	var unpaid *parking.UnpaidFeeError
	if !errors.As(err, &unpaid) {
		t.Fatalf("err = %v, want UnpaidFeeError", err)
	}
	if unpaid.Balance != 2 {
		t.Errorf("balance = %v, want 2", unpaid.Balance)
	}
	if unpaid.TicketCode != 42 {
		t.Errorf("ticket code = %d, want 42", unpaid.TicketCode)
	}

	// The refusal must leave the visit ongoing.
	if _, err := store.FindOngoingByTicket(ctx, 42); err != nil {
		t.Errorf("visit should still be ongoing: %v", err)
	}
	for _, k := range events.kinds() {
		if k == queue.EventVehicleExited {
			t.Error("no exit event should be published for a refused exit")
		}
	}
}

func TestFinishVisitFreeStay(t *testing.T) {
	// No tariff tiers configured: everything is free and exits pass.
	exit, entry, store, events := newExitFixture(nil)
	ctx := context.Background()

	if err := entry.AddVisit(ctx, 42); err != nil {
		t.Fatalf("AddVisit: %v", err)
	}
	store.backdateEntry(42, 3*time.Hour)

	if err := exit.FinishVisit(ctx, 42); err != nil {
		t.Fatalf("FinishVisit: %v", err)
	}
	if _, err := store.FindOngoingByTicket(ctx, 42); !errors.Is(err, sql.ErrNoRows) {
		t.Error("visit should no longer be ongoing")
	}
	kinds := events.kinds()
	if kinds[len(kinds)-1] != queue.EventVehicleExited {
		t.Errorf("last event = %v, want %s", kinds, queue.EventVehicleExited)
	}
}

func TestFinishVisitPreservesHistory(t *testing.T) {
	exit, entry, store, _ := newExitFixture(minuteTiers(10, 1, 20, 2))
	ctx := context.Background()

	if err := entry.AddVisit(ctx, 42); err != nil {
		t.Fatalf("AddVisit: %v", err)
	}
	store.backdateEntry(42, 15*time.Minute)

	visit, _ := store.FindOngoingByTicket(ctx, 42)
	entryTime := visit.EntryTime

	// Pay the fee directly through the store, then exit within the
	// allowance window.
	session := &model.PaymentSession{VisitID: visit.ID, StartedAt: time.Now().UTC(), Amount: 2, Status: model.SessionPending}
	if err := store.SaveSession(ctx, session); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if _, err := store.CompleteSession(ctx, session, time.Now().UTC()); err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}

	if err := exit.FinishVisit(ctx, 42); err != nil {
		t.Fatalf("FinishVisit: %v", err)
	}

	if len(store.finished) != 1 {
		t.Fatalf("finished visits = %d, want 1", len(store.finished))
	}
	done := store.finished[0]
	if done.Type != model.VisitFinished {
		t.Errorf("type = %s, want FINISHED", done.Type)
	}
	if !done.EntryTime.Equal(entryTime) {
		t.Errorf("entry time = %v, want %v preserved", done.EntryTime, entryTime)
	}
	if done.TicketCode != 42 {
		t.Errorf("ticket code = %d, want 42 preserved", done.TicketCode)
	}
	if done.ExitTime == nil {
		t.Error("finished visit must record an exit time")
	}
	if len(done.Payments) != 1 || done.Payments[0].Amount != 2 {
		t.Errorf("payments = %+v, want the single payment of 2 carried over", done.Payments)
	}
}
