package model

import (
	"testing"
	"time"
)

func TestLatestPayment(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	empty := &Visit{}
	if empty.LatestPayment() != nil {
		t.Error("LatestPayment of a visit without payments should be nil")
	}

	// Deliberately out of order; the most recent MadeAt must win.
	v := &Visit{Payments: []Payment{
		{ID: 1, MadeAt: base.Add(30 * time.Minute), Amount: 2},
		{ID: 2, MadeAt: base, Amount: 1},
		{ID: 3, MadeAt: base.Add(10 * time.Minute), Amount: 3},
	}}
	latest := v.LatestPayment()
	if latest == nil || latest.ID != 1 {
		t.Fatalf("LatestPayment = %+v, want payment 1", latest)
	}
	if got := v.TotalAmountPaid(); got != 6 {
		t.Errorf("TotalAmountPaid = %v, want 6", got)
	}
}

func TestPaymentIsExpiredBoundary(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	maxAge := 20 * time.Minute

	exactly := &Payment{MadeAt: now.Add(-maxAge)}
	if exactly.IsExpired(maxAge, now) {
		t.Error("a payment exactly maxAge old is still valid")
	}

	over := &Payment{MadeAt: now.Add(-maxAge - time.Second)}
	if !over.IsExpired(maxAge, now) {
		t.Error("a payment older than maxAge is expired")
	}
}

func TestSessionIsExpiredBoundary(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	maxAge := 10 * time.Minute

	s := &PaymentSession{StartedAt: now.Add(-maxAge), Status: SessionPending}
	if s.IsExpired(maxAge, now) {
		t.Error("a session exactly maxAge old is still live")
	}
	s.StartedAt = now.Add(-maxAge - time.Second)
	if !s.IsExpired(maxAge, now) {
		t.Error("a session older than maxAge is expired")
	}
}
