package model

import "time"

// VisitType discriminates the two lifecycle variants of a visit stored
// in the single visits table. A visit is created ONGOING when a vehicle
// enters and becomes FINISHED exactly once, at an approved exit. There
// is no transition back.
type VisitType string

const (
	VisitOngoing  VisitType = "ONGOING"
	VisitFinished VisitType = "FINISHED"
)

// Visit records one parking stay identified by the RFID ticket code
// presented at the gate. Payments made during the stay belong to the
// visit and move with it when it is finished.
//
// Fields:
//  ID         – primary key identifier.
//  Type       – lifecycle variant (ONGOING or FINISHED).
//  EntryTime  – when the vehicle entered.
//  TicketCode – 64-bit RFID tag identifier; unique among ongoing visits.
//  ExitTime   – when the vehicle exited (finished visits only).
//  Payments   – payments made against this visit.
type Visit struct {
	ID         uint64     // visits.id
	Type       VisitType  // visits.visit_type
	EntryTime  time.Time  // visits.entry_time
	TicketCode uint64     // visits.ticket_code
	ExitTime   *time.Time // visits.exit_time (nil while ongoing)
	Payments   []Payment  // payments rows with visit_id = visits.id
}

// TimeOfStay returns how long the vehicle has been parked as of now.
func (v *Visit) TimeOfStay(now time.Time) time.Duration {
	return now.Sub(v.EntryTime)
}

// TotalAmountPaid sums the amounts of all payments made for the visit.
func (v *Visit) TotalAmountPaid() float64 {
	var total float64
	for _, p := range v.Payments {
		total += p.Amount
	}
	return total
}

// LatestPayment returns the payment with the most recent completion
// time, or nil when the visit has no payments.
func (v *Visit) LatestPayment() *Payment {
	var latest *Payment
	for i := range v.Payments {
		if latest == nil || v.Payments[i].MadeAt.After(latest.MadeAt) {
			latest = &v.Payments[i]
		}
	}
	return latest
}
