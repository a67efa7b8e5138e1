// Package queue defines the gate event payloads exchanged over the
// message broker, the publisher that emits them and the background
// consumer that records them.
package queue

// Event kinds published by the gate and payment flows.
const (
	EventVehicleEntered   = "vehicle.entered"
	EventVehicleExited    = "vehicle.exited"
	EventPaymentCompleted = "payment.completed"
)

// GateEvent is published whenever a vehicle enters or exits, or a
// payment completes. It carries enough for downstream consumers to log
// or trigger notifications without querying the primary database.
type GateEvent struct {
	Kind       string  `json:"kind"`
	TicketCode uint64  `json:"ticket_code,omitempty"`
	VisitID    uint64  `json:"visit_id,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
	At         string  `json:"at"`
}
