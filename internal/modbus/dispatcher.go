package modbus

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/johngachihi/parkgate/internal/parking"
)

// Register addresses the gate controllers write to.
const (
	entryRegisterAddress uint16 = 1
	exitRegisterAddress  uint16 = 2
)

// EntryService admits a vehicle into the parking lot.
type EntryService interface {
	AddVisit(ctx context.Context, ticketCode uint64) error
}

// ExitService decides whether a vehicle may leave and finalizes its visit.
type ExitService interface {
	FinishVisit(ctx context.Context, ticketCode uint64) error
}

// Dispatcher routes decoded gate requests to the entry and exit
// services and builds the protocol response. It holds no mutable state
// and is safe for concurrent use by multiple gate connections.
type Dispatcher struct {
	entry EntryService
	exit  ExitService
	log   *zap.Logger
}

func NewDispatcher(entry EntryService, exit ExitService, log *zap.Logger) *Dispatcher {
	return &Dispatcher{entry: entry, exit: exit, log: log}
}

// Handle processes one request payload and always returns a response
// payload echoing the request's transaction and unit ids. Domain rule
// violations become exception responses; nothing here terminates the
// connection.
func (d *Dispatcher) Handle(ctx context.Context, req Payload) Payload {
	switch pdu := req.PDU.(type) {
	case *WriteMultipleRegistersRequest:
		return d.handleWrite(ctx, req, pdu)
	default:
		d.log.Warn("unsupported modbus function",
			zap.Uint8("function", uint8(req.PDU.Function())),
			zap.Uint16("transaction_id", req.TransactionID))
		return exception(req, req.PDU.Function(), ExcIllegalFunction)
	}
}

func (d *Dispatcher) handleWrite(ctx context.Context, req Payload, pdu *WriteMultipleRegistersRequest) Payload {
	var op func(context.Context, uint64) error
	switch pdu.Address {
	case entryRegisterAddress:
		op = d.entry.AddVisit
	case exitRegisterAddress:
		op = d.exit.FinishVisit
	default:
		d.log.Warn("write to unsupported register address",
			zap.Uint16("address", pdu.Address),
			zap.Uint16("transaction_id", req.TransactionID))
		return exception(req, FuncWriteMultipleRegisters, ExcIllegalDataAddress)
	}

	tag, err := DecodeTag(pdu.Data)
	if err != nil {
		d.log.Warn("gate request payload rejected",
			zap.Uint16("address", pdu.Address),
			zap.Error(err))
		return exception(req, FuncWriteMultipleRegisters, ExcIllegalDataValue)
	}

	if err := op(ctx, tag); err != nil {
		return d.failure(req, pdu, tag, err)
	}

	d.log.Info("gate request acknowledged",
		zap.Uint16("address", pdu.Address),
		zap.Uint64("ticket_code", tag))
	return Payload{
		TransactionID: req.TransactionID,
		UnitID:        req.UnitID,
		PDU:           &WriteMultipleRegistersAck{Address: pdu.Address, Quantity: pdu.Quantity},
	}
}

// failure maps a domain error to its exception code. Ticket and fee
// rule violations are expected traffic and answered as illegal data;
// anything else is a server-side fault.
func (d *Dispatcher) failure(req Payload, pdu *WriteMultipleRegistersRequest, tag uint64, err error) Payload {
	var (
		invalidTicket *parking.InvalidTicketCodeError
		unpaidFee     *parking.UnpaidFeeError
	)
	switch {
	case errors.As(err, &invalidTicket), errors.As(err, &unpaidFee):
		d.log.Info("gate request refused",
			zap.Uint16("address", pdu.Address),
			zap.Uint64("ticket_code", tag),
			zap.String("reason", err.Error()))
		return exception(req, FuncWriteMultipleRegisters, ExcIllegalDataValue)
	default:
		d.log.Error("gate request failed",
			zap.Uint16("address", pdu.Address),
			zap.Uint64("ticket_code", tag),
			zap.Error(err))
		return exception(req, FuncWriteMultipleRegisters, ExcServerDeviceFailure)
	}
}

func exception(req Payload, fn FunctionCode, code ExceptionCode) Payload {
	return Payload{
		TransactionID: req.TransactionID,
		UnitID:        req.UnitID,
		PDU:           &ExceptionResponse{Func: fn, Code: code},
	}
}
