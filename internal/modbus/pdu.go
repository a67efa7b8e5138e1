// Package modbus implements the gate-facing wire layer: the Modbus/TCP
// payload codec, the RFID tag decoder and the request dispatcher that
// routes gate commands to the entry and exit services.
//
// Only the WriteMultipleRegisters function (0x10) is meaningful to the
// gate controllers; everything else is answered with an exception
// response. The MBAP framing handled here is the plain Modbus/TCP
// header (no RTU CRC).
package modbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// FunctionCode identifies the Modbus operation carried by a PDU.
type FunctionCode uint8

// FuncWriteMultipleRegisters is the only function the gate devices use.
const FuncWriteMultipleRegisters FunctionCode = 0x10

// exceptionFlag is OR-ed into the function code of exception responses.
const exceptionFlag = 0x80

// ExceptionCode is the Modbus exception code carried by an exception
// response.
type ExceptionCode uint8

const (
	ExcIllegalFunction     ExceptionCode = 0x01
	ExcIllegalDataAddress  ExceptionCode = 0x02
	ExcIllegalDataValue    ExceptionCode = 0x03
	ExcServerDeviceFailure ExceptionCode = 0x04
)

// maxPDUBytes bounds one protocol data unit (function byte included).
const maxPDUBytes = 256

var (
	ErrShortHeader   = errors.New("modbus: short MBAP header")
	ErrBadProtocolID = errors.New("modbus: MBAP protocol id is not zero")
	ErrBadLength     = errors.New("modbus: MBAP length field out of range")
	ErrMalformedPDU  = errors.New("modbus: malformed PDU body")
)

// PDU is one protocol data unit, request or response.
type PDU interface {
	Function() FunctionCode
}

// WriteMultipleRegistersRequest is the decoded 0x10 request. Data holds
// the raw register bytes; for the gate commands it is the 8-byte RFID
// tag identifier.
type WriteMultipleRegistersRequest struct {
	Address  uint16
	Quantity uint16
	Data     []byte
}

func (*WriteMultipleRegistersRequest) Function() FunctionCode { return FuncWriteMultipleRegisters }

// WriteMultipleRegistersAck is the success response to a 0x10 request.
// It echoes the request's address and quantity unchanged.
type WriteMultipleRegistersAck struct {
	Address  uint16
	Quantity uint16
}

func (*WriteMultipleRegistersAck) Function() FunctionCode { return FuncWriteMultipleRegisters }

// ExceptionResponse is the typed failure reply for any request.
type ExceptionResponse struct {
	Func FunctionCode
	Code ExceptionCode
}

func (r *ExceptionResponse) Function() FunctionCode { return r.Func }

// UnknownRequest preserves the function code and body of a request this
// layer does not understand, so the dispatcher can still answer it with
// the proper exception response.
type UnknownRequest struct {
	Func FunctionCode
	Body []byte
}

func (r *UnknownRequest) Function() FunctionCode { return r.Func }

// Payload is one framed Modbus/TCP message: the MBAP identity fields
// plus the PDU. Responses must echo TransactionID and UnitID.
type Payload struct {
	TransactionID uint16
	UnitID        uint8
	PDU           PDU
}

// ReadRequest reads one framed request from r. Frame-level failures
// (short header, bad protocol id, absurd length) are returned with a
// zero Payload and the connection should be dropped, since stream
// synchronization is lost. A well-framed but malformed PDU body is
// returned as ErrMalformedPDU together with a Payload whose identity
// fields are valid, so the caller can still produce an exception reply.
func ReadRequest(r io.Reader) (Payload, error) {
	var header [7]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Payload{}, ErrShortHeader
		}
		return Payload{}, err
	}

	txnID := binary.BigEndian.Uint16(header[0:2])
	protoID := binary.BigEndian.Uint16(header[2:4])
	length := binary.BigEndian.Uint16(header[4:6])
	unitID := header[6]

	if protoID != 0 {
		return Payload{}, ErrBadProtocolID
	}
	// length counts the unit id byte plus the PDU.
	if length < 2 || length > maxPDUBytes+1 {
		return Payload{}, ErrBadLength
	}

	body := make([]byte, length-1)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Payload{}, ErrShortHeader
		}
		return Payload{}, err
	}

	payload := Payload{TransactionID: txnID, UnitID: unitID}
	pdu, err := decodePDU(body)
	if err != nil {
		payload.PDU = &UnknownRequest{Func: FunctionCode(body[0]), Body: body[1:]}
		return payload, err
	}
	payload.PDU = pdu
	return payload, nil
}

func decodePDU(body []byte) (PDU, error) {
	fn := FunctionCode(body[0])
	rest := body[1:]

	if fn != FuncWriteMultipleRegisters {
		return &UnknownRequest{Func: fn, Body: rest}, nil
	}

	// address(2) + quantity(2) + byte count(1) + data
	if len(rest) < 5 {
		return nil, fmt.Errorf("%w: write request body is %d bytes", ErrMalformedPDU, len(rest))
	}
	byteCount := int(rest[4])
	data := rest[5:]
	if byteCount != len(data) {
		return nil, fmt.Errorf("%w: byte count %d does not match %d data bytes",
			ErrMalformedPDU, byteCount, len(data))
	}
	return &WriteMultipleRegistersRequest{
		Address:  binary.BigEndian.Uint16(rest[0:2]),
		Quantity: binary.BigEndian.Uint16(rest[2:4]),
		Data:     data,
	}, nil
}

// WriteResponse frames and writes one response payload to w.
func WriteResponse(w io.Writer, p Payload) error {
	body, err := encodePDU(p.PDU)
	if err != nil {
		return err
	}

	frame := make([]byte, 7, 7+len(body))
	binary.BigEndian.PutUint16(frame[0:2], p.TransactionID)
	binary.BigEndian.PutUint16(frame[2:4], 0)
	binary.BigEndian.PutUint16(frame[4:6], uint16(len(body)+1))
	frame[6] = p.UnitID
	frame = append(frame, body...)

	_, err = w.Write(frame)
	return err
}

func encodePDU(pdu PDU) ([]byte, error) {
	switch r := pdu.(type) {
	case *WriteMultipleRegistersAck:
		body := make([]byte, 5)
		body[0] = byte(FuncWriteMultipleRegisters)
		binary.BigEndian.PutUint16(body[1:3], r.Address)
		binary.BigEndian.PutUint16(body[3:5], r.Quantity)
		return body, nil
	case *ExceptionResponse:
		return []byte{byte(r.Func) | exceptionFlag, byte(r.Code)}, nil
	default:
		return nil, fmt.Errorf("modbus: cannot encode %T as a response PDU", pdu)
	}
}
