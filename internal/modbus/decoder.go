package modbus

import (
	"encoding/binary"

	"github.com/johngachihi/parkgate/internal/parking"
)

// DecodeTag interprets the register data of a gate command as an RFID
// tag identifier: exactly 8 bytes, unsigned 64-bit, little-endian. Any
// other length is a DecodingError.
func DecodeTag(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, &parking.DecodingError{
			Detail: "invalid RFID tag code: must be 8 bytes",
		}
	}
	return binary.LittleEndian.Uint64(data), nil
}
