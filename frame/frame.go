// Package frame builds and validates the ASCII wire frames of the
// ceilometer protocols.
//
// A framed message on the wire is:
//
//	[STX][payload][ETX][checksum hex digits][CR][LF]
//
// The checksum covers the payload bytes only, rendered as 2 or 4 uppercase
// hex digits depending on the algorithm width. The plain style omits the
// trailer entirely. All functions are pure.
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/wxline/ceilsim/checksum"
)

// Framing control bytes.
const (
	// STX marks the start of a framed payload.
	STX byte = 0x02

	// ETX marks the end of a framed payload.
	ETX byte = 0x03

	// CR and LF terminate every frame.
	CR byte = '\r'
	LF byte = '\n'
)

var (
	// ErrPayloadByte is returned when a payload contains a framing byte
	// (STX, ETX, CR or LF).
	ErrPayloadByte = errors.New("frame: payload contains framing byte")

	// ErrMalformed is returned when wire bytes do not follow the frame
	// structure.
	ErrMalformed = errors.New("frame: malformed frame")

	// ErrChecksumMismatch is returned when the trailer does not match the
	// recomputed payload checksum.
	ErrChecksumMismatch = errors.New("frame: checksum mismatch")
)

const upperhex = "0123456789ABCDEF"

// Encode frames payload with a checksum trailer:
//
//	STX payload ETX HEX… CR LF
//
// The trailer is algo.HexDigits() uppercase hex digits of the payload
// checksum. Payloads containing STX, ETX, CR or LF are rejected with
// ErrPayloadByte; checksum errors (e.g. Sum8 over an empty payload) are
// returned unframed.
func Encode(payload []byte, algo checksum.Algorithm) ([]byte, error) {
	if err := checkPayload(payload); err != nil {
		return nil, err
	}

	sum, err := algo.Compute(payload)
	if err != nil {
		return nil, fmt.Errorf("frame: compute %s trailer: %w", algo, err)
	}

	digits := algo.HexDigits()
	buf := make([]byte, 0, len(payload)+digits+4)
	buf = append(buf, STX)
	buf = append(buf, payload...)
	buf = append(buf, ETX)
	buf = appendHex(buf, sum, digits)
	buf = append(buf, CR, LF)

	return buf, nil
}

// EncodePlain frames payload without a checksum trailer:
//
//	STX payload ETX CR LF
func EncodePlain(payload []byte) ([]byte, error) {
	if err := checkPayload(payload); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, len(payload)+4)
	buf = append(buf, STX)
	buf = append(buf, payload...)
	buf = append(buf, ETX, CR, LF)

	return buf, nil
}

// Decode is the strict inverse of Encode. It validates the frame structure,
// recomputes the checksum over the payload and compares it to the trailer
// (hex digits matched case-insensitively), and returns a copy of the payload.
func Decode(wire []byte, algo checksum.Algorithm) ([]byte, error) {
	digits := algo.HexDigits()

	// STX + ETX + trailer + CRLF around a possibly empty payload.
	minLen := 4 + digits
	if len(wire) < minLen {
		return nil, fmt.Errorf("%w: got %d bytes, want at least %d", ErrMalformed, len(wire), minLen)
	}
	if wire[0] != STX {
		return nil, fmt.Errorf("%w: missing STX", ErrMalformed)
	}
	if wire[len(wire)-2] != CR || wire[len(wire)-1] != LF {
		return nil, fmt.Errorf("%w: missing CR LF terminator", ErrMalformed)
	}

	etxPos := len(wire) - 3 - digits
	if wire[etxPos] != ETX {
		return nil, fmt.Errorf("%w: missing ETX before trailer", ErrMalformed)
	}

	payload := wire[1:etxPos]
	if err := checkPayload(payload); err != nil {
		return nil, err
	}

	trailer := wire[etxPos+1 : etxPos+1+digits]
	wireSum, err := strconv.ParseUint(string(trailer), 16, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: bad trailer digits %q", ErrMalformed, trailer)
	}

	calcSum, err := algo.Compute(payload)
	if err != nil {
		return nil, fmt.Errorf("frame: compute %s trailer: %w", algo, err)
	}
	if uint16(wireSum) != calcSum {
		return nil, fmt.Errorf("%w: wire=0x%04X, computed=0x%04X", ErrChecksumMismatch, wireSum, calcSum)
	}

	return bytes.Clone(payload), nil
}

// DecodePlain is the strict inverse of EncodePlain.
func DecodePlain(wire []byte) ([]byte, error) {
	if len(wire) < 4 {
		return nil, fmt.Errorf("%w: got %d bytes, want at least 4", ErrMalformed, len(wire))
	}
	if wire[0] != STX {
		return nil, fmt.Errorf("%w: missing STX", ErrMalformed)
	}
	if wire[len(wire)-2] != CR || wire[len(wire)-1] != LF {
		return nil, fmt.Errorf("%w: missing CR LF terminator", ErrMalformed)
	}
	if wire[len(wire)-3] != ETX {
		return nil, fmt.Errorf("%w: missing ETX", ErrMalformed)
	}

	payload := wire[1 : len(wire)-3]
	if err := checkPayload(payload); err != nil {
		return nil, err
	}

	return bytes.Clone(payload), nil
}

func checkPayload(payload []byte) error {
	for i, b := range payload {
		switch b {
		case STX, ETX, CR, LF:
			return fmt.Errorf("%w: 0x%02X at offset %d", ErrPayloadByte, b, i)
		}
	}

	return nil
}

func appendHex(dst []byte, v uint16, digits int) []byte {
	for shift := (digits - 1) * 4; shift >= 0; shift -= 4 {
		dst = append(dst, upperhex[(v>>uint(shift))&0xF])
	}

	return dst
}
