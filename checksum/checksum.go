// Package checksum implements the frame checksum algorithms used by the
// ceilometer wire protocols.
//
// All functions are pure: they never mutate their input and hold no state.
// The 8-bit algorithms (XOR fold, modular sum) cover the classic single-byte
// trailers; the 16-bit CRC variants cover the extended message formats.
package checksum

import (
	"errors"
	"fmt"
)

// MaxSumLen is the longest input Sum8 accepts. It equals the protocol's
// line bound: a payload that long can never appear in a valid frame.
const MaxSumLen = 255

// RollingInit is the seed for the rolling CRC mixer.
const RollingInit uint16 = 0xFFFF

var (
	// ErrEmptyInput is returned by Sum8 for a zero-length input.
	ErrEmptyInput = errors.New("checksum: input is empty")

	// ErrInputTooLong is returned by Sum8 when the input exceeds MaxSumLen.
	ErrInputTooLong = errors.New("checksum: input too long")
)

// XORFold returns the XOR of all bytes in p. An empty input folds to 0.
func XORFold(p []byte) byte {
	var x byte
	for _, b := range p {
		x ^= b
	}

	return x
}

// XORFoldMasked is XORFold with the sentence delimiters '$' and '*'
// contributing zero, so a fully delimited sentence folds to the same value
// as its bare body.
func XORFoldMasked(p []byte) byte {
	var x byte
	for _, b := range p {
		if b == '$' || b == '*' {
			continue
		}
		x ^= b
	}

	return x
}

// Sum8 returns the arithmetic sum of all bytes in p truncated to 8 bits.
//
// Unlike the XOR variants, Sum8 rejects degenerate inputs: an empty input
// returns ErrEmptyInput and an input longer than MaxSumLen returns
// ErrInputTooLong. Callers must check the error before framing the result.
func Sum8(p []byte) (byte, error) {
	if len(p) == 0 {
		return 0, ErrEmptyInput
	}
	if len(p) > MaxSumLen {
		return 0, fmt.Errorf("%w: got %d bytes, max %d", ErrInputTooLong, len(p), MaxSumLen)
	}

	var sum uint32
	for _, b := range p {
		sum += uint32(b)
	}

	return byte(sum & 0xFF), nil
}

// CRC16CCITT returns the CRC-16/CCITT of p with final complement:
// initial value 0xFFFF, polynomial 0x1021 (MSB first), result XORed with
// 0xFFFF. Computed bit-at-a-time without a lookup table.
//
// An empty input yields 0x0000 (the seed complemented, no bytes folded).
func CRC16CCITT(p []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range p {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}

	return crc ^ 0xFFFF
}

// CRC16Rolling folds one byte into a running CCITT-style CRC using the
// shift/XOR mixer common in firmware bootloaders. Seed the accumulator with
// RollingInit; there is no final complement.
func CRC16Rolling(crc uint16, b byte) uint16 {
	b ^= byte(crc)
	b ^= b << 4
	v := uint16(b)

	return (v<<8 | crc>>8) ^ (v >> 4) ^ (v << 3)
}

// CRC16RollingAll folds all of p with CRC16Rolling starting from RollingInit.
// An empty input yields RollingInit unchanged.
func CRC16RollingAll(p []byte) uint16 {
	crc := RollingInit
	for _, b := range p {
		crc = CRC16Rolling(crc, b)
	}

	return crc
}
