package checksum

import (
	"errors"
	"fmt"
	"strings"
)

// Algorithm selects one of the frame checksum algorithms.
type Algorithm uint8

// Frame checksum algorithms carried by the historical message formats.
const (
	// AlgoXORFold is the plain XOR fold over the payload (8-bit).
	AlgoXORFold Algorithm = iota
	// AlgoSum8 is the arithmetic sum truncated to 8 bits.
	AlgoSum8
	// AlgoCRC16 is CRC-16/CCITT with final complement (16-bit).
	AlgoCRC16
	// AlgoCRC16Rolling is the rolling shift/XOR mixer (16-bit).
	AlgoCRC16Rolling
	// AlgoXORFoldMasked is the XOR fold with '$' and '*' masked out (8-bit).
	AlgoXORFoldMasked
)

// ErrUnknownAlgorithm is returned for an Algorithm value outside the
// defined set, or by ParseAlgorithm for an unrecognized name.
var ErrUnknownAlgorithm = errors.New("checksum: unknown algorithm")

// String returns the algorithm name as used in device profiles.
func (a Algorithm) String() string {
	switch a {
	case AlgoXORFold:
		return "xor"
	case AlgoSum8:
		return "sum8"
	case AlgoCRC16:
		return "crc16"
	case AlgoCRC16Rolling:
		return "crc16-rolling"
	case AlgoXORFoldMasked:
		return "xor-masked"
	default:
		return "unknown"
	}
}

// HexDigits returns the width of the checksum trailer in hex digits:
// 2 for the 8-bit algorithms, 4 for the 16-bit ones.
func (a Algorithm) HexDigits() int {
	switch a {
	case AlgoCRC16, AlgoCRC16Rolling:
		return 4
	default:
		return 2
	}
}

// Compute runs the selected algorithm over p. 8-bit results are widened to
// uint16. It never panics: an Algorithm outside the defined set returns
// ErrUnknownAlgorithm.
func (a Algorithm) Compute(p []byte) (uint16, error) {
	switch a {
	case AlgoXORFold:
		return uint16(XORFold(p)), nil
	case AlgoSum8:
		v, err := Sum8(p)
		if err != nil {
			return 0, err
		}

		return uint16(v), nil
	case AlgoCRC16:
		return CRC16CCITT(p), nil
	case AlgoCRC16Rolling:
		return CRC16RollingAll(p), nil
	case AlgoXORFoldMasked:
		return uint16(XORFoldMasked(p)), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, uint8(a))
	}
}

// ParseAlgorithm maps a profile name to its Algorithm. Names are
// case-insensitive and trimmed; see String for the accepted set.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xor":
		return AlgoXORFold, nil
	case "sum8":
		return AlgoSum8, nil
	case "crc16":
		return AlgoCRC16, nil
	case "crc16-rolling":
		return AlgoCRC16Rolling, nil
	case "xor-masked":
		return AlgoXORFoldMasked, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}
