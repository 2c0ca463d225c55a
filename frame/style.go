package frame

import (
	"errors"
	"fmt"
	"strings"
)

// Style selects the wire framing variant.
type Style uint8

// Framing styles carried by the historical message formats.
const (
	// StyleChecksum frames payloads with a checksum trailer.
	StyleChecksum Style = iota
	// StylePlain frames payloads without a trailer.
	StylePlain
)

// ErrUnknownStyle is returned by ParseStyle for an unrecognized name.
var ErrUnknownStyle = errors.New("frame: unknown framing style")

// String returns the style name as used in device profiles.
func (s Style) String() string {
	switch s {
	case StyleChecksum:
		return "checksum"
	case StylePlain:
		return "plain"
	default:
		return "unknown"
	}
}

// ParseStyle maps a profile name to its Style. Names are case-insensitive
// and trimmed.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "checksum":
		return StyleChecksum, nil
	case "plain":
		return StylePlain, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStyle, s)
	}
}
