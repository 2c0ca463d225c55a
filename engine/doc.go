// Package engine implements the protocol core of a serial sensor-device
// emulator: command reception and dispatch on one side, paced data
// transmission on the other, both over a byte-oriented transport.
//
// The peer drives the device with short CR/LF-terminated command lines.
// The device answers with framed payloads and, in continuous mode, streams
// one data line at a fixed interval without being asked.
//
// # Command Set
//
// Commands are what field maintenance terminals historically sent such
// devices over a current-loop line:
//
//   - '!' starts continuous transmission
//   - '?' stops continuous transmission
//   - '&' identifies: the device answers its site letter and CRLF, unframed
//   - 'A'..'Z' polls the next data line on demand
//   - '*X [args]' runs the configuration query for selector X
//
// Start and stop are idempotent and send no reply. Anything else, an
// on-demand poll on an empty data source included, is answered with a
// framed diagnostic so the peer always learns the outcome.
//
// # Frame Layout
//
// Outgoing payloads are wrapped as
//
//	STX (0x02) | payload | ETX (0x03) | checksum hex | CR LF
//
// with the checksum rendered in uppercase hex over the bare payload. The
// algorithm and its trailer width are configurable; see the checksum
// package. A plain framing style that drops STX/ETX and the trailer is
// available for line-oriented peers.
//
// # Concurrency
//
// An Engine runs two tasks. The receiver loop reads one byte at a time
// under a short poll timeout, accumulates lines up to MaxLineLen, and
// dispatches each completed line synchronously. The scheduler parks until
// continuous mode is on and then paces transmissions at the configured
// interval. Mode flags live in a ModeState whose waits are bounded and
// cancelable; complete transmissions serialize under a separate write
// lock, so replies and scheduled frames never interleave on the wire.
package engine
