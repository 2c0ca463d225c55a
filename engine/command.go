package engine

import "strings"

// CommandKind identifies the operation a received line asks for.
type CommandKind uint8

const (
	// CmdUnknown marks a line that matches no command shape; the engine
	// answers it with a diagnostic frame.
	CmdUnknown CommandKind = iota
	// CmdStart switches continuous transmission on.
	CmdStart
	// CmdStop switches continuous transmission off.
	CmdStop
	// CmdIdentify asks for the site identifier.
	CmdIdentify
	// CmdPoll asks for the next data line on demand.
	CmdPoll
	// CmdQuery asks a registered configuration query for a reply.
	CmdQuery
)

// String returns the string representation of the command kind.
func (k CommandKind) String() string {
	switch k {
	case CmdStart:
		return "start"
	case CmdStop:
		return "stop"
	case CmdIdentify:
		return "identify"
	case CmdPoll:
		return "poll"
	case CmdQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Command is one parsed input line.
//
// Letter is set for CmdPoll (the polled channel) and CmdQuery (the query
// selector). Params carries the space-separated arguments after a query
// selector. Raw preserves the line as received, for logging.
type Command struct {
	Kind   CommandKind
	Letter byte
	Params []string
	Raw    string
}

// ParseCommand classifies one completed input line, already stripped of its
// CR/LF terminator. It never fails and never modifies line: anything that
// matches no command shape comes back as CmdUnknown.
//
// The accepted shapes are single-character commands ('!', '?', '&', and a
// poll letter 'A' to 'Z') and configuration queries ('*' followed by a
// selector letter and optional space-separated arguments).
func ParseCommand(line []byte) Command {
	cmd := Command{Kind: CmdUnknown, Raw: string(line)}

	switch len(line) {
	case 0:
		return cmd

	case 1:
		switch b := line[0]; {
		case b == '!':
			cmd.Kind = CmdStart
		case b == '?':
			cmd.Kind = CmdStop
		case b == '&':
			cmd.Kind = CmdIdentify
		case isSelector(b):
			cmd.Kind = CmdPoll
			cmd.Letter = b
		}
		return cmd
	}

	if line[0] != '*' || !isSelector(line[1]) {
		return cmd
	}
	// Anything after the selector must be space-separated arguments.
	if len(line) > 2 && line[2] != ' ' {
		return cmd
	}

	cmd.Kind = CmdQuery
	cmd.Letter = line[1]
	if fields := strings.Fields(string(line[2:])); len(fields) > 0 {
		cmd.Params = fields
	}

	return cmd
}

// isSelector reports whether b is a valid poll or query selector letter.
func isSelector(b byte) bool {
	return b >= 'A' && b <= 'Z'
}
