package probe

// Command is a single-byte instruction received over the serial link.
type Command byte

const (
	// ActivateAlert drives the alert output high.
	ActivateAlert Command = 'A'
	// DeactivateAlert drives the alert output low.
	DeactivateAlert Command = 'S'

	ackPrefix = "ACK:"
)

// ParseCommand maps an input byte to a Command. Unknown bytes report false.
func ParseCommand(b byte) (Command, bool) {
	switch c := Command(b); c {
	case ActivateAlert, DeactivateAlert:
		return c, true
	default:
		return 0, false
	}
}

// Alert returns the alert state the command requests.
func (c Command) Alert() bool {
	return c == ActivateAlert
}

// Ack returns the acknowledgment line, without line terminator.
func (c Command) Ack() string {
	return ackPrefix + string(rune(c))
}

func (c Command) String() string {
	switch c {
	case ActivateAlert:
		return "activate"
	case DeactivateAlert:
		return "deactivate"
	default:
		return "unknown"
	}
}

// ParseAck recognizes an acknowledgment line such as "ACK:A".
func ParseAck(line string) (Command, bool) {
	if len(line) != len(ackPrefix)+1 || line[:len(ackPrefix)] != ackPrefix {
		return 0, false
	}
	return ParseCommand(line[len(ackPrefix)])
}
