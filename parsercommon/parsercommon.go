// Package parsercommon implements the field parsers shared by both
// syslog grammars: priority, protocol version and hostname scanning.
package parsercommon

const (
	NO_VERSION = -1

	PRI_PART_START = '<'
	PRI_PART_END   = '>'
)

var (
	ErrEOL     = &ParserError{ErrorString: "End of log line"}
	ErrNoSpace = &ParserError{ErrorString: "No space found"}

	ErrPriorityNoStart    = &ParserError{ErrorString: "No start char found for priority"}
	ErrPriorityEmpty      = &ParserError{ErrorString: "Priority field empty"}
	ErrPriorityNoEnd      = &ParserError{ErrorString: "No end char found for priority"}
	ErrPriorityTooShort   = &ParserError{ErrorString: "Priority field too short"}
	ErrPriorityTooLong    = &ParserError{ErrorString: "Priority field too long"}
	ErrPriorityNonDigit   = &ParserError{ErrorString: "Non digit found in priority"}
	ErrPriorityOutOfRange = &ParserError{ErrorString: "Priority value out of range"}

	ErrVersionNotFound = &ParserError{ErrorString: "Can not find version"}

	ErrTimestampUnknownFormat = &ParserError{ErrorString: "Timestamp format unknown"}
)

type ParserError struct {
	ErrorString string
}

func (err *ParserError) Error() string {
	return err.ErrorString
}

type Priority struct {
	P int
	F Facility
	S Severity
}

type Facility struct {
	Value int
}

type Severity struct {
	Value int
}

func NewPriority(p int) *Priority {
	return &Priority{
		P: p,
		F: Facility{Value: p / 8},
		S: Severity{Value: p % 8},
	}
}

// ParsePriority extracts the "<N>" prefix. N is valid from 0 to 191
// per https://tools.ietf.org/html/rfc5424#section-6.2.1. On any
// failure the cursor is left where it was so the prefix stays part of
// the line for downstream parsing.
func ParsePriority(buff []byte, cursor *int, l int) (*Priority, error) {
	start := *cursor

	if start >= l {
		return nil, ErrPriorityEmpty
	}

	if buff[start] != PRI_PART_START {
		return nil, ErrPriorityNoStart
	}

	priDigit := 0

	for i := start + 1; i < l; i++ {
		// PRIVAL is 3 digits at most
		if i-start > 4 {
			return nil, ErrPriorityTooLong
		}

		c := buff[i]

		if c == PRI_PART_END {
			if i == start+1 {
				return nil, ErrPriorityTooShort
			}

			if priDigit > 191 {
				return nil, ErrPriorityOutOfRange
			}

			*cursor = i + 1

			return NewPriority(priDigit), nil
		}

		if !IsDigit(c) {
			return nil, ErrPriorityNonDigit
		}

		priDigit = (priDigit * 10) + int(c-'0')
	}

	return nil, ErrPriorityNoEnd
}

// ParseVersion reads the version digit which, in the modern grammar,
// immediately follows the priority. A non digit byte yields
// NO_VERSION without error so relaxed senders remain parseable.
func ParseVersion(buff []byte, cursor *int, l int) (int, error) {
	if *cursor >= l {
		return NO_VERSION, ErrVersionNotFound
	}

	c := buff[*cursor]
	*cursor++

	if !IsDigit(c) {
		return NO_VERSION, nil
	}

	return int(c - '0'), nil
}

// ParseHostname scans up to the next space or the end of the line.
func ParseHostname(buff []byte, cursor *int, l int) (string, error) {
	from := *cursor
	var to int

	for to = from; to < l; to++ {
		if buff[to] == ' ' {
			break
		}
	}

	hostname := buff[from:to]

	*cursor = to

	return string(hostname), nil
}

// FindNextSpace returns the position right after the next space.
func FindNextSpace(buff []byte, from int, l int) (int, error) {
	var to int

	for to = from; to < l; to++ {
		if buff[to] == ' ' {
			to++
			return to, nil
		}
	}

	return 0, ErrNoSpace
}

// Parse2Digits reads exactly two digits and checks them against the
// [min, max] range, returning e otherwise.
func Parse2Digits(buff []byte, cursor *int, l int, min int, max int, e error) (int, error) {
	digitLen := 2

	if *cursor+digitLen > l {
		return 0, ErrEOL
	}

	sub := buff[*cursor : *cursor+digitLen]

	*cursor += digitLen

	if !IsDigit(sub[0]) || !IsDigit(sub[1]) {
		return 0, e
	}

	i := int(sub[0]-'0')*10 + int(sub[1]-'0')

	if i >= min && i <= max {
		return i, nil
	}

	return 0, e
}

func IsDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
