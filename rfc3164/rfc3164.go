// Package rfc3164 parses the legacy BSD syslog header: the yearless
// local-time timestamp and the "hostname tag[pid]:" message prefix.
// Parsers follow the shared (buff, cursor, l) convention and leave
// the cursor untouched when they fail, so unrecognized text stays in
// the line for the message body.
package rfc3164

import (
	"time"

	"github.com/syslogloose/syslogloose/parsercommon"
)

// DefaultYearGrace bounds how far in the future a reference-year
// legacy date may fall before the previous year is assumed instead.
// Senders lag behind the receiver, they do not run ahead of it, so
// anything beyond this window is a December message read in January.
const DefaultYearGrace = 48 * time.Hour

var ErrInvalidTag = &parsercommon.ParserError{ErrorString: "Invalid tag"}

// Timestamp layouts tried in order, fixed width so the consumed span
// is the layout length. The rare inline-year variants come first: a
// yearless match must not leave a 4 digit year at the head of the
// message body.
var timestampFmts = []string{
	"Jan 02 2006 15:04:05",
	"Jan  2 2006 15:04:05",
	"Jan 02 15:04:05",
	"Jan  2 15:04:05",
}

// Header holds the legacy message prefix. ProcID is empty when the
// tag carried no "[pid]".
type Header struct {
	Hostname string
	Tag      string
	ProcID   string
}

// TIMESTAMP = "Mmm dd hh:mm:ss" or the inline-year variant
// "Mmm dd yyyy hh:mm:ss".
// https://tools.ietf.org/html/rfc3164#section-4.1.2
//
// A yearless timestamp is resolved against ref: it gets ref's year
// unless that places it more than grace in the future, in which case
// the previous year is used. Lexically broken or impossible dates
// (Oct 34, Feb 31) fail without consuming anything.
func ParseTimestamp(buff []byte, cursor *int, l int, loc *time.Location, ref time.Time, grace time.Duration) (*time.Time, error) {
	for _, tsFmt := range timestampFmts {
		tsFmtLen := len(tsFmt)

		if *cursor+tsFmtLen > l {
			continue
		}

		sub := string(buff[*cursor : *cursor+tsFmtLen])

		ts, err := time.ParseInLocation(tsFmt, sub, loc)
		if err != nil {
			continue
		}

		*cursor += tsFmtLen

		if ts.Year() == 0 {
			ts = inferYear(ts, ref, grace)
		}

		return &ts, nil
	}

	return nil, parsercommon.ErrTimestampUnknownFormat
}

func inferYear(ts time.Time, ref time.Time, grace time.Duration) time.Time {
	if grace <= 0 {
		grace = DefaultYearGrace
	}

	candidate := time.Date(
		ref.Year(), ts.Month(), ts.Day(),
		ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(),
		ts.Location(),
	)

	if candidate.After(ref.Add(grace)) {
		candidate = candidate.AddDate(-1, 0, 0)
	}

	return candidate
}

// The remainder after the timestamp is "HOSTNAME SP TAG[PID]: MSG".
// The hostname token is committed only when the token right after it
// is a recognizable tag; otherwise nothing is consumed and the whole
// remainder belongs to the message body.
// https://tools.ietf.org/html/rfc3164#section-4.1.3
func ParseHeader(buff []byte, cursor *int, l int) (*Header, error) {
	from := *cursor

	hostname, err := parsercommon.ParseHostname(buff, cursor, l)
	if err != nil || hostname == "" {
		*cursor = from
		return nil, ErrInvalidTag
	}

	if *cursor >= l || buff[*cursor] != ' ' {
		*cursor = from
		return nil, ErrInvalidTag
	}

	*cursor++

	tag, pid, err := parseTag(buff, cursor, l)
	if err != nil {
		*cursor = from
		return nil, err
	}

	hdr := &Header{
		Hostname: hostname,
		Tag:      tag,
		ProcID:   pid,
	}

	return hdr, nil
}

// TAG = 1*(not SP, not "[", not ":") ["[" 1*DIGIT "]"] ":"
func parseTag(buff []byte, cursor *int, l int) (string, string, error) {
	from := *cursor
	to := from

	for to = from; to < l; to++ {
		c := buff[to]

		if c == ' ' || c == '[' || c == ':' {
			break
		}
	}

	if to == from || to >= l {
		return "", "", ErrInvalidTag
	}

	tag := string(buff[from:to])
	pid := ""

	if buff[to] == '[' {
		pidFrom := to + 1
		pidTo := pidFrom

		for pidTo < l && parsercommon.IsDigit(buff[pidTo]) {
			pidTo++
		}

		if pidTo == pidFrom || pidTo >= l || buff[pidTo] != ']' {
			return "", "", ErrInvalidTag
		}

		pid = string(buff[pidFrom:pidTo])
		to = pidTo + 1
	}

	if to >= l || buff[to] != ':' {
		return "", "", ErrInvalidTag
	}

	*cursor = to + 1

	return tag, pid, nil
}
