package syslogloose

import (
	"bytes"
	"math"
	"time"

	"github.com/syslogloose/syslogloose/parsercommon"
	"github.com/syslogloose/syslogloose/rfc3164"
	"github.com/syslogloose/syslogloose/rfc5424"
)

const (
	// Loose senders routinely exceed the RFC packet caps, so accept a
	// good deal more while still protecting from exhaustion.
	MAX_PACKET_LEN = 4096
)

var bom = []byte{0xEF, 0xBB, 0xBF}

type Parser struct {
	buff        []byte
	cursor      int
	l           int
	location    *time.Location
	currentTime time.Time
	yearGrace   time.Duration
	msg         *Message
}

func NewParser(buff []byte) *Parser {
	return &Parser{
		buff:        buff,
		cursor:      0,
		location:    time.UTC,
		currentTime: time.Now(),
		yearGrace:   rfc3164.DefaultYearGrace,
		l: int(
			math.Min(
				float64(len(buff)),
				MAX_PACKET_LEN,
			),
		),
	}
}

// Forces the reference instant used to resolve the year of yearless
// legacy timestamps. time.Now() is used otherwise.
func (p *Parser) WithCurrentTime(t time.Time) {
	p.currentTime = t
}

// Forces a location for yearless legacy timestamps. UTC is used
// otherwise.
func (p *Parser) WithLocation(l *time.Location) {
	p.location = l
}

// Forces the forward tolerance of the year wrap rule. See
// rfc3164.DefaultYearGrace.
func (p *Parser) WithYearGrace(d time.Duration) {
	p.yearGrace = d
}

// Parse decomposes the line into a Message. It cannot fail: the
// grammar is picked once from the timestamp shape, every optional
// stage that does not match is skipped without consuming input, and
// whatever remains unconsumed becomes the message body.
func (p *Parser) Parse() *Message {
	m := &Message{
		Version: parsercommon.NO_VERSION,
		RFC:     RFC_UNKNOWN,
	}

	p.skipBOM()

	if pri, err := parsercommon.ParsePriority(p.buff, &p.cursor, p.l); err == nil {
		m.Priority = pri
	}

	if hdr, err := rfc5424.ParseHeader(p.buff, &p.cursor, p.l); err == nil {
		p.parseModern(m, hdr)
	} else if ts, err := rfc3164.ParseTimestamp(p.buff, &p.cursor, p.l, p.location, p.currentTime, p.yearGrace); err == nil {
		p.parseLegacy(m, ts)
	} else if p.cursor < p.l {
		m.Message = string(p.buff[p.cursor:p.l])
	}

	p.msg = m

	return m
}

// Dump exposes the record as the traditional LogParts map. Absent
// fields are absent keys; legacy lines use the rfc3164 "tag" key for
// what Message stores as AppName.
func (p *Parser) Dump() LogParts {
	m := p.msg
	if m == nil {
		m = p.Parse()
	}

	parts := LogParts{
		"message": m.Message,
	}

	if m.Priority != nil {
		parts["priority"] = m.Priority.P
		parts["facility"] = m.Priority.F.Value
		parts["severity"] = m.Priority.S.Value
	}

	if m.Timestamp != nil {
		parts["timestamp"] = *m.Timestamp
	}

	if m.Hostname != nil {
		parts["hostname"] = *m.Hostname
	}

	if m.ProcID != nil {
		parts["proc_id"] = *m.ProcID
	}

	switch m.RFC {
	case RFC_3164:
		if m.AppName != nil {
			parts["tag"] = *m.AppName
		}

	case RFC_5424:
		if m.Version != parsercommon.NO_VERSION {
			parts["version"] = m.Version
		}

		if m.AppName != nil {
			parts["app_name"] = *m.AppName
		}

		if m.MsgID != nil {
			parts["msg_id"] = *m.MsgID
		}

		if len(m.StructuredData) > 0 {
			parts["structured_data"] = m.StructuredData
		}
	}

	return parts
}

func (p *Parser) parseModern(m *Message, hdr *rfc5424.Header) {
	m.RFC = RFC_5424
	m.Version = hdr.Version
	m.Timestamp = hdr.Timestamp
	m.Hostname = hdr.Hostname
	m.AppName = hdr.AppName
	m.ProcID = hdr.ProcID
	m.MsgID = hdr.MsgID

	if p.cursor < p.l && p.buff[p.cursor] == ' ' {
		p.cursor++
	}

	sdStart := p.cursor
	m.StructuredData = rfc5424.ParseStructuredData(p.buff, &p.cursor, p.l)

	// the SP separator after the structured data field belongs to the
	// grammar, not to the body
	if p.cursor > sdStart && p.cursor < p.l && p.buff[p.cursor] == ' ' {
		p.cursor++
	}

	if p.cursor < p.l {
		m.Message = string(p.buff[p.cursor:p.l])
	}
}

func (p *Parser) parseLegacy(m *Message, ts *time.Time) {
	m.RFC = RFC_3164
	m.Timestamp = ts

	if p.cursor < p.l && p.buff[p.cursor] == ' ' {
		p.cursor++
	}

	if hdr, err := rfc3164.ParseHeader(p.buff, &p.cursor, p.l); err == nil {
		m.Hostname = &hdr.Hostname
		m.AppName = &hdr.Tag

		if hdr.ProcID != "" {
			m.ProcID = &hdr.ProcID
		}

		if p.cursor < p.l && p.buff[p.cursor] == ' ' {
			p.cursor++
		}
	}

	if p.cursor < p.l {
		m.Message = string(p.buff[p.cursor:p.l])
	}
}

// A leading byte order mark is not message content whichever grammar
// the line follows.
func (p *Parser) skipBOM() {
	if bytes.HasPrefix(p.buff, bom) {
		p.cursor += len(bom)
	}
}
