package syslogloose

import (
	"bytes"
	"fmt"
	"time"

	"github.com/syslogloose/syslogloose/parsercommon"
	"github.com/syslogloose/syslogloose/rfc5424"
)

// Message is the record produced for one line. Pointer fields are nil
// when the line did not carry the field; a nil Timestamp means no
// recognizable timestamp was found (its text, if any, stays in the
// Message body). The body itself is never absent, only empty.
type Message struct {
	Priority       *parsercommon.Priority
	Version        int
	Timestamp      *time.Time
	Hostname       *string
	AppName        *string
	ProcID         *string
	MsgID          *string
	StructuredData []rfc5424.StructuredDataElement
	Message        string
	RFC            RFC
}

// String re-serializes the record in the modern grammar. Absent
// fields render as the "-" nil value; a legacy tag renders as the
// app-name. Parsing the result yields an equal Message.
func (m *Message) String() string {
	var b bytes.Buffer

	if m.Priority != nil {
		fmt.Fprintf(&b, "<%d>", m.Priority.P)
	}

	version := m.Version
	if version == parsercommon.NO_VERSION {
		version = 1
	}

	fmt.Fprintf(&b, "%d ", version)

	if m.Timestamp != nil {
		b.WriteString(m.Timestamp.Format(time.RFC3339Nano))
	} else {
		b.WriteByte(rfc5424.NILVALUE)
	}

	writeField(&b, m.Hostname)
	writeField(&b, m.AppName)
	writeField(&b, m.ProcID)
	writeField(&b, m.MsgID)

	b.WriteByte(' ')

	if len(m.StructuredData) == 0 {
		b.WriteByte(rfc5424.NILVALUE)
	} else {
		for _, elem := range m.StructuredData {
			writeElement(&b, elem)
		}
	}

	if m.Message != "" {
		b.WriteByte(' ')
		b.WriteString(m.Message)
	}

	return b.String()
}

func writeField(b *bytes.Buffer, f *string) {
	b.WriteByte(' ')

	if f == nil {
		b.WriteByte(rfc5424.NILVALUE)
		return
	}

	b.WriteString(*f)
}

func writeElement(b *bytes.Buffer, elem rfc5424.StructuredDataElement) {
	b.WriteByte('[')
	b.WriteString(elem.ID)

	for _, p := range elem.Params {
		b.WriteByte(' ')
		b.WriteString(p.Name)
		b.WriteString(`="`)
		writeEscaped(b, p.Value)
		b.WriteByte('"')
	}

	b.WriteByte(']')
}

func writeEscaped(b *bytes.Buffer, v string) {
	for i := 0; i < len(v); i++ {
		c := v[i]

		if c == '"' || c == '\\' || c == ']' {
			b.WriteByte('\\')
		}

		b.WriteByte(c)
	}
}
