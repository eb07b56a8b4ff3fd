// Package syslogloose parses syslog lines that only loosely follow
// RFC3164 or RFC5424. Parsing is best effort: a field that fails to
// parse degrades to an absent field and its unconsumed text flows
// into the message body, so Parse always yields a Message and never
// an error.
package syslogloose

type RFC uint8

const (
	RFC_UNKNOWN = iota
	RFC_3164
	RFC_5424
)

type LogParts map[string]interface{}

// DetectRFC reports the grammar Parse commits to for this line,
// using the same timestamp probe: RFC_5424 when a modern timestamp
// (or its "-" nil value) follows the priority, RFC_3164 when a legacy
// timestamp does, RFC_UNKNOWN otherwise.
func DetectRFC(buff []byte) RFC {
	return NewParser(buff).Parse().RFC
}
