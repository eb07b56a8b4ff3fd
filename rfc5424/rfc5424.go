// Package rfc5424 parses the modern syslog header: the ISO8601
// timestamp, the "-" nil-able header fields and the structured data
// element list. Parsers follow the shared (buff, cursor, l)
// convention and leave the cursor untouched when they fail to commit,
// so the caller can fall back to the legacy grammar.
package rfc5424

import (
	"time"

	"github.com/syslogloose/syslogloose/parsercommon"
)

const NILVALUE = '-'

var (
	ErrYearInvalid       = &parsercommon.ParserError{ErrorString: "Invalid year in timestamp"}
	ErrMonthInvalid      = &parsercommon.ParserError{ErrorString: "Invalid month in timestamp"}
	ErrDayInvalid        = &parsercommon.ParserError{ErrorString: "Invalid day in timestamp"}
	ErrHourInvalid       = &parsercommon.ParserError{ErrorString: "Invalid hour in timestamp"}
	ErrMinuteInvalid     = &parsercommon.ParserError{ErrorString: "Invalid minute in timestamp"}
	ErrSecondInvalid     = &parsercommon.ParserError{ErrorString: "Invalid second in timestamp"}
	ErrSecFracInvalid    = &parsercommon.ParserError{ErrorString: "Invalid fraction of second in timestamp"}
	ErrTimeZoneInvalid   = &parsercommon.ParserError{ErrorString: "Invalid time zone in timestamp"}
	ErrInvalidTimeFormat = &parsercommon.ParserError{ErrorString: "Invalid time format"}

	ErrSDElementMalformed    = &parsercommon.ParserError{ErrorString: "Malformed structured data element"}
	ErrSDElementUnterminated = &parsercommon.ParserError{ErrorString: "Unterminated structured data element"}
)

// Header holds the modern-grammar header fields. A nil field carried
// the "-" nil value or was missing from a truncated line.
type Header struct {
	Version   int
	Timestamp *time.Time
	Hostname  *string
	AppName   *string
	ProcID    *string
	MsgID     *string
}

// StructuredDataElement is one "[SD-ID PARAM-NAME="PARAM-VALUE" ...]"
// element. Params keep their insertion order and may repeat.
type StructuredDataElement struct {
	ID     string
	Params []SDParam
}

type SDParam struct {
	Name  string
	Value string
}

type partialTime struct {
	hour    int
	minute  int
	seconds int
	nsec    int
}

type fullTime struct {
	pt  *partialTime
	loc *time.Location
}

type fullDate struct {
	year  int
	month int
	day   int
}

// HEADER = VERSION SP TIMESTAMP SP HOSTNAME SP APP-NAME SP PROCID SP MSGID
//
// The priority has already been consumed by the caller. The cursor is
// restored and an error returned only when no modern timestamp is
// found here; past that commit point missing fields degrade to nil.
func ParseHeader(buff []byte, cursor *int, l int) (*Header, error) {
	from := *cursor

	version := parseVersionPrefix(buff, cursor, l)

	ts, err := ParseTimestamp(buff, cursor, l)
	if err != nil {
		*cursor = from
		return nil, err
	}

	hdr := &Header{
		Version:   version,
		Timestamp: ts,
	}

	hdr.Hostname = parseField(buff, cursor, l)
	hdr.AppName = parseField(buff, cursor, l)
	hdr.ProcID = parseField(buff, cursor, l)
	hdr.MsgID = parseField(buff, cursor, l)

	return hdr, nil
}

// The modern grammar puts a version digit between the priority and
// the timestamp. Absence is not an error: relaxed senders emit the
// timestamp directly.
func parseVersionPrefix(buff []byte, cursor *int, l int) int {
	from := *cursor

	v, err := parsercommon.ParseVersion(buff, cursor, l)
	if err != nil || v == parsercommon.NO_VERSION {
		*cursor = from
		return parsercommon.NO_VERSION
	}

	if *cursor < l && buff[*cursor] == ' ' {
		*cursor++
		return v
	}

	*cursor = from

	return parsercommon.NO_VERSION
}

// Scans one SP-delimited header field. Returns nil for the "-" nil
// value and for fields missing from a truncated line.
func parseField(buff []byte, cursor *int, l int) *string {
	if *cursor < l && buff[*cursor] == ' ' {
		*cursor++
	}

	if *cursor >= l {
		return nil
	}

	from := *cursor
	to := from

	for to = from; to < l; to++ {
		if buff[to] == ' ' {
			break
		}
	}

	*cursor = to

	if to == from {
		return nil
	}

	if to-from == 1 && buff[from] == NILVALUE {
		return nil
	}

	f := string(buff[from:to])

	return &f
}

// TIMESTAMP = NILVALUE / FULL-DATE "T" FULL-TIME
// https://tools.ietf.org/html/rfc5424#section-6.2.3
//
// A (nil, nil) return is the "-" nil value: the timestamp field was
// present but deliberately omitted by the sender.
func ParseTimestamp(buff []byte, cursor *int, l int) (*time.Time, error) {
	if *cursor >= l {
		return nil, parsercommon.ErrEOL
	}

	if buff[*cursor] == NILVALUE {
		*cursor++
		return nil, nil
	}

	from := *cursor

	fd, err := parseFullDate(buff, cursor, l)
	if err != nil {
		*cursor = from
		return nil, err
	}

	if *cursor >= l || buff[*cursor] != 'T' {
		*cursor = from
		return nil, ErrInvalidTimeFormat
	}

	*cursor++

	ft, err := parseFullTime(buff, cursor, l)
	if err != nil {
		*cursor = from
		return nil, parsercommon.ErrTimestampUnknownFormat
	}

	ts := time.Date(
		fd.year,
		time.Month(fd.month),
		fd.day,
		ft.pt.hour,
		ft.pt.minute,
		ft.pt.seconds,
		ft.pt.nsec,
		ft.loc,
	)

	// time.Date normalizes an impossible day (Feb 31) into the next
	// month. That would be a different instant than the sender wrote,
	// so treat it as no timestamp at all.
	if ts.Day() != fd.day || ts.Month() != time.Month(fd.month) {
		*cursor = from
		return nil, ErrDayInvalid
	}

	return &ts, nil
}

// FULL-DATE : DATE-FULLYEAR "-" DATE-MONTH "-" DATE-MDAY
func parseFullDate(buff []byte, cursor *int, l int) (fullDate, error) {
	var fd fullDate

	year, err := parseYear(buff, cursor, l)
	if err != nil {
		return fd, err
	}

	if *cursor >= l || buff[*cursor] != '-' {
		return fd, parsercommon.ErrTimestampUnknownFormat
	}

	*cursor++

	month, err := parseMonth(buff, cursor, l)
	if err != nil {
		return fd, err
	}

	if *cursor >= l || buff[*cursor] != '-' {
		return fd, parsercommon.ErrTimestampUnknownFormat
	}

	*cursor++

	day, err := parseDay(buff, cursor, l)
	if err != nil {
		return fd, err
	}

	fd = fullDate{
		year:  year,
		month: month,
		day:   day,
	}

	return fd, nil
}

// DATE-FULLYEAR = 4DIGIT
func parseYear(buff []byte, cursor *int, l int) (int, error) {
	yearLen := 4

	if *cursor+yearLen > l {
		return 0, parsercommon.ErrEOL
	}

	year := 0

	for i := 0; i < yearLen; i++ {
		c := buff[*cursor+i]

		if !parsercommon.IsDigit(c) {
			*cursor += yearLen
			return 0, ErrYearInvalid
		}

		year = year*10 + int(c-'0')
	}

	*cursor += yearLen

	return year, nil
}

// DATE-MONTH = 2DIGIT  ; 01-12
func parseMonth(buff []byte, cursor *int, l int) (int, error) {
	return parsercommon.Parse2Digits(buff, cursor, l, 1, 12, ErrMonthInvalid)
}

// DATE-MDAY = 2DIGIT  ; 01-31. Whether the day exists in its month is
// checked after time.Date, see ParseTimestamp.
func parseDay(buff []byte, cursor *int, l int) (int, error) {
	return parsercommon.Parse2Digits(buff, cursor, l, 1, 31, ErrDayInvalid)
}

// FULL-TIME = PARTIAL-TIME TIME-OFFSET
func parseFullTime(buff []byte, cursor *int, l int) (*fullTime, error) {
	pt, err := parsePartialTime(buff, cursor, l)
	if err != nil {
		return nil, err
	}

	loc, err := parseTimeOffset(buff, cursor, l)
	if err != nil {
		return nil, err
	}

	ft := &fullTime{
		pt:  pt,
		loc: loc,
	}

	return ft, nil
}

// PARTIAL-TIME = TIME-HOUR ":" TIME-MINUTE ":" TIME-SECOND [TIME-SECFRAC]
func parsePartialTime(buff []byte, cursor *int, l int) (*partialTime, error) {
	hour, minute, err := getHourMinute(buff, cursor, l)
	if err != nil {
		return nil, err
	}

	if *cursor >= l || buff[*cursor] != ':' {
		return nil, ErrInvalidTimeFormat
	}

	*cursor++

	seconds, err := parseSecond(buff, cursor, l)
	if err != nil {
		return nil, err
	}

	pt := &partialTime{
		hour:    hour,
		minute:  minute,
		seconds: seconds,
	}

	if *cursor >= l || buff[*cursor] != '.' {
		return pt, nil
	}

	*cursor++

	nsec, err := parseSecFrac(buff, cursor, l)
	if err != nil {
		return nil, err
	}

	pt.nsec = nsec

	return pt, nil
}

// TIME-HOUR = 2DIGIT  ; 00-23
func parseHour(buff []byte, cursor *int, l int) (int, error) {
	return parsercommon.Parse2Digits(buff, cursor, l, 0, 23, ErrHourInvalid)
}

// TIME-MINUTE = 2DIGIT  ; 00-59
func parseMinute(buff []byte, cursor *int, l int) (int, error) {
	return parsercommon.Parse2Digits(buff, cursor, l, 0, 59, ErrMinuteInvalid)
}

// TIME-SECOND = 2DIGIT  ; 00-59
func parseSecond(buff []byte, cursor *int, l int) (int, error) {
	return parsercommon.Parse2Digits(buff, cursor, l, 0, 59, ErrSecondInvalid)
}

// TIME-SECFRAC = 1*9DIGIT, accumulated directly in nanoseconds.
// Digits past the ninth carry no sub-nanosecond meaning and are
// consumed without effect.
func parseSecFrac(buff []byte, cursor *int, l int) (int, error) {
	from := *cursor
	to := from

	nsec := 0
	pow := 100000000

	for to = from; to < from+9 && to < l; to++ {
		c := buff[to]

		if !parsercommon.IsDigit(c) {
			break
		}

		nsec += int(c-'0') * pow
		pow /= 10
	}

	if to == from {
		return 0, ErrSecFracInvalid
	}

	for to < l && parsercommon.IsDigit(buff[to]) {
		to++
	}

	*cursor = to

	return nsec, nil
}

// TIME-OFFSET = "Z" / ("+" / "-") TIME-HOUR ":" TIME-MINUTE
func parseTimeOffset(buff []byte, cursor *int, l int) (*time.Location, error) {
	if *cursor >= l {
		return nil, ErrTimeZoneInvalid
	}

	if buff[*cursor] == 'Z' {
		*cursor++
		return time.UTC, nil
	}

	sign := buff[*cursor]

	if sign != '+' && sign != '-' {
		return nil, ErrTimeZoneInvalid
	}

	*cursor++

	hour, minute, err := getHourMinute(buff, cursor, l)
	if err != nil {
		return nil, err
	}

	offset := hour*3600 + minute*60
	if sign == '-' {
		offset = -offset
	}

	return time.FixedZone("", offset), nil
}

func getHourMinute(buff []byte, cursor *int, l int) (int, int, error) {
	hour, err := parseHour(buff, cursor, l)
	if err != nil {
		return 0, 0, err
	}

	if *cursor >= l || buff[*cursor] != ':' {
		return 0, 0, ErrInvalidTimeFormat
	}

	*cursor++

	minute, err := parseMinute(buff, cursor, l)
	if err != nil {
		return 0, 0, err
	}

	return hour, minute, nil
}

// ------------------------------------------------
// https://tools.ietf.org/html/rfc5424#section-6.3
// ------------------------------------------------

// STRUCTURED-DATA = NILVALUE / 1*SD-ELEMENT
//
// A malformed element that still closes its bracket is dropped and
// scanning resumes right after it. An element with no closing bracket
// before the end of input is left unconsumed so its raw text surfaces
// in the message body instead of being half-parsed.
func ParseStructuredData(buff []byte, cursor *int, l int) []StructuredDataElement {
	if *cursor < l && buff[*cursor] == NILVALUE {
		next := *cursor + 1

		if next == l || buff[next] == ' ' {
			*cursor = next
			return []StructuredDataElement{}
		}
	}

	var elements []StructuredDataElement

	for *cursor < l && buff[*cursor] == '[' {
		from := *cursor

		elem, err := parseElement(buff, cursor, l)
		if err == nil {
			elements = append(elements, *elem)
			continue
		}

		*cursor = from

		if err == ErrSDElementUnterminated || !skipElement(buff, cursor, l) {
			break
		}
	}

	return elements
}

// SD-ELEMENT = "[" SD-ID *(SP SD-PARAM) "]"
// The caller has already checked the opening bracket.
func parseElement(buff []byte, cursor *int, l int) (*StructuredDataElement, error) {
	*cursor++

	id, err := parseSdName(buff, cursor, l)
	if err != nil {
		return nil, err
	}

	elem := &StructuredDataElement{ID: id}

	for *cursor < l && buff[*cursor] == ' ' {
		for *cursor < l && buff[*cursor] == ' ' {
			*cursor++
		}

		if *cursor < l && buff[*cursor] == ']' {
			break
		}

		name, value, err := parseParam(buff, cursor, l)
		if err != nil {
			return nil, err
		}

		elem.Params = append(
			elem.Params,
			SDParam{Name: name, Value: value},
		)
	}

	if *cursor >= l {
		return nil, ErrSDElementUnterminated
	}

	if buff[*cursor] != ']' {
		return nil, ErrSDElementMalformed
	}

	*cursor++

	return elem, nil
}

// SD-ID and PARAM-NAME share the same shape: a run free of
// whitespace, "]", quotes and "=".
func parseSdName(buff []byte, cursor *int, l int) (string, error) {
	from := *cursor

	for *cursor < l {
		c := buff[*cursor]

		if c == ' ' || c == ']' || c == '"' || c == '=' {
			break
		}

		*cursor++
	}

	if *cursor == from {
		return "", ErrSDElementMalformed
	}

	return string(buff[from:*cursor]), nil
}

// SD-PARAM = PARAM-NAME "=" %d34 PARAM-VALUE %d34
func parseParam(buff []byte, cursor *int, l int) (string, string, error) {
	name, err := parseSdName(buff, cursor, l)
	if err != nil {
		return "", "", err
	}

	if *cursor >= l || buff[*cursor] != '=' {
		return "", "", ErrSDElementMalformed
	}

	*cursor++

	// relaxed senders put spaces between "=" and the value
	for *cursor < l && buff[*cursor] == ' ' {
		*cursor++
	}

	value, err := parseParamValue(buff, cursor, l)
	if err != nil {
		return "", "", err
	}

	return name, value, nil
}

// PARAM-VALUE runs to the first unescaped double quote. The escapes
// \", \\ and \] unescape to their literal character; any other
// backslash passes through untouched.
func parseParamValue(buff []byte, cursor *int, l int) (string, error) {
	if *cursor >= l || buff[*cursor] != '"' {
		return "", ErrSDElementMalformed
	}

	*cursor++

	var value []byte
	escaped := false

	for *cursor < l {
		c := buff[*cursor]

		switch {
		case escaped:
			if c != '"' && c != '\\' && c != ']' {
				value = append(value, '\\')
			}

			value = append(value, c)
			escaped = false

		case c == '\\':
			escaped = true

		case c == '"':
			*cursor++
			return string(value), nil

		default:
			value = append(value, c)
		}

		*cursor++
	}

	return "", ErrSDElementUnterminated
}

// Best-effort recovery for a malformed element: skip the whole
// bracketed run. Reports false when the bracket never closes.
func skipElement(buff []byte, cursor *int, l int) bool {
	for to := *cursor + 1; to < l; to++ {
		if buff[to] == ']' {
			*cursor = to + 1
			return true
		}
	}

	return false
}
