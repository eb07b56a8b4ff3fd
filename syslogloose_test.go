package syslogloose

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/syslogloose/syslogloose/parsercommon"
	"github.com/syslogloose/syslogloose/rfc5424"
)

type LooseTestSuite struct {
	suite.Suite
}

// reference instant used by the legacy year inference cases
var ref = time.Date(
	2024, time.January, 2,
	0, 0, 0, 0,
	time.UTC,
)

func sptr(s string) *string {
	return &s
}

func tptr(t time.Time) *time.Time {
	return &t
}

func (s *LooseTestSuite) TestParse_Legacy() {
	p := NewParser(
		[]byte("<34>Oct 11 22:14:15 mymachine su: 'su root' failed for lonvick"),
	)

	p.WithCurrentTime(
		time.Date(2024, time.October, 12, 0, 0, 0, 0, time.UTC),
	)

	m := p.Parse()

	s.Require().Equal(
		&Message{
			Priority: parsercommon.NewPriority(34),
			Version:  parsercommon.NO_VERSION,
			Timestamp: tptr(time.Date(
				2024, time.October,
				11, 22, 14, 15, 0,
				time.UTC,
			)),
			Hostname: sptr("mymachine"),
			AppName:  sptr("su"),
			Message:  "'su root' failed for lonvick",
			RFC:      RFC_3164,
		},
		m,
	)

	s.Require().Equal(4, m.Priority.F.Value)
	s.Require().Equal(2, m.Priority.S.Value)
}

func (s *LooseTestSuite) TestParse_LegacyWithPid() {
	p := NewParser(
		[]byte("<30>Jun 23 13:17:42 gimli chronyd[1119]: Selected source 192.168.65.1"),
	)

	p.WithCurrentTime(
		time.Date(2024, time.June, 24, 0, 0, 0, 0, time.UTC),
	)

	m := p.Parse()

	s.Require().Equal(sptr("gimli"), m.Hostname)
	s.Require().Equal(sptr("chronyd"), m.AppName)
	s.Require().Equal(sptr("1119"), m.ProcID)
	s.Require().Equal("Selected source 192.168.65.1", m.Message)
	s.Require().Equal(RFC(RFC_3164), m.RFC)
}

func (s *LooseTestSuite) TestParse_LegacyNoTag() {
	p := NewParser(
		[]byte("<13>Feb  5 17:32:18 all quiet on the western front"),
	)

	p.WithCurrentTime(
		time.Date(2024, time.February, 6, 0, 0, 0, 0, time.UTC),
	)

	m := p.Parse()

	s.Require().Equal(RFC(RFC_3164), m.RFC)
	s.Require().NotNil(m.Timestamp)
	s.Require().Nil(m.Hostname)
	s.Require().Nil(m.AppName)
	s.Require().Nil(m.ProcID)
	s.Require().Equal("all quiet on the western front", m.Message)
}

func (s *LooseTestSuite) TestParse_LegacyYearWrap() {
	p := NewParser(
		[]byte("<34>Dec 31 23:59:59 mymachine su: late"),
	)
	p.WithCurrentTime(ref)

	m := p.Parse()

	s.Require().Equal(
		tptr(time.Date(
			2023, time.December,
			31, 23, 59, 59, 0,
			time.UTC,
		)),
		m.Timestamp,
	)

	p = NewParser(
		[]byte("<34>Jan 01 00:00:01 mymachine su: early"),
	)
	p.WithCurrentTime(ref)

	m = p.Parse()

	s.Require().Equal(
		tptr(time.Date(
			2024, time.January,
			1, 0, 0, 1, 0,
			time.UTC,
		)),
		m.Timestamp,
	)
}

func (s *LooseTestSuite) TestParse_Modern() {
	p := NewParser(
		[]byte(`<165>1 2003-10-11T22:14:15.003Z mymachine.example.com evntslog - ID47 [exampleSDID@32473 iut="3" eventSource="Application" eventID="1011"] An application event log entry`),
	)

	m := p.Parse()

	s.Require().Equal(
		&Message{
			Priority: parsercommon.NewPriority(165),
			Version:  1,
			Timestamp: tptr(time.Date(
				2003, time.October,
				11, 22, 14, 15, 3*1e6,
				time.UTC,
			)),
			Hostname: sptr("mymachine.example.com"),
			AppName:  sptr("evntslog"),
			MsgID:    sptr("ID47"),
			StructuredData: []rfc5424.StructuredDataElement{
				{
					ID: "exampleSDID@32473",
					Params: []rfc5424.SDParam{
						{Name: "iut", Value: "3"},
						{Name: "eventSource", Value: "Application"},
						{Name: "eventID", Value: "1011"},
					},
				},
			},
			Message: "An application event log entry",
			RFC:     RFC_5424,
		},
		m,
	)
}

func (s *LooseTestSuite) TestParse_ModernAllNil() {
	p := NewParser([]byte("<34>1 - - - - - - hello"))

	m := p.Parse()

	s.Require().Equal(RFC(RFC_5424), m.RFC)
	s.Require().Equal(1, m.Version)
	s.Require().Nil(m.Timestamp)
	s.Require().Nil(m.Hostname)
	s.Require().Nil(m.AppName)
	s.Require().Nil(m.ProcID)
	s.Require().Nil(m.MsgID)
	s.Require().Equal([]rfc5424.StructuredDataElement{}, m.StructuredData)
	s.Require().Equal("hello", m.Message)
}

func (s *LooseTestSuite) TestParse_ModernNoSDField() {
	// only five "-": the structured data field itself is missing,
	// which is not the same record as an explicit "-" nil value
	p := NewParser([]byte("<34>1 - - - - - hello"))

	m := p.Parse()

	s.Require().Nil(m.StructuredData)
	s.Require().Equal("hello", m.Message)
}

func (s *LooseTestSuite) TestParse_ModernTruncated() {
	p := NewParser([]byte("<34>1 2024-01-01T00:00:00Z myhost"))

	m := p.Parse()

	s.Require().Equal(RFC(RFC_5424), m.RFC)
	s.Require().Equal(sptr("myhost"), m.Hostname)
	s.Require().Nil(m.AppName)
	s.Require().Nil(m.ProcID)
	s.Require().Nil(m.MsgID)
	s.Require().Equal("", m.Message)
}

func (s *LooseTestSuite) TestParse_UnterminatedStructuredData() {
	p := NewParser(
		[]byte(`<34>1 2024-01-01T00:00:00Z host app proc msgid [ex@1 iut="3`),
	)

	m := p.Parse()

	s.Require().Nil(m.StructuredData)
	s.Require().Equal(`[ex@1 iut="3`, m.Message)
}

func (s *LooseTestSuite) TestParse_EscapedValue() {
	p := NewParser(
		[]byte(`<34>1 2024-01-01T00:00:00Z host app proc msgid [ex@1 key="a\"b"] done`),
	)

	m := p.Parse()

	s.Require().Equal(
		[]rfc5424.StructuredDataElement{
			{
				ID:     "ex@1",
				Params: []rfc5424.SDParam{{Name: "key", Value: `a"b`}},
			},
		},
		m.StructuredData,
	)

	s.Require().Equal("done", m.Message)
}

func (s *LooseTestSuite) TestParse_PriorityOutOfRange() {
	line := "<192>Oct 11 22:14:15 mymachine su: hm"

	p := NewParser([]byte(line))

	m := p.Parse()

	s.Require().Nil(m.Priority)
	s.Require().Equal(RFC(RFC_UNKNOWN), m.RFC)
	s.Require().Equal(line, m.Message)
}

func (s *LooseTestSuite) TestParse_PriorityMalformed() {
	line := "<abc>not a priority"

	p := NewParser([]byte(line))

	m := p.Parse()

	s.Require().Nil(m.Priority)
	s.Require().Equal(line, m.Message)
}

func (s *LooseTestSuite) TestParse_NoHeader() {
	line := "free form text with no recognizable header"

	m := NewParser([]byte(line)).Parse()

	s.Require().Equal(
		&Message{
			Version: parsercommon.NO_VERSION,
			Message: line,
			RFC:     RFC_UNKNOWN,
		},
		m,
	)
}

func (s *LooseTestSuite) TestParse_Empty() {
	m := NewParser([]byte("")).Parse()

	s.Require().Equal(
		&Message{
			Version: parsercommon.NO_VERSION,
			Message: "",
			RFC:     RFC_UNKNOWN,
		},
		m,
	)
}

func (s *LooseTestSuite) TestParse_BOM() {
	p := NewParser(
		[]byte("\xEF\xBB\xBF<34>Oct 11 22:14:15 mymachine su: hi"),
	)
	p.WithCurrentTime(
		time.Date(2024, time.October, 12, 0, 0, 0, 0, time.UTC),
	)

	m := p.Parse()

	s.Require().Equal(parsercommon.NewPriority(34), m.Priority)
	s.Require().Equal(sptr("mymachine"), m.Hostname)
	s.Require().Equal("hi", m.Message)

	p = NewParser(
		[]byte("\xEF\xBB\xBF<34>1 2024-01-01T00:00:00Z host app - - - hi"),
	)

	m = p.Parse()

	s.Require().Equal(RFC(RFC_5424), m.RFC)
	s.Require().Equal(sptr("host"), m.Hostname)
	s.Require().Equal("hi", m.Message)
}

func (s *LooseTestSuite) TestParse_RoundTrip() {
	lines := []string{
		`<165>1 2003-10-11T22:14:15.003Z mymachine.example.com evntslog - ID47 [exampleSDID@32473 iut="3" eventSource="Application" eventID="1011"] An application event log entry`,
		`<34>1 - - - - - - hello`,
		`<165>1 1985-04-12T19:20:50.52-04:00 host app 123 msgid [id k="a\"b" k2="x\]y"] body text`,
		`<34>1 2024-01-01T00:00:00Z host app - - -`,
	}

	for _, line := range lines {
		first := NewParser([]byte(line)).Parse()
		second := NewParser([]byte(first.String())).Parse()

		s.Require().Equal(first, second, line)
	}
}

func (s *LooseTestSuite) TestDetectRFC() {
	testCases := []struct {
		input       []byte
		expectedRFC RFC
	}{
		{
			input:       []byte("<34>Oct 11 22:14:15 mymachine su: 'su root' failed"),
			expectedRFC: RFC_3164,
		},
		{
			input:       []byte("<165>1 2003-10-11T22:14:15.003Z mymachine.example.com evntslog - ID47 - hi"),
			expectedRFC: RFC_5424,
		},
		{
			input:       []byte("nothing to see here"),
			expectedRFC: RFC_UNKNOWN,
		},
	}

	for _, tc := range testCases {
		s.Require().Equal(
			tc.expectedRFC, DetectRFC(tc.input), string(tc.input),
		)
	}
}

func (s *LooseTestSuite) TestDump_Legacy() {
	p := NewParser(
		[]byte("<34>Oct 11 22:14:15 mymachine su: 'su root' failed for lonvick"),
	)
	p.WithCurrentTime(
		time.Date(2024, time.October, 12, 0, 0, 0, 0, time.UTC),
	)

	p.Parse()

	s.Require().Equal(
		LogParts{
			"timestamp": time.Date(
				2024, time.October,
				11, 22, 14, 15, 0,
				time.UTC,
			),
			"hostname": "mymachine",
			"tag":      "su",
			"message":  "'su root' failed for lonvick",
			"priority": 34,
			"facility": 4,
			"severity": 2,
		},
		p.Dump(),
	)
}

func (s *LooseTestSuite) TestDump_Modern() {
	p := NewParser(
		[]byte("<165>1 2003-10-11T22:14:15.003Z mymachine.example.com evntslog - ID47 - An event"),
	)

	p.Parse()

	s.Require().Equal(
		LogParts{
			"timestamp": time.Date(
				2003, time.October,
				11, 22, 14, 15, 3*1e6,
				time.UTC,
			),
			"hostname": "mymachine.example.com",
			"app_name": "evntslog",
			"msg_id":   "ID47",
			"version":  1,
			"message":  "An event",
			"priority": 165,
			"facility": 20,
			"severity": 5,
		},
		p.Dump(),
	)
}

func BenchmarkParseLegacy(b *testing.B) {
	buff := []byte("<34>Oct 11 22:14:15 mymachine su: 'su root' failed for lonvick")

	for i := 0; i < b.N; i++ {
		NewParser(buff).Parse()
	}
}

func BenchmarkParseModern(b *testing.B) {
	buff := []byte(`<165>1 2003-10-11T22:14:15.003Z mymachine.example.com evntslog - ID47 [exampleSDID@32473 iut="3"] An application event log entry`)

	for i := 0; i < b.N; i++ {
		NewParser(buff).Parse()
	}
}

func TestLooseTestSuite(t *testing.T) {
	suite.Run(
		t, new(LooseTestSuite),
	)
}
