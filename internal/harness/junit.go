package harness

import (
	"encoding/xml"
	"fmt"
	"io"
)

// JUnit XML shapes, close enough to the de facto schema for CI servers.
type junitTestsuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Errors   int              `xml:"errors,attr"`
	Skipped  int              `xml:"skipped,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []junitTestsuite `xml:"testsuite"`
}

type junitTestsuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Errors   int             `xml:"errors,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []junitTestcase `xml:"testcase"`
}

type junitTestcase struct {
	Name    string        `xml:"name,attr"`
	Class   string        `xml:"classname,attr"`
	Time    string        `xml:"time,attr"`
	Failure *junitMessage `xml:"failure,omitempty"`
	Error   *junitMessage `xml:"error,omitempty"`
	Skipped *junitMessage `xml:"skipped,omitempty"`
}

type junitMessage struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// WriteJUnit renders the run as JUnit XML. Suites appear in stream order;
// a test event arriving outside any suite_start is grouped under "default".
func WriteJUnit(w io.Writer, run Run) error {
	var suites []junitTestsuite
	index := map[string]int{}

	suiteFor := func(name string) *junitTestsuite {
		if name == "" {
			name = "default"
		}
		if i, ok := index[name]; ok {
			return &suites[i]
		}
		suites = append(suites, junitTestsuite{Name: name})
		index[name] = len(suites) - 1
		return &suites[len(suites)-1]
	}

	for _, ev := range run.Events {
		switch ev.Kind {
		case KindSuiteStart:
			suiteFor(ev.Suite)
		case KindTestPass, KindTestFail, KindTestError, KindTestIgnored:
			s := suiteFor(ev.Suite)
			tc := junitTestcase{
				Name:  ev.Test,
				Class: s.Name,
				Time:  formatSeconds(ev.Seconds),
			}
			s.Tests++
			s.Time = addSeconds(s.Time, ev.Seconds)
			switch ev.Kind {
			case KindTestFail:
				s.Failures++
				tc.Failure = &junitMessage{Message: firstLine(ev.Message), Body: ev.Message}
			case KindTestError:
				s.Errors++
				tc.Error = &junitMessage{Message: firstLine(ev.Message), Body: ev.Message}
			case KindTestIgnored:
				s.Skipped++
				tc.Skipped = &junitMessage{Message: ev.Message}
			}
			s.Cases = append(s.Cases, tc)
		}
	}

	doc := junitTestsuites{
		Tests:    run.Summary.Total,
		Failures: run.Summary.Failed,
		Errors:   run.Summary.Errored,
		Skipped:  run.Summary.Ignored,
		Time:     formatSeconds(run.Summary.Seconds),
		Suites:   suites,
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func formatSeconds(s float64) string { return fmt.Sprintf("%.3f", s) }

func addSeconds(current string, add float64) string {
	var total float64
	fmt.Sscanf(current, "%f", &total)
	return formatSeconds(total + add)
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
