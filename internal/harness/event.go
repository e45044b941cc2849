// Package harness consumes the on-device test runner's event stream. The
// runner multiplexes its output onto the debug console, framing machine
// readable JSON events between text markers so they can be told apart from
// ordinary log chatter.
package harness

import (
	"encoding/json"
	"fmt"
)

// Event kinds emitted by the on-device runner.
const (
	KindSuiteStart  = "suite_start"
	KindTestPass    = "test_pass"
	KindTestFail    = "test_fail"
	KindTestError   = "test_error"
	KindTestIgnored = "test_ignored"
	KindSuiteEnd    = "suite_end"
	KindRunComplete = "run_complete"
)

// Event is one line of the runner's JSON stream.
type Event struct {
	Kind    string  `json:"kind"`
	Suite   string  `json:"suite,omitempty"`
	Test    string  `json:"test,omitempty"`
	Message string  `json:"message,omitempty"`
	Seconds float64 `json:"seconds,omitempty"`

	// Totals are set only on run_complete events.
	Total   int `json:"total,omitempty"`
	Passed  int `json:"passed,omitempty"`
	Failed  int `json:"failed,omitempty"`
	Errored int `json:"errored,omitempty"`
	Ignored int `json:"ignored,omitempty"`
}

// parseEvent decodes one framed line. Unknown kinds are an error so that
// garbage inside the markers is noticed rather than silently dropped.
func parseEvent(line []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Event{}, fmt.Errorf("malformed event line: %w", err)
	}
	switch ev.Kind {
	case KindSuiteStart, KindTestPass, KindTestFail, KindTestError,
		KindTestIgnored, KindSuiteEnd, KindRunComplete:
		return ev, nil
	default:
		return Event{}, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

// Summary is the final tally of a run.
type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Errored int
	Ignored int
	Seconds float64

	// Complete is true when a run_complete event was seen. Without it the
	// counts are folded from per-test events and the run may be truncated.
	Complete bool

	// Mismatch notes a disagreement between the run_complete totals and the
	// per-test events, which usually means dropped console output.
	Mismatch string
}

// Failures reports whether the run had failing or erroring tests.
func (s Summary) Failures() bool { return s.Failed > 0 || s.Errored > 0 }

// Summarize folds the event stream into a Summary. A run_complete event is
// authoritative for the counts; the fold of per-test events is kept as a
// cross check and used as fallback for truncated streams.
func Summarize(events []Event) Summary {
	var folded Summary
	var final *Event
	for i, ev := range events {
		switch ev.Kind {
		case KindTestPass:
			folded.Passed++
		case KindTestFail:
			folded.Failed++
		case KindTestError:
			folded.Errored++
		case KindTestIgnored:
			folded.Ignored++
		case KindRunComplete:
			final = &events[i]
			continue
		default:
			continue
		}
		// Only per-test durations count toward the folded total; suite and
		// final events would double what their tests already reported.
		folded.Seconds += ev.Seconds
	}
	folded.Total = folded.Passed + folded.Failed + folded.Errored + folded.Ignored

	if final == nil {
		return folded
	}

	s := Summary{
		Total:    final.Total,
		Passed:   final.Passed,
		Failed:   final.Failed,
		Errored:  final.Errored,
		Ignored:  final.Ignored,
		Seconds:  final.Seconds,
		Complete: true,
	}
	if folded.Total != s.Total || folded.Passed != s.Passed ||
		folded.Failed != s.Failed || folded.Errored != s.Errored ||
		folded.Ignored != s.Ignored {
		s.Mismatch = fmt.Sprintf(
			"runner reported %d tests (%d passed, %d failed, %d errored, %d ignored) but the stream carried %d (%d/%d/%d/%d)",
			s.Total, s.Passed, s.Failed, s.Errored, s.Ignored,
			folded.Total, folded.Passed, folded.Failed, folded.Errored, folded.Ignored)
	}
	return s
}
