package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Event
		wantErr string
	}{
		{
			name: "test pass",
			line: `{"kind":"test_pass","suite":"MainScene","test":"renders splash","seconds":0.02}`,
			want: Event{Kind: KindTestPass, Suite: "MainScene", Test: "renders splash", Seconds: 0.02},
		},
		{
			name: "test fail with message",
			line: `{"kind":"test_fail","suite":"MainScene","test":"loads feed","message":"expected 3 rows, got 0"}`,
			want: Event{Kind: KindTestFail, Suite: "MainScene", Test: "loads feed", Message: "expected 3 rows, got 0"},
		},
		{
			name: "run complete with totals",
			line: `{"kind":"run_complete","total":5,"passed":4,"failed":1,"seconds":1.5}`,
			want: Event{Kind: KindRunComplete, Total: 5, Passed: 4, Failed: 1, Seconds: 1.5},
		},
		{
			name:    "unknown kind",
			line:    `{"kind":"test_flaked"}`,
			wantErr: "unknown event kind",
		},
		{
			name:    "not json",
			line:    `Brightscript Debugger>`,
			wantErr: "malformed event line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := parseEvent([]byte(tt.line))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestSummarizeRunCompleteIsAuthoritative(t *testing.T) {
	events := []Event{
		{Kind: KindSuiteStart, Suite: "S"},
		{Kind: KindTestPass, Suite: "S", Test: "a"},
		{Kind: KindTestFail, Suite: "S", Test: "b"},
		{Kind: KindSuiteEnd, Suite: "S"},
		{Kind: KindRunComplete, Total: 2, Passed: 1, Failed: 1, Seconds: 0.7},
	}

	s := Summarize(events)
	assert.True(t, s.Complete)
	assert.Empty(t, s.Mismatch)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 0.7, s.Seconds)
	assert.True(t, s.Failures())
}

func TestSummarizeFoldFallbackWhenTruncated(t *testing.T) {
	events := []Event{
		{Kind: KindTestPass, Test: "a", Seconds: 0.1},
		{Kind: KindTestIgnored, Test: "b"},
		{Kind: KindTestError, Test: "c", Seconds: 0.2},
	}

	s := Summarize(events)
	assert.False(t, s.Complete)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Errored)
	assert.Equal(t, 1, s.Ignored)
	assert.True(t, s.Failures())
}

func TestSummarizeFlagsMismatch(t *testing.T) {
	events := []Event{
		{Kind: KindTestPass, Test: "a"},
		// the runner claims two tests ran but only one event arrived
		{Kind: KindRunComplete, Total: 2, Passed: 2},
	}

	s := Summarize(events)
	assert.True(t, s.Complete)
	assert.Equal(t, 2, s.Total)
	assert.NotEmpty(t, s.Mismatch)
	assert.Contains(t, s.Mismatch, "runner reported 2 tests")
}

func TestSummarizeFoldCountsOnlyTestDurations(t *testing.T) {
	// Suite and final events may carry durations of their own; folding them
	// in would double what the per-test events already report.
	events := []Event{
		{Kind: KindSuiteStart, Suite: "S"},
		{Kind: KindTestPass, Suite: "S", Test: "a", Seconds: 0.1},
		{Kind: KindTestFail, Suite: "S", Test: "b", Seconds: 0.2},
		{Kind: KindSuiteEnd, Suite: "S", Seconds: 0.3},
	}

	s := Summarize(events)
	assert.False(t, s.Complete)
	assert.InDelta(t, 0.3, s.Seconds, 1e-9)
}

func TestSummarizeEmptyStream(t *testing.T) {
	s := Summarize(nil)
	assert.False(t, s.Complete)
	assert.Zero(t, s.Total)
	assert.False(t, s.Failures())
}
