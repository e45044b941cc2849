package pipeline

import "fmt"

// Stage names attached to infrastructure failures.
const (
	StageCatalog  = "catalog"
	StageAnalyze  = "analyze"
	StageInject   = "inject"
	StageMerge    = "merge"
	StageArchive  = "archive"
	StageDiscover = "discover"
)

// StageError wraps an infrastructure failure with the pipeline stage it
// occurred in. Per-component artifact problems degrade to warnings instead;
// a StageError always aborts the run.
type StageError struct {
	// Stage is one of the Stage* constants.
	Stage string

	// Err is the underlying failure.
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}
