package fusion

import (
	"fmt"

	"github.com/jsphweid/chordfuse/model"
)

type EmptySelectionError struct{}

func (e *EmptySelectionError) Error() string {
	return "fusion: no selected label sequences"
}

func (e *EmptySelectionError) ErrorKind() string {
	return "no_data"
}

// InconsistentDurationError means the inputs do not cover the same span,
// which points at an upstream alignment bug.
type InconsistentDurationError struct {
	Expected    float64
	ExpectedRef model.SourceRef
	Actual      float64
	ActualRef   model.SourceRef
}

func (e *InconsistentDurationError) Error() string {
	if e.ExpectedRef == (model.SourceRef{}) {
		return fmt.Sprintf("fusion: %s covers %.6fs but the song lasts %.6fs", e.ActualRef, e.Actual, e.Expected)
	}
	return fmt.Sprintf("fusion: %s covers %.6fs but %s covers %.6fs", e.ActualRef, e.Actual, e.ExpectedRef, e.Expected)
}

func (e *InconsistentDurationError) ErrorKind() string {
	return "inconsistent"
}
