package sequence

import (
	"fmt"

	"github.com/jsphweid/chordfuse/model"
)

// InvalidSequenceError reports a label sequence that is empty, does not start
// at zero, or has gaps, overlaps or empty intervals.
type InvalidSequenceError struct {
	Source model.SourceRef
	Index  int
	Reason string
}

func (e *InvalidSequenceError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid label sequence %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("invalid label sequence %s: interval %d: %s", e.Source, e.Index, e.Reason)
}

func (e *InvalidSequenceError) ErrorKind() string {
	return "inconsistent"
}
