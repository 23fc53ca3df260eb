package regression

import "fmt"

// InsufficientDataError is returned when the fitting subset has fewer than
// two distinct (alignment error, signal) pairs.
type InsufficientDataError struct {
	Distinct     int
	Observations int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient training data: %d distinct feature pairs in %d observations", e.Distinct, e.Observations)
}

func (e *InsufficientDataError) ErrorKind() string {
	return "training"
}
