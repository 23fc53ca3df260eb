package batch

import (
	"context"
	"errors"
)

// Error kinds reported by Classify in addition to those carried by the
// domain errors themselves (no_data, inconsistent, training).
const (
	KindCanceled = "canceled"
	KindInternal = "internal"
)

type kinded interface {
	ErrorKind() string
}

// Classify returns the error kind of err, looking through wrapped errors.
// A nil error has kind "".
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	var k kinded
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return KindInternal
}
