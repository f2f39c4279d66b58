package ml

import (
	"errors"
	"fmt"
)

// ErrUntrained is returned when inference is requested from a model
// that has not been trained or loaded. Callers must surface it, never
// answer with stale or zero data.
var ErrUntrained = errors.New("model is not trained")

// TrainingDataError reports a malformed or too-short historical series.
// Training never partially succeeds: when this is returned the model
// state is unchanged.
type TrainingDataError struct {
	Reason string
}

func (e *TrainingDataError) Error() string {
	return "training data: " + e.Reason
}

// ArtifactError reports a persisted model blob that is missing or
// unreadable. It is recoverable at the composition boundary by running
// without that one model.
type ArtifactError struct {
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("model artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}
