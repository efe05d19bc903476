package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestStageError(t *testing.T) {
	cause := fmt.Errorf("%w: got 10 of 20 bytes", ErrIncompleteRange)
	err := error(&StageError{Stage: StageFetch, Chunk: 3, Err: cause})
	if err.Error() != "fetch (chunk 3): incomplete range: got 10 of 20 bytes" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrIncompleteRange) {
		t.Error("StageError should unwrap to its cause")
	}

	err = NewStageError(StageProbe, ErrSizeUnknown)
	if err.Error() != "probe: resource size unknown" {
		t.Errorf("Error() = %q", err.Error())
	}
	var stageErr *StageError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &stageErr) || stageErr.Chunk != -1 {
		t.Errorf("errors.As failed or wrong chunk: %+v", stageErr)
	}
}
