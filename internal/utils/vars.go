package utils

import (
	"errors"
	"fmt"
	"regexp"
)

const DefaultBufferSize = 1024 * 256 // 256KB copy buffer
const ToolUserAgent = "segdl/1.0"
const TempDirName = ".segdl-temp"

var (
	ErrMalformedURL       = errors.New("malformed URL")
	ErrHostUnreachable    = errors.New("host unreachable")
	ErrConnectionFailed   = errors.New("connection failed")
	ErrSizeUnknown        = errors.New("resource size unknown")
	ErrIncompleteRange    = errors.New("incomplete range")
	ErrReassemblyFailed   = errors.New("reassembly failed")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrInvalidPlan        = errors.New("invalid range plan")
)

var ChunkIDRegex = regexp.MustCompile(`\.part(\d+)$`)

// Pipeline stages reported in StageError.
const (
	StageParse    = "parse"
	StageProbe    = "probe"
	StagePlan     = "plan"
	StageFetch    = "fetch"
	StageAssemble = "assemble"
)

// StageError records which step of a download failed. Chunk is -1 unless the
// failure belongs to a single range fetch.
type StageError struct {
	Stage string
	Chunk int
	Err   error
}

func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Chunk: -1, Err: err}
}

func (e *StageError) Error() string {
	if e.Chunk >= 0 {
		return fmt.Sprintf("%s (chunk %d): %v", e.Stage, e.Chunk, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
