package segment

import "github.com/tanq16/segdl/internal/utils"

// Observer receives progress events from a download. Progress and ChunkDone
// are called concurrently from fetch goroutines.
type Observer interface {
	Headers(lines []string)
	Planned(totalSize int64, ranges []utils.ByteRange)
	Progress(index int, n int64)
	ChunkDone(index int)
}

type nopObserver struct{}

func (nopObserver) Headers([]string) {}
func (nopObserver) Planned(int64, []utils.ByteRange) {}
func (nopObserver) Progress(int, int64) {}
func (nopObserver) ChunkDone(int) {}
