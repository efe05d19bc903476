package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tanq16/segdl/internal/utils"
)

// Reporter renders download progress. It satisfies segment.Observer and is
// safe for concurrent use by fetch workers.
type Reporter struct {
	out         io.Writer
	interactive bool
	barWidth    int
	displayTick time.Duration

	mutex      sync.Mutex
	totalSize  int64
	chunkSizes []int64
	chunkDone  []bool
	doneCount  int
	startTime  time.Time
	downloaded atomic.Int64

	started   bool
	stopped   bool
	doneCh    chan struct{}
	displayWg sync.WaitGroup
}

// NewReporter writes to f, redrawing in place when f is a terminal.
func NewReporter(f *os.File) *Reporter {
	r := NewPlainReporter(f)
	r.interactive = isTerminal(f)
	if r.interactive {
		r.barWidth = max(10, min(40, terminalWidth(f)-60))
	}
	return r
}

// NewPlainReporter never redraws; it prints the header block and one final
// progress line.
func NewPlainReporter(w io.Writer) *Reporter {
	return &Reporter{
		out:         w,
		barWidth:    30,
		displayTick: 200 * time.Millisecond,
		doneCh:      make(chan struct{}),
	}
}

func (r *Reporter) Headers(lines []string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	fmt.Fprintln(r.out, FHeader("Response headers"))
	for _, line := range lines {
		fmt.Fprintf(r.out, "%s%s\n", strings.Repeat(" ", 2), FStream(line))
	}
	fmt.Fprintln(r.out)
}

func (r *Reporter) Planned(totalSize int64, ranges []utils.ByteRange) {
	r.mutex.Lock()
	r.totalSize = totalSize
	r.chunkSizes = make([]int64, len(ranges))
	r.chunkDone = make([]bool, len(ranges))
	for i, rng := range ranges {
		r.chunkSizes[i] = rng.Len()
	}
	r.startTime = time.Now()
	fmt.Fprintf(r.out, "%s %s\n", FPending(StyleSymbols["pending"]),
		FPending(fmt.Sprintf("Downloading %s over %d connections", FormatBytes(uint64(totalSize)), len(ranges))))
	r.started = true
	r.mutex.Unlock()

	if r.interactive {
		r.displayWg.Add(1)
		go r.displayLoop()
	}
}

func (r *Reporter) Progress(index int, n int64) {
	r.downloaded.Add(n)
}

func (r *Reporter) ChunkDone(index int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if index >= 0 && index < len(r.chunkDone) && !r.chunkDone[index] {
		r.chunkDone[index] = true
		r.doneCount++
	}
}

func (r *Reporter) Downloaded() int64 {
	return r.downloaded.Load()
}

// Stop ends the display loop and prints the final progress line. It is a
// no-op when nothing was planned.
func (r *Reporter) Stop() {
	r.mutex.Lock()
	if !r.started || r.stopped {
		r.mutex.Unlock()
		return
	}
	r.stopped = true
	r.mutex.Unlock()

	close(r.doneCh)
	r.displayWg.Wait()
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.render()
	fmt.Fprintln(r.out)
}

func (r *Reporter) displayLoop() {
	defer r.displayWg.Done()
	ticker := time.NewTicker(r.displayTick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.mutex.Lock()
			r.render()
			r.mutex.Unlock()
		case <-r.doneCh:
			return
		}
	}
}

// render must be called with the mutex held.
func (r *Reporter) render() {
	downloaded := r.downloaded.Load()
	elapsed := time.Since(r.startTime).Seconds()
	line := fmt.Sprintf("%s %s %s/%s %s %s %s %d/%d chunks",
		ProgressBar(downloaded, r.totalSize, r.barWidth),
		StyleSymbols["bullet"],
		FormatBytes(uint64(downloaded)), FormatBytes(uint64(r.totalSize)),
		StyleSymbols["bullet"],
		FormatSpeed(downloaded, elapsed),
		StyleSymbols["bullet"],
		r.doneCount, len(r.chunkDone))
	if r.interactive {
		fmt.Fprintf(r.out, "\r\033[K%s%s", strings.Repeat(" ", 2), FDebug(line))
		return
	}
	fmt.Fprintf(r.out, "%s%s", strings.Repeat(" ", 2), line)
}
