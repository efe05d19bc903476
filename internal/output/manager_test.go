package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/tanq16/segdl/internal/utils"
)

func TestReporterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainReporter(&buf)
	r.Headers([]string{"HTTP/1.1 200 OK", "Content-Length: 100"})
	r.Planned(100, []utils.ByteRange{
		{Index: 0, Start: 0, End: 49},
		{Index: 1, Start: 50, End: 99},
	})

	var wg sync.WaitGroup
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 5 {
				r.Progress(i, 10)
			}
			r.ChunkDone(i)
		}()
	}
	wg.Wait()
	r.ChunkDone(1)
	r.Stop()
	r.Stop()

	if r.Downloaded() != 100 {
		t.Errorf("Downloaded = %d, want 100", r.Downloaded())
	}
	out := buf.String()
	for _, want := range []string{"HTTP/1.1 200 OK", "Content-Length: 100", "over 2 connections", "2/2 chunks", "100.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\r") {
		t.Error("plain reporter should not redraw in place")
	}
}

func TestReporterStopWithoutPlan(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainReporter(&buf)
	r.Stop()
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
