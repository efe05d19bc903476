package segment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tanq16/segdl/internal/rawhttp"
	"github.com/tanq16/segdl/internal/storage"
	"github.com/tanq16/segdl/internal/utils"
)

// Fetcher downloads single ranges of one target. It holds no per-range state,
// so one value is shared by every worker of a job.
type Fetcher struct {
	Dialer    rawhttp.Dialer
	Store     *storage.Store
	Target    rawhttp.Target
	TotalSize int64
	UserAgent string
	Strict    bool
	// PartKey names the sink for a chunk index.
	PartKey  func(index int) string
	Observer Observer
}

// Fetch performs one Range GET and commits exactly rng.Len() bytes to the
// chunk's sink. On any error the sink is discarded.
func (f *Fetcher) Fetch(ctx context.Context, rng utils.ByteRange) (utils.ChunkResult, error) {
	log := utils.GetLogger("fetch").With().Int("chunk", rng.Index).Logger()
	obs := f.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	req := rawhttp.NewRangeRequest(f.Target, rng.Start, rng.End, f.UserAgent)
	log.Debug().Str("range", req.Header.Get("Range")).Msg("Sending range request")
	ex, err := rawhttp.RoundTrip(ctx, f.Dialer, f.Target, req)
	if err != nil {
		return utils.ChunkResult{}, err
	}
	defer ex.Close()
	if f.Strict {
		if err := f.checkResponse(ex.Response, rng); err != nil {
			return utils.ChunkResult{}, err
		}
	}

	key := f.PartKey(rng.Index)
	sink, err := f.Store.Create(ctx, key)
	if err != nil {
		return utils.ChunkResult{}, err
	}
	expected := rng.Len()
	if err := copyRange(sink, ex.Response.Body, expected, func(n int64) { obs.Progress(rng.Index, n) }); err != nil {
		sink.Abort()
		level := zerolog.ErrorLevel
		if ctx.Err() != nil {
			// a sibling already failed, this is just the teardown
			level = zerolog.DebugLevel
		}
		log.WithLevel(level).Err(err).Int64("expected", expected).Int64("received", sink.Written()).Msg("Range transfer failed")
		return utils.ChunkResult{}, err
	}
	if err := sink.Commit(); err != nil {
		return utils.ChunkResult{}, fmt.Errorf("error committing chunk %d: %w", rng.Index, err)
	}
	obs.ChunkDone(rng.Index)
	log.Debug().Int64("bytes", expected).Str("key", key).Msg("Chunk download completed")
	return utils.ChunkResult{Index: rng.Index, Key: key, Size: expected}, nil
}

func (f *Fetcher) checkResponse(resp *rawhttp.Response, rng utils.ByteRange) error {
	if resp.Chunked() {
		return fmt.Errorf("%w: chunked transfer-encoding is not supported", utils.ErrUnexpectedResponse)
	}
	switch resp.StatusCode {
	case http.StatusPartialContent:
		cr := resp.Header.Get("Content-Range")
		if cr == "" {
			return nil
		}
		total, ok := strings.CutPrefix(strings.TrimSpace(cr), fmt.Sprintf("bytes %d-%d/", rng.Start, rng.End))
		if !ok {
			return fmt.Errorf("%w: Content-Range %q does not match requested %d-%d", utils.ErrUnexpectedResponse, cr, rng.Start, rng.End)
		}
		// a different total means the resource changed since the probe
		if total != "*" && total != strconv.FormatInt(f.TotalSize, 10) {
			return fmt.Errorf("%w: Content-Range %q reports a size other than %d", utils.ErrUnexpectedResponse, cr, f.TotalSize)
		}
		return nil
	case http.StatusOK:
		// a full-body reply is only correct when the range is the whole resource
		if rng.Start == 0 && rng.End == f.TotalSize-1 {
			return nil
		}
	}
	return fmt.Errorf("%w: range %d-%d returned %s", utils.ErrUnexpectedResponse, rng.Start, rng.End, resp.Status)
}

// copyRange moves exactly n bytes from body to w. A body that ends early is
// reported as ErrIncompleteRange.
func copyRange(w io.Writer, body io.Reader, n int64, progress func(int64)) error {
	buffer := make([]byte, min(n, utils.DefaultBufferSize))
	var received int64
	for received < n {
		want := min(int64(len(buffer)), n-received)
		bytesRead, readErr := body.Read(buffer[:want])
		if bytesRead > 0 {
			if _, err := w.Write(buffer[:bytesRead]); err != nil {
				return fmt.Errorf("error writing chunk data: %w", err)
			}
			received += int64(bytesRead)
			progress(int64(bytesRead))
		}
		if readErr != nil {
			if received == n {
				break
			}
			if readErr == io.EOF {
				return fmt.Errorf("%w: got %d of %d bytes before the connection closed", utils.ErrIncompleteRange, received, n)
			}
			return fmt.Errorf("%w: got %d of %d bytes: %v", utils.ErrIncompleteRange, received, n, readErr)
		}
	}
	return nil
}
