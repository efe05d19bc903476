package segment

import (
	"context"
	"fmt"
	"strings"

	"github.com/tanq16/segdl/internal/rawhttp"
	"github.com/tanq16/segdl/internal/utils"
)

type Metadata struct {
	TotalSize    int64
	AcceptRanges bool
	// Headers is the raw status line followed by every header line.
	Headers []string
}

// Probe issues a HEAD request for the target and reads the resource size from
// Content-Length. With strict set, non-2xx statuses are rejected.
func Probe(ctx context.Context, d rawhttp.Dialer, t rawhttp.Target, userAgent string, strict bool) (Metadata, error) {
	log := utils.GetLogger("probe")
	ex, err := rawhttp.RoundTrip(ctx, d, t, rawhttp.NewHeadRequest(t, userAgent))
	if err != nil {
		return Metadata{}, err
	}
	defer ex.Close()
	resp := ex.Response

	meta := Metadata{
		Headers:      resp.Lines,
		AcceptRanges: strings.EqualFold(strings.TrimSpace(resp.Header.Get("Accept-Ranges")), "bytes"),
	}
	log.Debug().Str("host", t.Host).Str("status", resp.Status).Int("headers", len(resp.Header)).Msg("Probe response received")
	if strict && resp.StatusCode/100 != 2 {
		return meta, fmt.Errorf("%w: HEAD %s returned %s", utils.ErrUnexpectedResponse, t.Path, resp.Status)
	}
	if !resp.Header.Has("Content-Length") {
		return meta, fmt.Errorf("%w: server did not send Content-Length", utils.ErrSizeUnknown)
	}
	size := resp.ContentLength()
	if size < 0 {
		return meta, fmt.Errorf("%w: invalid Content-Length %q", utils.ErrSizeUnknown, resp.Header.Get("Content-Length"))
	}
	if size == 0 {
		return meta, fmt.Errorf("%w: server reported an empty resource", utils.ErrSizeUnknown)
	}
	if !meta.AcceptRanges {
		log.Warn().Str("host", t.Host).Msg("Server does not advertise byte ranges")
	}
	meta.TotalSize = size
	return meta, nil
}
