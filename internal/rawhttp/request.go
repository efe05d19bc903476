package rawhttp

import (
	"bufio"
	"fmt"
	"io"
)

const crlf = "\r\n"

// Request is an HTTP/1.1 request without a body. Header order is preserved on
// the wire.
type Request struct {
	Method string
	Path   string
	Header Header
}

func NewHeadRequest(t Target, userAgent string) *Request {
	return &Request{
		Method: "HEAD",
		Path:   t.Path,
		Header: baseHeader(t, userAgent),
	}
}

// NewRangeRequest asks for the inclusive span [start, end] of the target.
func NewRangeRequest(t Target, start, end int64, userAgent string) *Request {
	h := Header{{Name: "Range", Value: fmt.Sprintf("bytes=%d-%d", start, end)}}
	return &Request{
		Method: "GET",
		Path:   t.Path,
		Header: append(h, baseHeader(t, userAgent)...),
	}
}

func baseHeader(t Target, userAgent string) Header {
	h := Header{{Name: "Host", Value: t.Host}}
	if userAgent != "" {
		h = append(h, Field{Name: "User-Agent", Value: userAgent})
	}
	return append(h, Field{Name: "Accept", Value: "*/*"}, Field{Name: "Connection", Value: "close"})
}

// Write serializes the request line, headers and the terminating blank line.
func (r *Request) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s %s HTTP/1.1%s", r.Method, r.Path, crlf)
	for _, f := range r.Header {
		fmt.Fprintf(bw, "%s: %s%s", f.Name, f.Value, crlf)
	}
	bw.WriteString(crlf)
	return bw.Flush()
}
