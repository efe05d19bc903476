package rawhttp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const maxHeaderBytes = 64 * 1024

var ErrMalformedResponse = errors.New("malformed response")

type Field struct {
	Name  string
	Value string
}

// Header keeps fields in the order they appeared. Lookups ignore case.
type Header []Field

func (h Header) Get(name string) string {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

func (h Header) Has(name string) bool {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// Response is one parsed HTTP/1.x response. Lines holds the raw status line
// and header lines without terminators, in wire order.
type Response struct {
	Proto      string
	StatusCode int
	Status     string
	Header     Header
	Lines      []string
	Body       io.Reader
}

// ContentLength returns the declared body length, or -1 when absent or not a
// valid non-negative integer.
func (r *Response) ContentLength() int64 {
	v := strings.TrimSpace(r.Header.Get("Content-Length"))
	if v == "" {
		return -1
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func (r *Response) Chunked() bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Transfer-Encoding")), "chunked")
}

// ReadResponse parses the status line and header block from br. The returned
// Body reads from br: empty for HEAD and bodiless statuses, limited to
// Content-Length when declared, otherwise until the peer closes.
func ReadResponse(br *bufio.Reader, method string) (*Response, error) {
	budget := maxHeaderBytes
	statusLine, err := readLine(br, &budget)
	if err != nil {
		return nil, err
	}
	resp := &Response{Lines: []string{statusLine}}
	if err := resp.parseStatusLine(statusLine); err != nil {
		return nil, err
	}
	for {
		line, err := readLine(br, &budget)
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		resp.Lines = append(resp.Lines, line)
		if line[0] == ' ' || line[0] == '\t' {
			// obsolete line folding continues the previous value
			if len(resp.Header) == 0 {
				return nil, fmt.Errorf("%w: continuation line before any header", ErrMalformedResponse)
			}
			last := &resp.Header[len(resp.Header)-1]
			last.Value += " " + strings.TrimSpace(line)
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: bad header line %q", ErrMalformedResponse, line)
		}
		resp.Header = append(resp.Header, Field{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	switch {
	case method == "HEAD", resp.StatusCode/100 == 1, resp.StatusCode == 204, resp.StatusCode == 304:
		resp.Body = strings.NewReader("")
	case resp.ContentLength() >= 0 && !resp.Chunked():
		resp.Body = io.LimitReader(br, resp.ContentLength())
	default:
		resp.Body = br
	}
	return resp, nil
}

func (r *Response) parseStatusLine(line string) error {
	proto, rest, ok := strings.Cut(line, " ")
	if !ok || !strings.HasPrefix(proto, "HTTP/1.") {
		return fmt.Errorf("%w: bad status line %q", ErrMalformedResponse, line)
	}
	code, reason, _ := strings.Cut(rest, " ")
	if len(code) != 3 {
		return fmt.Errorf("%w: bad status code in %q", ErrMalformedResponse, line)
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 100 {
		return fmt.Errorf("%w: bad status code in %q", ErrMalformedResponse, line)
	}
	r.Proto = proto
	r.StatusCode = n
	r.Status = strings.TrimSpace(code + " " + reason)
	return nil
}

// readLine reads one header line in buffer-sized pieces, charging each piece
// to budget before keeping it.
func readLine(br *bufio.Reader, budget *int) (string, error) {
	var line []byte
	for {
		frag, err := br.ReadSlice('\n')
		*budget -= len(frag)
		if *budget < 0 {
			return "", fmt.Errorf("%w: header block exceeds %d bytes", ErrMalformedResponse, maxHeaderBytes)
		}
		line = append(line, frag...)
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			if err == io.EOF {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		return strings.TrimRight(string(line), "\r\n"), nil
	}
}
