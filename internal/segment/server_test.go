package segment

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tanq16/segdl/internal/rawhttp"
	"github.com/tanq16/segdl/internal/utils"
)

type rawRequest struct {
	Method string
	Path   string
	Lines  []string
	Header map[string]string
}

// rangeServer is a bare TCP server that answers one request per connection
// with whatever bytes the handler returns, then closes.
type rangeServer struct {
	ln      net.Listener
	data    []byte
	mu      sync.Mutex
	handler func(req rawRequest) []byte
	heads   atomic.Int32
	gets    atomic.Int32
	wg      sync.WaitGroup
}

func newRangeServer(t *testing.T, data []byte) *rangeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &rangeServer{ln: ln, data: data}
	s.handler = s.serveData
	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(func() {
		ln.Close()
		s.wg.Wait()
	})
	return s
}

func (s *rangeServer) Handle(h func(req rawRequest) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

func (s *rangeServer) URL(path string) string {
	return "http://" + s.ln.Addr().String() + path
}

func (s *rangeServer) Target(path string) rawhttp.Target {
	return rawhttp.Target{Host: s.ln.Addr().String(), Path: path}
}

func (s *rangeServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			req, err := readRawRequest(bufio.NewReader(conn))
			if err != nil {
				return
			}
			switch req.Method {
			case "HEAD":
				s.heads.Add(1)
			case "GET":
				s.gets.Add(1)
			}
			s.mu.Lock()
			handler := s.handler
			s.mu.Unlock()
			conn.Write(handler(req))
		}()
	}
}

func readRawRequest(br *bufio.Reader) (rawRequest, error) {
	req := rawRequest{Header: map[string]string{}}
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return req, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		req.Lines = append(req.Lines, line)
		if len(req.Lines) == 1 {
			parts := strings.Fields(line)
			if len(parts) != 3 {
				return req, fmt.Errorf("bad request line %q", line)
			}
			req.Method, req.Path = parts[0], parts[1]
			continue
		}
		name, value, _ := strings.Cut(line, ":")
		req.Header[strings.ToLower(name)] = strings.TrimSpace(value)
	}
	return req, nil
}

// serveData answers HEAD with the size and Range GETs with 206 slices.
func (s *rangeServer) serveData(req rawRequest) []byte {
	if req.Method == "HEAD" {
		return []byte(fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Length: %d\r\nAccept-Ranges: bytes\r\nContent-Type: application/octet-stream\r\n\r\n", len(s.data)))
	}
	start, end, ok := parseRange(req.Header["range"])
	if !ok {
		return append([]byte(fmt.Sprintf("HTTP/1.1 200 OK\r\nContent-Length: %d\r\n\r\n", len(s.data))), s.data...)
	}
	return s.partial(start, end, s.data[start:end+1])
}

func (s *rangeServer) partial(start, end int64, body []byte) []byte {
	head := fmt.Sprintf("HTTP/1.1 206 Partial Content\r\nContent-Range: bytes %d-%d/%d\r\nContent-Length: %d\r\n\r\n",
		start, end, len(s.data), end-start+1)
	return append([]byte(head), body...)
}

func parseRange(v string) (int64, int64, bool) {
	spec, ok := strings.CutPrefix(v, "bytes=")
	if !ok {
		return 0, 0, false
	}
	a, b, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, false
	}
	start, err1 := strconv.ParseInt(a, 10, 64)
	end, err2 := strconv.ParseInt(b, 10, 64)
	return start, end, err1 == nil && err2 == nil
}

func testData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte((i*7 + 3) % 251)
	}
	return data
}

type dialerFunc func(ctx context.Context, network, address string) (net.Conn, error)

func (f dialerFunc) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return f(ctx, network, address)
}

// recordingObserver collects observer events for assertions.
type recordingObserver struct {
	mu       sync.Mutex
	headers  []string
	planned  int
	progress int64
	done     []int
}

func (o *recordingObserver) Headers(lines []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.headers = append(o.headers, lines...)
}

func (o *recordingObserver) Planned(total int64, ranges []utils.ByteRange) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.planned = len(ranges)
}

func (o *recordingObserver) Progress(index int, n int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress += n
}

func (o *recordingObserver) ChunkDone(index int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.done = append(o.done, index)
}
