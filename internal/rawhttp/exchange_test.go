package rawhttp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/tanq16/segdl/internal/utils"
)

// serveOnce accepts a single connection, drains the request head and writes
// reply.
func serveOnce(t *testing.T, reply string) Target {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		br := bufio.NewReader(conn)
		for {
			line, err := br.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}
		io.WriteString(conn, reply)
	}()
	t.Cleanup(func() {
		ln.Close()
		<-done
	})
	return Target{Host: ln.Addr().String(), Path: "/f"}
}

func TestRoundTrip(t *testing.T) {
	target := serveOnce(t, "HTTP/1.1 206 Partial Content\r\nContent-Range: bytes 0-3/10\r\nContent-Length: 4\r\n\r\nabcd")
	ex, err := RoundTrip(context.Background(), NewDialer(), target, NewRangeRequest(target, 0, 3, "t"))
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	defer ex.Close()
	if ex.Response.StatusCode != 206 {
		t.Errorf("status = %d", ex.Response.StatusCode)
	}
	body, err := io.ReadAll(ex.Response.Body)
	if err != nil || string(body) != "abcd" {
		t.Errorf("body = %q, err = %v", body, err)
	}
}

func TestRoundTripGarbageReply(t *testing.T) {
	target := serveOnce(t, "not http at all\r\n\r\n")
	_, err := RoundTrip(context.Background(), NewDialer(), target, NewHeadRequest(target, ""))
	if !errors.Is(err, utils.ErrUnexpectedResponse) || !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrUnexpectedResponse wrapping ErrMalformedResponse, got %v", err)
	}
}

func TestRoundTripClosedEarly(t *testing.T) {
	target := serveOnce(t, "HTTP/1.1 200 OK\r\n")
	_, err := RoundTrip(context.Background(), NewDialer(), target, NewHeadRequest(target, ""))
	if !errors.Is(err, utils.ErrConnectionFailed) {
		t.Fatalf("expected ErrConnectionFailed, got %v", err)
	}
}

func TestDialClassifiesErrors(t *testing.T) {
	dnsFail := dialFunc(func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Net: network, Err: &net.DNSError{Err: "no such host", Name: "x.invalid", IsNotFound: true}}
	})
	if _, err := Dial(context.Background(), dnsFail, "x.invalid:80"); !errors.Is(err, utils.ErrHostUnreachable) {
		t.Errorf("DNS failure: got %v, want ErrHostUnreachable", err)
	}
	refused := dialFunc(func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Net: network, Err: errors.New("connection refused")}
	})
	if _, err := Dial(context.Background(), refused, "127.0.0.1:1"); !errors.Is(err, utils.ErrConnectionFailed) {
		t.Errorf("refused: got %v, want ErrConnectionFailed", err)
	}
}

type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

func (f dialFunc) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return f(ctx, network, address)
}
