package rawhttp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/tanq16/segdl/internal/utils"
)

// Exchange is one request/response pair on its own connection. The body must
// be consumed before Close.
type Exchange struct {
	Response *Response
	conn     net.Conn
	stop     func() bool
}

// RoundTrip dials the target, sends req and parses the response head. The
// connection is torn down if ctx is cancelled at any point before Close, which
// unblocks pending reads.
func RoundTrip(ctx context.Context, d Dialer, t Target, req *Request) (*Exchange, error) {
	conn, err := Dial(ctx, d, t.Address())
	if err != nil {
		return nil, err
	}
	ex := &Exchange{conn: conn}
	ex.stop = context.AfterFunc(ctx, func() { conn.Close() })
	if err := req.Write(conn); err != nil {
		ex.Close()
		return nil, fmt.Errorf("%w: writing %s request: %v", utils.ErrConnectionFailed, req.Method, err)
	}
	resp, err := ReadResponse(bufio.NewReaderSize(conn, utils.DefaultBufferSize), req.Method)
	if err != nil {
		ex.Close()
		if errors.Is(err, ErrMalformedResponse) {
			return nil, fmt.Errorf("%w: %w", utils.ErrUnexpectedResponse, err)
		}
		return nil, fmt.Errorf("%w: reading %s response: %v", utils.ErrConnectionFailed, req.Method, err)
	}
	ex.Response = resp
	return ex, nil
}

func (e *Exchange) Close() error {
	e.stop()
	return e.conn.Close()
}
