package rawhttp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/tanq16/segdl/internal/utils"
)

// Dialer opens the plain TCP connections every exchange runs on.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// NewDialer returns a net.Dialer tuned for bulk transfers. Connect timeout is
// left to the caller's context.
func NewDialer() *net.Dialer {
	return &net.Dialer{
		KeepAlive: 30 * time.Second,
		Control: func(network, address string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				setSocketOptions(fd)
			})
		},
	}
}

// Dial connects to address and classifies failures into the download error
// taxonomy: name resolution problems become ErrHostUnreachable, anything else
// ErrConnectionFailed.
func Dial(ctx context.Context, d Dialer, address string) (net.Conn, error) {
	conn, err := d.DialContext(ctx, "tcp", address)
	if err == nil {
		return conn, nil
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return nil, fmt.Errorf("%w: %s: %v", utils.ErrHostUnreachable, address, err)
	}
	return nil, fmt.Errorf("%w: %s: %v", utils.ErrConnectionFailed, address, err)
}
