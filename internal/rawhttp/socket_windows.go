//go:build windows

package rawhttp

import (
	"syscall"

	"github.com/tanq16/segdl/internal/utils"
)

func setSocketOptions(fd uintptr) {
	syscall.SetsockoptInt(syscall.Handle(fd), syscall.IPPROTO_TCP, syscall.TCP_NODELAY, 1)
	syscall.SetsockoptInt(syscall.Handle(fd), syscall.SOL_SOCKET, syscall.SO_RCVBUF, 4*utils.DefaultBufferSize)
}
