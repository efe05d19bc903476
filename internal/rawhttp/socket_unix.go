//go:build linux || darwin

package rawhttp

import (
	"syscall"

	"github.com/tanq16/segdl/internal/utils"
)

func setSocketOptions(fd uintptr) {
	syscall.SetsockoptInt(int(fd), syscall.IPPROTO_TCP, syscall.TCP_NODELAY, 1)
	syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_RCVBUF, 4*utils.DefaultBufferSize)
}
