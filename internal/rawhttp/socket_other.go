//go:build !linux && !darwin && !windows

package rawhttp

func setSocketOptions(fd uintptr) {}
