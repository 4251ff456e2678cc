//go:build windows

package socket

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// ReuseAddr is a net.ListenConfig Control function setting SO_REUSEADDR
// before bind.
func ReuseAddr(network, address string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return serr
}
