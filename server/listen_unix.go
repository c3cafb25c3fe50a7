//go:build !windows

package server

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// listenDualStack listens on a tcp6 socket with IPV6_V6ONLY cleared, so
// IPv4 AirPlay senders connecting to an IPv4-mapped address are accepted
// on the same listener as native IPv6 ones (spec.md §6).
func listenDualStack(addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var opErr error
			if err := c.Control(func(fd uintptr) {
				opErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0)
			}); err != nil {
				return err
			}
			return opErr
		},
	}
	return lc.Listen(context.Background(), "tcp6", addr)
}
