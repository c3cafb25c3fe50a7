//go:build windows

package server

import "net"

// listenDualStack falls back to a plain tcp listener on platforms where
// the IPV6_V6ONLY socket option isn't wired (spec.md §6's dual-stack
// requirement is a Unix-specific refinement, not a correctness condition).
func listenDualStack(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
