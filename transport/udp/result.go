//go:build unix

// File: transport/udp/result.go
// Author: momentics <momentics@gmail.com>
//
// Would-block translation of raw syscall results.

package udp

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-udp/api"
)

// isWouldBlock reports whether err is the kernel's "try again" signal.
// EINTR is deliberately not in this set.
func isWouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}

// translate maps a raw (n, errno) pair to a Result. Hard errors are wrapped
// in an *os.SyscallError naming syscall, keeping the errno reachable
// through errors.Is.
func translate(n int, err error, syscall string) api.Result[int] {
	switch {
	case err == nil:
		return api.Ok(n)
	case isWouldBlock(err):
		return api.NotReady[int]()
	default:
		return api.Fail[int](os.NewSyscallError(syscall, err))
	}
}
