//go:build unix

// File: transport/udp/socket.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Descriptor ownership and the non-blocking datagram operations.

package udp

import (
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"syscall"

	"code.hybscloud.com/atomix"
	"github.com/containerd/log"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/control"
)

// Metric keys recorded when a registry is attached with WithMetrics.
const (
	MetricSent              = "udp.sent"
	MetricSentBytes         = "udp.sent_bytes"
	MetricReceived          = "udp.received"
	MetricReceivedBytes     = "udp.received_bytes"
	MetricWouldBlock        = "udp.would_block"
	MetricErrors            = "udp.errors"
	MetricRegisterConflicts = "udp.register_conflicts"
)

// Socket exclusively owns one non-blocking datagram descriptor.
type Socket struct {
	fd     int
	family int
	name   string

	// selectorID is 0 until the first successful affinity check.
	selectorID atomix.Uint64
	state      atomix.Uint32 // 0 open, 1 closed or released
	cleanup    runtime.Cleanup
	metrics    *control.MetricsRegistry
}

// Option customizes a Socket at construction.
type Option func(*Socket)

// WithMetrics records traffic and registration counters into m.
func WithMetrics(m *control.MetricsRegistry) Option {
	return func(s *Socket) { s.metrics = m }
}

// WithName labels the socket in log entries.
func WithName(name string) Option {
	return func(s *Socket) { s.name = name }
}

// Datagram describes one received datagram.
type Datagram struct {
	N    int          // bytes copied into the caller's buffer
	From *net.UDPAddr // sender
}

// New takes ownership of a bound datagram socket, usually a *net.UDPConn.
// The descriptor is duplicated, the original is closed if conn is an
// io.Closer, and the duplicate is switched to non-blocking mode.
func New(conn syscall.Conn, opts ...Option) (*Socket, error) {
	rc, err := conn.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("udp: syscall conn: %w", err)
	}

	fd := -1
	var dupErr error
	if err := rc.Control(func(raw uintptr) {
		fd, dupErr = unix.FcntlInt(raw, unix.F_DUPFD_CLOEXEC, 0)
	}); err != nil {
		return nil, fmt.Errorf("udp: control: %w", err)
	}
	if dupErr != nil {
		return nil, fmt.Errorf("udp: dup: %w", os.NewSyscallError("fcntl", dupErr))
	}

	typ, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("udp: socket type: %w", os.NewSyscallError("getsockopt", err))
	}
	if typ != unix.SOCK_DGRAM {
		unix.Close(fd)
		return nil, fmt.Errorf("udp: socket type %d is not a datagram socket: %w", typ, api.ErrInvalidArgument)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("udp: set nonblocking: %w", os.NewSyscallError("fcntl", err))
	}

	if c, ok := conn.(io.Closer); ok {
		if err := c.Close(); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("udp: close original: %w", err)
		}
	}
	return newSocket(fd, opts...), nil
}

// FromRawFD wraps fd without any check.
//
// Unchecked: fd must be an open datagram socket descriptor that nothing else
// will close or use. Nothing here can verify that; violating it is the
// caller's bug. The non-blocking flag is not touched and the socket starts
// with no selector association.
func FromRawFD(fd int, opts ...Option) *Socket {
	return newSocket(fd, opts...)
}

func newSocket(fd int, opts ...Option) *Socket {
	s := &Socket{fd: fd, family: unix.AF_UNSPEC}
	if sa, err := unix.Getsockname(fd); err == nil {
		s.family = sockaddrFamily(sa)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cleanup = runtime.AddCleanup(s, closeUnreachable, fd)
	return s
}

// closeUnreachable releases the descriptor of a Socket that was neither
// closed nor released before being collected.
func closeUnreachable(fd int) {
	log.L.WithField("fd", fd).Debug("udp: closing descriptor of unreachable socket")
	unix.Close(fd)
}

func (s *Socket) isClosed() bool {
	return s.state.Load() != 0
}

// release marks the socket dead and cancels the collection-time close.
func (s *Socket) release() bool {
	if !s.state.CompareAndSwap(0, 1) {
		return false
	}
	s.cleanup.Stop()
	return true
}

// Close closes the descriptor. It must not race with other operations on s.
func (s *Socket) Close() error {
	if !s.release() {
		return api.ErrClosed
	}
	if err := unix.Close(s.fd); err != nil {
		return fmt.Errorf("udp: close: %w", os.NewSyscallError("close", err))
	}
	return nil
}

// IntoFD hands the descriptor to the caller, who becomes responsible for
// closing it. s is unusable afterwards.
func (s *Socket) IntoFD() (int, error) {
	if !s.release() {
		return -1, api.ErrClosed
	}
	return s.fd, nil
}

// FD returns the descriptor without transferring ownership, or -1 once closed.
func (s *Socket) FD() int {
	if s.isClosed() {
		return -1
	}
	return s.fd
}

// SelectorID returns the identity of the selector s is pinned to, 0 if none.
func (s *Socket) SelectorID() uint64 {
	return s.selectorID.Load()
}

// TryClone returns an independent Socket over a duplicate descriptor.
//
// The clone inherits the selector identity: the duplicate shares the open
// file description, so readiness registrations made through the original
// still concern it. Registering the clone with another selector is refused
// until the caller builds a fresh socket.
func (s *Socket) TryClone() (*Socket, error) {
	defer runtime.KeepAlive(s)
	if s.isClosed() {
		return nil, api.ErrClosed
	}
	fd, err := unix.FcntlInt(uintptr(s.fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("udp: clone: %w", os.NewSyscallError("fcntl", err))
	}
	c := newSocket(fd, WithName(s.name), WithMetrics(s.metrics))
	c.selectorID.Store(s.selectorID.Load())
	return c, nil
}

// LocalAddr returns the address the socket is bound to.
func (s *Socket) LocalAddr() (*net.UDPAddr, error) {
	defer runtime.KeepAlive(s)
	if s.isClosed() {
		return nil, api.ErrClosed
	}
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return nil, fmt.Errorf("udp: local addr: %w", os.NewSyscallError("getsockname", err))
	}
	addr := udpAddr(sa)
	if addr == nil {
		return nil, fmt.Errorf("udp: local addr: %w", os.NewSyscallError("getsockname", unix.EAFNOSUPPORT))
	}
	return addr, nil
}

// SendTo sends b as one datagram to addr. A zero-length b is a valid
// datagram. The result is not ready when the send buffer is full.
func (s *Socket) SendTo(b []byte, addr *net.UDPAddr) api.Result[int] {
	defer runtime.KeepAlive(s)
	if s.isClosed() {
		return api.Fail[int](api.ErrClosed)
	}
	sa, err := s.sockaddr(addr)
	if err != nil {
		s.metrics.Add(MetricErrors, 1)
		return api.Fail[int](fmt.Errorf("udp: send to %v: %w", addr, err))
	}
	n, err := unix.SendmsgN(s.fd, b, nil, sa, 0)
	r := translate(n, err, "sendmsg")
	switch {
	case r.IsReady():
		s.metrics.Add(MetricSent, 1)
		s.metrics.Add(MetricSentBytes, int64(n))
	default:
		s.count(r.Status())
	}
	return r
}

// RecvFrom reads one datagram into b. The result is not ready when nothing
// is queued; a ready result with N == 0 is an empty datagram.
func (s *Socket) RecvFrom(b []byte) api.Result[Datagram] {
	defer runtime.KeepAlive(s)
	if s.isClosed() {
		return api.Fail[Datagram](api.ErrClosed)
	}
	n, from, err := unix.Recvfrom(s.fd, b, 0)
	r := translate(n, err, "recvfrom")
	if !r.IsReady() {
		s.count(r.Status())
		if r.Failed() {
			return api.Fail[Datagram](r.Err())
		}
		return api.NotReady[Datagram]()
	}
	s.metrics.Add(MetricReceived, 1)
	s.metrics.Add(MetricReceivedBytes, int64(n))
	return api.Ok(Datagram{N: n, From: udpAddr(from)})
}

func (s *Socket) count(st api.Status) {
	switch st {
	case api.StatusNotReady:
		s.metrics.Add(MetricWouldBlock, 1)
	case api.StatusFailed:
		s.metrics.Add(MetricErrors, 1)
	}
}

// TakeError returns and clears the pending socket error (SO_ERROR). pending
// is nil when no error was queued; err reports a failure to query.
func (s *Socket) TakeError() (pending error, err error) {
	defer runtime.KeepAlive(s)
	if s.isClosed() {
		return nil, api.ErrClosed
	}
	v, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return nil, fmt.Errorf("udp: take error: %w", os.NewSyscallError("getsockopt", err))
	}
	if v == 0 {
		return nil, nil
	}
	return syscall.Errno(v), nil
}
