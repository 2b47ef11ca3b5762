//go:build linux
// +build linux

// File: reactor/poll_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based selector.

package reactor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-udp/api"
)

// Poll is an epoll instance with a process-unique identity.
type Poll struct {
	epfd   int
	wakefd int // eventfd used by Wake, never reported as an event
	id     uint64
	closed atomix.Uint32
	tokens sync.Map // map[int32]api.Token

	mu  sync.Mutex // guards raw
	raw []unix.EpollEvent
}

// NewPoll creates a new epoll-backed selector.
func NewPoll() (*Poll, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", os.NewSyscallError("epoll_create1", err))
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll create: %w", os.NewSyscallError("eventfd", err))
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll ctl add wake: %w", os.NewSyscallError("epoll_ctl", err))
	}
	return &Poll{epfd: epfd, wakefd: wakefd, id: nextID()}, nil
}

// Wake makes a concurrent or the next Wait return, possibly with no events.
func (p *Poll) Wake() error {
	if p.closed.Load() != 0 {
		return api.ErrClosed
	}
	var b [8]byte
	binary.NativeEndian.PutUint64(b[:], 1)
	if _, err := unix.Write(p.wakefd, b[:]); err != nil && err != unix.EAGAIN {
		return fmt.Errorf("epoll wake: %w", os.NewSyscallError("write", err))
	}
	return nil
}

func (p *Poll) drainWake() {
	var b [8]byte
	_, _ = unix.Read(p.wakefd, b[:])
}

func epollEvents(interest api.Interest, opts api.PollOpt) uint32 {
	var ev uint32
	if interest&api.Readable != 0 {
		ev |= unix.EPOLLIN
	}
	if interest&api.Writable != 0 {
		ev |= unix.EPOLLOUT
	}
	if interest&api.Hangup != 0 {
		ev |= unix.EPOLLRDHUP
	}
	// EPOLLERR is always reported by the kernel; Errored needs no flag.
	if opts&api.Edge != 0 {
		ev |= unix.EPOLLET
	}
	if opts&api.Oneshot != 0 {
		ev |= unix.EPOLLONESHOT
	}
	return ev
}

func readiness(events uint32) api.Interest {
	var ready api.Interest
	if events&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		ready |= api.Readable
	}
	if events&unix.EPOLLOUT != 0 {
		ready |= api.Writable
	}
	if events&unix.EPOLLERR != 0 {
		ready |= api.Errored
	}
	if events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		ready |= api.Hangup
	}
	return ready
}

func (p *Poll) ctl(op int, name string, fd int, token api.Token, interest api.Interest, opts api.PollOpt) error {
	if p.closed.Load() != 0 {
		return api.ErrClosed
	}
	if interest.IsEmpty() {
		return fmt.Errorf("epoll ctl %s fd=%d: empty interest: %w", name, fd, api.ErrInvalidArgument)
	}
	ev := unix.EpollEvent{
		Events: epollEvents(interest, opts),
		Fd:     int32(fd),
	}
	// Store first so an event racing the ctl call finds its token.
	prev, hadPrev := p.tokens.Swap(int32(fd), token)
	if err := unix.EpollCtl(p.epfd, op, fd, &ev); err != nil {
		if hadPrev {
			p.tokens.Store(int32(fd), prev)
		} else {
			p.tokens.Delete(int32(fd))
		}
		return fmt.Errorf("epoll ctl %s: %w", name, os.NewSyscallError("epoll_ctl", err))
	}
	return nil
}

// RegisterFD adds fd to the epoll watch list.
func (p *Poll) RegisterFD(fd int, token api.Token, interest api.Interest, opts api.PollOpt) error {
	return p.ctl(unix.EPOLL_CTL_ADD, "add", fd, token, interest, opts)
}

// ReregisterFD modifies the registration of fd.
func (p *Poll) ReregisterFD(fd int, token api.Token, interest api.Interest, opts api.PollOpt) error {
	return p.ctl(unix.EPOLL_CTL_MOD, "mod", fd, token, interest, opts)
}

// DeregisterFD removes fd from the epoll watch list.
func (p *Poll) DeregisterFD(fd int) error {
	if p.closed.Load() != 0 {
		return api.ErrClosed
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		// A descriptor closed before deregistration is already gone from
		// epoll; its token must not outlive it.
		if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.EBADF) {
			p.tokens.Delete(int32(fd))
		}
		return fmt.Errorf("epoll ctl del: %w", os.NewSyscallError("epoll_ctl", err))
	}
	p.tokens.Delete(int32(fd))
	return nil
}

// Wait blocks up to timeout for readiness and fills events. A negative
// timeout blocks until at least one event arrives. An interrupted wait
// returns no events and no error.
func (p *Poll) Wait(events []api.Event, timeout time.Duration) (int, error) {
	if p.closed.Load() != 0 {
		return 0, api.ErrClosed
	}
	if len(events) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if cap(p.raw) < len(events) {
		p.raw = make([]unix.EpollEvent, len(events))
	}
	raw := p.raw[:len(events)]

	n, err := unix.EpollWait(p.epfd, raw, timeoutMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll wait: %w", os.NewSyscallError("epoll_wait", err))
	}

	out := 0
	for i := 0; i < n; i++ {
		if raw[i].Fd == int32(p.wakefd) {
			p.drainWake()
			continue
		}
		tok, ok := p.tokens.Load(raw[i].Fd)
		if !ok {
			// deregistered between the kernel report and now
			continue
		}
		events[out] = api.Event{Token: tok.(api.Token), Ready: readiness(raw[i].Events)}
		out++
	}
	return out, nil
}

func timeoutMillis(d time.Duration) int {
	switch {
	case d < 0:
		return -1
	case d == 0:
		return 0
	}
	ms := d.Milliseconds()
	if d%time.Millisecond != 0 {
		ms++
	}
	if ms > int64(^uint32(0)>>1) {
		return -1
	}
	return int(ms)
}

// Close releases the epoll descriptor. Subsequent calls return ErrClosed.
func (p *Poll) Close() error {
	if !p.closed.CompareAndSwap(0, 1) {
		return api.ErrClosed
	}
	unix.Close(p.wakefd)
	return unix.Close(p.epfd)
}
