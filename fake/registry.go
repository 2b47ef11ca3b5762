//go:build unix

// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake selector for testing registration protocols without a kernel poller.

package fake

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-udp/api"
)

// Registration records one descriptor registration.
type Registration struct {
	Token    api.Token
	Interest api.Interest
	Opts     api.PollOpt
}

// Registry is an in-memory api.Registry with a chosen identity. It mirrors
// epoll's rules: adding a known descriptor or modifying an unknown one fails.
type Registry struct {
	id uint64

	mu      sync.Mutex
	entries map[int]Registration
	calls   []string
	failErr error
}

// NewRegistry creates a fake selector with the given identity.
func NewRegistry(id uint64) *Registry {
	return &Registry{id: id, entries: make(map[int]Registration)}
}

// ID implements api.Selector.
func (r *Registry) ID() uint64 { return r.id }

// FailWith makes every subsequent descriptor call return err; nil restores normal behavior.
func (r *Registry) FailWith(err error) {
	r.mu.Lock()
	r.failErr = err
	r.mu.Unlock()
}

func (r *Registry) RegisterFD(fd int, token api.Token, interest api.Interest, opts api.PollOpt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "register")
	if r.failErr != nil {
		return r.failErr
	}
	if _, ok := r.entries[fd]; ok {
		return fmt.Errorf("fake: fd %d: %w", fd, os.NewSyscallError("epoll_ctl", unix.EEXIST))
	}
	r.entries[fd] = Registration{Token: token, Interest: interest, Opts: opts}
	return nil
}

func (r *Registry) ReregisterFD(fd int, token api.Token, interest api.Interest, opts api.PollOpt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "reregister")
	if r.failErr != nil {
		return r.failErr
	}
	if _, ok := r.entries[fd]; !ok {
		return fmt.Errorf("fake: fd %d: %w", fd, os.NewSyscallError("epoll_ctl", unix.ENOENT))
	}
	r.entries[fd] = Registration{Token: token, Interest: interest, Opts: opts}
	return nil
}

func (r *Registry) DeregisterFD(fd int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "deregister")
	if r.failErr != nil {
		return r.failErr
	}
	if _, ok := r.entries[fd]; !ok {
		return fmt.Errorf("fake: fd %d: %w", fd, os.NewSyscallError("epoll_ctl", unix.ENOENT))
	}
	delete(r.entries, fd)
	return nil
}

// Lookup returns the registration of fd.
func (r *Registry) Lookup(fd int) (Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.entries[fd]
	return reg, ok
}

// Calls returns the descriptor operations seen so far, in order.
func (r *Registry) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

var _ api.Registry = (*Registry)(nil)
