//go:build unix

// File: transport/udp/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-selector affinity and the registration entry points.

package udp

import (
	"runtime"

	"github.com/containerd/log"

	"github.com/momentics/hioload-udp/api"
)

// associate pins s to sel, or confirms it is already pinned to sel.
//
// The load and the store are two sequentially consistent operations, not a
// compare-and-swap. Two goroutines registering an unassociated socket with
// different selectors at the same moment can both get past the check; the
// descriptor-level registration then decides. Registration is expected to
// happen from a single goroutine.
func (s *Socket) associate(sel api.Selector) error {
	id := sel.ID()
	owner := s.selectorID.Load()
	if owner != 0 && owner != id {
		s.metrics.Add(MetricRegisterConflicts, 1)
		log.L.WithFields(log.Fields{
			"socket":   s.name,
			"fd":       s.fd,
			"owner":    owner,
			"selector": id,
		}).Debug("udp: registration refused, socket owned by another selector")
		return api.NewError(api.ErrCodeAlreadyRegistered, "socket already registered").
			WithContext("fd", s.fd).
			WithContext("owner", owner).
			WithContext("selector", id).
			Wrap(api.ErrAlreadyRegistered)
	}
	s.selectorID.Store(id)
	return nil
}

// Register pins s to r and starts watching it for interest.
func (s *Socket) Register(r api.Registry, token api.Token, interest api.Interest, opts api.PollOpt) error {
	if s.isClosed() {
		return api.ErrClosed
	}
	defer runtime.KeepAlive(s)
	if err := s.associate(r); err != nil {
		return err
	}
	return r.RegisterFD(s.fd, token, interest, opts)
}

// Reregister changes an existing registration. No affinity check is made;
// the selector rejects descriptors it does not know.
func (s *Socket) Reregister(r api.Registry, token api.Token, interest api.Interest, opts api.PollOpt) error {
	if s.isClosed() {
		return api.ErrClosed
	}
	defer runtime.KeepAlive(s)
	return r.ReregisterFD(s.fd, token, interest, opts)
}

// Deregister stops r watching s. The selector identity stays pinned.
func (s *Socket) Deregister(r api.Registry) error {
	if s.isClosed() {
		return api.ErrClosed
	}
	defer runtime.KeepAlive(s)
	return r.DeregisterFD(s.fd)
}

var _ api.Evented = (*Socket)(nil)
