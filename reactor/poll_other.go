//go:build !linux
// +build !linux

// File: reactor/poll_other.go
// Author: momentics <momentics@gmail.com>
//
// Stub selector for unsupported platforms.

package reactor

import (
	"time"

	"github.com/momentics/hioload-udp/api"
)

// Poll is unavailable on this platform.
type Poll struct {
	id uint64
}

// NewPoll returns ErrNotSupported on this platform.
func NewPoll() (*Poll, error) {
	return nil, api.ErrNotSupported
}

func (p *Poll) RegisterFD(int, api.Token, api.Interest, api.PollOpt) error {
	return api.ErrNotSupported
}

func (p *Poll) ReregisterFD(int, api.Token, api.Interest, api.PollOpt) error {
	return api.ErrNotSupported
}

func (p *Poll) DeregisterFD(int) error { return api.ErrNotSupported }

func (p *Poll) Wake() error { return api.ErrNotSupported }

func (p *Poll) Wait([]api.Event, time.Duration) (int, error) { return 0, api.ErrNotSupported }

func (p *Poll) Close() error { return api.ErrNotSupported }
