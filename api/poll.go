// File: api/poll.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Readiness vocabulary and registration contracts shared by selectors and
// the descriptors registered with them.

package api

// Token is an opaque caller value handed back with every readiness event.
type Token uintptr

// Interest is the set of readiness kinds a registration asks for.
type Interest uint32

const (
	Readable Interest = 1 << iota
	Writable
	Errored
	Hangup
)

// IsEmpty reports whether no readiness kind is selected.
func (i Interest) IsEmpty() bool { return i == 0 }

// IsReadable reports whether i contains Readable.
func (i Interest) IsReadable() bool { return i&Readable != 0 }

// IsWritable reports whether i contains Writable.
func (i Interest) IsWritable() bool { return i&Writable != 0 }

// PollOpt selects the triggering mode of a registration. The zero value is
// level-triggered.
type PollOpt uint32

const (
	Edge PollOpt = 1 << iota
	Oneshot
)

// Level is the default, level-triggered mode.
const Level PollOpt = 0

// Selector is a readiness-polling instance with a stable, non-zero identity.
type Selector interface {
	// ID is unique among live selectors of the process and never 0.
	ID() uint64
}

// Registry is the descriptor-level registration primitive of a selector.
type Registry interface {
	Selector

	// RegisterFD starts watching fd for interest, reporting token on events.
	RegisterFD(fd int, token Token, interest Interest, opts PollOpt) error

	// ReregisterFD replaces the token, interest and options of fd.
	ReregisterFD(fd int, token Token, interest Interest, opts PollOpt) error

	// DeregisterFD stops watching fd.
	DeregisterFD(fd int) error
}

// Evented is implemented by handles that know how to register themselves.
// Implementations may enforce their own admission rules before delegating
// to the Registry.
type Evented interface {
	Register(r Registry, token Token, interest Interest, opts PollOpt) error
	Reregister(r Registry, token Token, interest Interest, opts PollOpt) error
	Deregister(r Registry) error
}
