// File: reactor/poll.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral part of the selector.

package reactor

import (
	"code.hybscloud.com/atomix"

	"github.com/momentics/hioload-udp/api"
)

// lastID hands out selector identities; 0 is reserved for "unassociated".
var lastID atomix.Uint64

func nextID() uint64 {
	return lastID.Add(1)
}

// ID returns the selector identity used by socket affinity checks.
func (p *Poll) ID() uint64 {
	return p.id
}

// Register registers e, letting it run its own admission checks first.
func (p *Poll) Register(e api.Evented, token api.Token, interest api.Interest, opts api.PollOpt) error {
	return e.Register(p, token, interest, opts)
}

// Reregister updates the registration of e.
func (p *Poll) Reregister(e api.Evented, token api.Token, interest api.Interest, opts api.PollOpt) error {
	return e.Reregister(p, token, interest, opts)
}

// Deregister removes e from the selector.
func (p *Poll) Deregister(e api.Evented) error {
	return e.Deregister(p)
}

var _ api.Registry = (*Poll)(nil)
