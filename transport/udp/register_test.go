//go:build linux

package udp_test

import (
	"errors"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"gotest.tools/v3/assert"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/reactor"
)

func newPoll(t *testing.T) *reactor.Poll {
	t.Helper()
	p, err := reactor.NewPoll()
	assert.NilError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestRegister_SingleSelectorAffinity(t *testing.T) {
	h1, _ := bind(t)
	pa, pb := newPoll(t), newPoll(t)

	assert.NilError(t, pa.Register(h1, 1, api.Readable, api.Level))
	assert.Equal(t, h1.SelectorID(), pa.ID())

	assert.NilError(t, pa.Reregister(h1, 1, api.Readable|api.Writable, api.Level))
	assert.NilError(t, pa.Deregister(h1))
	assert.NilError(t, pa.Register(h1, 1, api.Readable, api.Edge))

	err := pb.Register(h1, 2, api.Readable, api.Level)
	assert.Check(t, errors.Is(err, api.ErrAlreadyRegistered), "got %v", err)
	assert.Check(t, errdefs.IsConflict(err))
	assert.Equal(t, h1.SelectorID(), pa.ID())
}

func TestRegister_ReadinessDrivesRecv(t *testing.T) {
	a, _ := bind(t)
	b, bAddr := bind(t)
	p := newPoll(t)

	assert.NilError(t, p.Register(b, 42, api.Readable, api.Edge))

	events := make([]api.Event, 8)
	n, err := p.Wait(events, 0)
	assert.NilError(t, err)
	assert.Equal(t, n, 0)

	assert.Check(t, a.SendTo([]byte("ready"), bAddr).IsReady())

	n, err = p.Wait(events, time.Second)
	assert.NilError(t, err)
	assert.Equal(t, n, 1)
	assert.Equal(t, events[0].Token, api.Token(42))
	assert.Check(t, events[0].Ready.IsReadable())

	buf := make([]byte, 16)
	r := b.RecvFrom(buf)
	assert.Assert(t, r.IsReady())
	assert.Equal(t, string(buf[:r.Value().N]), "ready")
	assert.Check(t, b.RecvFrom(buf).WouldBlock())
}

func TestRegister_WritableImmediately(t *testing.T) {
	a, _ := bind(t)
	p := newPoll(t)

	assert.NilError(t, p.Register(a, 7, api.Writable, api.Oneshot))
	events := make([]api.Event, 4)
	n, err := p.Wait(events, time.Second)
	assert.NilError(t, err)
	assert.Equal(t, n, 1)
	assert.Check(t, events[0].Ready.IsWritable())

	// Oneshot disarms the registration until rearmed.
	n, err = p.Wait(events, 0)
	assert.NilError(t, err)
	assert.Equal(t, n, 0)

	assert.NilError(t, p.Reregister(a, 7, api.Writable, api.Oneshot))
	n, err = p.Wait(events, time.Second)
	assert.NilError(t, err)
	assert.Equal(t, n, 1)
}
