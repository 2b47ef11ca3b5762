//go:build linux

package reactor

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"
	"gotest.tools/v3/assert"

	"github.com/momentics/hioload-udp/api"
)

func TestDeregisterFD_ClosedDescriptorDropsToken(t *testing.T) {
	p, err := NewPoll()
	assert.NilError(t, err)
	defer p.Close()

	var fds [2]int
	assert.NilError(t, unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC))
	defer unix.Close(fds[1])

	assert.NilError(t, p.RegisterFD(fds[0], 7, api.Readable, api.Level))
	_, ok := p.tokens.Load(int32(fds[0]))
	assert.Assert(t, ok)

	assert.NilError(t, unix.Close(fds[0]))
	err = p.DeregisterFD(fds[0])
	assert.Check(t, errors.Is(err, unix.EBADF) || errors.Is(err, unix.ENOENT), "got %v", err)

	_, ok = p.tokens.Load(int32(fds[0]))
	assert.Check(t, !ok)
}
