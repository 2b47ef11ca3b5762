//go:build linux

package udp_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"code.hybscloud.com/iox"
	"golang.org/x/sys/unix"
	"gotest.tools/v3/assert"
)

func TestTakeError_ReturnsAndClearsPending(t *testing.T) {
	s, _ := bind(t)

	// Reserve a loopback port, then free it so nothing listens there.
	gone, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	assert.NilError(t, err)
	dead := gone.LocalAddr().(*net.UDPAddr)
	assert.NilError(t, gone.Close())

	// Only connected datagram sockets record ICMP errors in SO_ERROR.
	sa := &unix.SockaddrInet4{Port: dead.Port}
	copy(sa.Addr[:], dead.IP.To4())
	assert.NilError(t, unix.Connect(s.FD(), sa))

	r := s.SendTo([]byte("anyone?"), dead)
	assert.Assert(t, r.IsReady(), "send: %v", r.Err())

	deadline := time.Now().Add(time.Second)
	var bo iox.Backoff
	var pending error
	for {
		pending, err = s.TakeError()
		assert.NilError(t, err)
		if pending != nil || time.Now().After(deadline) {
			break
		}
		bo.Wait()
	}
	assert.Check(t, errors.Is(pending, unix.ECONNREFUSED), "got %v", pending)

	pending, err = s.TakeError()
	assert.NilError(t, err)
	assert.NilError(t, pending)
}
