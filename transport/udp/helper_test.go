//go:build unix

package udp_test

import (
	"net"
	"testing"
	"time"

	"code.hybscloud.com/iox"
	"gotest.tools/v3/assert"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/transport/udp"
)

// bind opens a non-blocking socket on an ephemeral IPv4 loopback port.
func bind(t *testing.T, opts ...udp.Option) (*udp.Socket, *net.UDPAddr) {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	assert.NilError(t, err)
	s, err := udp.New(conn, opts...)
	assert.NilError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	addr, err := s.LocalAddr()
	assert.NilError(t, err)
	return s, addr
}

// recvWithin polls s until a datagram arrives or the deadline passes.
func recvWithin(t *testing.T, s *udp.Socket, buf []byte, d time.Duration) udp.Datagram {
	t.Helper()
	deadline := time.Now().Add(d)
	var bo iox.Backoff
	for {
		r := s.RecvFrom(buf)
		switch r.Status() {
		case api.StatusReady:
			return r.Value()
		case api.StatusFailed:
			t.Fatalf("recv failed: %v", r.Err())
		}
		if time.Now().After(deadline) {
			t.Fatalf("no datagram within %v", d)
		}
		bo.Wait()
	}
}
