//go:build linux

package udp_test

import (
	"errors"
	"math"
	"net"
	"testing"

	"github.com/containerd/errdefs"
	"golang.org/x/sys/unix"
	"gotest.tools/v3/assert"

	"github.com/momentics/hioload-udp/transport/udp"
)

func TestOptions_BoolRoundTrip(t *testing.T) {
	s, _ := bind(t)

	for _, tc := range []struct {
		name string
		set  func(bool) error
		get  func() (bool, error)
	}{
		{"broadcast", s.SetBroadcast, s.Broadcast},
		{"multicast loop v4", s.SetMulticastLoopV4, s.MulticastLoopV4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, v := range []bool{true, false, true} {
				assert.NilError(t, tc.set(v))
				got, err := tc.get()
				assert.NilError(t, err)
				assert.Equal(t, got, v)
			}
		})
	}
}

func TestOptions_TTLRoundTrip(t *testing.T) {
	s, _ := bind(t)

	for _, ttl := range []uint32{1, 2, 64, 128, 255} {
		assert.NilError(t, s.SetTTL(ttl))
		got, err := s.TTL()
		assert.NilError(t, err)
		assert.Equal(t, got, ttl)
	}
	for _, ttl := range []uint32{0, 1, 64, 255} {
		assert.NilError(t, s.SetMulticastTTLV4(ttl))
		got, err := s.MulticastTTLV4()
		assert.NilError(t, err)
		assert.Equal(t, got, ttl)
	}
}

func TestOptions_OutOfRangeIsRejectedNotClamped(t *testing.T) {
	s, _ := bind(t)
	assert.NilError(t, s.SetTTL(64))

	for _, ttl := range []uint32{0, 256, math.MaxInt32, math.MaxInt32 + 1, math.MaxUint32} {
		err := s.SetTTL(ttl)
		assert.Check(t, errors.Is(err, unix.EINVAL), "ttl %d: got %v", ttl, err)
	}
	got, err := s.TTL()
	assert.NilError(t, err)
	assert.Equal(t, got, uint32(64))

	err = s.SetMulticastTTLV4(256)
	assert.Check(t, errors.Is(err, unix.EINVAL), "got %v", err)
}

func TestOptions_IPv6OptionOnIPv4Socket(t *testing.T) {
	s, _ := bind(t)

	_, err := s.MulticastLoopV6()
	assert.Check(t, err != nil)
	assert.Check(t, s.SetMulticastLoopV6(true) != nil)
}

func TestOptions_IPv6MulticastLoop(t *testing.T) {
	conn, err := net.ListenUDP("udp6", &net.UDPAddr{IP: net.IPv6loopback})
	if err != nil {
		t.Skipf("no IPv6 loopback: %v", err)
	}
	s, err := udp.New(conn)
	assert.NilError(t, err)
	defer s.Close()

	for _, v := range []bool{false, true} {
		assert.NilError(t, s.SetMulticastLoopV6(v))
		got, err := s.MulticastLoopV6()
		assert.NilError(t, err)
		assert.Equal(t, got, v)
	}
}

func TestOptions_MalformedMulticastAddress(t *testing.T) {
	s, _ := bind(t)

	cases := map[string]error{
		"unicast group v4": s.JoinMulticastV4(net.ParseIP("10.0.0.1"), nil),
		"v6 group on v4":   s.JoinMulticastV4(net.ParseIP("ff02::1"), nil),
		"bad interface":    s.LeaveMulticastV4(net.ParseIP("224.0.0.251"), net.IP{1, 2, 3}),
		"v4 group on v6":   s.JoinMulticastV6(net.ParseIP("224.0.0.1"), 0),
		"unicast group v6": s.LeaveMulticastV6(net.ParseIP("2001:db8::1"), 0),
		"nil group":        s.JoinMulticastV6(nil, 0),
	}
	for name, err := range cases {
		assert.Check(t, errdefs.IsInvalidArgument(err), "%s: got %v", name, err)
		assert.Check(t, errors.Is(err, unix.EINVAL), "%s: got %v", name, err)
	}
}
