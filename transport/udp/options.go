//go:build unix

// File: transport/udp/options.go
// Author: momentics <momentics@gmail.com>
//
// Socket option pass-through.

package udp

import (
	"fmt"
	"math"
	"net"
	"os"
	"runtime"

	"github.com/containerd/errdefs"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-udp/api"
)

func (s *Socket) getInt(level, opt int, name string) (int, error) {
	if s.isClosed() {
		return 0, api.ErrClosed
	}
	defer runtime.KeepAlive(s)
	v, err := unix.GetsockoptInt(s.fd, level, opt)
	if err != nil {
		return 0, fmt.Errorf("udp: get %s: %w", name, os.NewSyscallError("getsockopt", err))
	}
	return v, nil
}

func (s *Socket) setInt(level, opt, value int, name string) error {
	if s.isClosed() {
		return api.ErrClosed
	}
	defer runtime.KeepAlive(s)
	if err := unix.SetsockoptInt(s.fd, level, opt, value); err != nil {
		return fmt.Errorf("udp: set %s: %w", name, os.NewSyscallError("setsockopt", err))
	}
	return nil
}

func (s *Socket) getBool(level, opt int, name string) (bool, error) {
	v, err := s.getInt(level, opt, name)
	return v != 0, err
}

func (s *Socket) setBool(level, opt int, on bool, name string) error {
	v := 0
	if on {
		v = 1
	}
	return s.setInt(level, opt, v, name)
}

func (s *Socket) getUint(level, opt int, name string) (uint32, error) {
	v, err := s.getInt(level, opt, name)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// setUint passes value through unchanged; anything the C int cannot hold is
// refused rather than truncated. The kernel applies its own range checks.
func (s *Socket) setUint(level, opt int, value uint32, name string) error {
	if value > math.MaxInt32 {
		return fmt.Errorf("udp: set %s %d: %w", name, value, os.NewSyscallError("setsockopt", unix.EINVAL))
	}
	return s.setInt(level, opt, int(value), name)
}

// Broadcast reports SO_BROADCAST.
func (s *Socket) Broadcast() (bool, error) {
	return s.getBool(unix.SOL_SOCKET, unix.SO_BROADCAST, "broadcast")
}

// SetBroadcast sets SO_BROADCAST.
func (s *Socket) SetBroadcast(on bool) error {
	return s.setBool(unix.SOL_SOCKET, unix.SO_BROADCAST, on, "broadcast")
}

// MulticastLoopV4 reports IP_MULTICAST_LOOP.
func (s *Socket) MulticastLoopV4() (bool, error) {
	return s.getBool(unix.IPPROTO_IP, unix.IP_MULTICAST_LOOP, "multicast loop v4")
}

// SetMulticastLoopV4 sets IP_MULTICAST_LOOP.
func (s *Socket) SetMulticastLoopV4(on bool) error {
	return s.setBool(unix.IPPROTO_IP, unix.IP_MULTICAST_LOOP, on, "multicast loop v4")
}

// MulticastTTLV4 reports IP_MULTICAST_TTL.
func (s *Socket) MulticastTTLV4() (uint32, error) {
	return s.getUint(unix.IPPROTO_IP, unix.IP_MULTICAST_TTL, "multicast ttl v4")
}

// SetMulticastTTLV4 sets IP_MULTICAST_TTL.
func (s *Socket) SetMulticastTTLV4(ttl uint32) error {
	return s.setUint(unix.IPPROTO_IP, unix.IP_MULTICAST_TTL, ttl, "multicast ttl v4")
}

// MulticastLoopV6 reports IPV6_MULTICAST_LOOP. It fails on IPv4 sockets.
func (s *Socket) MulticastLoopV6() (bool, error) {
	return s.getBool(unix.IPPROTO_IPV6, unix.IPV6_MULTICAST_LOOP, "multicast loop v6")
}

// SetMulticastLoopV6 sets IPV6_MULTICAST_LOOP. It fails on IPv4 sockets.
func (s *Socket) SetMulticastLoopV6(on bool) error {
	return s.setBool(unix.IPPROTO_IPV6, unix.IPV6_MULTICAST_LOOP, on, "multicast loop v6")
}

// TTL reports IP_TTL.
func (s *Socket) TTL() (uint32, error) {
	return s.getUint(unix.IPPROTO_IP, unix.IP_TTL, "ttl")
}

// SetTTL sets IP_TTL.
func (s *Socket) SetTTL(ttl uint32) error {
	return s.setUint(unix.IPPROTO_IP, unix.IP_TTL, ttl, "ttl")
}

func invalidAddr(op string, ip net.IP) error {
	return fmt.Errorf("udp: %s %v: %w: %w", op, ip, errdefs.ErrInvalidArgument, os.NewSyscallError("setsockopt", unix.EINVAL))
}

func mreqV4(op string, group, iface net.IP) (*unix.IPMreq, error) {
	g := group.To4()
	if g == nil || !g.IsMulticast() {
		return nil, invalidAddr(op, group)
	}
	if iface == nil {
		iface = net.IPv4zero
	}
	i := iface.To4()
	if i == nil {
		return nil, invalidAddr(op, iface)
	}
	mreq := &unix.IPMreq{}
	copy(mreq.Multiaddr[:], g)
	copy(mreq.Interface[:], i)
	return mreq, nil
}

func mreqV6(op string, group net.IP, ifindex uint32) (*unix.IPv6Mreq, error) {
	if len(group) != net.IPv6len || group.To4() != nil || !group.IsMulticast() {
		return nil, invalidAddr(op, group)
	}
	mreq := &unix.IPv6Mreq{Interface: ifindex}
	copy(mreq.Multiaddr[:], group)
	return mreq, nil
}

func (s *Socket) setMreqV4(opt int, op string, group, iface net.IP) error {
	mreq, err := mreqV4(op, group, iface)
	if err != nil {
		return err
	}
	if s.isClosed() {
		return api.ErrClosed
	}
	defer runtime.KeepAlive(s)
	if err := unix.SetsockoptIPMreq(s.fd, unix.IPPROTO_IP, opt, mreq); err != nil {
		return fmt.Errorf("udp: %s %v: %w", op, group, os.NewSyscallError("setsockopt", err))
	}
	return nil
}

func (s *Socket) setMreqV6(opt int, op string, group net.IP, ifindex uint32) error {
	mreq, err := mreqV6(op, group, ifindex)
	if err != nil {
		return err
	}
	if s.isClosed() {
		return api.ErrClosed
	}
	defer runtime.KeepAlive(s)
	if err := unix.SetsockoptIPv6Mreq(s.fd, unix.IPPROTO_IPV6, opt, mreq); err != nil {
		return fmt.Errorf("udp: %s %v: %w", op, group, os.NewSyscallError("setsockopt", err))
	}
	return nil
}

// JoinMulticastV4 joins group on the interface with address iface; a nil
// iface lets the kernel choose.
func (s *Socket) JoinMulticastV4(group, iface net.IP) error {
	return s.setMreqV4(unix.IP_ADD_MEMBERSHIP, "join multicast v4", group, iface)
}

// LeaveMulticastV4 leaves a group joined with JoinMulticastV4.
func (s *Socket) LeaveMulticastV4(group, iface net.IP) error {
	return s.setMreqV4(unix.IP_DROP_MEMBERSHIP, "leave multicast v4", group, iface)
}

// JoinMulticastV6 joins group on interface index ifindex; 0 lets the kernel choose.
func (s *Socket) JoinMulticastV6(group net.IP, ifindex uint32) error {
	return s.setMreqV6(unix.IPV6_JOIN_GROUP, "join multicast v6", group, ifindex)
}

// LeaveMulticastV6 leaves a group joined with JoinMulticastV6.
func (s *Socket) LeaveMulticastV6(group net.IP, ifindex uint32) error {
	return s.setMreqV6(unix.IPV6_LEAVE_GROUP, "leave multicast v6", group, ifindex)
}
