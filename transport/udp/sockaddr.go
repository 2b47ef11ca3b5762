//go:build unix

// File: transport/udp/sockaddr.go
// Author: momentics <momentics@gmail.com>
//
// Conversions between net.UDPAddr and kernel socket addresses.

package udp

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-udp/api"
)

func sockaddrFamily(sa unix.Sockaddr) int {
	switch sa.(type) {
	case *unix.SockaddrInet4:
		return unix.AF_INET
	case *unix.SockaddrInet6:
		return unix.AF_INET6
	default:
		return unix.AF_UNSPEC
	}
}

// sockaddr converts addr for the socket's family. IPv4 destinations are
// mapped for IPv6 sockets; IPv6 destinations on IPv4 sockets fail with
// EAFNOSUPPORT.
func (s *Socket) sockaddr(addr *net.UDPAddr) (unix.Sockaddr, error) {
	if addr == nil {
		return nil, fmt.Errorf("nil address: %w", api.ErrInvalidArgument)
	}
	if addr.Port < 0 || addr.Port > 0xffff {
		return nil, fmt.Errorf("port %d: %w", addr.Port, unix.EINVAL)
	}
	switch s.family {
	case unix.AF_INET:
		ip := addr.IP
		if len(ip) == 0 {
			ip = net.IPv4zero
		}
		ip4 := ip.To4()
		if ip4 == nil {
			return nil, unix.EAFNOSUPPORT
		}
		sa := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa.Addr[:], ip4)
		return sa, nil
	case unix.AF_INET6:
		ip := addr.IP
		if len(ip) == 0 {
			ip = net.IPv6unspecified
		}
		ip16 := ip.To16()
		if ip16 == nil {
			return nil, fmt.Errorf("address %v: %w", addr.IP, unix.EINVAL)
		}
		sa := &unix.SockaddrInet6{Port: addr.Port, ZoneId: zoneIndex(addr.Zone)}
		copy(sa.Addr[:], ip16)
		return sa, nil
	default:
		return nil, unix.EAFNOSUPPORT
	}
}

func udpAddr(sa unix.Sockaddr) *net.UDPAddr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, net.IPv4len)
		copy(ip, sa.Addr[:])
		return &net.UDPAddr{IP: ip, Port: sa.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, sa.Addr[:])
		return &net.UDPAddr{IP: ip, Port: sa.Port, Zone: zoneName(sa.ZoneId)}
	default:
		return nil
	}
}

func zoneIndex(zone string) uint32 {
	if zone == "" {
		return 0
	}
	if ifi, err := net.InterfaceByName(zone); err == nil {
		return uint32(ifi.Index)
	}
	n, _ := strconv.ParseUint(zone, 10, 32)
	return uint32(n)
}

func zoneName(index uint32) string {
	if index == 0 {
		return ""
	}
	if ifi, err := net.InterfaceByIndex(int(index)); err == nil {
		return ifi.Name
	}
	return strconv.FormatUint(uint64(index), 10)
}
