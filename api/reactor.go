// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Readiness event as delivered by a selector.

package api

// Event encapsulates the result of an OS-level readiness notification.
type Event struct {
	Token Token    // value supplied at registration
	Ready Interest // readiness kinds observed
}
