// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness selector (epoll on Linux) that
// datagram sockets register with, and a small loop dispatching its events
// to handlers by token.
package reactor
