// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package udp provides a non-blocking datagram socket that can be registered
// with exactly one reactor selector over its lifetime.
//
// Sends and receives never block. When the kernel reports EAGAIN the
// operation returns a not-ready api.Result instead of an error; every other
// errno, EINTR included, is returned as a hard failure and is never retried
// here. Sends and receives on one Socket are not serialized against each
// other; callers sharing a Socket across goroutines coordinate themselves.
package udp
