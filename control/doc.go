// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration and runtime metrics for the reactor loop and its sockets.
package control
