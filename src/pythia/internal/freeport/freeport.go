// Package freeport allocates ephemeral local ports for backend processes.
package freeport

import (
	"fmt"
	"net"
)

// Allocate returns a TCP port that was free at the instant of the call, by
// binding port 0 and immediately releasing the socket. The OS keeps the port
// out of rotation briefly, but nothing prevents another process from binding
// it before the backend does; that race surfaces later as a connection
// failure and is handled by restarting the worker.
func Allocate() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("allocating ephemeral port: %w", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		return 0, fmt.Errorf("releasing ephemeral port %d: %w", port, err)
	}
	return port, nil
}
