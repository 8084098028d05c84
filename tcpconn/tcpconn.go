// Package tcpconn adapts a reactor session into the pool.Connection
// contract: a thin wrapper around net.Conn that the pool can close when
// evicting or shutting down.
package tcpconn

import (
	"fmt"
	"net"

	"github.com/alfred-ai/connpool/resolver"
)

// TCPConnection is a pool.Connection backed by a net.Conn.
type TCPConnection struct {
	net.Conn
}

// Factory builds TCPConnections from whatever session the reactor handed
// back after a successful connect — expected to be a net.Conn.
type Factory struct{}

// Create implements pool.ConnectionFactory[resolver.Route, *TCPConnection].
func (Factory) Create(route resolver.Route, session any) (*TCPConnection, error) {
	conn, ok := session.(net.Conn)
	if !ok {
		return nil, fmt.Errorf("tcpconn: session is %T, want net.Conn", session)
	}
	return &TCPConnection{Conn: conn}, nil
}
