package tcpconn

import (
	"net"
	"testing"

	"github.com/alfred-ai/connpool/resolver"
)

func TestFactoryCreateWrapsConn(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	f := Factory{}
	conn, err := f.Create(resolver.Route{Host: "127.0.0.1", Port: 1}, client)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if conn.Conn != client {
		t.Fatal("expected the wrapped conn to be the session passed in")
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestFactoryCreateRejectsNonConnSession(t *testing.T) {
	f := Factory{}
	_, err := f.Create(resolver.Route{}, "not a conn")
	if err == nil {
		t.Fatal("expected an error for a non-net.Conn session")
	}
}
