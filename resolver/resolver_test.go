package resolver

import (
	"net"
	"testing"
)

func TestResolveRemoteLiteralIP(t *testing.T) {
	d := New()
	addr, err := d.ResolveRemote(Route{Host: "127.0.0.1", Port: 9000})
	if err != nil {
		t.Fatalf("ResolveRemote: %v", err)
	}
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || tcp.Port != 9000 || !tcp.IP.Equal(net.IPv4(127, 0, 0, 1)) {
		t.Fatalf("unexpected addr: %+v", addr)
	}
}

func TestResolveLocalEmpty(t *testing.T) {
	d := New()
	addr, err := d.ResolveLocal(Route{Host: "127.0.0.1", Port: 9000})
	if err != nil {
		t.Fatalf("ResolveLocal: %v", err)
	}
	if addr != nil {
		t.Fatalf("expected nil local addr, got %+v", addr)
	}
}

func TestResolveLocalLiteralIP(t *testing.T) {
	d := New()
	addr, err := d.ResolveLocal(Route{Host: "127.0.0.1", LocalHost: "10.0.0.5"})
	if err != nil {
		t.Fatalf("ResolveLocal: %v", err)
	}
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || !tcp.IP.Equal(net.IPv4(10, 0, 0, 5)) {
		t.Fatalf("unexpected addr: %+v", addr)
	}
}

func TestRouteString(t *testing.T) {
	r := Route{Host: "example.com", Port: 443}
	if got, want := r.String(), "example.com:443"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
