package dnscache

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestDialContext_IPLiteral(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	c := New(time.Minute, nil)
	dial := c.DialContext(&net.Dialer{Timeout: time.Second})

	conn, err := dial(context.Background(), "tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()
}

func TestDialContext_BadAddress(t *testing.T) {
	c := New(time.Minute, nil)
	dial := c.DialContext(&net.Dialer{Timeout: time.Second})

	if _, err := dial(context.Background(), "tcp", "missing-port"); err == nil {
		t.Fatal("expected error for address without port")
	}
}

func TestLookupHost_IPLiteral(t *testing.T) {
	c := New(0, nil)
	ips, err := c.LookupHost(context.Background(), "10.1.2.3")
	if err != nil {
		t.Fatalf("LookupHost: %v", err)
	}
	if len(ips) != 1 || ips[0] != "10.1.2.3" {
		t.Fatalf("ips = %v", ips)
	}
}

func TestStartStop(t *testing.T) {
	c := New(10*time.Millisecond, nil)
	c.Start()
	c.Start()
	time.Sleep(30 * time.Millisecond)
	c.Stop()
	c.Stop()
}
