package service

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReachableOpenPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	probe := NewProbeService()
	assert.True(t, probe.CheckReachable(ln.Addr().String(), time.Second))
}

func TestCheckReachableClosedPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	probe := NewProbeService()
	assert.False(t, probe.CheckReachable(addr, 500*time.Millisecond))
}

func TestCheckReachableBadHost(t *testing.T) {
	probe := NewProbeService()
	assert.False(t, probe.CheckReachable("no-such-host.invalid:443", 500*time.Millisecond))
	assert.False(t, probe.CheckReachable("", time.Second))
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		host string
		port string
	}{
		{"vpn.example.com:8443", "vpn.example.com", "8443"},
		{"vpn.example.com", "vpn.example.com", "443"},
		{"https://vpn.example.com/health", "vpn.example.com", "443"},
		{"http://vpn.example.com:8080/ping", "vpn.example.com", "8080"},
	}
	for _, tt := range tests {
		host, port := splitEndpoint(tt.in)
		assert.Equal(t, tt.host, host, tt.in)
		assert.Equal(t, tt.port, port, tt.in)
	}
}
