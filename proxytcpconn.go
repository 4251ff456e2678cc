package socks5

import (
	"net"
)

// netConn is net.Conn, but private
type netConn net.Conn

type addrPair struct {
	local  net.Addr
	remote net.Addr
}

// ProxyTCPConn represents a proxied TCP connection, implements net.Conn
type ProxyTCPConn struct {
	netConn
	addrPair
}

// [localaddr]----netConn----[proxy]----[remoteaddr]

// RemoteAddr return the target endpoint the caller asked the proxy to
// connect to
func (t *ProxyTCPConn) RemoteAddr() net.Addr {
	return t.remote
}

// LocalAddr return the endpoint the proxy reported bound in its reply.
// It is passthrough metadata, not this host's local address.
func (t *ProxyTCPConn) LocalAddr() net.Addr {
	return t.addrPair.local
}

// ProxyRemoteAddr return the control connection's proxy side address
func (t *ProxyTCPConn) ProxyRemoteAddr() net.Addr {
	return t.netConn.RemoteAddr()
}
