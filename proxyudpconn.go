package socks5

import (
	"bytes"
	"context"
	"net"
	"sync"
	"time"

	"github.com/sockskit/socks5/common/lg"
	"github.com/sockskit/socks5/internal"
	"github.com/sockskit/socks5/message"
)

// ProxyUDPConn represents a UDP ASSOCIATE relay through the proxy,
// implements net.PacketConn.
//
// The local datagram socket exists from creation on, the association
// (negotiation plus UDP ASSOCIATE round trip) runs in the background.
// The socket and its control connection live and die as a pair: when the
// proxy drops the control connection the socket is closed, and Close tears
// down both.
type ProxyUDPConn struct {
	conn net.PacketConn // local datagram socket

	ready    chan struct{} // closed when the association attempt finished
	assocErr error         // valid once ready is closed

	mu        sync.Mutex
	base      net.Conn // control connection, set on association success
	relayAddr net.Addr // proxy's relay endpoint from the reply
	closed    bool
	closeDone bool
	closeErr  error
}

// associate run the negotiation for this relay. It is started exactly once
// per ProxyUDPConn, every caller blocked in waitReady observes its outcome.
func (u *ProxyUDPConn) associate(ctx context.Context, c *Client) {
	defer close(u.ready)

	sconn, err := c.negotiate(ctx)
	if err != nil {
		u.assocErr = err
		u.closeBoth()
		return
	}
	rep, err := roundTrip(sconn, message.CommandUdpAssociate, message.ConvertAddr(u.conn.LocalAddr()))
	if err != nil {
		u.assocErr = err
		_ = sconn.Close()
		u.closeBoth()
		return
	}
	raddr, err := net.ResolveUDPAddr("udp", rep.Endpoint.String())
	if err != nil {
		u.assocErr = err
		_ = sconn.Close()
		u.closeBoth()
		return
	}

	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		_ = sconn.Close()
		u.assocErr = net.ErrClosed
		return
	}
	u.base = sconn
	u.relayAddr = raddr
	u.mu.Unlock()

	lg.Debugf("udp associate ready, relay endpoint %s", raddr)
	go u.watch(sconn)
}

// watch hold the relay open only while the control connection is alive
func (u *ProxyUDPConn) watch(sconn net.Conn) {
	buf := internal.BytesPool256.Rent()
	defer internal.BytesPool256.Return(buf)
	for {
		if _, err := sconn.Read(buf); err != nil {
			lg.Debug("udp associate control connection is down", err)
			u.closeBoth()
			return
		}
	}
}

func (u *ProxyUDPConn) waitReady(op string) error {
	<-u.ready
	if u.assocErr != nil {
		return u.opError(op, u.assocErr)
	}
	return nil
}

// ReadFrom implements net.PacketConn. Datagrams that fail to deframe,
// fragmented ones included, are dropped without being delivered.
func (u *ProxyUDPConn) ReadFrom(p []byte) (int, net.Addr, error) {
	if err := u.waitReady("read"); err != nil {
		return 0, nil, err
	}
	buf := internal.BytesPool64k.Rent()
	defer internal.BytesPool64k.Return(buf)
	for {
		n, _, err := u.conn.ReadFrom(buf)
		if err != nil {
			return 0, nil, u.opError("read", err)
		}
		h, err := message.ParseUDPHeaderFrom(bytes.NewReader(buf[:n]))
		if err != nil {
			lg.Debug("dropping relay datagram", err)
			continue
		}
		return copy(p, h.Data), h.Endpoint, nil
	}
}

// WriteTo implements net.PacketConn, framing p for addr and sending the
// datagram to the proxy's relay endpoint
func (u *ProxyUDPConn) WriteTo(p []byte, addr net.Addr) (int, error) {
	if err := u.waitReady("write"); err != nil {
		return 0, err
	}
	h := message.UDPHeader{
		Endpoint: message.ConvertAddr(addr),
		Data:     p,
	}
	if _, err := u.conn.WriteTo(h.Marshal(), u.relayAddr); err != nil {
		return 0, u.opError("write", err)
	}
	return len(p), nil
}

// Close tear down the local socket and the control connection. Both are
// attempted even when the first fails, the first error wins.
func (u *ProxyUDPConn) Close() error {
	return u.closeBoth()
}

func (u *ProxyUDPConn) closeBoth() error {
	u.mu.Lock()
	if u.closeDone {
		defer u.mu.Unlock()
		return u.closeErr
	}
	u.closeDone = true
	u.closed = true
	base := u.base
	u.mu.Unlock()

	err := u.conn.Close()
	if base != nil {
		if e2 := base.Close(); err == nil {
			err = e2
		}
	}

	u.mu.Lock()
	u.closeErr = err
	u.mu.Unlock()
	return err
}

// LocalAddr return the local datagram socket's bound address
func (u *ProxyUDPConn) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

// ProxyBindAddr return the relay endpoint designated by the proxy,
// nil until the association is ready
func (u *ProxyUDPConn) ProxyBindAddr() net.Addr {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.relayAddr
}

func (u *ProxyUDPConn) SetDeadline(t time.Time) error {
	return u.conn.SetDeadline(t)
}
func (u *ProxyUDPConn) SetReadDeadline(t time.Time) error {
	return u.conn.SetReadDeadline(t)
}
func (u *ProxyUDPConn) SetWriteDeadline(t time.Time) error {
	return u.conn.SetWriteDeadline(t)
}

func (u *ProxyUDPConn) opError(op string, err error) error {
	u.mu.Lock()
	raddr := u.relayAddr
	u.mu.Unlock()
	return &net.OpError{
		Op:     op,
		Net:    "socks5",
		Source: u.conn.LocalAddr(),
		Addr:   raddr,
		Err:    err,
	}
}
