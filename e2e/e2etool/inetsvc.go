package e2etool

import (
	"context"
	"io"
	"net"

	"github.com/sockskit/socks5/common/lg"
	"github.com/sockskit/socks5/internal"
)

func Echo(c io.ReadWriteCloser) {
	b := internal.BytesPool4k.Rent()
	defer internal.BytesPool4k.Return(b)
	defer c.Close()
	for {
		n, err := c.Read(b)
		if err != nil {
			return
		}
		_, err = c.Write(b[:n])
		if err != nil {
			return
		}
	}
}

func UEcho(p net.PacketConn, d []byte, a net.Addr) {
	p.WriteTo(d, a)
}

func UDiscard(p net.PacketConn, d []byte, a net.Addr) {
}

// ServeTCP serve f on addr until ctx is done,
// the listener is bound when ServeTCP returns
func ServeTCP(ctx context.Context, addr string, f func(io.ReadWriteCloser)) {
	s := internal.Must2(net.Listen("tcp", addr))
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	go func() {
		for {
			fd, err := s.Accept()
			if err != nil {
				lg.Info("stop e2etool server", err)
				return
			}
			go f(fd)
		}
	}()
}

// ServeUDP serve f on addr until ctx is done,
// the socket is bound when ServeUDP returns
func ServeUDP(ctx context.Context, addr string, f func(p net.PacketConn, d []byte, a net.Addr)) {
	s := internal.Must2(net.ListenPacket("udp", addr))
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	go func() {
		buf := make([]byte, 4096)
		for {
			n, from, err := s.ReadFrom(buf)
			if err != nil {
				lg.Info("stop e2etool server", err)
				return
			}
			go f(s, internal.Dup(buf[:n]), from)
		}
	}()
}
