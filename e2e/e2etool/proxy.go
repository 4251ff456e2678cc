package e2etool

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"

	"github.com/sockskit/socks5/common/lg"
	"github.com/sockskit/socks5/internal"
	"github.com/sockskit/socks5/message"
)

// Proxy is a minimal in-process SOCKS5 server used as the far end in tests.
// It handles no-auth and username/password negotiation, CONNECT and
// UDP ASSOCIATE, one request per control connection.
type Proxy struct {
	// require username/password when Username is set
	Username string
	Password string
}

// ServeProxy serve p on addr until ctx is done,
// the listener is bound when ServeProxy returns
func ServeProxy(ctx context.Context, addr string, p Proxy) {
	s := internal.Must2(net.Listen("tcp", addr))
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	go func() {
		for {
			fd, err := s.Accept()
			if err != nil {
				lg.Info("stop e2etool proxy", err)
				return
			}
			go func() {
				<-ctx.Done()
				fd.Close()
			}()
			go p.serve(fd)
		}
	}()
}

func (p Proxy) serve(fd net.Conn) {
	defer fd.Close()
	if err := p.handshake(fd); err != nil {
		lg.Info("e2etool proxy handshake", err)
		return
	}
	req, err := message.ParseRequestFrom(fd)
	if err != nil {
		lg.Info("e2etool proxy request", err)
		return
	}
	switch req.CommandCode {
	case message.CommandConnect:
		p.doConnect(fd, req)
	case message.CommandUdpAssociate:
		p.doAssociate(fd)
	default:
		rep := message.Reply{Code: message.ReplyCommandNotSupported, Endpoint: message.DefaultAddr}
		fd.Write(rep.Marshal())
	}
}

func (p Proxy) handshake(fd net.Conn) error {
	buf := make([]byte, 257)
	if _, err := io.ReadFull(fd, buf[:2]); err != nil {
		return err
	}
	n := int(buf[1])
	if _, err := io.ReadFull(fd, buf[:n]); err != nil {
		return err
	}
	if p.Username == "" {
		_, err := fd.Write([]byte{5, byte(message.AuthMethodNone)})
		return err
	}
	if !bytes.Contains(buf[:n], []byte{byte(message.AuthMethodUserPass)}) {
		fd.Write([]byte{5, byte(message.AuthMethodNoAcceptable)})
		return errors.New("client can't do username/password")
	}
	if _, err := fd.Write([]byte{5, byte(message.AuthMethodUserPass)}); err != nil {
		return err
	}
	// ver ulen user plen pass
	if _, err := io.ReadFull(fd, buf[:2]); err != nil {
		return err
	}
	ul := int(buf[1])
	if _, err := io.ReadFull(fd, buf[:ul]); err != nil {
		return err
	}
	user := string(buf[:ul])
	if _, err := io.ReadFull(fd, buf[:1]); err != nil {
		return err
	}
	pl := int(buf[0])
	if _, err := io.ReadFull(fd, buf[:pl]); err != nil {
		return err
	}
	pass := string(buf[:pl])
	if user != p.Username || pass != p.Password {
		fd.Write([]byte{1, 1})
		return errors.New("bad credentials")
	}
	_, err := fd.Write([]byte{1, 0})
	return err
}

func (p Proxy) doConnect(fd net.Conn, req *message.Request) {
	out, err := net.Dial("tcp", req.Endpoint.String())
	if err != nil {
		rep := message.Reply{Code: message.ReplyConnectionRefused, Endpoint: message.DefaultAddr}
		fd.Write(rep.Marshal())
		return
	}
	defer out.Close()
	rep := message.Reply{Code: message.ReplySuccess, Endpoint: message.ConvertAddr(out.LocalAddr())}
	if _, err := fd.Write(rep.Marshal()); err != nil {
		return
	}
	done := make(chan struct{}, 2)
	go func() {
		io.Copy(out, fd)
		out.Close()
		done <- struct{}{}
	}()
	go func() {
		io.Copy(fd, out)
		fd.Close()
		done <- struct{}{}
	}()
	<-done
	<-done
}

func (p Proxy) doAssociate(fd net.Conn) {
	relay, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		rep := message.Reply{Code: message.ReplyGeneralFailure, Endpoint: message.DefaultAddr}
		fd.Write(rep.Marshal())
		return
	}
	defer relay.Close()
	rep := message.Reply{Code: message.ReplySuccess, Endpoint: message.ConvertAddr(relay.LocalAddr())}
	if _, err := fd.Write(rep.Marshal()); err != nil {
		return
	}
	go relayLoop(relay)
	// the association lives exactly as long as the control connection
	buf := make([]byte, 256)
	for {
		if _, err := fd.Read(buf); err != nil {
			return
		}
	}
}

// relayLoop forward client datagrams outward and wrap responses back.
// The first datagram's source is taken as the client.
func relayLoop(relay net.PacketConn) {
	var client net.Addr
	buf := make([]byte, 65536)
	for {
		n, from, err := relay.ReadFrom(buf)
		if err != nil {
			return
		}
		if client == nil {
			client = from
		}
		if from.String() == client.String() {
			h, err := message.ParseUDPHeaderFrom(bytes.NewReader(buf[:n]))
			if err != nil {
				lg.Info("e2etool relay drop", err)
				continue
			}
			dst, err := net.ResolveUDPAddr("udp", h.Endpoint.String())
			if err != nil {
				continue
			}
			relay.WriteTo(h.Data, dst)
		} else {
			h := message.UDPHeader{Endpoint: message.ConvertAddr(from), Data: buf[:n]}
			relay.WriteTo(h.Marshal(), client)
		}
	}
}
