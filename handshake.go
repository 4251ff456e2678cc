package socks5

import (
	"context"
	"net"

	"github.com/sockskit/socks5/common/lg"
	"github.com/sockskit/socks5/message"
)

// negotiate open a control connection and run method selection plus the
// optional username/password subnegotiation. On any failure the connection
// is closed best-effort and the original error is returned. Exactly one
// attempt per call.
func (c *Client) negotiate(ctx context.Context) (net.Conn, error) {
	sconn, err := c.dialFunc(ctx, "tcp", c.proxyAddr())
	if err != nil {
		return nil, err
	}
	if err := c.selectMethod(sconn); err != nil {
		// close error can't mask the handshake error
		_ = sconn.Close()
		return nil, err
	}
	return sconn, nil
}

func (c *Client) selectMethod(sconn net.Conn) error {
	ms := message.MethodSelection{
		Methods: []message.AuthMethod{message.AuthMethodNone},
	}
	if c.withCreds {
		ms.Methods = append(ms.Methods, message.AuthMethodUserPass)
	}
	if _, err := sconn.Write(ms.Marshal()); err != nil {
		return err
	}
	chosen, err := message.ParseMethodReplyFrom(sconn)
	if err != nil {
		return err
	}
	switch chosen {
	case message.AuthMethodNone:
		return nil
	case message.AuthMethodUserPass:
		if !c.withCreds {
			return message.ErrMethodNotOffered
		}
		return c.subnegotiate(sconn)
	case message.AuthMethodNoAcceptable:
		return message.ErrNoAcceptableMethod
	default:
		lg.Debugf("server chose unsupported method %#x", byte(chosen))
		return message.ErrMethodNotOffered
	}
}

func (c *Client) subnegotiate(sconn net.Conn) error {
	req, err := message.NewUserPassRequest(c.username, c.password)
	if err != nil {
		return err
	}
	if _, err := sconn.Write(req.Marshal()); err != nil {
		return err
	}
	return message.ParseUserPassReplyFrom(sconn)
}

// roundTrip send one command request on a ready control connection and read
// the server's reply. Steps are strictly sequential, the full request is
// written before the reply is read.
func roundTrip(sconn net.Conn, cmd message.CommandCode, target *message.SocksAddr) (*message.Reply, error) {
	req := message.Request{
		CommandCode: cmd,
		Endpoint:    target,
	}
	if _, err := sconn.Write(req.Marshal()); err != nil {
		return nil, err
	}
	rep, err := message.ParseReplyFrom(sconn)
	if err != nil {
		return nil, err
	}
	if rep.Code != message.ReplySuccess {
		return nil, message.ErrReply{Code: rep.Code}
	}
	return rep, nil
}
