package message

import (
	"bytes"
	"io"
)

// Version is the SOCKS protocol version implemented by this module
const Version byte = 5

// AuthVersion is the username/password subnegotiation version (RFC 1929)
const AuthVersion byte = 1

type CommandCode byte

const (
	CommandConnect CommandCode = 1
	// CommandBind is declared for completeness, this client never issues it
	CommandBind         CommandCode = 2
	CommandUdpAssociate CommandCode = 3
)

type AuthMethod byte

const (
	AuthMethodNone         AuthMethod = 0x00
	AuthMethodUserPass     AuthMethod = 0x02
	AuthMethodNoAcceptable AuthMethod = 0xff
)

// MethodSelection is the client's opening message listing offered
// authentication methods
type MethodSelection struct {
	Methods []AuthMethod
}

func (m *MethodSelection) Marshal() []byte {
	b := &bytes.Buffer{}
	b.WriteByte(Version)
	b.WriteByte(byte(len(m.Methods)))
	for _, method := range m.Methods {
		b.WriteByte(byte(method))
	}
	return b.Bytes()
}

// ParseMethodReplyFrom read the server's method selection reply,
// return the method chosen by the server
func ParseMethodReplyFrom(b io.Reader) (AuthMethod, error) {
	buf := make([]byte, 2)
	if _, err := io.ReadFull(b, buf); err != nil {
		return 0, err
	}
	if buf[0] != Version {
		return 0, ErrVersion{Version: buf[0]}
	}
	return AuthMethod(buf[1]), nil
}

// UserPassRequest is the username/password subnegotiation request
type UserPassRequest struct {
	Username []byte
	Password []byte
}

// NewUserPassRequest build a subnegotiation request,
// both credential fields carry a one byte length prefix on the wire
// so values longer than 255 bytes are rejected outright
func NewUserPassRequest(username, password string) (*UserPassRequest, error) {
	if len(username) > 255 || len(password) > 255 {
		return nil, ErrCredentialTooLong
	}
	return &UserPassRequest{
		Username: []byte(username),
		Password: []byte(password),
	}, nil
}

func (r *UserPassRequest) Marshal() []byte {
	b := &bytes.Buffer{}
	b.WriteByte(AuthVersion)
	b.WriteByte(byte(len(r.Username)))
	b.Write(r.Username)
	b.WriteByte(byte(len(r.Password)))
	b.Write(r.Password)
	return b.Bytes()
}

// ParseUserPassReplyFrom read the subnegotiation reply,
// a nil error means the server accepted the credentials
func ParseUserPassReplyFrom(b io.Reader) error {
	buf := make([]byte, 2)
	if _, err := io.ReadFull(b, buf); err != nil {
		return err
	}
	if buf[0] != AuthVersion {
		return ErrAuthVersion{Version: buf[0]}
	}
	if buf[1] != 0 {
		return ErrAuthenticationFailed
	}
	return nil
}

// Request is the SOCKS5 command request
type Request struct {
	CommandCode CommandCode
	Endpoint    *SocksAddr
}

func (r *Request) Marshal() []byte {
	b := &bytes.Buffer{}
	b.WriteByte(Version)
	b.WriteByte(byte(r.CommandCode))
	b.WriteByte(0)
	b.Write(r.Endpoint.Marshal())
	return b.Bytes()
}

// ParseRequestFrom read a command request, used by test doubles
func ParseRequestFrom(b io.Reader) (*Request, error) {
	buf := make([]byte, 3)
	if _, err := io.ReadFull(b, buf); err != nil {
		return nil, err
	}
	if buf[0] != Version {
		return nil, ErrVersion{Version: buf[0]}
	}
	r := &Request{CommandCode: CommandCode(buf[1])}
	addr, _, err := ParseSocksAddrFrom(b)
	if err != nil {
		return nil, err
	}
	r.Endpoint = addr
	return r, nil
}

type ReplyCode byte

const (
	ReplySuccess ReplyCode = iota
	ReplyGeneralFailure
	ReplyRulesetDenied
	ReplyNetworkUnreachable
	ReplyHostUnreachable
	ReplyConnectionRefused
	ReplyTTLExpired
	ReplyCommandNotSupported
	ReplyAddressNotSupported
)

var replyCodeMessage = map[ReplyCode]string{
	ReplySuccess:             "succeeded",
	ReplyGeneralFailure:      "general SOCKS server failure",
	ReplyRulesetDenied:       "connection not allowed by ruleset",
	ReplyNetworkUnreachable:  "network unreachable",
	ReplyHostUnreachable:     "host unreachable",
	ReplyConnectionRefused:   "connection refused",
	ReplyTTLExpired:          "TTL expired",
	ReplyCommandNotSupported: "command not supported",
	ReplyAddressNotSupported: "address type not supported",
}

func (c ReplyCode) String() string {
	if s, ok := replyCodeMessage[c]; ok {
		return s
	}
	return "unknown proxy error"
}

// Reply is the server's answer to a command request
type Reply struct {
	Code ReplyCode
	// address the proxy bound for this operation,
	// its meaning depends on the command
	Endpoint *SocksAddr
}

func (r *Reply) Marshal() []byte {
	b := &bytes.Buffer{}
	b.WriteByte(Version)
	b.WriteByte(byte(r.Code))
	b.WriteByte(0)
	b.Write(r.Endpoint.Marshal())
	return b.Bytes()
}

func ParseReplyFrom(b io.Reader) (*Reply, error) {
	buf := make([]byte, 3)
	if _, err := io.ReadFull(b, buf); err != nil {
		return nil, err
	}
	if buf[0] != Version {
		return nil, ErrVersion{Version: buf[0]}
	}
	r := &Reply{Code: ReplyCode(buf[1])}
	addr, _, err := ParseSocksAddrFrom(b)
	if err != nil {
		return nil, err
	}
	r.Endpoint = addr
	return r, nil
}
