package socks5

import (
	"context"
	"net"
	"strconv"
	"strings"

	"github.com/sockskit/socks5/internal/socket"
	"github.com/sockskit/socks5/message"
)

// DefaultPort is used when no proxy port is configured
const DefaultPort uint16 = 1080

// DialFunc opens the underlying control connection to the proxy
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Client is a SOCKS5 client. It tunnels TCP connections through the proxy's
// CONNECT command and UDP datagrams through UDP ASSOCIATE.
//
// A Client is immutable after NewClient and safe for concurrent use; every
// Dial or ListenPacket performs its own negotiation on a fresh control
// connection.
type Client struct {
	proxyHost string
	proxyPort uint16
	username  string
	password  string
	withCreds bool
	reuseAddr bool
	dialFunc  DialFunc
}

type Option func(*Client)

// WithPort set the proxy port, 1080 when not given
func WithPort(port uint16) Option {
	return func(c *Client) {
		c.proxyPort = port
	}
}

// WithCredentials offer username/password authentication during negotiation
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
		c.withCreds = true
	}
}

// WithDialFunc replace the function used to open the control connection,
// net.Dialer is used when not given
func WithDialFunc(f DialFunc) Option {
	return func(c *Client) {
		c.dialFunc = f
	}
}

// WithReuseAddr set SO_REUSEADDR on the UDP relay's local socket before bind
func WithReuseAddr() Option {
	return func(c *Client) {
		c.reuseAddr = true
	}
}

func NewClient(proxyHost string, opts ...Option) *Client {
	c := &Client{
		proxyHost: proxyHost,
	}
	for _, o := range opts {
		o(c)
	}
	if c.proxyPort == 0 {
		c.proxyPort = DefaultPort
	}
	if c.dialFunc == nil {
		c.dialFunc = (&net.Dialer{}).DialContext
	}
	return c
}

func (c *Client) proxyAddr() string {
	return net.JoinHostPort(c.proxyHost, strconv.FormatUint(uint64(c.proxyPort), 10))
}

// Dial connect to addr through the proxy, see DialContext
func (c *Client) Dial(network, addr string) (net.Conn, error) {
	return c.DialContext(context.Background(), network, addr)
}

// DialContext negotiate with the proxy, issue a CONNECT request for addr and
// return the tunnel as a net.Conn. The context covers opening the control
// connection only, the established tunnel has no deadline.
func (c *Client) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if !strings.HasPrefix(network, "tcp") {
		return nil, &net.OpError{
			Op:  "dial",
			Net: network,
			Err: net.UnknownNetworkError(network),
		}
	}
	target, err := parseTarget(addr)
	if err != nil {
		return nil, err
	}
	sconn, err := c.negotiate(ctx)
	if err != nil {
		return nil, err
	}
	rep, err := roundTrip(sconn, message.CommandConnect, target)
	if err != nil {
		sconn.Close()
		return nil, err
	}
	return &ProxyTCPConn{
		netConn: sconn,
		addrPair: addrPair{
			local:  rep.Endpoint,
			remote: target,
		},
	}, nil
}

// ListenPacket create a UDP relay through the proxy, see ListenPacketContext
func (c *Client) ListenPacket(network, laddr string) (net.PacketConn, error) {
	return c.ListenPacketContext(context.Background(), network, laddr)
}

// ListenPacketContext bind a local datagram socket on laddr and return it as
// a net.PacketConn immediately. The UDP ASSOCIATE negotiation runs in the
// background, WriteTo and ReadFrom block until it finished one way or the
// other. The context covers the background negotiation.
func (c *Client) ListenPacketContext(ctx context.Context, network, laddr string) (net.PacketConn, error) {
	if !strings.HasPrefix(network, "udp") {
		return nil, &net.OpError{
			Op:  "listen",
			Net: network,
			Err: net.UnknownNetworkError(network),
		}
	}
	lc := net.ListenConfig{}
	if c.reuseAddr {
		lc.Control = socket.ReuseAddr
	}
	pc, err := lc.ListenPacket(ctx, network, laddr)
	if err != nil {
		return nil, err
	}
	u := &ProxyUDPConn{
		conn:  pc,
		ready: make(chan struct{}),
	}
	go u.associate(ctx, c)
	return u, nil
}

// parseTarget turn a host:port string into a SocksAddr,
// an empty host means loopback
func parseTarget(addr string) (*message.SocksAddr, error) {
	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	if h == "" {
		h = "127.0.0.1"
	}
	return message.NewAddr(net.JoinHostPort(h, p))
}
