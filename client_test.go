package socks5

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/sockskit/socks5/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func pipeDial(c net.Conn) DialFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return c, nil
	}
}

func expectRead(r io.Reader, want []byte) error {
	got := make([]byte, len(want))
	if _, err := io.ReadFull(r, got); err != nil {
		return err
	}
	if !assert.ObjectsAreEqual(want, got) {
		return fmt.Errorf("read %v, want %v", got, want)
	}
	return nil
}

func expectEOF(r io.Reader) error {
	b := make([]byte, 1)
	if _, err := r.Read(b); err == nil {
		return errors.New("connection still open")
	}
	return nil
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("proxy.test")
	assert.Equal(t, "proxy.test:1080", c.proxyAddr())

	c = NewClient("proxy.test", WithPort(9050))
	assert.Equal(t, "proxy.test:9050", c.proxyAddr())
}

func TestParseTargetDefaultHost(t *testing.T) {
	a, err := parseTarget(":80")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:80", a.String())

	_, err = parseTarget("no-port")
	assert.Error(t, err)
}

func TestDialNoAuth(t *testing.T) {
	cp, sp := net.Pipe()
	defer sp.Close()
	client := NewClient("proxy.test", WithDialFunc(pipeDial(cp)))

	g := errgroup.Group{}
	g.Go(func() error {
		if err := expectRead(sp, []byte{5, 1, 0}); err != nil {
			return err
		}
		if _, err := sp.Write([]byte{5, 0}); err != nil {
			return err
		}
		if err := expectRead(sp, []byte{5, 1, 0, 1, 1, 2, 3, 4, 0x04, 0xd2}); err != nil {
			return err
		}
		if _, err := sp.Write([]byte{5, 0, 0, 1, 1, 2, 3, 4, 0x04, 0xd2}); err != nil {
			return err
		}
		// tunnel writes arrive byte for byte
		return expectRead(sp, []byte("ping"))
	})

	fd, err := client.Dial("tcp", "1.2.3.4:1234")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3.4:1234", fd.RemoteAddr().String())
	assert.Equal(t, "1.2.3.4:1234", fd.LocalAddr().String())
	_, err = fd.Write([]byte("ping"))
	assert.NoError(t, err)
	assert.NoError(t, g.Wait())
	fd.Close()
}

func TestDialMethodReplyVersionMismatch(t *testing.T) {
	cp, sp := net.Pipe()
	defer sp.Close()
	client := NewClient("proxy.test", WithDialFunc(pipeDial(cp)))

	g := errgroup.Group{}
	g.Go(func() error {
		if err := expectRead(sp, []byte{5, 1, 0}); err != nil {
			return err
		}
		if _, err := sp.Write([]byte{4, 0}); err != nil {
			return err
		}
		return expectEOF(sp)
	})

	_, err := client.Dial("tcp", "1.2.3.4:80")
	assert.Equal(t, message.ErrVersion{Version: 4}, err)
	assert.NoError(t, g.Wait())
}

func TestDialReplyVersionMismatch(t *testing.T) {
	cp, sp := net.Pipe()
	defer sp.Close()
	client := NewClient("proxy.test", WithDialFunc(pipeDial(cp)))

	g := errgroup.Group{}
	g.Go(func() error {
		if err := expectRead(sp, []byte{5, 1, 0}); err != nil {
			return err
		}
		if _, err := sp.Write([]byte{5, 0}); err != nil {
			return err
		}
		if err := expectRead(sp, []byte{5, 1, 0, 1, 1, 2, 3, 4, 0, 80}); err != nil {
			return err
		}
		if _, err := sp.Write([]byte{4, 0, 0, 1, 0, 0, 0, 0, 0, 0}); err != nil {
			return err
		}
		return expectEOF(sp)
	})

	_, err := client.Dial("tcp", "1.2.3.4:80")
	assert.Equal(t, message.ErrVersion{Version: 4}, err)
	assert.NoError(t, g.Wait())
}

func TestDialNoAcceptableMethod(t *testing.T) {
	cp, sp := net.Pipe()
	defer sp.Close()
	client := NewClient("proxy.test", WithDialFunc(pipeDial(cp)))

	g := errgroup.Group{}
	g.Go(func() error {
		if err := expectRead(sp, []byte{5, 1, 0}); err != nil {
			return err
		}
		if _, err := sp.Write([]byte{5, 0xff}); err != nil {
			return err
		}
		// negotiation failure must close the control connection
		return expectEOF(sp)
	})

	_, err := client.Dial("tcp", "1.2.3.4:80")
	assert.ErrorIs(t, err, message.ErrNoAcceptableMethod)
	assert.NoError(t, g.Wait())
}

func TestDialUserPass(t *testing.T) {
	cp, sp := net.Pipe()
	defer sp.Close()
	client := NewClient("proxy.test",
		WithDialFunc(pipeDial(cp)),
		WithCredentials("user", "pass"))

	g := errgroup.Group{}
	g.Go(func() error {
		if err := expectRead(sp, []byte{5, 2, 0, 2}); err != nil {
			return err
		}
		if _, err := sp.Write([]byte{5, 2}); err != nil {
			return err
		}
		// credentials pass through unmodified
		if err := expectRead(sp, []byte{1, 4, 'u', 's', 'e', 'r', 4, 'p', 'a', 's', 's'}); err != nil {
			return err
		}
		if _, err := sp.Write([]byte{1, 0}); err != nil {
			return err
		}
		if err := expectRead(sp, []byte{5, 1, 0, 1, 1, 2, 3, 4, 0, 80}); err != nil {
			return err
		}
		_, err := sp.Write([]byte{5, 0, 0, 1, 0, 0, 0, 0, 0, 0})
		return err
	})

	fd, err := client.Dial("tcp", "1.2.3.4:80")
	require.NoError(t, err)
	assert.NoError(t, g.Wait())
	fd.Close()
}

func TestDialAuthenticationFailed(t *testing.T) {
	cp, sp := net.Pipe()
	defer sp.Close()
	client := NewClient("proxy.test",
		WithDialFunc(pipeDial(cp)),
		WithCredentials("user", "pass"))

	g := errgroup.Group{}
	g.Go(func() error {
		if err := expectRead(sp, []byte{5, 2, 0, 2}); err != nil {
			return err
		}
		if _, err := sp.Write([]byte{5, 2}); err != nil {
			return err
		}
		if err := expectRead(sp, []byte{1, 4, 'u', 's', 'e', 'r', 4, 'p', 'a', 's', 's'}); err != nil {
			return err
		}
		if _, err := sp.Write([]byte{1, 1}); err != nil {
			return err
		}
		return expectEOF(sp)
	})

	_, err := client.Dial("tcp", "1.2.3.4:80")
	assert.ErrorIs(t, err, message.ErrAuthenticationFailed)
	assert.NoError(t, g.Wait())
}

func TestDialAuthVersionMismatch(t *testing.T) {
	cp, sp := net.Pipe()
	defer sp.Close()
	client := NewClient("proxy.test",
		WithDialFunc(pipeDial(cp)),
		WithCredentials("user", "pass"))

	g := errgroup.Group{}
	g.Go(func() error {
		if err := expectRead(sp, []byte{5, 2, 0, 2}); err != nil {
			return err
		}
		if _, err := sp.Write([]byte{5, 2}); err != nil {
			return err
		}
		if err := expectRead(sp, []byte{1, 4, 'u', 's', 'e', 'r', 4, 'p', 'a', 's', 's'}); err != nil {
			return err
		}
		if _, err := sp.Write([]byte{3, 0}); err != nil {
			return err
		}
		return expectEOF(sp)
	})

	_, err := client.Dial("tcp", "1.2.3.4:80")
	assert.Equal(t, message.ErrAuthVersion{Version: 3}, err)
	assert.NoError(t, g.Wait())
}

func TestDialCredentialTooLong(t *testing.T) {
	cp, sp := net.Pipe()
	defer sp.Close()
	client := NewClient("proxy.test",
		WithDialFunc(pipeDial(cp)),
		WithCredentials(strings.Repeat("u", 256), "pass"))

	g := errgroup.Group{}
	g.Go(func() error {
		if err := expectRead(sp, []byte{5, 2, 0, 2}); err != nil {
			return err
		}
		if _, err := sp.Write([]byte{5, 2}); err != nil {
			return err
		}
		return expectEOF(sp)
	})

	_, err := client.Dial("tcp", "1.2.3.4:80")
	assert.ErrorIs(t, err, message.ErrCredentialTooLong)
	assert.NoError(t, g.Wait())
}

func TestDialMethodNotOffered(t *testing.T) {
	cp, sp := net.Pipe()
	defer sp.Close()
	client := NewClient("proxy.test", WithDialFunc(pipeDial(cp)))

	g := errgroup.Group{}
	g.Go(func() error {
		if err := expectRead(sp, []byte{5, 1, 0}); err != nil {
			return err
		}
		if _, err := sp.Write([]byte{5, 2}); err != nil {
			return err
		}
		return expectEOF(sp)
	})

	_, err := client.Dial("tcp", "1.2.3.4:80")
	assert.ErrorIs(t, err, message.ErrMethodNotOffered)
	assert.NoError(t, g.Wait())
}

func TestDialProxyErrorStatus(t *testing.T) {
	tests := []struct {
		status byte
		msg    string
	}{
		{1, "general SOCKS server failure"},
		{4, "host unreachable"},
		{7, "command not supported"},
		{0x55, "unknown proxy error"},
	}
	for _, tt := range tests {
		cp, sp := net.Pipe()
		client := NewClient("proxy.test", WithDialFunc(pipeDial(cp)))

		g := errgroup.Group{}
		g.Go(func() error {
			if err := expectRead(sp, []byte{5, 1, 0}); err != nil {
				return err
			}
			if _, err := sp.Write([]byte{5, 0}); err != nil {
				return err
			}
			if err := expectRead(sp, []byte{5, 1, 0, 1, 1, 2, 3, 4, 0, 80}); err != nil {
				return err
			}
			if _, err := sp.Write([]byte{5, tt.status, 0, 1, 0, 0, 0, 0, 0, 0}); err != nil {
				return err
			}
			return expectEOF(sp)
		})

		_, err := client.Dial("tcp", "1.2.3.4:80")
		assert.EqualError(t, err, tt.msg)
		var re message.ErrReply
		if assert.ErrorAs(t, err, &re) {
			assert.EqualValues(t, tt.status, re.Code)
		}
		assert.NoError(t, g.Wait())
		sp.Close()
	}
}

func TestDialShortReply(t *testing.T) {
	cp, sp := net.Pipe()
	client := NewClient("proxy.test", WithDialFunc(pipeDial(cp)))

	g := errgroup.Group{}
	g.Go(func() error {
		if err := expectRead(sp, []byte{5, 1, 0}); err != nil {
			return err
		}
		// stream ends mid reply
		if _, err := sp.Write([]byte{5}); err != nil {
			return err
		}
		return sp.Close()
	})

	_, err := client.Dial("tcp", "1.2.3.4:80")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NoError(t, g.Wait())
}

func TestListenPacketUnsupportedNetwork(t *testing.T) {
	client := NewClient("proxy.test")
	_, err := client.ListenPacket("tcp", ":0")
	assert.Error(t, err)
}
