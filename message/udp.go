package message

import (
	"bytes"
	"io"
)

// UDPHeader is the framing prepended to every relayed datagram:
// two reserved bytes, one fragment byte, destination or source address,
// then the payload. Fragmentation is not supported.
type UDPHeader struct {
	Endpoint *SocksAddr
	Data     []byte
}

func (h *UDPHeader) Marshal() []byte {
	b := &bytes.Buffer{}
	b.Write([]byte{0, 0, 0})
	b.Write(h.Endpoint.Marshal())
	b.Write(h.Data)
	return b.Bytes()
}

// ParseUDPHeaderFrom deframe one relayed datagram.
// Datagrams with a non zero reserved or fragment byte are rejected with
// ErrFragmentNotSupported, the caller is expected to drop them silently.
func ParseUDPHeaderFrom(b io.Reader) (*UDPHeader, error) {
	buf := make([]byte, 3)
	if _, err := io.ReadFull(b, buf); err != nil {
		return nil, err
	}
	if buf[0] != 0 || buf[1] != 0 || buf[2] != 0 {
		return nil, ErrFragmentNotSupported
	}
	addr, _, err := ParseSocksAddrFrom(b)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(b)
	if err != nil {
		return nil, err
	}
	return &UDPHeader{
		Endpoint: addr,
		Data:     data,
	}, nil
}
