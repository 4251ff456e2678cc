package message

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"strconv"

	"github.com/sockskit/socks5/common/lg"
	"github.com/sockskit/socks5/internal"
	"golang.org/x/net/idna"
)

type AddressType byte

const (
	AddressTypeIPv4       AddressType = 1
	AddressTypeDomainName AddressType = 3
	AddressTypeIPv6       AddressType = 4
)

// SocksAddr is the address and port carried in SOCKS5 requests, replies and
// UDP relay headers.
type SocksAddr struct {
	// address' type
	AddressType AddressType
	// actual address,
	// if AddressType is IPv4/IPv6, contains IP address byte.
	// If AddressType is DomainName, contains domain name in punycode encoded format without leading length byte.
	Address []byte
	// port used by transport layer protocol
	Port uint16
}

// AddrIPv4Zero is 0.0.0.0:0 in SocksAddr format
var AddrIPv4Zero *SocksAddr = &SocksAddr{
	AddressType: AddressTypeIPv4,
	Address:     []byte{0, 0, 0, 0},
	Port:        0,
}

// DefaultAddr is 0.0.0.0:0 in SocksAddr format
var DefaultAddr *SocksAddr = AddrIPv4Zero

// ParseAddr parse address string to SocksAddr
// panic when error
func ParseAddr(addr string) *SocksAddr {
	r, err := NewAddr(addr)
	if err != nil {
		lg.Panic("can't parse address", addr, err)
	}
	return r
}

// ConvertAddr try to convert net.Addr to SocksAddr
func ConvertAddr(addr net.Addr) *SocksAddr {
	var ip net.IP
	var port int
	if addr == nil {
		return DefaultAddr
	}
	switch a := addr.(type) {
	case *net.TCPAddr:
		ip = a.IP
		port = a.Port
	case *net.UDPAddr:
		ip = a.IP
		port = a.Port
	case *SocksAddr:
		return a
	default:
		return ParseAddr(addr.String())
	}
	// only TCP/UDPAddr can reach here
	// convert IP address to avoid unnecessary use of IPv6
	af := AddressTypeIPv6
	if ip4 := ip.To4(); ip4 != nil {
		af = AddressTypeIPv4
		ip = ip4
	}
	return &SocksAddr{
		AddressType: af,
		Address:     ip,
		Port:        uint16(port),
	}
}

// NewAddr parse address string to SocksAddr
func NewAddr(address string) (*SocksAddr, error) {
	h, p, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	port, err := strconv.ParseUint(p, 10, 16)
	if err != nil {
		return nil, err
	}
	var atyp AddressType
	var addr []byte
	// no host part, assume ipv4
	if len(h) == 0 {
		atyp = AddressTypeIPv4
		addr = []byte{0, 0, 0, 0}
	} else if ip := net.ParseIP(h); ip != nil {
		// is ip address
		if ip4 := ip.To4(); ip4 != nil {
			// is ipv4, use 4 byte IP
			atyp = AddressTypeIPv4
			addr = ip4
		} else {
			// ipv6
			atyp = AddressTypeIPv6
			addr = ip
		}
	} else {
		// is domain name
		// convert to punycode encoded format
		asc, err := idna.ToASCII(h)
		if err != nil {
			return nil, err
		}
		// one byte length prefix on the wire, never truncate
		if len(asc) > 255 {
			return nil, ErrAddressTooLong
		}
		atyp = AddressTypeDomainName
		addr = internal.Dup([]byte(asc))
	}
	return &SocksAddr{
		AddressType: atyp,
		Address:     addr,
		Port:        uint16(port),
	}, nil
}

// Network implements net.Addr, always return "socks5"
func (a *SocksAddr) Network() string {
	return "socks5"
}

// String implements net.Addr
func (a *SocksAddr) String() string {
	var h string
	switch a.AddressType {
	case AddressTypeIPv4, AddressTypeIPv6:
		h = net.IP(a.Address).String()
	case AddressTypeDomainName:
		h = string(a.Address)
	}
	return net.JoinHostPort(h, strconv.FormatInt(int64(a.Port), 10))
}

// Marshal encode address to SOCKS5 wire format,
// [type][address][port], port in network byte order,
// domain name prefixed with one length byte
func (a *SocksAddr) Marshal() []byte {
	b := &bytes.Buffer{}
	b.WriteByte(byte(a.AddressType))

	if a.AddressType == AddressTypeDomainName {
		if len(a.Address) > 255 {
			lg.Panic("domain name too long")
		}
		b.WriteByte(byte(len(a.Address)))
	}
	b.Write(a.Address)
	binary.Write(b, binary.BigEndian, a.Port)
	return b.Bytes()
}

// ParseSocksAddrFrom read an address in SOCKS5 wire format,
// return parsed address and count of bytes consumed.
// Always read full expected length, a stream ending early is an error,
// reported as io.ErrUnexpectedEOF by io.ReadFull.
func ParseSocksAddrFrom(b io.Reader) (*SocksAddr, int, error) {
	// 1 type + 1 len + 255 address + 2 port covers the longest encoding
	buf := make([]byte, 259)
	a := &SocksAddr{}
	if _, err := io.ReadFull(b, buf[:1]); err != nil {
		return nil, 0, err
	}
	a.AddressType = AddressType(buf[0])
	nConsume := 1
	l := byte(4)

	if a.AddressType == AddressTypeDomainName {
		if _, err := io.ReadFull(b, buf[:1]); err != nil {
			return nil, nConsume, err
		}
		l = buf[0]
		nConsume++
	} else {
		switch a.AddressType {
		case AddressTypeIPv6:
			l = 16
		case AddressTypeIPv4:
			l = 4
		default:
			return nil, nConsume, ErrAddressTypeNotSupport
		}
	}
	if _, err := io.ReadFull(b, buf[:int(l)+2]); err != nil {
		return nil, nConsume, err
	}
	a.Address = internal.Dup(buf[:l])
	a.Port = binary.BigEndian.Uint16(buf[l:])
	nConsume += int(l) + 2
	return a, nConsume, nil
}
