package internal

import (
	"crypto/rand"
	"encoding/binary"
)

func RandUint16() uint16 {
	return binary.BigEndian.Uint16(RandBytes(2))
}

func RandBytes(l int) []byte {
	r := make([]byte, l)
	Must2(rand.Read(r))
	return r
}
