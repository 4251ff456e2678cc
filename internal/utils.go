package internal

import "github.com/sockskit/socks5/common/lg"

// Dup create a duplicate of input byte array
func Dup(i []byte) []byte {
	o := make([]byte, len(i))
	copy(o, i)
	return o
}

// Must2 passthrough first parameter, panic when second parameter is not nil
func Must2[T any](v T, e error) T {
	if e != nil {
		lg.Panic(e)
	}
	return v
}
