package message

import (
	"errors"
	"strconv"
)

var ErrMessageProcess = errors.New("message error")

type baseMessageError struct {
	msg string
}

func (e baseMessageError) Error() string {
	return e.msg
}
func (e baseMessageError) Unwrap() error {
	return ErrMessageProcess
}

func newMessageError(msg string) error {
	return baseMessageError{
		msg: msg,
	}
}

var ErrAddressTypeNotSupport = newMessageError("unknown address type")
var ErrAddressTooLong = newMessageError("domain name longer than 255 bytes")
var ErrCredentialTooLong = newMessageError("username or password longer than 255 bytes")
var ErrNoAcceptableMethod = newMessageError("no acceptable authentication method")
var ErrAuthenticationFailed = newMessageError("username/password authentication failed")
var ErrMethodNotOffered = newMessageError("server selected a method client didn't offer")
var ErrFragmentNotSupported = newMessageError("fragmented or reserved-flagged datagram")

// ErrVersion report an unexpected protocol version byte sent by the server,
// either in the method selection reply or in an operation reply
type ErrVersion struct {
	Version byte
}

func (e ErrVersion) Error() string {
	return "version is not 5, got " + strconv.FormatInt(int64(e.Version), 10)
}

func (e ErrVersion) Unwrap() error {
	return ErrMessageProcess
}

func (e ErrVersion) Is(t error) bool {
	_, ok := t.(ErrVersion)
	return ok
}

// ErrAuthVersion report an unexpected username/password subnegotiation
// version byte
type ErrAuthVersion struct {
	Version byte
}

func (e ErrAuthVersion) Error() string {
	return "auth version is not 1, got " + strconv.FormatInt(int64(e.Version), 10)
}

func (e ErrAuthVersion) Unwrap() error {
	return ErrMessageProcess
}

func (e ErrAuthVersion) Is(t error) bool {
	_, ok := t.(ErrAuthVersion)
	return ok
}

// ErrReply report a non success status in the server's operation reply
type ErrReply struct {
	Code ReplyCode
}

func (e ErrReply) Error() string {
	return e.Code.String()
}

func (e ErrReply) Unwrap() error {
	return ErrMessageProcess
}

func (e ErrReply) Is(t error) bool {
	t2, ok := t.(ErrReply)
	return ok && t2.Code == e.Code
}
