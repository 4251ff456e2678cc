package e2etool

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/sockskit/socks5/internal"
	"github.com/stretchr/testify/assert"
)

func AssertRead(t assert.TestingT, r io.Reader, b []byte) {
	b2 := internal.Dup(b)
	_, err := io.ReadFull(r, b2)
	assert.NoError(t, err)
	assert.Equal(t, b, b2)
}

type canSetRDDL interface {
	SetReadDeadline(t time.Time) error
}

func AssertClosed(t assert.TestingT, r io.Reader) {
	if rr, ok := r.(canSetRDDL); ok {
		assert.NoError(t, rr.SetReadDeadline(time.Now().Add(10*time.Millisecond)))
	}
	b := make([]byte, 1)
	n, err := r.Read(b)
	assert.EqualValues(t, 0, n)
	assert.Error(t, err)
}

func AssertForward(t assert.TestingT, r io.Reader, w io.Writer) {
	l := 1024 * 1024
	data := internal.RandBytes(l)

	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		AssertRead(t, r, data)
		wg.Done()
	}()
	go func() {
		n, err := io.Copy(w, bytes.NewReader(data))
		assert.EqualValues(t, l, n)
		assert.NoError(t, err)
		wg.Done()
	}()
	wg.Wait()
}
