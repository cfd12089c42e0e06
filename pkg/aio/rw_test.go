//go:build unix

package aio_test

import (
	"io"
	"sync"
	"testing"

	"github.com/brickingsoft/hio/pkg/aio"
	"golang.org/x/sys/unix"
)

func TestReadWriteAtFile(t *testing.T) {
	svc := newService(t, aio.Settings{})
	fd := makeTempFile(t, nil)

	h, err := svc.Attach(fd)
	if err != nil {
		t.Fatal(err)
	}

	n, err := h.WriteAt([]byte("hello world"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 11 {
		t.Error("write count:", n)
	}

	b := make([]byte, 5)
	n, err = h.ReadAt(b, 6)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 || string(b) != "world" {
		t.Error("positional read got:", n, string(b))
	}

	// stream position is untouched by positional calls
	b = make([]byte, 11)
	n, err = h.Read(b)
	if err != nil {
		t.Fatal(err)
	}
	if n != 11 || string(b[:n]) != "hello world" {
		t.Error("stream read got:", n, string(b[:n]))
	}
	n, err = h.Read(b)
	if err != io.EOF {
		t.Error("read past end:", n, err)
	}
}

func TestReadEOFPreservesCount(t *testing.T) {
	svc := newService(t, aio.Settings{})
	fd := makeTempFile(t, []byte("ping"))

	h, err := svc.Attach(fd)
	if err != nil {
		t.Fatal(err)
	}

	b := make([]byte, 8)
	n, err := h.ReadAt(b, 0)
	if err != nil {
		t.Error("short read reported:", err)
	}
	if n != 4 {
		t.Error("short read count:", n)
	}
	n, err = h.ReadAt(b, 4)
	if err != io.EOF {
		t.Error("exhausted read error:", err)
	}
	if n != 0 {
		t.Error("exhausted read count:", n)
	}
}

func TestZeroLengthRead(t *testing.T) {
	svc := newService(t, aio.Settings{})
	fd := makeTempFile(t, []byte("ping"))

	h, err := svc.Attach(fd)
	if err != nil {
		t.Fatal(err)
	}
	// zero length is not special-cased, the native call decides
	n, err := h.Read(nil)
	if n != 0 || err != nil {
		t.Error("zero length read:", n, err)
	}
}

func TestSyncOnDetachedHandle(t *testing.T) {
	svc := newService(t, aio.Settings{})
	h := svc.NewHandle()
	if _, err := h.Read(make([]byte, 1)); !aio.IsClosed(err) {
		t.Error("detached read error:", err)
	}
	if _, err := h.Write([]byte("x")); !aio.IsClosed(err) {
		t.Error("detached write error:", err)
	}
}

func TestAsyncReadSuccess(t *testing.T) {
	svc := newService(t, aio.Settings{})
	fd := makeTempFile(t, []byte("ping"))

	h, err := svc.Attach(fd)
	if err != nil {
		t.Fatal(err)
	}

	b := make([]byte, 4)
	wg := new(sync.WaitGroup)
	wg.Add(1)
	h.AsyncReadAt(b, 0, func(n int, err error) {
		if err != nil {
			t.Error("async read:", err)
		}
		if n != 4 {
			t.Error("async read count:", n)
		}
		wg.Done()
	})
	wg.Wait()
	if string(b) != "ping" {
		t.Error("async read got:", string(b))
	}
}

func TestAsyncWriteAtConcurrent(t *testing.T) {
	svc := newService(t, aio.Settings{})
	fd := makeTempFile(t, nil)

	h, err := svc.Attach(fd)
	if err != nil {
		t.Fatal(err)
	}

	wg := new(sync.WaitGroup)
	wg.Add(2)
	check := func(n int, err error) {
		if err != nil {
			t.Error("async write:", err)
		}
		if n != 4 {
			t.Error("async write count:", n)
		}
		wg.Done()
	}
	// completion order across the two offsets is unspecified
	h.AsyncWriteAt([]byte("head"), 0, check)
	h.AsyncWriteAt([]byte("tail"), 100, check)
	wg.Wait()

	b := make([]byte, 4)
	if _, err = h.ReadAt(b, 0); err != nil || string(b) != "head" {
		t.Error("offset 0 got:", string(b), err)
	}
	if _, err = h.ReadAt(b, 100); err != nil || string(b) != "tail" {
		t.Error("offset 100 got:", string(b), err)
	}
}

func TestPipeStream(t *testing.T) {
	svc := newService(t, aio.Settings{})
	r, w := makePipe(t)

	rh, err := svc.Attach(r)
	if err != nil {
		t.Fatal(err)
	}
	wh, err := svc.Attach(w)
	if err != nil {
		t.Fatal(err)
	}

	n, err := wh.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatal("pipe write:", n, err)
	}
	b := make([]byte, 8)
	n, err = rh.Read(b)
	if err != nil || n != 5 || string(b[:n]) != "hello" {
		t.Fatal("pipe read:", n, err)
	}

	// write direction of the read end is refused by the native call
	if _, err = rh.Write([]byte("x")); err == nil {
		t.Error("write to read end succeeded")
	}

	if err = wh.Close(); err != nil {
		t.Fatal(err)
	}
	if n, err = rh.Read(b); err != io.EOF {
		t.Error("read after writer closed:", n, err)
	}
}

func TestPartialTransferCount(t *testing.T) {
	svc := newService(t, aio.Settings{})
	r, w := makePipe(t)
	defer unix.Close(w)

	h, err := svc.Attach(r)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = unix.Write(w, []byte("abc")); err != nil {
		t.Fatal(err)
	}
	// the buffer is larger than the available bytes, the count is what the
	// native call reported
	b := make([]byte, 16)
	n, err := h.Read(b)
	if err != nil || n != 3 {
		t.Error("partial read:", n, err)
	}
}
