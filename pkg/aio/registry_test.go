//go:build unix

package aio_test

import (
	"testing"

	"github.com/brickingsoft/hio/pkg/aio"
	"golang.org/x/sys/unix"
)

func newService(t *testing.T, settings aio.Settings) *aio.HandleService {
	t.Helper()
	eng := aio.NewEngine(settings)
	svc := aio.NewHandleService(eng)
	t.Cleanup(func() {
		_ = svc.Close()
		_ = eng.Close()
	})
	return svc
}

func makePipe(t *testing.T) (r int, w int) {
	t.Helper()
	fds := make([]int, 2)
	if err := unix.Pipe(fds); err != nil {
		t.Fatal("pipe:", err)
	}
	return fds[0], fds[1]
}

func makeTempFile(t *testing.T, content []byte) int {
	t.Helper()
	path := t.TempDir() + "/f"
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_CLOEXEC, 0o644)
	if err != nil {
		t.Fatal("open:", err)
	}
	if len(content) > 0 {
		if _, err = unix.Pwrite(fd, content, 0); err != nil {
			t.Fatal("pwrite:", err)
		}
	}
	return fd
}

func TestHandleAttach(t *testing.T) {
	svc := newService(t, aio.Settings{})
	r, w := makePipe(t)
	defer unix.Close(w)

	h := svc.NewHandle()
	if h.IsOpen() {
		t.Error("new handle reports open")
	}
	if err := h.Attach(r); err != nil {
		t.Fatal(err)
	}
	if !h.IsOpen() {
		t.Error("attached handle reports closed")
	}
	if h.Fd() != r {
		t.Error("native value mismatch:", h.Fd(), r)
	}
	attachErr := h.Attach(r)
	if attachErr == nil {
		t.Error("second attach succeeded")
	}
	if !aio.IsAlreadyOpen(attachErr) {
		t.Error("second attach error:", attachErr)
	}
	if err := h.Close(); err != nil {
		t.Error(err)
	}
}

func TestHandleAttachBadFd(t *testing.T) {
	svc := newService(t, aio.Settings{})
	fd := makeTempFile(t, nil)
	_ = unix.Close(fd)

	_, err := svc.Attach(fd)
	if err == nil {
		t.Fatal("attach of closed fd succeeded")
	}
	if !aio.IsAssociationFailed(err) {
		t.Error("attach error:", err)
	}
	if _, err = svc.Attach(-1); err == nil {
		t.Error("attach of invalid fd succeeded")
	}
}

func TestHandleCloseIdempotent(t *testing.T) {
	svc := newService(t, aio.Settings{})
	r, w := makePipe(t)
	defer unix.Close(w)

	h, err := svc.Attach(r)
	if err != nil {
		t.Fatal(err)
	}
	if err = h.Close(); err != nil {
		t.Error("first close:", err)
	}
	if err = h.Close(); err != nil {
		t.Error("second close:", err)
	}
	if h.IsOpen() {
		t.Error("closed handle reports open")
	}
	if h.Fd() != aio.InvalidFd {
		t.Error("closed handle keeps native value")
	}
}

func TestAttachDuringTeardown(t *testing.T) {
	// attach gives the mutex up for the associate call, a teardown landing in
	// that window must not be joined afterwards: either the attach loses with
	// a closed error, or it won and the teardown closed the native handle
	for i := 0; i < 1000; i++ {
		eng := aio.NewEngine(aio.Settings{Cylinders: 1})
		svc := aio.NewHandleService(eng)
		r, w := makePipe(t)
		_ = unix.Close(w)

		h := svc.NewHandle()
		var attachErr error
		done := make(chan struct{})
		go func() {
			attachErr = h.Attach(r)
			close(done)
		}()
		_ = svc.Close()
		<-done

		if attachErr == nil {
			if h.IsOpen() {
				t.Fatal("handle joined a closed registry")
			}
			if _, err := unix.FcntlInt(uintptr(r), unix.F_GETFD, 0); err == nil {
				t.Fatal("native handle leaked past teardown")
			}
		} else {
			if !aio.IsClosed(attachErr) {
				t.Fatal("attach error:", attachErr)
			}
			_ = unix.Close(r)
		}
		_ = eng.Close()
	}
}

func TestServiceTeardownClosesLeakedHandles(t *testing.T) {
	eng := aio.NewEngine(aio.Settings{})
	defer eng.Close()
	svc := aio.NewHandleService(eng)

	fds := make([]int, 0, 6)
	hs := make([]*aio.Handle, 0, 6)
	for i := 0; i < 3; i++ {
		r, w := makePipe(t)
		for _, fd := range []int{r, w} {
			h, err := svc.Attach(fd)
			if err != nil {
				t.Fatal(err)
			}
			fds = append(fds, fd)
			hs = append(hs, h)
		}
	}

	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}
	for _, h := range hs {
		if h.IsOpen() {
			t.Error("handle survived teardown")
		}
	}
	for _, fd := range fds {
		if _, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); err == nil {
			t.Error("native handle leaked:", fd)
		}
	}
	// second teardown is a no-op
	if err := svc.Close(); err != nil {
		t.Error(err)
	}
	// the registry is gone, attach is refused
	fd := makeTempFile(t, nil)
	defer unix.Close(fd)
	if _, err := svc.Attach(fd); err == nil {
		t.Error("attach succeeded after teardown")
	}
}
