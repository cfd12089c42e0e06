//go:build unix

package aio

import (
	"github.com/brickingsoft/errors"
)

type transfer struct {
	n   int
	err error
}

// Read reads at the handle's current position, blocking until the native
// completion arrives. Zero length buffers follow the native call's own
// semantics. Synchronous operations do not touch the cancellation owner.
func (h *Handle) Read(b []byte) (n int, err error) {
	return h.submitAndWait(readOperation, false, 0, b)
}

// ReadAt reads at an explicit offset.
func (h *Handle) ReadAt(b []byte, offset int64) (n int, err error) {
	return h.submitAndWait(readOperation, true, offset, b)
}

// Write writes at the handle's current position, blocking until the native
// completion arrives.
func (h *Handle) Write(b []byte) (n int, err error) {
	return h.submitAndWait(writeOperation, false, 0, b)
}

// WriteAt writes at an explicit offset.
func (h *Handle) WriteAt(b []byte, offset int64) (n int, err error) {
	return h.submitAndWait(writeOperation, true, offset, b)
}

func (h *Handle) submitAndWait(kind uint8, positional bool, offset int64, b []byte) (n int, err error) {
	svc := h.service
	svc.mu.Lock()
	fd := h.fd
	svc.mu.Unlock()
	if fd == InvalidFd {
		err = errors.New(
			"handle is not open",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, opName(kind)),
			errors.WithWrap(ErrClosed),
		)
		return
	}
	done := make(chan transfer, 1)
	op := acquireOperation()
	cb := func(n int, err error) {
		done <- transfer{n: n, err: err}
	}
	if kind == readOperation {
		op.prepareRead(h, fd, positional, offset, b, cb)
	} else {
		op.prepareWrite(h, fd, positional, offset, b, cb)
	}
	svc.engine.Submit(op)
	result := <-done
	n, err = result.n, result.err
	return
}

// AsyncRead starts an asynchronous read at the handle's current position.
// The backing storage of b must stay valid and unmoved until the callback
// runs. The callback is invoked exactly once, on an engine worker, never
// from within this call; completion order across concurrent operations on
// one handle is not guaranteed. An empty buffer is not supported on the
// asynchronous path and is reported through the callback as ErrEmptyBytes.
func (h *Handle) AsyncRead(b []byte, cb OperationCallback) {
	h.submitAsync(readOperation, false, 0, b, cb)
}

// AsyncReadAt starts an asynchronous read at an explicit offset.
func (h *Handle) AsyncReadAt(b []byte, offset int64, cb OperationCallback) {
	h.submitAsync(readOperation, true, offset, b, cb)
}

// AsyncWrite starts an asynchronous write at the handle's current position.
// Contract as in AsyncRead.
func (h *Handle) AsyncWrite(b []byte, cb OperationCallback) {
	h.submitAsync(writeOperation, false, 0, b, cb)
}

// AsyncWriteAt starts an asynchronous write at an explicit offset.
func (h *Handle) AsyncWriteAt(b []byte, offset int64, cb OperationCallback) {
	h.submitAsync(writeOperation, true, offset, b, cb)
}

func (h *Handle) submitAsync(kind uint8, positional bool, offset int64, b []byte, cb OperationCallback) {
	svc := h.service
	svc.mu.Lock()
	fd := h.fd
	svc.mu.Unlock()
	op := acquireOperation()
	if fd == InvalidFd {
		op.prepareFailure(kind, cb, errors.New(
			"handle is not open",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, opName(kind)),
			errors.WithWrap(ErrClosed),
		))
		svc.engine.Submit(op)
		return
	}
	if len(b) == 0 {
		op.prepareFailure(kind, cb, errors.New(
			"empty buffer",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, opName(kind)),
			errors.WithWrap(ErrEmptyBytes),
		))
		svc.engine.Submit(op)
		return
	}
	h.updateCancelOwner()
	if kind == readOperation {
		op.prepareRead(h, fd, positional, offset, b, cb)
	} else {
		op.prepareWrite(h, fd, positional, offset, b, cb)
	}
	svc.engine.Submit(op)
}

func opName(kind uint8) string {
	if kind == readOperation {
		return errMetaOpRead
	}
	return errMetaOpWrite
}
