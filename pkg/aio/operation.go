//go:build unix

package aio

import (
	"io"
	"sync"
	"sync/atomic"
	"unsafe"
)

const (
	readOperation uint8 = iota + 1
	writeOperation
)

const (
	readyOperationStatus int64 = iota
	submittedOperationStatus
	abortedOperationStatus
	completedOperationStatus
)

var (
	operations = sync.Pool{New: func() interface{} {
		return &Operation{}
	}}
	bufferDebugging atomic.Bool
)

// BufferDebugging
// 开启后在完成时校验缓冲视图未被调用方变更，变更视为编程错误并触发恐慌。
func BufferDebugging(enabled bool) {
	bufferDebugging.Store(enabled)
}

func acquireOperation() *Operation {
	op := operations.Get().(*Operation)
	return op
}

func releaseOperation(op *Operation) {
	op.reset()
	operations.Put(op)
}

// Operation
// 一次在途异步调用对应一个操作对象。
// 持有缓冲视图的副本与用户回调，缓冲本体不被持有，调用方须保证其在完成前有效。
type Operation struct {
	status        atomic.Int64
	kind          uint8
	positional    bool
	zeroReadIsEOF bool
	fd            int
	offset        int64
	b             []byte
	failure       error
	debugAddr     unsafe.Pointer
	debugLen      int
	callback      OperationCallback
}

func (op *Operation) prepareRead(h *Handle, fd int, positional bool, offset int64, b []byte, cb OperationCallback) {
	op.kind = readOperation
	op.zeroReadIsEOF = h.zeroReadIsEOF
	op.fd = fd
	op.positional = positional
	op.offset = offset
	op.b = b
	op.callback = cb
	if bufferDebugging.Load() {
		op.captureBufferExtent()
	}
	op.status.Store(submittedOperationStatus)
}

func (op *Operation) prepareWrite(h *Handle, fd int, positional bool, offset int64, b []byte, cb OperationCallback) {
	op.kind = writeOperation
	op.fd = fd
	op.positional = positional
	op.offset = offset
	op.b = b
	op.callback = cb
	if bufferDebugging.Load() {
		op.captureBufferExtent()
	}
	op.status.Store(submittedOperationStatus)
}

// prepareFailure builds an operation whose only job is to carry err through
// the engine dispatch, keeping the never-inline-callback contract for
// submissions that fail before any native call.
func (op *Operation) prepareFailure(kind uint8, cb OperationCallback, err error) {
	op.kind = kind
	op.fd = InvalidFd
	op.failure = err
	op.callback = cb
	op.status.Store(submittedOperationStatus)
}

func (op *Operation) abort() bool {
	return op.status.CompareAndSwap(submittedOperationStatus, abortedOperationStatus)
}

func (op *Operation) aborted() bool {
	return op.status.Load() == abortedOperationStatus
}

// complete is the single completion entry, invoked at most once per
// operation. attached is false when the engine is shutting down: the
// operation is then reclaimed without the upcall. The operation's memory is
// released strictly before the callback runs, so a callback starting a new
// operation never observes its own operation as live.
func (op *Operation) complete(attached bool, n int, err error) {
	if !op.status.CompareAndSwap(submittedOperationStatus, completedOperationStatus) {
		if !op.status.CompareAndSwap(abortedOperationStatus, completedOperationStatus) {
			return
		}
	}
	if attached && bufferDebugging.Load() {
		op.validateBufferExtent()
	}
	if op.kind == readOperation {
		err = op.eofError(n, err)
	}
	cb := op.callback
	releaseOperation(op)
	if attached && cb != nil {
		cb(n, err)
	}
}

// eofError maps a zero length transfer into a non empty buffer to io.EOF.
// Read side only, the count reported by the native call is preserved.
func (op *Operation) eofError(n int, err error) error {
	if n == 0 && err == nil && len(op.b) > 0 && op.zeroReadIsEOF {
		return io.EOF
	}
	return err
}

func (op *Operation) captureBufferExtent() {
	if len(op.b) > 0 {
		op.debugAddr = unsafe.Pointer(&op.b[0])
	} else {
		op.debugAddr = nil
	}
	op.debugLen = len(op.b)
}

func (op *Operation) validateBufferExtent() {
	addr := unsafe.Pointer(nil)
	if len(op.b) > 0 {
		addr = unsafe.Pointer(&op.b[0])
	}
	if addr != op.debugAddr || len(op.b) != op.debugLen {
		panic("aio: buffer was modified while an operation was pending")
	}
}

func (op *Operation) reset() {
	op.kind = 0
	op.positional = false
	op.zeroReadIsEOF = false
	op.fd = InvalidFd
	op.offset = 0
	op.b = nil
	op.failure = nil
	op.debugAddr = nil
	op.debugLen = 0
	op.callback = nil
	op.status.Store(readyOperationStatus)
}
