//go:build unix

package aio

import (
	"os"
	"runtime"
	"sync"

	"github.com/brickingsoft/errors"
	"github.com/eapache/queue"
	"golang.org/x/sys/unix"
)

// NewEngine
// 构建默认引擎：工作协程池从提交队列取出操作，在工作协程上执行原生调用并
// 调用操作的完成入口。队列的互斥交接保证了工作协程的写入先行于用户回调。
func NewEngine(settings Settings) Engine {
	cylinders := settings.Cylinders
	if cylinders < 1 {
		cylinders = runtime.NumCPU() * 2
	}
	eng := &proactorEngine{
		bulkCancel: settings.BulkCancel,
		fifo:       queue.New(),
		notify:     make(chan struct{}, 1),
		pending:    make(map[int][]*Operation),
	}
	for i := 0; i < cylinders; i++ {
		eng.wg.Add(1)
		go eng.loop()
	}
	return eng
}

type proactorEngine struct {
	bulkCancel bool
	mu         sync.Mutex
	fifo       *queue.Queue
	notify     chan struct{}
	pending    map[int][]*Operation
	closed     bool
	wg         sync.WaitGroup
}

func (eng *proactorEngine) Associate(fd int) (err error) {
	if fd < 0 {
		err = errors.New(
			"associate failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpAssociate),
			errors.WithWrap(errors.Define("invalid handle value")),
		)
		return
	}
	if _, fcntlErr := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); fcntlErr != nil {
		err = errors.New(
			"associate failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpAssociate),
			errors.WithWrap(os.NewSyscallError("fcntl", fcntlErr)),
		)
		return
	}
	return
}

func (eng *proactorEngine) Submit(op *Operation) {
	eng.mu.Lock()
	if eng.closed {
		eng.mu.Unlock()
		op.complete(false, 0, ErrOperationAborted)
		return
	}
	eng.fifo.Add(op)
	if op.fd != InvalidFd {
		eng.pending[op.fd] = append(eng.pending[op.fd], op)
	}
	select {
	case eng.notify <- struct{}{}:
	default:
	}
	eng.mu.Unlock()
}

func (eng *proactorEngine) Cancel(fd int) {
	eng.mu.Lock()
	// abort under the mutex: an op still in pending is still queued, workers
	// take ops out of pending under this same mutex before executing them, so
	// none of these can be released back to the pool yet
	for _, op := range eng.pending[fd] {
		op.abort()
	}
	delete(eng.pending, fd)
	eng.mu.Unlock()
}

func (eng *proactorEngine) SupportsBulkCancel() bool {
	return eng.bulkCancel
}

// Close stops the cylinders and drains the submission queue. Drained
// operations complete detached from the engine: their memory is reclaimed,
// their callbacks are not invoked.
func (eng *proactorEngine) Close() (err error) {
	eng.mu.Lock()
	if eng.closed {
		eng.mu.Unlock()
		return
	}
	eng.closed = true
	drained := make([]*Operation, 0, eng.fifo.Length())
	for eng.fifo.Length() > 0 {
		drained = append(drained, eng.fifo.Remove().(*Operation))
	}
	eng.pending = make(map[int][]*Operation)
	close(eng.notify)
	eng.mu.Unlock()
	eng.wg.Wait()
	for _, op := range drained {
		op.complete(false, 0, ErrOperationAborted)
	}
	return
}

func (eng *proactorEngine) loop() {
	defer eng.wg.Done()
	for {
		eng.mu.Lock()
		if eng.fifo.Length() == 0 {
			closed := eng.closed
			eng.mu.Unlock()
			if closed {
				return
			}
			<-eng.notify
			continue
		}
		op := eng.fifo.Remove().(*Operation)
		if op.fd != InvalidFd {
			eng.removePending(op)
		}
		eng.mu.Unlock()
		eng.execute(op)
	}
}

// removePending must be called with the engine mutex held.
func (eng *proactorEngine) removePending(op *Operation) {
	ops := eng.pending[op.fd]
	for i := range ops {
		if ops[i] == op {
			ops = append(ops[:i], ops[i+1:]...)
			break
		}
	}
	if len(ops) == 0 {
		delete(eng.pending, op.fd)
	} else {
		eng.pending[op.fd] = ops
	}
}

func (eng *proactorEngine) execute(op *Operation) {
	if failure := op.failure; failure != nil {
		op.complete(true, 0, failure)
		return
	}
	if op.aborted() {
		op.complete(true, 0, errors.New(
			"operation aborted",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, opName(op.kind)),
			errors.WithWrap(ErrOperationAborted),
		))
		return
	}
	var (
		n   int
		err error
	)
	switch op.kind {
	case readOperation:
		if op.positional {
			n, err = sysPread(op.fd, op.b, op.offset)
			if err != nil {
				err = os.NewSyscallError("pread", err)
			}
		} else {
			n, err = sysRead(op.fd, op.b)
			if err != nil {
				err = os.NewSyscallError("read", err)
			}
		}
	case writeOperation:
		if op.positional {
			n, err = sysPwrite(op.fd, op.b, op.offset)
			if err != nil {
				err = os.NewSyscallError("pwrite", err)
			}
		} else {
			n, err = sysWrite(op.fd, op.b)
			if err != nil {
				err = os.NewSyscallError("write", err)
			}
		}
	}
	if n < 0 {
		n = 0
	}
	op.complete(true, n, err)
}

func sysRead(fd int, b []byte) (n int, err error) {
	for {
		n, err = unix.Read(fd, b)
		if err == unix.EINTR {
			continue
		}
		return
	}
}

func sysPread(fd int, b []byte, offset int64) (n int, err error) {
	for {
		n, err = unix.Pread(fd, b, offset)
		if err == unix.EINTR {
			continue
		}
		return
	}
}

func sysWrite(fd int, b []byte) (n int, err error) {
	for {
		n, err = unix.Write(fd, b)
		if err == unix.EINTR {
			continue
		}
		return
	}
}

func sysPwrite(fd int, b []byte, offset int64) (n int, err error) {
	for {
		n, err = unix.Pwrite(fd, b, offset)
		if err == unix.EINTR {
			continue
		}
		return
	}
}
