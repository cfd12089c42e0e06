//go:build unix

package aio

import (
	"os"

	"github.com/brickingsoft/errors"
	"golang.org/x/sys/unix"
)

// InvalidFd
// 未附着句柄的哨兵值。
const InvalidFd = -1

const (
	cancelOwnerUnset int64 = 0
	cancelOwnerMixed int64 = -1
)

// Handle
// 句柄记录：原生句柄值、取消安全追踪与注册表成员关系。
// 由 HandleService.NewHandle 构造，初始为未附着状态。
type Handle struct {
	service *HandleService
	// fd and cancelOwner are guarded by the service registry mutex.
	fd            int
	cancelOwner   int64
	zeroReadIsEOF bool
}

func (h *Handle) IsOpen() bool {
	h.service.mu.Lock()
	defer h.service.mu.Unlock()
	return h.fd != InvalidFd
}

// Fd returns the raw native value, for collaborators that need direct
// system calls. InvalidFd when detached.
func (h *Handle) Fd() int {
	h.service.mu.Lock()
	defer h.service.mu.Unlock()
	return h.fd
}

// Attach assigns a native handle to h, binds it to the completion engine
// and inserts h into the registry. The cancellation owner is reset.
func (h *Handle) Attach(fd int) (err error) {
	svc := h.service
	svc.mu.Lock()
	if h.fd != InvalidFd {
		svc.mu.Unlock()
		err = errors.New(
			"attach handle failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpAttach),
			errors.WithWrap(ErrAlreadyOpen),
		)
		return
	}
	if svc.closed {
		svc.mu.Unlock()
		err = errors.New(
			"attach handle failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpAttach),
			errors.WithWrap(ErrClosed),
		)
		return
	}
	svc.mu.Unlock()
	// associate outside the registry mutex, it is a native call
	if associateErr := svc.engine.Associate(fd); associateErr != nil {
		err = errors.New(
			"attach handle failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpAttach),
			errors.WithWrap(errors.From(ErrAssociationFailed, errors.WithWrap(associateErr))),
		)
		return
	}
	svc.mu.Lock()
	if h.fd != InvalidFd {
		svc.mu.Unlock()
		err = errors.New(
			"attach handle failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpAttach),
			errors.WithWrap(ErrAlreadyOpen),
		)
		return
	}
	// the registry may have been torn down while the mutex was dropped for
	// the associate call, joining now would leak fd past the teardown sweep
	if svc.closed {
		svc.mu.Unlock()
		err = errors.New(
			"attach handle failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpAttach),
			errors.WithWrap(ErrClosed),
		)
		return
	}
	h.fd = fd
	h.cancelOwner = cancelOwnerUnset
	svc.handles[h] = struct{}{}
	svc.mu.Unlock()
	return
}

// Close detaches h. It is a no-op success when already detached. Pending
// operations are aborted, each still completes with ErrOperationAborted.
// The handle is unconditionally marked detached even when the native close
// reports an error, which is still surfaced to the caller.
func (h *Handle) Close() (err error) {
	svc := h.service
	svc.mu.Lock()
	fd := h.fd
	if fd == InvalidFd {
		svc.mu.Unlock()
		return
	}
	h.fd = InvalidFd
	h.cancelOwner = cancelOwnerUnset
	delete(svc.handles, h)
	svc.mu.Unlock()
	svc.engine.Cancel(fd)
	if closeErr := unix.Close(fd); closeErr != nil {
		err = errors.New(
			"close handle failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpClose),
			errors.WithWrap(os.NewSyscallError("close", closeErr)),
		)
	}
	return
}
