//go:build unix

package aio

import (
	"sync"
)

// HandleService
// 服务级注册表：持有全部存活句柄记录，互斥锁只保护成员变更，不跨原生调用。
type HandleService struct {
	engine  Engine
	mu      sync.Mutex
	handles map[*Handle]struct{}
	closed  bool
}

func NewHandleService(engine Engine) *HandleService {
	return &HandleService{
		engine:  engine,
		handles: make(map[*Handle]struct{}),
	}
}

// NewHandle constructs a detached handle record. It joins the registry when
// a native handle is attached.
func (svc *HandleService) NewHandle() *Handle {
	return &Handle{
		service:       svc,
		fd:            InvalidFd,
		cancelOwner:   cancelOwnerUnset,
		zeroReadIsEOF: true,
	}
}

// Attach constructs a handle record and attaches fd to it.
func (svc *HandleService) Attach(fd int) (h *Handle, err error) {
	h = svc.NewHandle()
	if err = h.Attach(fd); err != nil {
		h = nil
	}
	return
}

func (svc *HandleService) Engine() Engine {
	return svc.engine
}

// Close tears the registry down once: every still attached member is force
// closed exactly as Handle.Close would, so no native handle leaks across
// shutdown even when callers forgot to close explicitly. Individual close
// errors are suppressed, cleanup is best effort.
//
// The service does not own the engine: the forced closes still push their
// aborts through it, so the engine must be closed after the service, as the
// root layer's shutdown does.
func (svc *HandleService) Close() (err error) {
	svc.mu.Lock()
	if svc.closed {
		svc.mu.Unlock()
		return
	}
	svc.closed = true
	members := make([]*Handle, 0, len(svc.handles))
	for h := range svc.handles {
		members = append(members, h)
	}
	svc.mu.Unlock()
	for _, h := range members {
		_ = h.Close()
	}
	return
}
