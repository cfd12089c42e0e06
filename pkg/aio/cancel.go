//go:build unix

package aio

import (
	"github.com/brickingsoft/errors"
	"github.com/petermattis/goid"
)

// updateCancelOwner records the goroutine that is about to start an
// asynchronous operation on h. The first submitter becomes the owner; a
// second distinct submitter moves the handle to mixed, permanently until the
// next attach. Synchronous operations never pass through here.
func (h *Handle) updateCancelOwner() {
	gid := goid.Get()
	svc := h.service
	svc.mu.Lock()
	switch h.cancelOwner {
	case cancelOwnerUnset:
		h.cancelOwner = gid
	case gid:
	default:
		h.cancelOwner = cancelOwnerMixed
	}
	svc.mu.Unlock()
}

// Cancel requests the abort of every in-flight operation on h. Affected
// operations are not dropped, each still completes with
// ErrOperationAborted.
//
// When the engine does not support bulk cancel by handle, the request only
// proceeds from the one goroutine that has exclusively started operations on
// h: a mixed-owner handle, or a caller that is not the owner, gets
// ErrCancellationNotSupported, since the underlying primitive would silently
// skip operations the caller does not own. With nothing started yet the
// request trivially succeeds.
func (h *Handle) Cancel() (err error) {
	svc := h.service
	svc.mu.Lock()
	fd := h.fd
	owner := h.cancelOwner
	svc.mu.Unlock()
	if fd == InvalidFd {
		err = errors.New(
			"cancel failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpCancel),
			errors.WithWrap(ErrClosed),
		)
		return
	}
	if !svc.engine.SupportsBulkCancel() {
		switch owner {
		case cancelOwnerUnset:
			// nothing to cancel
			return
		case goid.Get():
		default:
			err = errors.New(
				"cancel failed",
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, errMetaOpCancel),
				errors.WithWrap(ErrCancellationNotSupported),
			)
			return
		}
	}
	svc.engine.Cancel(fd)
	return
}
