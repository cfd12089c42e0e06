//go:build unix

package aio

import (
	"github.com/brickingsoft/errors"
)

var (
	ErrAlreadyOpen              = errors.Define("handle is already open")
	ErrAssociationFailed        = errors.Define("associate handle with engine failed")
	ErrCancellationNotSupported = errors.Define("cancellation is not supported")
	ErrOperationAborted         = errors.Define("operation was aborted")
	ErrEmptyBytes               = errors.Define("empty bytes")
	ErrClosed                   = errors.Define("use of closed handle")
)

func IsAlreadyOpen(err error) bool {
	return errors.Is(err, ErrAlreadyOpen)
}

func IsAssociationFailed(err error) bool {
	return errors.Is(err, ErrAssociationFailed)
}

func IsCancellationNotSupported(err error) bool {
	return errors.Is(err, ErrCancellationNotSupported)
}

func IsOperationAborted(err error) bool {
	return errors.Is(err, ErrOperationAborted)
}

func IsEmptyBytes(err error) bool {
	return errors.Is(err, ErrEmptyBytes)
}

func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "aio"
)

const (
	errMetaOpKey       = "op"
	errMetaOpAttach    = "attach"
	errMetaOpClose     = "close"
	errMetaOpCancel    = "cancel"
	errMetaOpRead      = "read"
	errMetaOpWrite     = "write"
	errMetaOpAssociate = "associate"
)
