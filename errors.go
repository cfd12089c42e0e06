//go:build unix

package hio

import (
	"errors"
	"io"

	"github.com/brickingsoft/hio/pkg/aio"
	"github.com/brickingsoft/rxp/async"
)

func IsClosed(err error) bool {
	return aio.IsClosed(err) || errors.Is(err, async.ExecutorsClosed)
}

func IsEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, async.EOF) || errors.Is(err, async.UnexpectedEOF)
}

func IsOperationAborted(err error) bool {
	return aio.IsOperationAborted(err)
}

func IsCancellationNotSupported(err error) bool {
	return aio.IsCancellationNotSupported(err)
}

func IsEmptyBytes(err error) bool {
	return aio.IsEmptyBytes(err)
}
