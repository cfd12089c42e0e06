//go:build unix

package hio

import (
	"context"
	"errors"
	"os"

	"github.com/brickingsoft/hio/pkg/aio"
	"github.com/brickingsoft/rxp"
	"github.com/brickingsoft/rxp/async"
	"golang.org/x/sys/unix"
)

// Transfer
// 一次传输的结果。
type Transfer struct {
	// N
	// 已传输字节数
	N int
}

// File
// 附着在完成引擎上的文件句柄。
//
// 同步读写满足 io.Reader、io.Writer、io.ReaderAt 与 io.WriterAt。
// 异步读写返回 async.Future[Transfer]，完成恰好一次且不在提交调用内回调。
type File struct {
	handle *aio.Handle
	path   string
}

func Open(path string) (*File, error) {
	return OpenFile(path, os.O_RDONLY, 0)
}

func Create(path string) (*File, error) {
	return OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
}

func OpenFile(path string, flag int, perm os.FileMode) (f *File, err error) {
	fd, openErr := unix.Open(path, flag|unix.O_CLOEXEC, uint32(perm.Perm()))
	if openErr != nil {
		err = errors.Join(errors.New("hio: open failed"), os.NewSyscallError("open", openErr))
		return
	}
	h, attachErr := service().Attach(fd)
	if attachErr != nil {
		_ = unix.Close(fd)
		err = errors.Join(errors.New("hio: open failed"), attachErr)
		return
	}
	f = &File{
		handle: h,
		path:   path,
	}
	return
}

// Pipe
// 构建一对已附着的管道句柄，r 为读端，w 为写端。
func Pipe() (r *File, w *File, err error) {
	fds := make([]int, 2)
	if pipeErr := unix.Pipe(fds); pipeErr != nil {
		err = errors.Join(errors.New("hio: pipe failed"), os.NewSyscallError("pipe", pipeErr))
		return
	}
	rh, rErr := service().Attach(fds[0])
	if rErr != nil {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
		err = errors.Join(errors.New("hio: pipe failed"), rErr)
		return
	}
	wh, wErr := service().Attach(fds[1])
	if wErr != nil {
		_ = rh.Close()
		_ = unix.Close(fds[1])
		err = errors.Join(errors.New("hio: pipe failed"), wErr)
		return
	}
	r = &File{handle: rh}
	w = &File{handle: wh}
	return
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Fd() int {
	return f.handle.Fd()
}

func (f *File) IsOpen() bool {
	return f.handle.IsOpen()
}

func (f *File) Read(b []byte) (n int, err error) {
	return f.handle.Read(b)
}

func (f *File) ReadAt(b []byte, off int64) (n int, err error) {
	return f.handle.ReadAt(b, off)
}

func (f *File) Write(b []byte) (n int, err error) {
	return f.handle.Write(b)
}

func (f *File) WriteAt(b []byte, off int64) (n int, err error) {
	return f.handle.WriteAt(b, off)
}

// Cancel
// 请求取消全部在途异步操作，受引擎取消能力与提交者约束，见 aio.Handle.Cancel。
func (f *File) Cancel() (err error) {
	return f.handle.Cancel()
}

func (f *File) Close() (err error) {
	return f.handle.Close()
}

// AsyncRead
// 异步读。b 的底层存储在完成前必须保持有效且不被移动。
func (f *File) AsyncRead(ctx context.Context, b []byte) (future async.Future[Transfer]) {
	return f.asyncSubmit(ctx, func(cb aio.OperationCallback) {
		f.handle.AsyncRead(b, cb)
	})
}

// AsyncReadAt
// 在显式偏移处异步读。
func (f *File) AsyncReadAt(ctx context.Context, b []byte, off int64) (future async.Future[Transfer]) {
	return f.asyncSubmit(ctx, func(cb aio.OperationCallback) {
		f.handle.AsyncReadAt(b, off, cb)
	})
}

// AsyncWrite
// 异步写。b 的底层存储在完成前必须保持有效且不被移动。
func (f *File) AsyncWrite(ctx context.Context, b []byte) (future async.Future[Transfer]) {
	return f.asyncSubmit(ctx, func(cb aio.OperationCallback) {
		f.handle.AsyncWrite(b, cb)
	})
}

// AsyncWriteAt
// 在显式偏移处异步写。
func (f *File) AsyncWriteAt(ctx context.Context, b []byte, off int64) (future async.Future[Transfer]) {
	return f.asyncSubmit(ctx, func(cb aio.OperationCallback) {
		f.handle.AsyncWriteAt(b, off, cb)
	})
}

func (f *File) asyncSubmit(ctx context.Context, submit func(cb aio.OperationCallback)) (future async.Future[Transfer]) {
	ctx = withExecutors(ctx)
	promise, promiseErr := async.Make[Transfer](ctx)
	if promiseErr != nil {
		future = async.FailedImmediately[Transfer](ctx, promiseErr)
		return
	}
	submit(func(n int, err error) {
		if err != nil {
			promise.Fail(err)
			return
		}
		promise.Succeed(Transfer{N: n})
	})
	future = promise.Future()
	return
}

func withExecutors(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, has := rxp.TryFrom(ctx); !has {
		ctx = rxp.With(ctx, Executors())
	}
	return ctx
}
