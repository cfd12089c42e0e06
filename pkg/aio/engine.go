//go:build unix

package aio

// Settings
// 引擎配置。
type Settings struct {
	// Cylinders
	// 完成工作协程数，小于一时取 runtime.NumCPU() * 2。
	Cylinders int
	// BulkCancel
	// 引擎是否支持无条件按句柄批量取消。
	// 为假时取消受提交者追踪约束，见 Handle.Cancel。
	BulkCancel bool
}

// Engine
// 完成引擎契约。
//
// 引擎保证每个被接受的提交恰好产生一次完成，包括引擎关闭时：
// 关闭期间被排出的操作以脱离引擎的方式完成，只回收不上调。
type Engine interface {
	// Associate binds a native handle to the engine. Handles must be
	// associated before operations on them are submitted.
	Associate(fd int) (err error)
	// Submit hands an operation to the engine. The native call is issued on
	// an engine worker; the submission itself never blocks and never invokes
	// the callback inline, even when it fails synchronously.
	Submit(op *Operation)
	// Cancel requests the abort of every pending operation of fd. Each
	// affected operation still completes, with ErrOperationAborted.
	Cancel(fd int)
	// SupportsBulkCancel reports whether Cancel is safe regardless of which
	// goroutine started the operations.
	SupportsBulkCancel() bool
	Close() (err error)
}
