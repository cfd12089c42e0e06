//go:build unix

// Package aio provides handle oriented asynchronous I/O on top of a
// completion engine. The engine performs the native calls on its own
// workers and invokes the operation's completion entry once per accepted
// submission, so callers hand over a buffer and a callback and are told the
// outcome and the transferred byte count when the I/O has actually finished.
package aio

// OperationCallback
// 操作完成回调。
//
// n 为已传输的字节数，出错时也可能不为零（失败前的部分传输）。
type OperationCallback func(n int, err error)
