//go:build unix

package hio

import (
	"errors"
	"time"

	"github.com/brickingsoft/rxp"
)

type Options struct {
	// RxpOptions
	// 执行器选项
	RxpOptions rxp.Options
	// Cylinders
	// 引擎完成工作协程数
	Cylinders int
	// BulkCancel
	// 引擎支持无条件按句柄批量取消
	BulkCancel bool
	// BufferDebugging
	// 完成时校验缓冲视图
	BufferDebugging bool
}

// AsRxpOptions
// 转换成 rxp.Option
func (options *Options) AsRxpOptions() []rxp.Option {
	opts := make([]rxp.Option, 0, 1)
	if n := options.RxpOptions.MaxGoroutines; n > 0 {
		opts = append(opts, rxp.WithMaxGoroutines(n))
	}
	if n := options.RxpOptions.MaxReadyGoroutinesIdleDuration; n > 0 {
		opts = append(opts, rxp.WithMaxReadyGoroutinesIdleDuration(n))
	}
	if n := options.RxpOptions.CloseTimeout; n > 0 {
		opts = append(opts, rxp.WithCloseTimeout(n))
	}
	return opts
}

type Option func(options *Options) error

// WithCylinders
// 设置引擎完成工作协程数
func WithCylinders(n int) Option {
	return func(options *Options) error {
		if n < 1 {
			return errors.New("hio: cylinders must be greater than 0")
		}
		options.Cylinders = n
		return nil
	}
}

// WithBulkCancel
// 设置引擎支持无条件按句柄批量取消，任意协程发起的取消均被放行
func WithBulkCancel(enabled bool) Option {
	return func(options *Options) error {
		options.BulkCancel = enabled
		return nil
	}
}

// WithBufferDebugging
// 设置完成时校验缓冲视图，变更视为编程错误
func WithBufferDebugging(enabled bool) Option {
	return func(options *Options) error {
		options.BufferDebugging = enabled
		return nil
	}
}

// WithMaxGoroutines
// 设置最大协程数
func WithMaxGoroutines(n int) Option {
	return func(options *Options) error {
		return rxp.WithMaxGoroutines(n)(&options.RxpOptions)
	}
}

// WithMaxReadyGoroutinesIdleDuration
// 设置准备协程最大空闲时长
func WithMaxReadyGoroutinesIdleDuration(d time.Duration) Option {
	return func(options *Options) error {
		return rxp.WithMaxReadyGoroutinesIdleDuration(d)(&options.RxpOptions)
	}
}

// WithCloseTimeout
// 设置关闭超时时长
func WithCloseTimeout(timeout time.Duration) Option {
	return func(options *Options) error {
		return rxp.WithCloseTimeout(timeout)(&options.RxpOptions)
	}
}
