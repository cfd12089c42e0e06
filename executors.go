//go:build unix

package hio

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/brickingsoft/hio/pkg/aio"
	"github.com/brickingsoft/rxp"
)

var (
	instanceLock sync.Mutex
	executors    rxp.Executors      = nil
	engine       aio.Engine         = nil
	handles      *aio.HandleService = nil
)

// Startup
// 启动执行器与完成引擎
//
// hio 是基于 rxp.Executors 异步编程模式。
// 默认提供一套执行器与引擎，如果需要定制化，则使用 Startup 完成。
// 注意：必须在程序起始位置调用，否则无效。
func Startup(options ...Option) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case error:
				err = e
				break
			case string:
				err = errors.New(e)
				break
			default:
				err = errors.New(fmt.Sprintf("%+v", r))
				break
			}
		}
	}()
	opt := Options{}
	for _, option := range options {
		if err = option(&opt); err != nil {
			return
		}
	}
	instanceLock.Lock()
	defer instanceLock.Unlock()
	if executors != nil {
		err = errors.New("hio: already started")
		return
	}
	startup(opt)
	return
}

// startup must be called with instanceLock held.
func startup(opt Options) {
	executors = rxp.New(opt.AsRxpOptions()...)
	aio.BufferDebugging(opt.BufferDebugging)
	engine = aio.NewEngine(aio.Settings{
		Cylinders:  opt.Cylinders,
		BulkCancel: opt.BulkCancel,
	})
	handles = aio.NewHandleService(engine)
}

// Shutdown
// 关闭服务、引擎与执行器
//
// 非优雅的，即不会等待所有协程执行完毕。
// 一般使用 ShutdownGracefully 来实现等待所有协程执行完毕。
func Shutdown() (err error) {
	return shutdown(false)
}

// ShutdownGracefully
// 优雅的关闭
//
// 它会等待所有协程执行完毕。
// 如果需要支持超时机制，则需要在 Startup 里进行设置。
func ShutdownGracefully() (err error) {
	return shutdown(true)
}

func shutdown(gracefully bool) (err error) {
	instanceLock.Lock()
	defer instanceLock.Unlock()
	if executors == nil {
		return
	}
	runtime.SetFinalizer(executors, nil)
	// handles first: forced closes push their aborts through the engine before it drains
	_ = handles.Close()
	if closeErr := engine.Close(); closeErr != nil {
		err = closeErr
	}
	var closeExecErr error
	if gracefully {
		closeExecErr = executors.CloseGracefully()
	} else {
		closeExecErr = executors.Close()
	}
	if closeExecErr != nil {
		if err == nil {
			err = closeExecErr
		} else {
			err = errors.Join(err, closeExecErr)
		}
	}
	executors = nil
	engine = nil
	handles = nil
	return
}

// Executors
// 获取执行器
func Executors() rxp.Executors {
	instanceLock.Lock()
	defer instanceLock.Unlock()
	if executors == nil {
		startup(Options{})
		runtime.SetFinalizer(executors, rxp.Executors.CloseGracefully)
	}
	return executors
}

func service() *aio.HandleService {
	instanceLock.Lock()
	defer instanceLock.Unlock()
	if handles == nil {
		startup(Options{})
		runtime.SetFinalizer(executors, rxp.Executors.CloseGracefully)
	}
	return handles
}
