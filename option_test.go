//go:build unix

package hio_test

import (
	"testing"
	"time"

	"github.com/brickingsoft/hio"
)

func TestOptions(t *testing.T) {
	opt := hio.Options{}
	for _, o := range []hio.Option{
		hio.WithCylinders(4),
		hio.WithBulkCancel(true),
		hio.WithBufferDebugging(true),
		hio.WithMaxGoroutines(256),
		hio.WithMaxReadyGoroutinesIdleDuration(10 * time.Second),
		hio.WithCloseTimeout(30 * time.Second),
	} {
		if err := o(&opt); err != nil {
			t.Error(err)
		}
	}
	if opt.Cylinders != 4 || !opt.BulkCancel || !opt.BufferDebugging {
		t.Error("engine options not applied:", opt.Cylinders, opt.BulkCancel, opt.BufferDebugging)
	}
	if n := len(opt.AsRxpOptions()); n != 3 {
		t.Error("rxp options:", n)
	}
	if err := hio.WithCylinders(0)(&opt); err == nil {
		t.Error("zero cylinders accepted")
	}
}
