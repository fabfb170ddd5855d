package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOnlyLastScheduledCallFires(t *testing.T) {
	d := New(30 * time.Millisecond)

	var fired atomic.Int32
	var last atomic.Int32

	// 连续编辑，每次都重置计时
	for i := 1; i <= 5; i++ {
		n := int32(i)
		d.Trigger(func() {
			fired.Add(1)
			last.Store(n)
		})
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, int32(5), last.Load())
}

func TestStopCancelsPendingCall(t *testing.T) {
	d := New(20 * time.Millisecond)

	var fired atomic.Int32
	d.Trigger(func() { fired.Add(1) })
	d.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, fired.Load())
}

func TestSeparateIdlePeriodsEachFire(t *testing.T) {
	d := New(10 * time.Millisecond)

	var fired atomic.Int32
	d.Trigger(func() { fired.Add(1) })
	time.Sleep(40 * time.Millisecond)

	d.Trigger(func() { fired.Add(1) })
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, int32(2), fired.Load())
}
