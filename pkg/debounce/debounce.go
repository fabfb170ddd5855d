// Package debounce 提供尾沿触发的防抖器
package debounce

import (
	"sync"
	"time"
)

// Debouncer 防抖器
//
// 每次 Trigger 都会取消尚未触发的计时并重新计时，
// 一段静默期内只有最后一次调度的函数会执行。
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// New 创建防抖器，delay 为静默期时长
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger 调度 fn 在静默期结束后执行，并取消之前调度的函数
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop 取消尚未触发的调度
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
