// Package mempool pools []float32 scratch buffers for image-to-tensor
// conversion so per-page inference does not reallocate large buffers.
package mempool

import (
	"sync"
)

var pools sync.Map // size class (int) -> *sync.Pool

// sizeClass rounds n up to a 1024-element bucket to reduce churn.
func sizeClass(n int) int {
	const step = 1024
	if n <= step {
		return step
	}
	return (n + step - 1) / step * step
}

// GetFloat32 retrieves a buffer of at least n elements. The returned slice
// has length n and possibly larger capacity; return it via PutFloat32.
// Contents are not zeroed.
func GetFloat32(n int) []float32 {
	cls := sizeClass(n)
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float32, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]float32, n)
	}
	buf, ok := p.Get().([]float32)
	if !ok || cap(buf) < n {
		buf = make([]float32, cls)
	}
	return buf[:n]
}

// PutFloat32 returns a buffer to the pool. Passing nil is a no-op.
func PutFloat32(buf []float32) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float32, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck
	}
}
