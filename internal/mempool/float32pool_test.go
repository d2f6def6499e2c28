package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"tiny request rounds to minimum", 1, 1024},
		{"exact bucket boundary", 1024, 1024},
		{"one past boundary", 1025, 2048},
		{"exact multiple", 4096, 4096},
		{"odd size", 3000, 3072},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sizeClass(tt.n))
		})
	}
}

func TestGetFloat32ReturnsRequestedLength(t *testing.T) {
	for _, n := range []int{1, 100, 1024, 1025, 640 * 480 * 3} {
		buf := GetFloat32(n)
		require.Len(t, buf, n)
		assert.GreaterOrEqual(t, cap(buf), n)
		PutFloat32(buf)
	}
}

func TestPutFloat32NilIsNoop(t *testing.T) {
	assert.NotPanics(t, func() { PutFloat32(nil) })
}

func TestPoolReuseAcrossPages(t *testing.T) {
	// Shape of the engine's per-page tensor conversion: get a page-sized
	// buffer, fill it, return it. Pooling must not corrupt lengths.
	const pageTensor = 3 * 640 * 480
	for i := 0; i < 50; i++ {
		buf := GetFloat32(pageTensor)
		require.Len(t, buf, pageTensor)
		buf[0] = 0.5
		buf[pageTensor-1] = 0.25
		PutFloat32(buf)
	}
}

func TestConcurrentGetPut(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				buf := GetFloat32(2048)
				buf[0] = 1
				PutFloat32(buf)
			}
		}()
	}
	wg.Wait()
}
