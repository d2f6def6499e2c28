package mock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformMap(t *testing.T) {
	m := UniformMap(4, 3, 0.7)
	require.Len(t, m.Data, 12)
	for _, v := range m.Data {
		assert.InDelta(t, 0.7, v, 1e-6)
	}

	clamped := UniformMap(2, 2, 1.5)
	assert.Equal(t, float32(1), clamped.Data[0])

	assert.Nil(t, UniformMap(0, 3, 0.5).Data)
}

func TestBlobMapPeakAtCenter(t *testing.T) {
	m := BlobMap(11, 11, 5, 5, 0.9, 2.0)
	require.Len(t, m.Data, 121)
	center := m.Data[5*11+5]
	assert.InDelta(t, 0.9, center, 1e-4)
	assert.Less(t, m.Data[0], center)
}

func TestTwoRegionMapDistinctRegions(t *testing.T) {
	m := TwoRegionMap(32, 32, 0.95, 0.05)
	// Inside the first rectangle.
	assert.InDelta(t, 0.95, m.Data[6*32+6], 1e-6)
	// Between the rectangles.
	assert.InDelta(t, 0.05, m.Data[16*32+16], 1e-6)
	// Inside the second rectangle.
	assert.InDelta(t, 0.95, m.Data[24*32+24], 1e-6)
}

func TestGreedyPathLogits(t *testing.T) {
	lg := GreedyPathLogits([]int{2, 2, 0, 3}, 5, 10, 0.1)
	require.Equal(t, []int64{1, 4, 5}, lg.Shape)

	argmax := func(step int) int {
		best, bestV := 0, lg.Data[step*5]
		for c := 1; c < 5; c++ {
			if lg.Data[step*5+c] > bestV {
				best, bestV = c, lg.Data[step*5+c]
			}
		}
		return best
	}
	assert.Equal(t, 2, argmax(0))
	assert.Equal(t, 2, argmax(1))
	assert.Equal(t, 0, argmax(2))
	assert.Equal(t, 3, argmax(3))

	assert.Nil(t, GreedyPathLogits(nil, 5, 1, 0).Data)
}
