package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerElapsed(t *testing.T) {
	timer := StartTimer()
	time.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.Elapsed(), 10*time.Millisecond)
}

func TestStagesAccumulate(t *testing.T) {
	s := NewStages()
	s.Add("ocr", 100*time.Millisecond)
	s.Add("dedup", 20*time.Millisecond)
	s.Add("ocr", 50*time.Millisecond)

	assert.Equal(t, 150*time.Millisecond, s.Get("ocr"))
	assert.Equal(t, time.Duration(0), s.Get("unknown"))
	assert.Equal(t, 170*time.Millisecond, s.Total())
}

func TestStagesOrder(t *testing.T) {
	s := NewStages()
	s.Add("rasterize", time.Second)
	s.Add("ocr", 3*time.Second)
	s.Add("export", 500*time.Millisecond)
	s.Add("rasterize", time.Second)

	assert.Equal(t, []string{"rasterize", "ocr", "export"}, s.Names())

	slowest := s.Slowest()
	assert.Equal(t, "ocr", slowest[0])
	assert.Equal(t, "export", slowest[len(slowest)-1])
}

func TestStagesString(t *testing.T) {
	s := NewStages()
	s.Add("ocr", 2*time.Second)
	s.Add("export", time.Second)

	out := s.String()
	assert.Contains(t, out, "ocr: 2s")
	assert.Contains(t, out, "export: 1s")
}
