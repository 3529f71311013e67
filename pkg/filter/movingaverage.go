// Package filter smooths noisy range readings.
package filter

// MovingAverage averages the last Depth() samples pushed into it.  The ring is
// allocated once and zero-filled, so until Depth() samples have been pushed the
// average is biased towards zero.
type MovingAverage struct {
	samples []int
	cursor  int
}

// NewMovingAverage returns a filter over the last depth samples.  depth must be
// at least 1.
func NewMovingAverage(depth int) *MovingAverage {
	if depth < 1 {
		panic("filter: moving average depth must be at least 1")
	}
	return &MovingAverage{
		samples: make([]int, depth),
	}
}

// Push overwrites the oldest slot with sample and returns the mean of every
// slot, truncated toward zero.
func (f *MovingAverage) Push(sample int) int {
	f.samples[f.cursor] = sample
	f.cursor = (f.cursor + 1) % len(f.samples)

	sum := 0
	for _, s := range f.samples {
		sum += s
	}
	return sum / len(f.samples)
}

func (f *MovingAverage) Depth() int {
	return len(f.samples)
}
