package indicator

import "math"

// Bollinger calculates Bollinger Bands: a middle SMA with upper and lower
// bands at ±k population standard deviations. Keeps the rolling window in
// a circular buffer; the deviation pass is O(period), which is fine for
// the usual period of 20.
type Bollinger struct {
	period int
	stddev float64
	buf    []float64
	idx    int
	count  int
	sum    float64

	upper, middle, lower float64
}

// NewBollinger creates a Bollinger Bands indicator (typically 20, 2).
func NewBollinger(period int, stddev float64) *Bollinger {
	return &Bollinger{
		period: period,
		stddev: stddev,
		buf:    make([]float64, period),
	}
}

func (b *Bollinger) Name() string { return "BB" }

func (b *Bollinger) Update(v float64) {
	if b.count >= b.period {
		b.sum -= b.buf[b.idx]
	}
	b.buf[b.idx] = v
	b.sum += v
	b.idx = (b.idx + 1) % b.period
	b.count++

	if b.count < b.period {
		return
	}

	mean := b.sum / float64(b.period)
	var variance float64
	for _, x := range b.buf {
		d := x - mean
		variance += d * d
	}
	variance /= float64(b.period) // population variance, matching ta's default
	sd := math.Sqrt(variance)

	b.middle = mean
	b.upper = mean + b.stddev*sd
	b.lower = mean - b.stddev*sd
}

// Upper returns the upper band. Only meaningful once Ready.
func (b *Bollinger) Upper() float64 { return b.upper }

// Middle returns the middle band (SMA). Only meaningful once Ready.
func (b *Bollinger) Middle() float64 { return b.middle }

// Lower returns the lower band. Only meaningful once Ready.
func (b *Bollinger) Lower() float64 { return b.lower }

func (b *Bollinger) Ready() bool { return b.count >= b.period }
