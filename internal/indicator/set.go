package indicator

import (
	"time"

	"trading-botv1/internal/model"
)

// Params holds the periods for the full indicator set.
type Params struct {
	RSIPeriod    int
	MACDFast     int
	MACDSlow     int
	MACDSignal   int
	BBPeriod     int
	BBStdDev     float64
	VolumePeriod int
}

// DefaultParams returns the standard parameter set (RSI 14, MACD 12/26/9,
// Bollinger 20/2, volume SMA 20).
func DefaultParams() Params {
	return Params{
		RSIPeriod:    14,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
		BBPeriod:     20,
		BBStdDev:     2.0,
		VolumePeriod: 20,
	}
}

// Snapshot is the indicator state aligned to one candle. A field is only
// meaningful when the matching Ready flag is set; during warm-up the values
// are undefined, not zero.
type Snapshot struct {
	TS     time.Time
	Close  float64
	Volume float64

	RSI      float64
	RSIReady bool

	MACD       float64
	MACDSignal float64
	MACDHist   float64
	MACDReady  bool // both line and signal line defined

	BBUpper  float64
	BBMiddle float64
	BBLower  float64
	BBReady  bool

	VolumeSMA   float64
	VolumeReady bool
}

// Complete reports whether every indicator used in signal scoring is defined.
func (s Snapshot) Complete() bool {
	return s.RSIReady && s.MACDReady && s.BBReady && s.VolumeReady
}

// Compute runs the full indicator set over the window and returns one
// snapshot per input candle. Pure transform: fresh indicator instances on
// every call, no state retained between calls. Returns nil for an empty
// window.
func Compute(window model.Window, p Params) []Snapshot {
	if len(window) == 0 {
		return nil
	}

	rsi := NewRSI(p.RSIPeriod)
	macd := NewMACD(p.MACDFast, p.MACDSlow, p.MACDSignal)
	bb := NewBollinger(p.BBPeriod, p.BBStdDev)
	volSMA := NewSMA(p.VolumePeriod)

	snaps := make([]Snapshot, 0, len(window))
	for _, c := range window {
		rsi.Update(c.Close)
		macd.Update(c.Close)
		bb.Update(c.Close)
		volSMA.Update(c.Volume)

		snap := Snapshot{
			TS:     c.TS,
			Close:  c.Close,
			Volume: c.Volume,
		}
		if rsi.Ready() {
			snap.RSI = rsi.Value()
			snap.RSIReady = true
		}
		if macd.Ready() {
			snap.MACD = macd.Line()
			snap.MACDSignal = macd.SignalLine()
			snap.MACDHist = macd.Hist()
			snap.MACDReady = true
		}
		if bb.Ready() {
			snap.BBUpper = bb.Upper()
			snap.BBMiddle = bb.Middle()
			snap.BBLower = bb.Lower()
			snap.BBReady = true
		}
		if volSMA.Ready() {
			snap.VolumeSMA = volSMA.Value()
			snap.VolumeReady = true
		}
		snaps = append(snaps, snap)
	}
	return snaps
}
