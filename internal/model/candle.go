package model

import (
	"encoding/json"
	"time"
)

// Candle represents one OHLCV bar of a fixed period (e.g. 15m).
// Prices and volume are float64 since crypto amounts are fractional.
// Candles are immutable once fetched.
type Candle struct {
	TS     time.Time `json:"ts"` // bucket open time (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Window is an ordered sequence of the most recent candles,
// strictly increasing in TS.
type Window []Candle

// Last returns the most recent candle in the window.
func (w Window) Last() (Candle, bool) {
	if len(w) == 0 {
		return Candle{}, false
	}
	return w[len(w)-1], true
}

// Ordered reports whether timestamps are strictly increasing.
func (w Window) Ordered() bool {
	for i := 1; i < len(w); i++ {
		if !w[i].TS.After(w[i-1].TS) {
			return false
		}
	}
	return true
}
