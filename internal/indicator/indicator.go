// Package indicator provides technical indicator calculations over candle data.
//
// All single-value indicators implement the Indicator interface, consuming a
// series of float64 values (closes, volumes, or derived series) and producing
// one value. Updates are O(1) per sample, no history scans. Multi-output
// indicators (MACD, Bollinger) compose the primitives.
package indicator

// Indicator is the interface for single-value streaming indicators.
type Indicator interface {
	// Name returns the indicator name (e.g. "SMA", "RSI").
	Name() string

	// Update feeds a new value and recalculates.
	Update(v float64)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool
}
