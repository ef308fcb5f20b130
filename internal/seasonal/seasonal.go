// Package seasonal maps calendar months to trading bias multipliers derived
// from historical monthly BTC returns. The factor scales only the buy-side
// signal score; sell-side scoring is never adjusted.
package seasonal

import "time"

// factors is the fixed month → multiplier table. Immutable process-wide.
var factors = map[time.Month]float64{
	time.January:   0.95,
	time.February:  1.0,
	time.March:     0.95,
	time.April:     1.3, // historically the strongest month
	time.May:       1.1,
	time.June:      0.9,
	time.July:      0.9,
	time.August:    0.7,
	time.September: 0.6, // historically the weakest month
	time.October:   1.2,
	time.November:  1.3,
	time.December:  1.0,
}

// Factor returns the seasonal multiplier for the given month.
// An out-of-range month cannot occur with valid calendar input;
// the defensive fallback is a neutral 1.0.
func Factor(m time.Month) float64 {
	if f, ok := factors[m]; ok {
		return f
	}
	return 1.0
}
