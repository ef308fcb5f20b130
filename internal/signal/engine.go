// Package signal derives a composite BUY/SELL/HOLD signal from an indicator
// snapshot pair and the seasonal month bias.
//
// Scoring is additive over independent rules (RSI bands, MACD crossover,
// Bollinger band breach, volume confirmation). The seasonal factor scales
// only the buy score, after raw scoring and before the threshold comparison.
package signal

import (
	"time"

	"trading-botv1/internal/indicator"
	"trading-botv1/internal/seasonal"
)

// Signal represents the trading decision for one cycle.
type Signal string

const (
	Buy  Signal = "BUY"
	Sell Signal = "SELL"
	Hold Signal = "HOLD"
)

// MinWindow is the minimum number of candles required for a valid signal.
const MinWindow = 50

// Score thresholds and bands. buy/sell fire only at >= decisionThreshold,
// compared as floats since the seasonal multiplier is fractional.
const (
	decisionThreshold = 4.0
	rsiModerateBuy    = 40.0
	rsiModerateSell   = 60.0
	volumeSpikeRatio  = 1.5
)

// Engine evaluates indicator snapshots into signals. Stateless apart from
// its configured RSI extremes; Evaluate is a pure function of its inputs.
type Engine struct {
	rsiOversold   float64
	rsiOverbought float64
}

// NewEngine creates a signal engine with the given RSI extremes
// (typically 30 and 70).
func NewEngine(rsiOversold, rsiOverbought float64) *Engine {
	return &Engine{
		rsiOversold:   rsiOversold,
		rsiOverbought: rsiOverbought,
	}
}

// Evaluate scores the latest two snapshots of the window. Returns Hold when
// the window is too short or either snapshot has undefined indicators.
func (e *Engine) Evaluate(snaps []indicator.Snapshot, month time.Month) Signal {
	if len(snaps) < MinWindow {
		return Hold
	}
	latest := snaps[len(snaps)-1]
	prev := snaps[len(snaps)-2]
	return e.EvaluatePair(latest, prev, month)
}

// EvaluatePair scores a single latest/previous snapshot pair.
func (e *Engine) EvaluatePair(latest, prev indicator.Snapshot, month time.Month) Signal {
	if !latest.Complete() || !prev.Complete() {
		return Hold
	}

	var buyScore, sellScore float64

	// RSI bands
	switch {
	case latest.RSI < e.rsiOversold:
		buyScore += 2
	case latest.RSI < rsiModerateBuy:
		buyScore++
	case latest.RSI > e.rsiOverbought:
		sellScore += 2
	case latest.RSI > rsiModerateSell:
		sellScore++
	}

	// MACD crossover: bullish and bearish cross are mutually exclusive
	if latest.MACD > latest.MACDSignal && prev.MACD <= prev.MACDSignal {
		buyScore += 2
	} else if latest.MACD < latest.MACDSignal && prev.MACD >= prev.MACDSignal {
		sellScore += 2
	}

	// Bollinger band breach
	if latest.Close < latest.BBLower {
		buyScore++
	} else if latest.Close > latest.BBUpper {
		sellScore++
	}

	// Volume confirmation: reinforce whichever side already leads
	if latest.Volume > volumeSpikeRatio*latest.VolumeSMA {
		if buyScore > sellScore {
			buyScore++
		} else if sellScore > buyScore {
			sellScore++
		}
	}

	// Seasonal bias scales the buy side only
	buyScore *= seasonal.Factor(month)

	switch {
	case buyScore >= decisionThreshold && buyScore > sellScore:
		return Buy
	case sellScore >= decisionThreshold && sellScore > buyScore:
		return Sell
	default:
		return Hold
	}
}
