package indicator

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA_RollingWindow(t *testing.T) {
	s := NewSMA(3)

	s.Update(1)
	s.Update(2)
	if s.Ready() {
		t.Fatal("SMA should not be ready with 2 of 3 values")
	}

	s.Update(3)
	if !s.Ready() {
		t.Fatal("SMA should be ready after 3 values")
	}
	if !almostEqual(s.Value(), 2.0) {
		t.Errorf("expected SMA=2.0, got %.6f", s.Value())
	}

	s.Update(4)
	if !almostEqual(s.Value(), 3.0) {
		t.Errorf("expected SMA=3.0 after rolling, got %.6f", s.Value())
	}
	s.Update(5)
	if !almostEqual(s.Value(), 4.0) {
		t.Errorf("expected SMA=4.0 after rolling, got %.6f", s.Value())
	}
}

func TestEMA_SeedAndSmoothing(t *testing.T) {
	e := NewEMA(3) // multiplier = 0.5

	e.Update(1)
	e.Update(2)
	if e.Ready() {
		t.Fatal("EMA should not be ready before the seed completes")
	}
	e.Update(3)
	if !e.Ready() {
		t.Fatal("EMA should be ready after `period` values")
	}
	// Seed = SMA(1,2,3) = 2
	if !almostEqual(e.Value(), 2.0) {
		t.Errorf("expected EMA seed=2.0, got %.6f", e.Value())
	}

	// Next: 4*0.5 + 2*0.5 = 3
	e.Update(4)
	if !almostEqual(e.Value(), 3.0) {
		t.Errorf("expected EMA=3.0, got %.6f", e.Value())
	}
}

func TestRSI_Bounds(t *testing.T) {
	// Strictly rising prices: no losses, RSI pegs at 100.
	r := NewRSI(14)
	for i := 0; i < 20; i++ {
		r.Update(100 + float64(i))
	}
	if !r.Ready() {
		t.Fatal("RSI should be ready after period+1 values")
	}
	if !almostEqual(r.Value(), 100.0) {
		t.Errorf("expected RSI=100 on rising prices, got %.4f", r.Value())
	}

	// Strictly falling prices: no gains, RSI pegs at 0.
	r = NewRSI(14)
	for i := 0; i < 20; i++ {
		r.Update(100 - float64(i))
	}
	if !almostEqual(r.Value(), 0.0) {
		t.Errorf("expected RSI=0 on falling prices, got %.4f", r.Value())
	}
}

func TestRSI_WarmupBoundary(t *testing.T) {
	r := NewRSI(14)
	for i := 0; i < 14; i++ {
		r.Update(float64(100 + i%3))
		if r.Ready() {
			t.Fatalf("RSI ready after only %d values", i+1)
		}
	}
	r.Update(101)
	if !r.Ready() {
		t.Fatal("RSI should be ready after 15 values")
	}
}

func TestRSI_BalancedGainsLosses(t *testing.T) {
	// period=2, one gain of 1 and one loss of 1 → RS=1 → RSI=50
	r := NewRSI(2)
	r.Update(10)
	r.Update(11)
	r.Update(10)
	if !r.Ready() {
		t.Fatal("RSI should be ready")
	}
	if !almostEqual(r.Value(), 50.0) {
		t.Errorf("expected RSI=50, got %.4f", r.Value())
	}
}

func TestMACD_ConstantSeries(t *testing.T) {
	m := NewMACD(12, 26, 9)
	for i := 0; i < 60; i++ {
		m.Update(500.0)
	}
	if !m.Ready() {
		t.Fatal("MACD should be ready after 60 values")
	}
	if !almostEqual(m.Line(), 0) || !almostEqual(m.SignalLine(), 0) || !almostEqual(m.Hist(), 0) {
		t.Errorf("expected flat MACD on constant series, got line=%.6f signal=%.6f hist=%.6f",
			m.Line(), m.SignalLine(), m.Hist())
	}
}

func TestMACD_WarmupBoundaries(t *testing.T) {
	m := NewMACD(12, 26, 9)
	for i := 1; i <= 40; i++ {
		m.Update(float64(100 + i))
		switch {
		case i < 26 && m.LineReady():
			t.Fatalf("MACD line ready after only %d values", i)
		case i == 26 && !m.LineReady():
			t.Fatal("MACD line should be ready at value 26")
		case i < 34 && m.Ready():
			t.Fatalf("MACD signal ready after only %d values", i)
		case i == 34 && !m.Ready():
			t.Fatal("MACD signal should be ready at value 34")
		}
	}
	// Rising series: fast EMA above slow EMA → positive line.
	if m.Line() <= 0 {
		t.Errorf("expected positive MACD line on rising series, got %.6f", m.Line())
	}
}

func TestBollinger_ConstantSeries(t *testing.T) {
	b := NewBollinger(20, 2)
	for i := 0; i < 25; i++ {
		b.Update(42.0)
	}
	if !b.Ready() {
		t.Fatal("Bollinger should be ready")
	}
	if !almostEqual(b.Upper(), 42) || !almostEqual(b.Middle(), 42) || !almostEqual(b.Lower(), 42) {
		t.Errorf("expected collapsed bands at 42, got upper=%.4f mid=%.4f lower=%.4f",
			b.Upper(), b.Middle(), b.Lower())
	}
}

func TestBollinger_KnownDeviation(t *testing.T) {
	// Population σ of {2,4,4,4,5,5,7,9} is exactly 2, mean is 5.
	b := NewBollinger(8, 2)
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		b.Update(v)
	}
	if !b.Ready() {
		t.Fatal("Bollinger should be ready after 8 values")
	}
	if !almostEqual(b.Middle(), 5) {
		t.Errorf("expected middle=5, got %.6f", b.Middle())
	}
	if !almostEqual(b.Upper(), 9) {
		t.Errorf("expected upper=9, got %.6f", b.Upper())
	}
	if !almostEqual(b.Lower(), 1) {
		t.Errorf("expected lower=1, got %.6f", b.Lower())
	}
}
