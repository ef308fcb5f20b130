package indicator

// MACD calculates Moving Average Convergence Divergence:
// line = EMA(fast) − EMA(slow), signal = EMA(line, signalPeriod),
// histogram = line − signal. Composed from the streaming EMA primitive.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
	line   float64
	sig    float64
}

// NewMACD creates a MACD indicator (typically 12/26/9).
func NewMACD(fastPeriod, slowPeriod, signalPeriod int) *MACD {
	return &MACD{
		fast:   NewEMA(fastPeriod),
		slow:   NewEMA(slowPeriod),
		signal: NewEMA(signalPeriod),
	}
}

func (m *MACD) Name() string { return "MACD" }

func (m *MACD) Update(v float64) {
	m.fast.Update(v)
	m.slow.Update(v)
	if !m.slow.Ready() {
		// fast < slow, so the fast EMA is always ready first
		return
	}
	m.line = m.fast.Value() - m.slow.Value()
	m.signal.Update(m.line)
	if m.signal.Ready() {
		m.sig = m.signal.Value()
	}
}

// Line returns the MACD line. Only meaningful once LineReady.
func (m *MACD) Line() float64 { return m.line }

// SignalLine returns the signal line. Only meaningful once Ready.
func (m *MACD) SignalLine() float64 { return m.sig }

// Hist returns line − signal.
func (m *MACD) Hist() float64 { return m.line - m.sig }

// LineReady reports whether the MACD line itself is defined.
func (m *MACD) LineReady() bool { return m.slow.Ready() }

// Ready reports whether both the line and the signal line are defined.
func (m *MACD) Ready() bool { return m.signal.Ready() }
