// Package results writes the end-of-run summary to a JSON file and fans
// the summary out to multiple sinks.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"trading-botv1/internal/model"
)

// timeLayout matches the timestamp format in the results file.
const timeLayout = "2006-01-02 15:04:05"

// FileSink writes a results file holding the final balances and full
// trade history. The file is replaced atomically on each Persist.
type FileSink struct {
	path string
	log  *slog.Logger
}

// NewFileSink creates a sink writing to path (e.g. "trading_results.json").
func NewFileSink(path string, log *slog.Logger) *FileSink {
	if log == nil {
		log = slog.Default()
	}
	return &FileSink{path: path, log: log}
}

type fileTrade struct {
	Timestamp string  `json:"timestamp"`
	Type      string  `json:"type"`
	Price     float64 `json:"price"`
	Amount    float64 `json:"amount"`
	Value     float64 `json:"value"`
}

type fileResults struct {
	FinalBalance map[string]float64 `json:"final_balance"`
	Trades       []fileTrade        `json:"trades"`
}

// Persist writes the summary file.
func (s *FileSink) Persist(final model.Balance, trades []model.Trade) error {
	out := fileResults{
		FinalBalance: map[string]float64{
			"USDT": final.Quote,
			"BTC":  final.Base,
		},
		Trades: make([]fileTrade, 0, len(trades)),
	}
	for _, t := range trades {
		out.Trades = append(out.Trades, fileTrade{
			Timestamp: t.TS.UTC().Format(timeLayout),
			Type:      string(t.Side),
			Price:     t.Price,
			Amount:    t.BaseAmount,
			Value:     t.QuoteValue,
		})
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	// Write to a temp file in the same directory, then rename.
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".results-*.json")
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write results: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write results: %w", err)
	}

	s.log.Info("results saved", "path", s.path, "trades", len(trades))
	return nil
}

// MultiSink fans Persist out to every sink, collecting all errors so one
// failing sink never blocks the others.
type MultiSink []model.ResultSink

// Persist calls every sink and joins their errors.
func (m MultiSink) Persist(final model.Balance, trades []model.Trade) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Persist(final, trades); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
