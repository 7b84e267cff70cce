package scan

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ggonzalez94/arbchat/internal/model"
)

// Quoter fetches one atomic price snapshot.
type Quoter interface {
	FetchQuote(ctx context.Context) (model.PriceQuote, error)
}

// ScanLog persists observations beyond the in-memory window.
type ScanLog interface {
	AppendScan(scan model.PriceScan, keep int) error
}

const (
	DefaultInterval = 15 * time.Second
	DefaultWindow   = 50
)

// Scanner polls the price feed on a fixed interval and keeps a bounded
// window of observations. A failed poll is logged and dropped; the window
// only ever contains successful observations.
type Scanner struct {
	oracle   Quoter
	log      ScanLog
	logger   *slog.Logger
	interval time.Duration
	window   int

	mu    sync.Mutex
	scans []model.PriceScan
}

func New(oracle Quoter, log ScanLog, logger *slog.Logger, interval time.Duration, window int) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Scanner{
		oracle:   oracle,
		log:      log,
		logger:   logger,
		interval: interval,
		window:   window,
	}
}

// Run polls until the context is cancelled. The first poll happens
// immediately so the window is never empty longer than one fetch.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Scanner) poll(ctx context.Context) {
	quote, err := s.oracle.FetchQuote(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("price scan failed, observation dropped", "error", err)
		return
	}
	s.record(observe(quote))
}

// observe derives the scan row from a quote. The arbitrage percentage is
// the best spread of either chain's price over the zcash price.
func observe(quote model.PriceQuote) model.PriceScan {
	scan := model.PriceScan{
		Timestamp:   quote.FetchedAt,
		ZcashUSD:    quote.ZcashUSD,
		EthereumUSD: quote.EthereumUSD,
		SolanaUSD:   quote.SolanaUSD,
	}
	if quote.ZcashUSD > 0 {
		ethSpread := (quote.EthereumUSD - quote.ZcashUSD) / quote.ZcashUSD * 100
		solSpread := (quote.SolanaUSD - quote.ZcashUSD) / quote.ZcashUSD * 100
		scan.ArbPercent = ethSpread
		if solSpread > ethSpread {
			scan.ArbPercent = solSpread
		}
	}
	return scan
}

func (s *Scanner) record(scan model.PriceScan) {
	s.mu.Lock()
	s.scans = append(s.scans, scan)
	if len(s.scans) > s.window {
		s.scans = s.scans[len(s.scans)-s.window:]
	}
	s.mu.Unlock()

	if s.log != nil {
		if err := s.log.AppendScan(scan, s.window); err != nil {
			s.logger.Warn("persist price scan failed", "error", err)
		}
	}
}

// Recent returns the window's observations, newest first.
func (s *Scanner) Recent(limit int) []model.PriceScan {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.scans)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]model.PriceScan, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.scans[i])
	}
	return out
}
