package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Quote is a simulated price tick for one symbol.
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Time   time.Time       `json:"time"`
}

// MarketQuoteService generates simulated quotes with a random walk. It is a
// stub price feed: challenges trade against these quotes, no real market
// data is involved.
type MarketQuoteService struct {
	logger *zap.Logger

	mu        sync.RWMutex
	prices    map[string]decimal.Decimal
	precision map[string]int32

	subMu sync.Mutex
	subs  map[chan []Quote]struct{}

	rng  *rand.Rand
	step time.Duration
}

// Seed prices per symbol. Four-decimal forex pairs walk in pips; crypto and
// stocks walk proportionally to price.
var seedPrices = map[string]string{
	"EURUSD":  "1.0932",
	"GBPUSD":  "1.2648",
	"USDJPY":  "148.2100",
	"BTCUSDT": "64230.50",
	"ETHUSDT": "3412.75",
	"AAPL":    "187.42",
	"TSLA":    "244.10",
}

// NewMarketQuoteService creates a new MarketQuoteService
func NewMarketQuoteService(logger *zap.Logger) *MarketQuoteService {
	prices := make(map[string]decimal.Decimal, len(seedPrices))
	precision := make(map[string]int32, len(seedPrices))
	for symbol, raw := range seedPrices {
		price := decimal.RequireFromString(raw)
		prices[symbol] = price
		precision[symbol] = -price.Exponent()
	}

	return &MarketQuoteService{
		logger:    logger,
		prices:    prices,
		precision: precision,
		subs:      make(map[chan []Quote]struct{}),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		step:      time.Second,
	}
}

// Run advances the random walk until ctx is cancelled, fanning each tick out
// to subscribers.
func (s *MarketQuoteService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.step)
	defer ticker.Stop()

	s.logger.Info("market quote feed started", zap.Int("symbols", len(s.prices)))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("market quote feed stopped")
			return
		case <-ticker.C:
			quotes := s.tick()
			s.broadcast(quotes)
		}
	}
}

// Quotes returns the latest quote for every known symbol.
func (s *MarketQuoteService) Quotes() []Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	quotes := make([]Quote, 0, len(s.prices))
	for symbol, price := range s.prices {
		quotes = append(quotes, Quote{Symbol: symbol, Price: price, Time: now})
	}
	return quotes
}

// Price returns the latest quote for one symbol.
func (s *MarketQuoteService) Price(symbol string) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.prices[symbol]
	return price, ok
}

// Subscribe registers a listener for tick batches. The returned channel is
// closed by Unsubscribe. Slow listeners drop ticks rather than block the
// feed.
func (s *MarketQuoteService) Subscribe() chan []Quote {
	ch := make(chan []Quote, 8)

	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (s *MarketQuoteService) Unsubscribe(ch chan []Quote) {
	s.subMu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.subMu.Unlock()
}

// tick moves every price one random-walk step: +/- up to 0.05% of the
// current price, rounded to the symbol's quoted precision.
func (s *MarketQuoteService) tick() []Quote {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	quotes := make([]Quote, 0, len(s.prices))
	for symbol, price := range s.prices {
		drift := (s.rng.Float64() - 0.5) / 1000 // +/-0.05%
		delta := price.Mul(decimal.NewFromFloat(drift))
		next := price.Add(delta).Round(s.precision[symbol])
		if next.IsNegative() || next.IsZero() {
			next = price
		}
		s.prices[symbol] = next
		quotes = append(quotes, Quote{Symbol: symbol, Price: next, Time: now})
	}

	return quotes
}

func (s *MarketQuoteService) broadcast(quotes []Quote) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- quotes:
		default:
			// listener is behind; skip this tick for it
		}
	}
}
