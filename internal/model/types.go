package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category names a class of dashboard data. Each category has its own pull
// endpoint and push tag.
type Category string

const (
	CategoryMarket      Category = "market"
	CategoryTechnical   Category = "technical"
	CategoryPerformance Category = "performance"
)

// Categories lists every pullable category in refresh order.
var Categories = []Category{CategoryMarket, CategoryTechnical, CategoryPerformance}

// NormalizeSymbol upper-cases and trims a symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// -----------------------------------------------------------------------------
// Market
// -----------------------------------------------------------------------------

// MarketSnapshot is the latest price summary for one symbol.
type MarketSnapshot struct {
	Symbol           string          `json:"symbol"`
	Price            decimal.Decimal `json:"price"`
	Change24h        decimal.Decimal `json:"change_24h"`
	ChangePercent24h decimal.Decimal `json:"change_percent_24h"`
	High24h          decimal.Decimal `json:"high_24h"`
	Low24h           decimal.Decimal `json:"low_24h"`
	Volume24h        decimal.Decimal `json:"volume_24h"`
	Timestamp        time.Time       `json:"timestamp"`
}

// Direction reports whether the 24h change is up (1), down (-1) or flat (0).
func (m MarketSnapshot) Direction() int {
	return m.Change24h.Sign()
}

// -----------------------------------------------------------------------------
// Technical
// -----------------------------------------------------------------------------

// Candle is one OHLCV bar.
type Candle struct {
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// TechnicalIndicators carries chart series for the technical panel. The
// values are rendered as received; nothing here recomputes them.
type TechnicalIndicators struct {
	Symbol    string    `json:"symbol"`
	Candles   []Candle  `json:"candlesticks"`
	Volume    []float64 `json:"volume"`
	RSI       []float64 `json:"rsi"`
	MACD      []float64 `json:"macd"`
	Timestamp time.Time `json:"timestamp"`
}

// LatestClose returns the close of the last candle, or false when there are
// no candles.
func (t TechnicalIndicators) LatestClose() (decimal.Decimal, bool) {
	if len(t.Candles) == 0 {
		return decimal.Zero, false
	}
	return t.Candles[len(t.Candles)-1].Close, true
}

// -----------------------------------------------------------------------------
// Performance
// -----------------------------------------------------------------------------

// PredictionPoint pairs a model prediction with the realized value. Actual
// is nil until the outcome is known.
type PredictionPoint struct {
	Time      time.Time        `json:"time"`
	Predicted decimal.Decimal  `json:"predicted"`
	Actual    *decimal.Decimal `json:"actual,omitempty"`
}

// PerformanceMetrics carries the performance panel series.
type PerformanceMetrics struct {
	Symbol      string            `json:"symbol"`
	Accuracy    []float64         `json:"accuracy"`
	Predictions []PredictionPoint `json:"predictions"`
	AlertCounts map[string]int    `json:"alerts"`
	Timestamp   time.Time         `json:"timestamp"`
}
