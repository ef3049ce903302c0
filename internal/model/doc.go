// Package model defines the market payloads shared by the pull and push
// paths and the dashboard.
//
// Conventions:
//   - Prices: decimal.Decimal, serialized as JSON strings
//   - Indicator series (RSI, MACD, accuracy): float64
//   - Timestamps: time.Time, RFC 3339 on the wire
//   - Symbol: upper-case exchange symbol (e.g. "BTCUSDT")
package model
