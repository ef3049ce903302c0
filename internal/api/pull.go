package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rickgao/market-pulse/internal/model"
)

// GetMarket fetches the market snapshot for symbol.
func (c *Client) GetMarket(ctx context.Context, symbol string) (*model.MarketSnapshot, error) {
	var resp model.MarketSnapshot
	if err := c.get(ctx, categoryPath(model.CategoryMarket, symbol), nil, &resp); err != nil {
		return nil, fmt.Errorf("get market %s: %w", symbol, err)
	}
	if resp.Symbol == "" {
		resp.Symbol = symbol
	}
	resp.Symbol = model.NormalizeSymbol(resp.Symbol)
	return &resp, nil
}

// GetTechnical fetches technical indicators for symbol.
func (c *Client) GetTechnical(ctx context.Context, symbol string) (*model.TechnicalIndicators, error) {
	var resp model.TechnicalIndicators
	if err := c.get(ctx, categoryPath(model.CategoryTechnical, symbol), nil, &resp); err != nil {
		return nil, fmt.Errorf("get technical %s: %w", symbol, err)
	}
	if resp.Symbol == "" {
		resp.Symbol = symbol
	}
	resp.Symbol = model.NormalizeSymbol(resp.Symbol)
	return &resp, nil
}

// GetPerformance fetches performance metrics for symbol.
func (c *Client) GetPerformance(ctx context.Context, symbol string) (*model.PerformanceMetrics, error) {
	var resp model.PerformanceMetrics
	if err := c.get(ctx, categoryPath(model.CategoryPerformance, symbol), nil, &resp); err != nil {
		return nil, fmt.Errorf("get performance %s: %w", symbol, err)
	}
	if resp.Symbol == "" {
		resp.Symbol = symbol
	}
	resp.Symbol = model.NormalizeSymbol(resp.Symbol)
	return &resp, nil
}

// Fetch pulls one category for symbol. The result is a
// *model.MarketSnapshot, *model.TechnicalIndicators or
// *model.PerformanceMetrics.
func (c *Client) Fetch(ctx context.Context, category model.Category, symbol string) (any, error) {
	switch category {
	case model.CategoryMarket:
		return c.GetMarket(ctx, symbol)
	case model.CategoryTechnical:
		return c.GetTechnical(ctx, symbol)
	case model.CategoryPerformance:
		return c.GetPerformance(ctx, symbol)
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
}

// symbolsResponse is the wire format of GET /symbols.
type symbolsResponse struct {
	Symbols []string `json:"symbols"`
}

// GetSymbols lists the symbols the service can serve.
func (c *Client) GetSymbols(ctx context.Context) ([]string, error) {
	var resp symbolsResponse
	if err := c.get(ctx, "/symbols", nil, &resp); err != nil {
		return nil, fmt.Errorf("get symbols: %w", err)
	}
	out := make([]string, 0, len(resp.Symbols))
	for _, s := range resp.Symbols {
		if s = model.NormalizeSymbol(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func categoryPath(category model.Category, symbol string) string {
	return "/" + string(category) + "/" + url.PathEscape(symbol)
}
