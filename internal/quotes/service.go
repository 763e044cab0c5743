// Package quotes is the price oracle: it answers "latest price for these
// symbols" for one asset class per call, batching symbols into a single
// provider request.
package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finwatch/networth-pipeline/internal/models"
)

// Provider fetches latest quotes for a list of symbols from an upstream
// market-data API. Unknown symbols are omitted from the result, never an
// error for the whole batch.
type Provider interface {
	FetchQuotes(ctx context.Context, symbols []string) (map[string]models.Quote, error)
}

// Service fronts the per-asset-class providers. It upper-cases and dedupes
// symbols so callers can pass position lists as-is.
type Service struct {
	stocks  Provider
	crypto  Provider
	timeout time.Duration
}

// NewService creates a quote service. timeout bounds each provider call.
func NewService(stocks, crypto Provider, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{stocks: stocks, crypto: crypto, timeout: timeout}
}

// GetPrices returns the latest quote per symbol for one asset class. The
// input may contain duplicates and mixed case; the result is keyed by
// upper-cased symbol. Symbols the provider does not know are absent.
func (s *Service) GetPrices(ctx context.Context, assetType string, symbols []string) (map[string]models.Quote, error) {
	deduped := dedupeSymbols(symbols)
	if len(deduped) == 0 {
		return map[string]models.Quote{}, nil
	}

	var provider Provider
	switch assetType {
	case models.AssetTypeStock:
		provider = s.stocks
	case models.AssetTypeCrypto:
		provider = s.crypto
	default:
		return nil, fmt.Errorf("no price provider for asset type %s", assetType)
	}
	if provider == nil {
		return nil, fmt.Errorf("no %s provider configured", assetType)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := provider.FetchQuotes(ctx, deduped)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s quotes: %w", assetType, err)
	}

	// Normalize provider keys so lookups by upper-cased symbol always hit
	normalized := make(map[string]models.Quote, len(result))
	for sym, q := range result {
		normalized[strings.ToUpper(sym)] = q
	}
	return normalized, nil
}

func dedupeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	var out []string
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}
