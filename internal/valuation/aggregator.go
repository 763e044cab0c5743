// Package valuation reduces a portfolio's positions to per-asset-class
// totals and a grand total. Compute is a pure read: it never writes and is
// deterministic for a fixed price snapshot.
package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/finwatch/networth-pipeline/internal/docstore"
	"github.com/finwatch/networth-pipeline/internal/models"
	"github.com/shopspring/decimal"
)

// PriceSource is the slice of the quote service the aggregator needs
type PriceSource interface {
	GetPrices(ctx context.Context, assetType string, symbols []string) (map[string]models.Quote, error)
}

// Aggregator computes valuation snapshots for portfolios
type Aggregator struct {
	store  docstore.Store
	prices PriceSource
}

// NewAggregator creates a valuation aggregator
func NewAggregator(store docstore.Store, prices PriceSource) *Aggregator {
	return &Aggregator{store: store, prices: prices}
}

// Compute values every position in the portfolio and returns the snapshot
// dated now. Stock and crypto positions are priced with one batched oracle
// call per asset class; a position whose symbol has no quote falls back to
// its cost basis, so a missing quote never fails the valuation. Store errors
// surface to the caller.
func (a *Aggregator) Compute(ctx context.Context, portfolioID string) (*models.DailyBalance, error) {
	balance := &models.DailyBalance{
		Date:            time.Now().UTC(),
		StocksValue:     decimal.Zero,
		CryptoValue:     decimal.Zero,
		RealEstateValue: decimal.Zero,
		CashValue:       decimal.Zero,
		CustomsValue:    decimal.Zero,
		TotalValue:      decimal.Zero,
	}

	for _, sub := range models.PositionSubCollections() {
		assetType, err := models.AssetTypeForSubCollection(sub)
		if err != nil {
			return nil, err
		}

		docs, err := a.store.Find(ctx, models.PortfolioSubPath(portfolioID, sub), nil, nil, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s positions for portfolio %s: %w", sub, portfolioID, err)
		}
		if len(docs) == 0 {
			continue
		}

		positions := make([]*models.Position, 0, len(docs))
		for _, doc := range docs {
			positions = append(positions, models.PositionFromDocument(doc.ID, portfolioID, assetType, doc.Data))
		}

		total, err := a.sumPositions(ctx, assetType, positions)
		if err != nil {
			return nil, err
		}

		switch assetType {
		case models.AssetTypeStock:
			balance.StocksValue = total
		case models.AssetTypeCrypto:
			balance.CryptoValue = total
		case models.AssetTypeRealEstate:
			balance.RealEstateValue = total
		case models.AssetTypeCash:
			balance.CashValue = total
		case models.AssetTypeCustom:
			balance.CustomsValue = total
		default:
			return nil, fmt.Errorf("unhandled asset type: %s", assetType)
		}
	}

	balance.TotalValue = balance.StocksValue.
		Add(balance.CryptoValue).
		Add(balance.RealEstateValue).
		Add(balance.CashValue).
		Add(balance.CustomsValue)

	return balance, nil
}

func (a *Aggregator) sumPositions(ctx context.Context, assetType string, positions []*models.Position) (decimal.Decimal, error) {
	total := decimal.Zero

	switch assetType {
	case models.AssetTypeStock, models.AssetTypeCrypto:
		symbols := make([]string, 0, len(positions))
		for _, p := range positions {
			symbols = append(symbols, p.Symbol)
		}
		priced, err := a.prices.GetPrices(ctx, assetType, symbols)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to price %s positions: %w", assetType, err)
		}
		for _, p := range positions {
			total = total.Add(marketValue(p, priced))
		}
	case models.AssetTypeRealEstate:
		// Appreciation rate is informational; the stored value is the
		// current market value.
		for _, p := range positions {
			total = total.Add(p.PropertyValue)
		}
	case models.AssetTypeCash:
		for _, p := range positions {
			total = total.Add(p.Amount)
		}
	case models.AssetTypeCustom:
		for _, p := range positions {
			total = total.Add(p.Value)
		}
	default:
		return decimal.Zero, fmt.Errorf("unhandled asset type: %s", assetType)
	}

	return total, nil
}

func marketValue(p *models.Position, priced map[string]models.Quote) decimal.Decimal {
	if q, ok := priced[normalizeSymbol(p.Symbol)]; ok {
		return p.Quantity.Mul(q.LatestPrice)
	}
	return p.Quantity.Mul(p.CostBasis)
}
