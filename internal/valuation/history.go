package valuation

import (
	"context"
	"fmt"

	"github.com/finwatch/networth-pipeline/internal/docstore"
	"github.com/finwatch/networth-pipeline/internal/models"
)

// RecentBalances returns a portfolio's valuation snapshots newest first,
// truncated to at most limit entries. limit <= 0 returns the full history.
func RecentBalances(ctx context.Context, store docstore.Store, portfolioID string, limit int) ([]*models.DailyBalance, error) {
	docs, err := store.Find(ctx,
		models.PortfolioSubPath(portfolioID, models.SubCollectionDailyBalances),
		nil, &docstore.OrderBy{Field: "date", Desc: true}, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balance history for portfolio %s: %w", portfolioID, err)
	}

	balances := make([]*models.DailyBalance, 0, len(docs))
	for _, doc := range docs {
		balances = append(balances, models.DailyBalanceFromDocument(doc.Data))
	}
	return balances, nil
}

// RecentLog returns a portfolio's audit trail newest first, truncated to at
// most limit entries.
func RecentLog(ctx context.Context, store docstore.Store, portfolioID string, limit int) ([]*models.PortfolioLogItem, error) {
	docs, err := store.Find(ctx,
		models.PortfolioSubPath(portfolioID, models.SubCollectionLog),
		nil, &docstore.OrderBy{Field: "created_at", Desc: true}, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch log for portfolio %s: %w", portfolioID, err)
	}

	items := make([]*models.PortfolioLogItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, models.PortfolioLogItemFromDocument(portfolioID, doc.Data))
	}
	return items, nil
}
