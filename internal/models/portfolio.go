package models

import (
	"fmt"
	"time"
)

// Collection names in the document store
const (
	CollectionPortfolios = "portfolios"
	CollectionAlerts     = "alerts"

	SubCollectionStocks        = "stocks"
	SubCollectionCrypto        = "crypto"
	SubCollectionRealEstate    = "realEstate"
	SubCollectionCash          = "cash"
	SubCollectionCustomAssets  = "customAssets"
	SubCollectionDailyBalances = "dailyBalances"
	SubCollectionLog           = "log"
)

// Portfolio represents a named collection of positions owned by one user
type Portfolio struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Public    bool      `json:"public"`
	CreatedAt time.Time `json:"created_at"`
}

// PortfolioLogItem is an append-only audit trail entry for a portfolio
type PortfolioLogItem struct {
	PortfolioID string    `json:"portfolio_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// PortfolioSubPath returns the document path of a portfolio sub-collection,
// e.g. portfolios/<id>/stocks.
func PortfolioSubPath(portfolioID, sub string) string {
	return fmt.Sprintf("%s/%s/%s", CollectionPortfolios, portfolioID, sub)
}

// PositionSubCollections lists the five position sub-collections in the
// order their totals appear on a DailyBalance.
func PositionSubCollections() []string {
	return []string{
		SubCollectionStocks,
		SubCollectionCrypto,
		SubCollectionRealEstate,
		SubCollectionCash,
		SubCollectionCustomAssets,
	}
}

// AssetTypeForSubCollection maps a position sub-collection name to its
// asset-type tag.
func AssetTypeForSubCollection(sub string) (string, error) {
	switch sub {
	case SubCollectionStocks:
		return AssetTypeStock, nil
	case SubCollectionCrypto:
		return AssetTypeCrypto, nil
	case SubCollectionRealEstate:
		return AssetTypeRealEstate, nil
	case SubCollectionCash:
		return AssetTypeCash, nil
	case SubCollectionCustomAssets:
		return AssetTypeCustom, nil
	default:
		return "", fmt.Errorf("unknown position sub-collection: %s", sub)
	}
}
