package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset type constants
const (
	AssetTypeStock      = "STOCK"
	AssetTypeCrypto     = "CRYPTO"
	AssetTypeRealEstate = "REAL_ESTATE"
	AssetTypeCash       = "CASH"
	AssetTypeCustom     = "CUSTOM"
)

// Position represents a single holding inside a portfolio. The AssetType tag
// decides which of the variant fields are meaningful:
//
//	STOCK, CRYPTO:  Symbol, Quantity, CostBasis
//	REAL_ESTATE:    Name, PropertyValue, AppreciationRate
//	CASH:           Name, Amount
//	CUSTOM:         Name, Value
type Position struct {
	ID               string          `json:"id"`
	PortfolioID      string          `json:"portfolio_id"`
	AssetType        string          `json:"asset_type"`
	Symbol           string          `json:"symbol,omitempty"`
	Name             string          `json:"name,omitempty"`
	Quantity         decimal.Decimal `json:"quantity,omitempty"`
	CostBasis        decimal.Decimal `json:"cost_basis,omitempty"`
	PropertyValue    decimal.Decimal `json:"property_value,omitempty"`
	AppreciationRate decimal.Decimal `json:"appreciation_rate,omitempty"`
	Amount           decimal.Decimal `json:"amount,omitempty"`
	Value            decimal.Decimal `json:"value,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Quote is the latest price for a symbol as reported by a price provider
type Quote struct {
	LatestPrice   decimal.Decimal `json:"latest_price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}
