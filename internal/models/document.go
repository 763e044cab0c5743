package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Converters between typed models and the schemaless documents the store
// hands back. Numeric fields may arrive as float64, string, or json.Number
// depending on the store backend, so all of them go through docDecimal.

// PortfolioFromDocument maps a portfolio document to a Portfolio
func PortfolioFromDocument(id string, data map[string]any) *Portfolio {
	return &Portfolio{
		ID:        id,
		UserID:    docString(data, "user_id"),
		Name:      docString(data, "name"),
		Public:    docBool(data, "public"),
		CreatedAt: docTime(data, "created_at"),
	}
}

// PositionFromDocument maps a position document to a Position
func PositionFromDocument(id, portfolioID, assetType string, data map[string]any) *Position {
	return &Position{
		ID:               id,
		PortfolioID:      portfolioID,
		AssetType:        assetType,
		Symbol:           docString(data, "symbol"),
		Name:             docString(data, "name"),
		Quantity:         docDecimal(data, "quantity"),
		CostBasis:        docDecimal(data, "cost_basis"),
		PropertyValue:    docDecimal(data, "property_value"),
		AppreciationRate: docDecimal(data, "appreciation_rate"),
		Amount:           docDecimal(data, "amount"),
		Value:            docDecimal(data, "value"),
		CreatedAt:        docTime(data, "created_at"),
	}
}

// AlertFromDocument maps an alert document to an Alert
func AlertFromDocument(id string, data map[string]any) *Alert {
	return &Alert{
		ID:               id,
		UserID:           docString(data, "user_id"),
		Symbol:           docString(data, "symbol"),
		AssetType:        docString(data, "asset_type"),
		Condition:        docString(data, "condition"),
		Price:            docDecimal(data, "price"),
		Destination:      docString(data, "destination"),
		DestinationValue: docString(data, "destination_value"),
		Mode:             docString(data, "mode"),
		CreatedAt:        docTime(data, "created_at"),
	}
}

// ToDocument maps an Alert to its document form
func (a *Alert) ToDocument() map[string]any {
	return map[string]any{
		"user_id":           a.UserID,
		"symbol":            a.Symbol,
		"asset_type":        a.AssetType,
		"condition":         a.Condition,
		"price":             a.Price.String(),
		"destination":       a.Destination,
		"destination_value": a.DestinationValue,
		"mode":              a.Mode,
		"created_at":        a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToDocument maps a DailyBalance to its document form. Decimals are stored
// as strings so the store backend never rounds them.
func (b *DailyBalance) ToDocument() map[string]any {
	return map[string]any{
		"date":              b.Date.UTC().Format(time.RFC3339),
		"stocks_value":      b.StocksValue.String(),
		"crypto_value":      b.CryptoValue.String(),
		"real_estate_value": b.RealEstateValue.String(),
		"cash_value":        b.CashValue.String(),
		"customs_value":     b.CustomsValue.String(),
		"total_value":       b.TotalValue.String(),
	}
}

// DailyBalanceFromDocument maps a daily balance document back to a DailyBalance
func DailyBalanceFromDocument(data map[string]any) *DailyBalance {
	return &DailyBalance{
		Date:            docTime(data, "date"),
		StocksValue:     docDecimal(data, "stocks_value"),
		CryptoValue:     docDecimal(data, "crypto_value"),
		RealEstateValue: docDecimal(data, "real_estate_value"),
		CashValue:       docDecimal(data, "cash_value"),
		CustomsValue:    docDecimal(data, "customs_value"),
		TotalValue:      docDecimal(data, "total_value"),
	}
}

// PortfolioLogItemFromDocument maps a log document back to a PortfolioLogItem
func PortfolioLogItemFromDocument(portfolioID string, data map[string]any) *PortfolioLogItem {
	return &PortfolioLogItem{
		PortfolioID: portfolioID,
		Description: docString(data, "description"),
		CreatedAt:   docTime(data, "created_at"),
	}
}

// ToDocument maps a PortfolioLogItem to its document form
func (l *PortfolioLogItem) ToDocument() map[string]any {
	return map[string]any{
		"portfolio_id": l.PortfolioID,
		"description":  l.Description,
		"created_at":   l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func docString(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func docBool(data map[string]any, key string) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return false
}

func docDecimal(data map[string]any, key string) decimal.Decimal {
	switch v := data[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func docTime(data map[string]any, key string) time.Time {
	switch v := data[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// String implements fmt.Stringer for log lines
func (a *Alert) String() string {
	return fmt.Sprintf("alert %s: %s %s %s", a.ID, a.Symbol, a.Condition, a.Price)
}
