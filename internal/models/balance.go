package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyBalance is one point-in-time valuation snapshot of a portfolio,
// appended once per portfolio per day.
type DailyBalance struct {
	Date            time.Time       `json:"date"`
	StocksValue     decimal.Decimal `json:"stocks_value"`
	CryptoValue     decimal.Decimal `json:"crypto_value"`
	RealEstateValue decimal.Decimal `json:"real_estate_value"`
	CashValue       decimal.Decimal `json:"cash_value"`
	CustomsValue    decimal.Decimal `json:"customs_value"`
	TotalValue      decimal.Decimal `json:"total_value"`
}
