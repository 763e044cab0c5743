package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alert condition constants
const (
	ConditionAbove = "ABOVE"
	ConditionBelow = "BELOW"
)

// Alert destination constants
const (
	DestinationEmail = "EMAIL"
	DestinationSMS   = "SMS"
)

// Alert mode constants. FireAndDelete alerts are removed after a successful
// notification; Repeat alerts stay active and may fire again on a later scan.
const (
	ModeFireAndDelete = "FIRE_AND_DELETE"
	ModeRepeat        = "REPEAT"
)

// Alert is a user-defined price threshold + notification rule for a symbol
type Alert struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Symbol           string          `json:"symbol"`
	AssetType        string          `json:"asset_type"`
	Condition        string          `json:"condition"`
	Price            decimal.Decimal `json:"price"`
	Destination      string          `json:"destination"`
	DestinationValue string          `json:"destination_value"`
	Mode             string          `json:"mode"`
	CreatedAt        time.Time       `json:"created_at"`
}
