package models

// Job name constants
const (
	JobAddDailyBalances  = "AddDailyBalances"
	JobAssetAlertsStock  = "AssetAlertsStocks"
	JobAssetAlertsCrypto = "AssetAlertsCrypto"
)

// DailyBalancesPayload is the payload of an AddDailyBalances job: one batch
// of portfolio ids to snapshot.
type DailyBalancesPayload struct {
	PortfolioIDs []string `json:"portfolio_ids"`
}

// AssetAlertsPayload is the payload of an AssetAlerts job: one batch of
// alerts of a single asset type to evaluate.
type AssetAlertsPayload struct {
	Alerts    []*Alert `json:"alerts"`
	AssetType string   `json:"asset_type"`
}
