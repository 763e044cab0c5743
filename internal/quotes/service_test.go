package quotes

import (
	"context"
	"testing"
	"time"

	"github.com/finwatch/networth-pipeline/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider records the symbols it was asked for and serves canned quotes
type fakeProvider struct {
	quotes map[string]models.Quote
	calls  [][]string
	err    error
}

func (f *fakeProvider) FetchQuotes(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	f.calls = append(f.calls, symbols)
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[string]models.Quote)
	for _, s := range symbols {
		if q, ok := f.quotes[s]; ok {
			result[s] = q
		}
	}
	return result, nil
}

func TestGetPricesDeduplicatesSymbols(t *testing.T) {
	stocks := &fakeProvider{quotes: map[string]models.Quote{
		"AAPL": {LatestPrice: decimal.NewFromInt(160)},
		"MSFT": {LatestPrice: decimal.NewFromInt(400)},
	}}
	svc := NewService(stocks, nil, time.Second)

	result, err := svc.GetPrices(context.Background(), models.AssetTypeStock,
		[]string{"aapl", "AAPL", " msft ", "MSFT", "aapl"})
	require.NoError(t, err)

	require.Len(t, stocks.calls, 1)
	assert.Equal(t, []string{"AAPL", "MSFT"}, stocks.calls[0])
	assert.Len(t, result, 2)
	assert.True(t, decimal.NewFromInt(160).Equal(result["AAPL"].LatestPrice))
}

func TestGetPricesOmitsUnknownSymbols(t *testing.T) {
	stocks := &fakeProvider{quotes: map[string]models.Quote{
		"AAPL": {LatestPrice: decimal.NewFromInt(160)},
	}}
	svc := NewService(stocks, nil, time.Second)

	result, err := svc.GetPrices(context.Background(), models.AssetTypeStock, []string{"AAPL", "NOPE"})
	require.NoError(t, err)

	assert.Len(t, result, 1)
	_, ok := result["NOPE"]
	assert.False(t, ok)
}

func TestGetPricesEmptyInputSkipsProvider(t *testing.T) {
	stocks := &fakeProvider{}
	svc := NewService(stocks, nil, time.Second)

	result, err := svc.GetPrices(context.Background(), models.AssetTypeStock, nil)
	require.NoError(t, err)

	assert.Empty(t, result)
	assert.Empty(t, stocks.calls, "provider should not be called for an empty symbol set")
}

func TestGetPricesRoutesByAssetType(t *testing.T) {
	stocks := &fakeProvider{quotes: map[string]models.Quote{"AAPL": {LatestPrice: decimal.NewFromInt(160)}}}
	crypto := &fakeProvider{quotes: map[string]models.Quote{"BTC": {LatestPrice: decimal.NewFromInt(65000)}}}
	svc := NewService(stocks, crypto, time.Second)

	_, err := svc.GetPrices(context.Background(), models.AssetTypeCrypto, []string{"btc"})
	require.NoError(t, err)
	assert.Empty(t, stocks.calls)
	require.Len(t, crypto.calls, 1)

	_, err = svc.GetPrices(context.Background(), models.AssetTypeCash, []string{"USD"})
	assert.Error(t, err, "cash has no price provider")
}

func TestGetPricesNormalizesProviderKeys(t *testing.T) {
	crypto := &fakeProvider{quotes: map[string]models.Quote{"BTC": {LatestPrice: decimal.NewFromInt(65000)}}}
	svc := NewService(nil, crypto, time.Second)

	result, err := svc.GetPrices(context.Background(), models.AssetTypeCrypto, []string{"btc"})
	require.NoError(t, err)

	_, ok := result["BTC"]
	assert.True(t, ok, "result must be keyed by upper-cased symbol")
}
