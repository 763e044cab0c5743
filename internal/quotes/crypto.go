package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/finwatch/networth-pipeline/internal/models"
	"github.com/shopspring/decimal"
)

// CryptoClient fetches crypto quotes from a CoinMarketCap-compatible API
type CryptoClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewCryptoClient creates a crypto quote client
func NewCryptoClient(baseURL, apiKey string) *CryptoClient {
	return &CryptoClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

type cryptoQuoteResponse struct {
	Data map[string]struct {
		Quote struct {
			USD struct {
				Price            *float64 `json:"price"`
				PercentChange24H *float64 `json:"percent_change_24h"`
			} `json:"USD"`
		} `json:"quote"`
	} `json:"data"`
}

// FetchQuotes fetches the latest USD quote for each symbol in one request
func (c *CryptoClient) FetchQuotes(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	endpoint := fmt.Sprintf("%s/v1/cryptocurrency/quotes/latest?symbol=%s",
		c.baseURL, url.QueryEscape(strings.Join(symbols, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build crypto quote request: %w", err)
	}
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch crypto quotes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crypto quote request returned status %d", resp.StatusCode)
	}

	var payload cryptoQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode crypto quote response: %w", err)
	}

	result := make(map[string]models.Quote, len(payload.Data))
	for sym, entry := range payload.Data {
		usd := entry.Quote.USD
		if usd.Price == nil {
			continue
		}
		q := models.Quote{LatestPrice: decimal.NewFromFloat(*usd.Price)}
		if usd.PercentChange24H != nil {
			q.ChangePercent = decimal.NewFromFloat(*usd.PercentChange24H)
		}
		result[strings.ToUpper(sym)] = q
	}
	return result, nil
}
