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

// StockClient fetches stock quotes from an IEX-compatible batch endpoint
type StockClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewStockClient creates a stock quote client
func NewStockClient(baseURL, token string) *StockClient {
	return &StockClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

type stockBatchEntry struct {
	Quote struct {
		LatestPrice   *float64 `json:"latestPrice"`
		ChangePercent *float64 `json:"changePercent"`
	} `json:"quote"`
}

// FetchQuotes fetches the latest quote for each symbol in one batch request
func (c *StockClient) FetchQuotes(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	endpoint := fmt.Sprintf("%s/stock/market/batch?symbols=%s&types=quote&token=%s",
		c.baseURL, url.QueryEscape(strings.Join(symbols, ",")), url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stock quote request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock quotes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stock quote request returned status %d", resp.StatusCode)
	}

	var batch map[string]stockBatchEntry
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("failed to decode stock quote response: %w", err)
	}

	result := make(map[string]models.Quote, len(batch))
	for sym, entry := range batch {
		if entry.Quote.LatestPrice == nil {
			continue
		}
		q := models.Quote{LatestPrice: decimal.NewFromFloat(*entry.Quote.LatestPrice)}
		if entry.Quote.ChangePercent != nil {
			q.ChangePercent = decimal.NewFromFloat(*entry.Quote.ChangePercent)
		}
		result[strings.ToUpper(sym)] = q
	}
	return result, nil
}
