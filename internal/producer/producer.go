// Package producer fans scheduled work out onto the job queue: one
// AddDailyBalances job per batch of portfolios, one AssetAlerts job per
// batch of alerts. Batching bounds the blast radius of a single job and the
// number of symbols per oracle call.
package producer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/finwatch/networth-pipeline/internal/docstore"
	"github.com/finwatch/networth-pipeline/internal/models"
	"golang.org/x/sync/errgroup"
)

// Retry budgets per job family
const (
	valuationAttempts = 2
	alertAttempts     = 3
)

// DefaultBatchSize is the number of portfolios or alerts per job
const DefaultBatchSize = 5

// Enqueuer is the slice of the queue the producer needs
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload any, attempts int) error
}

// Producer holds the two trigger entrypoints. An external cron (or the
// in-process cron in cmd/worker) invokes them; the producer keeps no timer
// of its own.
type Producer struct {
	store     docstore.Store
	queue     Enqueuer
	batchSize int
	now       func() time.Time
	eastern   *time.Location
}

// New creates a producer. batchSize <= 0 falls back to DefaultBatchSize.
func New(store docstore.Store, queue Enqueuer, batchSize int) (*Producer, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	eastern, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, fmt.Errorf("failed to load US Eastern timezone: %w", err)
	}
	return &Producer{
		store:     store,
		queue:     queue,
		batchSize: batchSize,
		now:       time.Now,
		eastern:   eastern,
	}, nil
}

// TriggerDailyValuations enqueues one AddDailyBalances job per batch of
// portfolio ids. Returns the number of jobs enqueued.
func (p *Producer) TriggerDailyValuations(ctx context.Context) (int, error) {
	docs, err := p.store.Find(ctx, models.CollectionPortfolios, nil, nil, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch portfolios: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}

	jobs := 0
	for _, batch := range chunkStrings(ids, p.batchSize) {
		payload := models.DailyBalancesPayload{PortfolioIDs: batch}
		if err := p.queue.Enqueue(ctx, models.JobAddDailyBalances, payload, valuationAttempts); err != nil {
			return jobs, fmt.Errorf("failed to enqueue daily balances job: %w", err)
		}
		jobs++
	}

	log.Printf("producer: enqueued %d daily balance job(s) for %d portfolio(s)", jobs, len(ids))
	return jobs, nil
}

// TriggerPriceAlertScan enqueues alert-evaluation jobs. Crypto alerts are
// always scanned; stock alerts only while the US stock market is open, so
// closed-market stale prices never fire a stock alert. Returns the number of
// jobs enqueued.
func (p *Producer) TriggerPriceAlertScan(ctx context.Context) (int, error) {
	var cryptoAlerts, stockAlerts []*models.Alert
	scanStocks := p.marketOpen(p.now())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cryptoAlerts, err = p.fetchAlerts(gctx, models.AssetTypeCrypto)
		return err
	})
	if scanStocks {
		g.Go(func() error {
			var err error
			stockAlerts, err = p.fetchAlerts(gctx, models.AssetTypeStock)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	jobs := 0
	for _, batch := range chunkAlerts(cryptoAlerts, p.batchSize) {
		payload := models.AssetAlertsPayload{Alerts: batch, AssetType: models.AssetTypeCrypto}
		if err := p.queue.Enqueue(ctx, models.JobAssetAlertsCrypto, payload, alertAttempts); err != nil {
			return jobs, fmt.Errorf("failed to enqueue crypto alerts job: %w", err)
		}
		jobs++
	}
	for _, batch := range chunkAlerts(stockAlerts, p.batchSize) {
		payload := models.AssetAlertsPayload{Alerts: batch, AssetType: models.AssetTypeStock}
		if err := p.queue.Enqueue(ctx, models.JobAssetAlertsStock, payload, alertAttempts); err != nil {
			return jobs, fmt.Errorf("failed to enqueue stock alerts job: %w", err)
		}
		jobs++
	}

	log.Printf("producer: enqueued %d alert job(s) (%d crypto, %d stock alerts, market open=%t)",
		jobs, len(cryptoAlerts), len(stockAlerts), scanStocks)
	return jobs, nil
}

func (p *Producer) fetchAlerts(ctx context.Context, assetType string) ([]*models.Alert, error) {
	docs, err := p.store.Find(ctx, models.CollectionAlerts,
		[]docstore.Filter{{Field: "asset_type", Op: docstore.OpEqual, Value: assetType}}, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s alerts: %w", assetType, err)
	}

	alerts := make([]*models.Alert, 0, len(docs))
	for _, doc := range docs {
		alerts = append(alerts, models.AlertFromDocument(doc.ID, doc.Data))
	}
	return alerts, nil
}

// marketOpen reports whether t falls within regular US trading hours:
// weekdays 9:30–16:00 US Eastern. Exchange holidays are not modelled; a
// holiday scan prices against the last close, which cannot cross a
// threshold it had not already crossed.
func (p *Producer) marketOpen(t time.Time) bool {
	et := t.In(p.eastern)
	switch et.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minutes := et.Hour()*60 + et.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}

func chunkStrings(items []string, size int) [][]string {
	var chunks [][]string
	for len(items) > 0 {
		n := size
		if n > len(items) {
			n = len(items)
		}
		chunks = append(chunks, items[:n])
		items = items[n:]
	}
	return chunks
}

func chunkAlerts(items []*models.Alert, size int) [][]*models.Alert {
	var chunks [][]*models.Alert
	for len(items) > 0 {
		n := size
		if n > len(items) {
			n = len(items)
		}
		chunks = append(chunks, items[:n])
		items = items[n:]
	}
	return chunks
}
