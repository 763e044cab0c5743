// Package worker executes the pipeline's queued jobs: daily valuation
// snapshots and price-alert evaluation. Handlers isolate per-item failures
// and translate shared-step failures into retryable job errors.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/finwatch/networth-pipeline/internal/docstore"
	"github.com/finwatch/networth-pipeline/internal/models"
	"github.com/finwatch/networth-pipeline/internal/notify"
	"github.com/finwatch/networth-pipeline/internal/queue"
	"github.com/finwatch/networth-pipeline/internal/valuation"
	"github.com/shopspring/decimal"
)

// PriceSource is the slice of the quote service the worker needs
type PriceSource interface {
	GetPrices(ctx context.Context, assetType string, symbols []string) (map[string]models.Quote, error)
}

// EventSink receives observability events for fired alerts. Optional.
type EventSink interface {
	PublishAlertFired(ctx context.Context, alert *models.Alert, price decimal.Decimal) error
}

// Worker holds the job handlers and their dependencies
type Worker struct {
	store       docstore.Store
	prices      PriceSource
	aggregator  *valuation.Aggregator
	email       notify.EmailSender
	sms         notify.SMSSender
	events      EventSink
	sendTimeout time.Duration
}

// New creates a worker. events may be nil.
func New(store docstore.Store, prices PriceSource, aggregator *valuation.Aggregator,
	email notify.EmailSender, sms notify.SMSSender, events EventSink, sendTimeout time.Duration) *Worker {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Worker{
		store:       store,
		prices:      prices,
		aggregator:  aggregator,
		email:       email,
		sms:         sms,
		events:      events,
		sendTimeout: sendTimeout,
	}
}

// Register subscribes the worker's handlers on the queue
func (w *Worker) Register(q *queue.Queue) {
	q.Subscribe(models.JobAddDailyBalances, w.HandleDailyBalances)
	q.Subscribe(models.JobAssetAlertsStock, w.HandleAssetAlerts)
	q.Subscribe(models.JobAssetAlertsCrypto, w.HandleAssetAlerts)
}

// HandleDailyBalances values each portfolio in the batch and appends one
// DailyBalance snapshot per portfolio. The document id is portfolioID:date,
// so an at-least-once redelivery rewrites the same day's snapshot instead of
// duplicating it. One portfolio's failure never stops the rest.
func (w *Worker) HandleDailyBalances(ctx context.Context, payload json.RawMessage) error {
	var p models.DailyBalancesPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("failed to decode daily balances payload: %w", err)
	}

	var report BatchReport
	for _, portfolioID := range p.PortfolioIDs {
		if err := w.snapshotPortfolio(ctx, portfolioID); err != nil {
			log.Printf("worker: daily balance for portfolio %s failed: %v", portfolioID, err)
			report.fail(portfolioID, err)
			continue
		}
		report.succeed(portfolioID)
	}

	log.Printf("worker: daily balances done: %d ok, %d failed",
		report.Count(StatusSucceeded), report.Count(StatusFailed))
	return report.Err()
}

func (w *Worker) snapshotPortfolio(ctx context.Context, portfolioID string) error {
	balance, err := w.aggregator.Compute(ctx, portfolioID)
	if err != nil {
		return err
	}

	day := balance.Date.Format("2006-01-02")
	docID := portfolioID + ":" + day
	balances := models.PortfolioSubPath(portfolioID, models.SubCollectionDailyBalances)
	if _, err := w.store.Create(ctx, balances, docID, balance.ToDocument()); err != nil {
		return fmt.Errorf("failed to write daily balance: %w", err)
	}

	logItem := models.PortfolioLogItem{
		PortfolioID: portfolioID,
		Description: fmt.Sprintf("Daily balance recorded: total $%s", balance.TotalValue.StringFixed(2)),
		CreatedAt:   time.Now().UTC(),
	}
	logPath := models.PortfolioSubPath(portfolioID, models.SubCollectionLog)
	if _, err := w.store.Create(ctx, logPath, "", logItem.ToDocument()); err != nil {
		// The snapshot is already written; a missing log line is not worth
		// re-running the valuation.
		log.Printf("worker: failed to append log item for portfolio %s: %v", portfolioID, err)
	}
	return nil
}

// HandleAssetAlerts evaluates one batch of price alerts. Alerts deleted
// since enqueue are dropped; unpriced symbols are skipped and wait for the
// next scan; a notification failure for one alert never blocks its siblings.
func (w *Worker) HandleAssetAlerts(ctx context.Context, payload json.RawMessage) error {
	var p models.AssetAlertsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("failed to decode asset alerts payload: %w", err)
	}
	if len(p.Alerts) == 0 {
		return nil
	}

	// Re-validate existence first: a user may have deleted an alert between
	// enqueue and processing, and a redelivered job must not re-fire alerts
	// the first delivery already handled.
	var report BatchReport
	live := make([]*models.Alert, 0, len(p.Alerts))
	for _, alert := range p.Alerts {
		doc, err := w.store.FetchByID(ctx, models.CollectionAlerts, alert.ID)
		if errors.Is(err, docstore.ErrNotFound) {
			report.skip(alert.ID)
			continue
		}
		if err != nil {
			// Shared dependency down; fail before any notification goes out
			return fmt.Errorf("failed to re-validate alert %s: %w", alert.ID, err)
		}
		live = append(live, models.AlertFromDocument(doc.ID, doc.Data))
	}
	if len(live) == 0 {
		return nil
	}

	symbols := make([]string, 0, len(live))
	for _, alert := range live {
		symbols = append(symbols, alert.Symbol)
	}
	priced, err := w.prices.GetPrices(ctx, p.AssetType, symbols)
	if err != nil {
		return fmt.Errorf("failed to price alert batch: %w", err)
	}

	for _, alert := range live {
		quote, ok := priced[normalizeSymbol(alert.Symbol)]
		if !ok {
			report.skip(alert.ID)
			continue
		}
		fired, err := w.evaluateAlert(ctx, alert, quote.LatestPrice)
		if err != nil {
			log.Printf("worker: alert %s failed: %v", alert.ID, err)
			report.fail(alert.ID, err)
			continue
		}
		if fired {
			report.succeed(alert.ID)
		} else {
			report.skip(alert.ID)
		}
	}

	log.Printf("worker: %s alerts done: %d fired, %d skipped, %d failed",
		p.AssetType, report.Count(StatusSucceeded), report.Count(StatusSkipped), report.Count(StatusFailed))
	return report.Err()
}

// evaluateAlert fires the alert when price strictly crosses the threshold.
// Equality never fires. A fired FireAndDelete alert is deleted only after a
// successful send; Repeat alerts stay active and may fire again.
func (w *Worker) evaluateAlert(ctx context.Context, alert *models.Alert, price decimal.Decimal) (bool, error) {
	var direction string
	switch alert.Condition {
	case models.ConditionAbove:
		if price.Cmp(alert.Price) <= 0 {
			return false, nil
		}
		direction = "above"
	case models.ConditionBelow:
		if price.Cmp(alert.Price) >= 0 {
			return false, nil
		}
		direction = "below"
	default:
		return false, fmt.Errorf("unknown alert condition: %s", alert.Condition)
	}

	if err := w.dispatch(ctx, alert, direction); err != nil {
		return false, fmt.Errorf("failed to notify %s: %w", alert.DestinationValue, err)
	}

	if w.events != nil {
		if err := w.events.PublishAlertFired(ctx, alert, price); err != nil {
			log.Printf("worker: failed to publish alert-fired event for %s: %v", alert.ID, err)
		}
	}

	if alert.Mode == models.ModeRepeat {
		return true, nil
	}
	if err := w.store.Delete(ctx, models.CollectionAlerts, alert.ID); err != nil {
		return false, fmt.Errorf("failed to delete fired alert: %w", err)
	}
	return true, nil
}

func (w *Worker) dispatch(ctx context.Context, alert *models.Alert, direction string) error {
	ctx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()

	body := notify.AlertBody(alert.Symbol, direction, alert.Price)
	switch alert.Destination {
	case models.DestinationEmail:
		vars := map[string]string{
			"symbol":    alert.Symbol,
			"direction": direction,
			"price":     alert.Price.StringFixed(2),
		}
		return w.email.Send(ctx, alert.DestinationValue, notify.AlertSubject(alert.Symbol), vars)
	case models.DestinationSMS:
		return w.sms.Send(ctx, alert.DestinationValue, body)
	default:
		return fmt.Errorf("unknown alert destination: %s", alert.Destination)
	}
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
