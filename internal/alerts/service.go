// Package alerts creates and deletes price alerts. All destination
// validation happens here, synchronously, so a malformed email or phone
// number never reaches the queue.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finwatch/networth-pipeline/internal/docstore"
	"github.com/finwatch/networth-pipeline/internal/models"
	"github.com/finwatch/networth-pipeline/internal/notify"
)

// Alert-count limits per plan
const (
	FreePlanLimit    = 5
	PremiumPlanLimit = 50
)

// ErrLimitReached is returned when a user is at their plan's alert limit
var ErrLimitReached = errors.New("alert limit reached for plan")

// ErrNotFound is returned when an alert does not exist or belongs to
// another user
var ErrNotFound = errors.New("alert not found")

// Service manages the alert lifecycle outside the pipeline
type Service struct {
	store docstore.Store
}

// NewService creates an alert service
func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// Create validates and stores a new alert. premium selects the plan limit.
func (s *Service) Create(ctx context.Context, alert *models.Alert, premium bool) error {
	if alert.Price.Sign() <= 0 {
		return fmt.Errorf("alert threshold must be positive, got %s", alert.Price)
	}
	switch alert.Condition {
	case models.ConditionAbove, models.ConditionBelow:
	default:
		return fmt.Errorf("invalid alert condition: %s", alert.Condition)
	}
	switch alert.AssetType {
	case models.AssetTypeStock, models.AssetTypeCrypto:
	default:
		return fmt.Errorf("alerts are not supported for asset type %s", alert.AssetType)
	}
	switch alert.Mode {
	case models.ModeFireAndDelete, models.ModeRepeat:
	case "":
		alert.Mode = models.ModeFireAndDelete
	default:
		return fmt.Errorf("invalid alert mode: %s", alert.Mode)
	}

	switch alert.Destination {
	case models.DestinationEmail:
		if err := notify.ValidateEmail(alert.DestinationValue); err != nil {
			return err
		}
	case models.DestinationSMS:
		normalized, err := notify.NormalizePhone(alert.DestinationValue)
		if err != nil {
			return err
		}
		alert.DestinationValue = normalized
	default:
		return fmt.Errorf("invalid alert destination: %s", alert.Destination)
	}

	limit := FreePlanLimit
	if premium {
		limit = PremiumPlanLimit
	}
	existing, err := s.store.Find(ctx, models.CollectionAlerts,
		[]docstore.Filter{{Field: "user_id", Op: docstore.OpEqual, Value: alert.UserID}}, nil, 0)
	if err != nil {
		return fmt.Errorf("failed to count alerts for user %s: %w", alert.UserID, err)
	}
	if len(existing) >= limit {
		return ErrLimitReached
	}

	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	id, err := s.store.Create(ctx, models.CollectionAlerts, alert.ID, alert.ToDocument())
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	alert.ID = id
	return nil
}

// Delete removes an alert owned by the given user
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	doc, err := s.store.FetchByID(ctx, models.CollectionAlerts, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to fetch alert %s: %w", id, err)
	}
	if models.AlertFromDocument(doc.ID, doc.Data).UserID != userID {
		return ErrNotFound
	}
	if err := s.store.Delete(ctx, models.CollectionAlerts, id); err != nil {
		return fmt.Errorf("failed to delete alert %s: %w", id, err)
	}
	return nil
}
