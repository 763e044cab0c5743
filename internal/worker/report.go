package worker

import (
	"errors"
	"fmt"
)

// Item statuses inside a batch report
const (
	StatusSucceeded = "succeeded"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// ItemResult is the outcome for one portfolio or alert inside a batch job
type ItemResult struct {
	ID     string
	Status string
	Err    error
}

// BatchReport collects per-item outcomes so a job's success or failure is a
// deliberate aggregate decision rather than whichever error happened last.
type BatchReport struct {
	Results []ItemResult
}

func (r *BatchReport) succeed(id string) {
	r.Results = append(r.Results, ItemResult{ID: id, Status: StatusSucceeded})
}

func (r *BatchReport) skip(id string) {
	r.Results = append(r.Results, ItemResult{ID: id, Status: StatusSkipped})
}

func (r *BatchReport) fail(id string, err error) {
	r.Results = append(r.Results, ItemResult{ID: id, Status: StatusFailed, Err: err})
}

// Count returns the number of items with the given status
func (r *BatchReport) Count(status string) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Err returns the job-level error for this batch: non-nil only when every
// item failed. A mixed batch succeeds, because a queue-level retry would
// re-run items that already wrote a balance or sent a notification.
func (r *BatchReport) Err() error {
	failed := r.Count(StatusFailed)
	if failed == 0 || failed < len(r.Results) {
		return nil
	}
	errs := make([]error, 0, failed)
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.ID, res.Err))
		}
	}
	return fmt.Errorf("all %d item(s) in batch failed: %w", failed, errors.Join(errs...))
}
