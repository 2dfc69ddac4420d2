package policyreview

import (
	"context"
	"sync"

	"github.com/aldergate-legal/core/pkg/models"
)

// DefaultCriterionConcurrency bounds how many criteria are evaluated at
// once, generalized from tarsy's pkg/queue worker-pool shape (bounded
// goroutines draining a work queue) down from session-level work items
// to criterion-level ones.
const DefaultCriterionConcurrency = 4

// EvaluateAll runs one Evaluate call per criterion, at most concurrency
// at a time, and returns results in the same order as criteria. The
// first criterion to return an error cancels the remaining in-flight
// work and is the sole error returned, per spec.md §4.6's "a single
// criterion failure fails the whole review" contract (unlike the
// knowledge workers in pkg/agent, which tolerate partial failure,
// because a policy review's overall rating is meaningless with an
// incomplete criterion set).
func (e *Evaluator) EvaluateAll(ctx context.Context, tenantID, documentText string, criteria []models.ComplianceCriterion, concurrency int) ([]models.CriterionResult, error) {
	if concurrency <= 0 {
		concurrency = DefaultCriterionConcurrency
	}

	results := make([]models.CriterionResult, len(criteria))
	errs := make([]error, len(criteria))
	var errMu sync.Mutex
	var firstErr error

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, criterion := range criteria {
		wg.Add(1)
		go func(i int, criterion models.ComplianceCriterion) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-runCtx.Done():
				errs[i] = runCtx.Err()
				return
			}

			result, err := e.Evaluate(runCtx, tenantID, documentText, criterion)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				errs[i] = err
				cancel()
				return
			}
			results[i] = result
		}(i, criterion)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
