package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	batchStatusSuccess = "success"
	batchStatusFailed  = "failed"
	batchStatusSkipped = "skipped"

	defaultBatchWorkers = 8
	maxBatchWorkers     = 64
)

// BatchResult summarizes one bulk run over many matches. Failures are
// recorded per row and never abort the run.
type BatchResult struct {
	TaskCount    int           `json:"task_count"`
	SuccessCount int           `json:"success_count"`
	FailedCount  int           `json:"failed_count"`
	SkippedCount int           `json:"skipped_count"`
	WorkerCount  int           `json:"worker_count"`
	Rows         []BatchRow    `json:"rows"`
	Elapsed      time.Duration `json:"-"`
	ElapsedMs    int64         `json:"elapsed_ms"`
}

type BatchRow struct {
	MatchID    string `json:"match_id"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func clampWorkers(workers int) int {
	if workers <= 0 {
		return defaultBatchWorkers
	}
	if workers > maxBatchWorkers {
		return maxBatchWorkers
	}
	return workers
}

// runBatch fans the match ids over an ants pool. Each task gets its
// own timeout-bounded context; run returns a skipped marker for rows
// it chose not to process.
func runBatch(
	ctx context.Context,
	matchIDs []string,
	workers int,
	taskTimeout time.Duration,
	run func(ctx context.Context, matchID string) (skipped bool, message string, err error),
) (BatchResult, error) {
	workerCount := clampWorkers(workers)
	if workerCount > len(matchIDs) && len(matchIDs) > 0 {
		workerCount = len(matchIDs)
	}

	result := BatchResult{TaskCount: len(matchIDs), WorkerCount: workerCount}
	if len(matchIDs) == 0 {
		return result, nil
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return BatchResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	rows := make(chan BatchRow, len(matchIDs))

	var successCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32

	started := time.Now()
	var workersWG sync.WaitGroup
	for _, matchID := range matchIDs {
		workersWG.Add(1)
		if err := pool.Submit(func() {
			defer workersWG.Done()

			taskCtx := ctx
			cancel := context.CancelFunc(func() {})
			if taskTimeout > 0 {
				taskCtx, cancel = context.WithTimeout(ctx, taskTimeout)
			}
			defer cancel()

			start := time.Now()
			row := BatchRow{MatchID: matchID}
			skipped, message, err := run(taskCtx, matchID)
			row.DurationMs = time.Since(start).Milliseconds()
			row.Message = message

			switch {
			case err != nil:
				row.Status = batchStatusFailed
				row.Message = err.Error()
				failedCount.Add(1)
			case skipped:
				row.Status = batchStatusSkipped
				skippedCount.Add(1)
			default:
				row.Status = batchStatusSuccess
				successCount.Add(1)
			}
			rows <- row
		}); err != nil {
			workersWG.Done()
			return BatchResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workersWG.Wait()
	close(rows)

	for row := range rows {
		result.Rows = append(result.Rows, row)
	}
	sort.SliceStable(result.Rows, func(i, j int) bool {
		return result.Rows[i].MatchID < result.Rows[j].MatchID
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())
	result.Elapsed = time.Since(started)
	result.ElapsedMs = result.Elapsed.Milliseconds()
	return result, nil
}
