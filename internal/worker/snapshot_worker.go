package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/oazco/profiler-backend/internal/config"
	"github.com/oazco/profiler-backend/internal/service"
)

const (
	SnapshotBatchSize    = 50
	SnapshotBatchTimeout = 2 * time.Second
	SnapshotPollTimeout  = 1 * time.Second
)

// SnapshotWorker rebuilds score snapshots asynchronously. Snapshots are a
// derived cache over the response log, so a failed or repeated refresh is
// always safe to retry.
type SnapshotWorker struct {
	assessments *service.AssessmentService
	rdb         *redis.Client
	log         zerolog.Logger
}

func NewSnapshotWorker(assessments *service.AssessmentService, rdb *redis.Client, log zerolog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		assessments: assessments,
		rdb:         rdb,
		log:         log.With().Str("component", "snapshot_worker").Logger(),
	}
}

type refreshPayload struct {
	SessionID string `json:"session_id"`
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *SnapshotWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SnapshotWorker started")

	batch := make([]*refreshPayload, 0, SnapshotBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= SnapshotBatchSize || time.Since(lastFlush) >= SnapshotBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, SnapshotPollTimeout, config.WorkerKey.RefreshSnapshotsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p refreshPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

// ----------------------------------------------------------------
// Deduplicated refresh with requeue fallback
// ----------------------------------------------------------------

func (w *SnapshotWorker) flushSafe(ctx context.Context, batch []*refreshPayload) {
	if len(batch) == 0 {
		return
	}

	// A session submitting several responses inside one batch window only
	// needs its snapshots rebuilt once.
	seen := make(map[uuid.UUID]bool, len(batch))
	for _, p := range batch {
		sessionID, err := uuid.Parse(p.SessionID)
		if err != nil {
			w.log.Error().Str("session_id", p.SessionID).Msg("Invalid session id in queue")
			continue
		}
		if seen[sessionID] {
			continue
		}
		seen[sessionID] = true

		if err := w.assessments.RefreshSnapshots(ctx, sessionID); err != nil {
			w.log.Error().Err(err).
				Str("session_id", sessionID.String()).
				Msg("Snapshot refresh failed — requeueing")
			raw, _ := json.Marshal(p)
			w.rdb.RPush(ctx, config.WorkerKey.RefreshSnapshotsQueue, raw)
		}
	}
}
