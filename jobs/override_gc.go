package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TaskOverrideGC sweeps expired permission overrides. Expired rows are
// already inert for decisions; the sweep keeps the table small.
const TaskOverrideGC = "authz:override_gc"

// OverrideStore is the slice of the authorization store the sweep needs.
type OverrideStore interface {
	DeleteExpiredOverrides(ctx context.Context, before time.Time) (int64, error)
}

type overrideGCPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewOverrideGCTask constructs the periodic sweep task.
func NewOverrideGCTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(overrideGCPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverrideGC, body, asynq.Queue(QueueDefault)), nil
}

// NewOverrideGCHandler builds the Asynq handler for the sweep.
func NewOverrideGCHandler(store OverrideStore, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload overrideGCPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		removed, err := store.DeleteExpiredOverrides(ctx, time.Now())
		if err != nil {
			logger.Error("override gc", slog.Any("error", err))
			return err
		}
		if removed > 0 {
			logger.Info("override gc", slog.Int64("removed", removed))
		}
		return nil
	}
}
