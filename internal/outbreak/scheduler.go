package outbreak

import (
	"context"
	"log/slog"
	"time"
)

// RunPeriodic calls Sync every interval until ctx is cancelled.  The first
// sync happens immediately.  Store failures are logged and retried on the
// next tick.
func (s *Syncer) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := s.Sync(ctx)
		if err != nil {
			s.log.Error("periodic outbreak sync", slog.Any("err", err))
		} else if res.Err != nil {
			s.log.Warn("periodic outbreak sync", slog.String("result", res.Message()))
		}

		select {
		case <-ctx.Done():
			s.log.Info("periodic outbreak sync stopped")
			return
		case <-ticker.C:
		}
	}
}
