package scheduler

import (
	"context"
	"time"

	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
	obscontext "github.com/smallbiznis/ispdesk/internal/observability/context"
	obslogger "github.com/smallbiznis/ispdesk/internal/observability/logger"
	"go.uber.org/zap"
)

// jobRun is the per-run state a job reports back into the finish log line.
type jobRun struct {
	job       string
	runID     string
	startedAt time.Time
	refreshed invoicedomain.RefreshResult
	failed    bool
}

type jobRunKey struct{}

// recordRefresh adds status transitions to the run attached to ctx.
func recordRefresh(ctx context.Context, result invoicedomain.RefreshResult) {
	run, ok := ctx.Value(jobRunKey{}).(*jobRun)
	if !ok {
		return
	}
	run.refreshed.Overdue += result.Overdue
	run.refreshed.Due += result.Due
}

// startJobRun tags ctx so service and gorm logs written during the run carry
// the run id and the system actor.
func (s *Scheduler) startJobRun(ctx context.Context, job string) (context.Context, *jobRun) {
	run := &jobRun{
		job:       job,
		runID:     s.genID.Generate().String(),
		startedAt: s.clock.Now(),
	}
	ctx = context.WithValue(ctx, jobRunKey{}, run)
	ctx = obscontext.WithActor(ctx, "scheduler", "system")
	ctx = obscontext.WithRequestID(ctx, run.runID)

	s.logger(ctx).Info("job started", zap.String("job", job))
	return ctx, run
}

func (s *Scheduler) finishJobRun(ctx context.Context, run *jobRun) {
	fields := []zap.Field{
		zap.String("job", run.job),
		zap.Int64("duration_ms", s.clock.Now().Sub(run.startedAt).Milliseconds()),
		zap.Int64("overdue", run.refreshed.Overdue),
		zap.Int64("due", run.refreshed.Due),
	}
	if run.failed {
		s.logger(ctx).Warn("job failed", fields...)
		return
	}
	s.logger(ctx).Info("job finished", fields...)
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}
