package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/internal/cache"
	"github.com/smallbiznis/ispdesk/internal/clock"
	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/ispdesk/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobRefreshInvoiceStatuses = "refresh_invoice_statuses"

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	InvoiceSvc invoicedomain.Service
	Config     Config                       `optional:"true"`
	Locker     *cache.Locker                `optional:"true"`
	Metrics    *obsmetrics.SchedulerMetrics `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	genID      *snowflake.Node
	clock      clock.Clock
	invoiceSvc invoicedomain.Service
	locker     *cache.Locker
	metrics    *obsmetrics.SchedulerMetrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.InvoiceSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		genID:      p.GenID,
		clock:      p.Clock,
		invoiceSvc: p.InvoiceSvc,
		locker:     p.Locker,
		metrics:    p.Metrics,
	}, nil
}

// runJob runs fn under a timeout and, when a locker is configured, under a
// per-job distributed lock. A run skipped because another replica holds the
// lock is not an error. Timeouts are logged and counted but not returned.
func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	if s.locker != nil {
		token, acquired, err := s.locker.TryLock(parent, "scheduler:"+name, s.cfg.lockTTL())
		if err != nil {
			s.metrics.IncJobError(name, err)
			return fmt.Errorf("%s: acquire lock: %w", name, err)
		}
		if !acquired {
			s.metrics.IncJobSkipped(name)
			s.log.Debug("job skipped, lock held elsewhere", zap.String("job", name))
			return nil
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(parent), "scheduler:"+name, token); err != nil {
				s.log.Warn("release job lock failed", zap.String("job", name), zap.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run := s.startJobRun(ctx, name)
	s.metrics.IncJobRun(name)

	start := time.Now()
	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, time.Since(start))
	run.failed = err != nil
	s.finishJobRun(ctx, run)
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		s.metrics.IncJobTimeout(name)
	}
	s.metrics.IncJobError(name, err)
	if isTimeout {
		s.logger(ctx).Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{JobRefreshInvoiceStatuses, s.RefreshInvoiceStatusesJob},
	}

	var err error
	for _, job := range jobs {
		err = errors.Join(err, s.runJob(parent, job.Name, s.cfg.JobTimeout, job.Run))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RefreshInvoiceStatusesJob moves unpaid invoices to due or overdue as of the
// scheduler clock.
func (s *Scheduler) RefreshInvoiceStatusesJob(ctx context.Context) error {
	result, err := s.invoiceSvc.RefreshStatuses(ctx, s.clock.Now())
	if err != nil {
		return err
	}

	s.metrics.AddStatusTransitions(string(invoicedomain.StatusOverdue), result.Overdue)
	s.metrics.AddStatusTransitions(string(invoicedomain.StatusDue), result.Due)
	recordRefresh(ctx, result)
	return nil
}
