package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/ispdesk/internal/cache"
	"github.com/smallbiznis/ispdesk/internal/clock"
	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/ispdesk/internal/observability/metrics"
	"github.com/smallbiznis/ispdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testNow = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

// invoiceStub records RefreshStatuses calls; other methods are unused here.
type invoiceStub struct {
	invoicedomain.Service

	mu     sync.Mutex
	calls  []time.Time
	result invoicedomain.RefreshResult
	err    error
	block  bool
}

func (s *invoiceStub) RefreshStatuses(ctx context.Context, now time.Time) (invoicedomain.RefreshResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, now)
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return invoicedomain.RefreshResult{}, ctx.Err()
	}
	return s.result, s.err
}

func (s *invoiceStub) Calls() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.calls...)
}

func newScheduler(t *testing.T, svc invoicedomain.Service, locker *cache.Locker, cfg Config) (*Scheduler, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	sched, err := New(Params{
		Log:        zaptest.NewLogger(t),
		GenID:      testutil.NewNode(t),
		Clock:      clock.NewFakeClock(testNow),
		InvoiceSvc: svc,
		Config:     cfg,
		Locker:     locker,
		Metrics: obsmetrics.NewSchedulerMetrics(registry, obsmetrics.Config{
			ServiceName: "ispdesk",
			Environment: "test",
		}),
	})
	require.NoError(t, err)
	return sched, registry
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunOnceRefreshesWithSchedulerClock(t *testing.T) {
	stub := &invoiceStub{result: invoicedomain.RefreshResult{Overdue: 2, Due: 3}}
	sched, registry := newScheduler(t, stub, nil, Config{})

	require.NoError(t, sched.RunOnce(context.Background()))

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, testNow, calls[0])

	job := map[string]string{"service": "ispdesk", "env": "test", "job": JobRefreshInvoiceStatuses}
	assert.Equal(t, float64(1), counterValue(t, registry, "ispdesk_scheduler_job_runs_total", job))
	assert.Equal(t, float64(2), counterValue(t, registry, "ispdesk_invoice_status_transitions_total",
		map[string]string{"service": "ispdesk", "env": "test", "status": "overdue"}))
	assert.Equal(t, float64(3), counterValue(t, registry, "ispdesk_invoice_status_transitions_total",
		map[string]string{"service": "ispdesk", "env": "test", "status": "due"}))
}

func TestRunOnceReturnsJobError(t *testing.T) {
	stub := &invoiceStub{err: errors.New("db down")}
	sched, registry := newScheduler(t, stub, nil, Config{})

	err := sched.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), JobRefreshInvoiceStatuses)

	labels := map[string]string{
		"service": "ispdesk",
		"env":     "test",
		"job":     JobRefreshInvoiceStatuses,
		"reason":  obsmetrics.SchedulerJobReasonUnknown,
	}
	assert.Equal(t, float64(1), counterValue(t, registry, "ispdesk_scheduler_job_errors_total", labels))
}

func TestRunJobTimeoutIsNotAnError(t *testing.T) {
	stub := &invoiceStub{block: true}
	sched, registry := newScheduler(t, stub, nil, Config{JobTimeout: 5 * time.Millisecond})

	require.NoError(t, sched.RunOnce(context.Background()))

	job := map[string]string{"service": "ispdesk", "env": "test", "job": JobRefreshInvoiceStatuses}
	assert.Equal(t, float64(1), counterValue(t, registry, "ispdesk_scheduler_job_timeouts_total", job))
	assert.Equal(t, float64(1), counterValue(t, registry, "ispdesk_scheduler_job_errors_total", map[string]string{
		"service": "ispdesk",
		"env":     "test",
		"job":     JobRefreshInvoiceStatuses,
		"reason":  obsmetrics.SchedulerJobReasonDeadlineExceeded,
	}))
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := cache.NewLocker(client)

	_, ok, err := locker.TryLock(context.Background(), "scheduler:"+JobRefreshInvoiceStatuses, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	stub := &invoiceStub{}
	sched, registry := newScheduler(t, stub, locker, Config{})

	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Empty(t, stub.Calls())

	job := map[string]string{"service": "ispdesk", "env": "test", "job": JobRefreshInvoiceStatuses}
	assert.Equal(t, float64(1), counterValue(t, registry, "ispdesk_scheduler_job_skipped_total", job))
}

func TestRunOnceReleasesLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	stub := &invoiceStub{}
	sched, _ := newScheduler(t, stub, cache.NewLocker(client), Config{})

	require.NoError(t, sched.RunOnce(context.Background()))
	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Len(t, stub.Calls(), 2)
	assert.Empty(t, mr.Keys())
}

func TestRunForeverStopsOnCancel(t *testing.T) {
	stub := &invoiceStub{}
	sched, _ := newScheduler(t, stub, nil, Config{RunInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.RunForever(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(stub.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunForever did not return after cancel")
	}
}

func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if labelsMatch(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
