package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: SchedulerJobReasonDeadlineExceeded},
		{name: "wrapped_deadline", err: fmt.Errorf("refresh: %w", context.DeadlineExceeded), want: SchedulerJobReasonDeadlineExceeded},
		{name: "db_lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: SchedulerJobReasonDBLockTimeout},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: SchedulerJobReasonSerializationFailure},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: SchedulerJobReasonUniqueViolation},
		{name: "other_pg", err: &pgconn.PgError{Code: "42P01"}, want: SchedulerJobReasonDB},
		{name: "unknown", err: errors.New("boom"), want: SchedulerJobReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifySchedulerJobReason(tc.err))
		})
	}
}

func TestSchedulerMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewSchedulerMetrics(registry, Config{ServiceName: "ispdesk", Environment: "test"})

	m.IncJobRun("refresh_invoice_statuses")
	m.IncJobRun("refresh_invoice_statuses")
	m.IncJobError("refresh_invoice_statuses", context.DeadlineExceeded)
	m.AddStatusTransitions("overdue", 3)
	m.AddStatusTransitions("due", 0)
	m.ObserveJobDuration("refresh_invoice_statuses", 20*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.jobRuns.WithLabelValues("refresh_invoice_statuses")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.jobErrors.WithLabelValues("refresh_invoice_statuses", SchedulerJobReasonDeadlineExceeded)))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.transitions.WithLabelValues("overdue")))
}

func TestSchedulerMetricsReuseRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := NewSchedulerMetrics(registry, Config{})
	second := NewSchedulerMetrics(registry, Config{})

	first.IncJobRun("job")
	assert.Equal(t, float64(1), testutil.ToFloat64(second.jobRuns.WithLabelValues("job")))
}

func TestHTTPMetricsReuseRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewHTTPMetricsWithRegisterer(registry, Config{})
	assert.NoError(t, err)
	_, err = NewHTTPMetricsWithRegisterer(registry, Config{})
	assert.NoError(t, err)
}
