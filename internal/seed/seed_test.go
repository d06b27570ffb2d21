package seed

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/ispdesk/internal/clock"
	"github.com/smallbiznis/ispdesk/internal/config"
	customerrepository "github.com/smallbiznis/ispdesk/internal/customer/repository"
	customerservice "github.com/smallbiznis/ispdesk/internal/customer/service"
	invoicerepository "github.com/smallbiznis/ispdesk/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/ispdesk/internal/invoice/service"
	paymentrepository "github.com/smallbiznis/ispdesk/internal/payment/repository"
	paymentservice "github.com/smallbiznis/ispdesk/internal/payment/service"
	servicepackagerepository "github.com/smallbiznis/ispdesk/internal/servicepackage/repository"
	servicepackageservice "github.com/smallbiznis/ispdesk/internal/servicepackage/service"
	"github.com/smallbiznis/ispdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestSeeder(t *testing.T) (*Seeder, *gorm.DB) {
	t.Helper()

	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	log := zaptest.NewLogger(t)
	clk := clock.NewFakeClock(time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC))

	packageRepo := servicepackagerepository.Provide()
	customerRepo := customerrepository.Provide()
	invoiceRepo := invoicerepository.Provide()
	paymentRepo := paymentrepository.Provide()

	return New(Params{
		Log:   log,
		Clock: clk,
		ServicePackageSvc: servicepackageservice.New(servicepackageservice.Params{
			DB: db, Log: log, GenID: node, Clock: clk, Repo: packageRepo,
		}),
		CustomerSvc: customerservice.New(customerservice.Params{
			DB: db, Log: log, GenID: node, Clock: clk, Repo: customerRepo, PackageRepo: packageRepo,
		}),
		InvoiceSvc: invoiceservice.New(invoiceservice.Params{
			DB: db, Log: log, GenID: node, Clock: clk, Repo: invoiceRepo, CustomerRepo: customerRepo,
		}),
		PaymentSvc: paymentservice.New(paymentservice.Params{
			DB: db, Log: log, GenID: node, Clock: clk, Repo: paymentRepo, InvoiceRepo: invoiceRepo,
		}),
	}), db
}

func count(t *testing.T, db *gorm.DB, table, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func TestRunSeedsEmptyDatabase(t *testing.T) {
	seeder, db := newTestSeeder(t)

	result, err := seeder.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, 10, result.ServicePackages)
	assert.Equal(t, 33, result.Customers)
	assert.Equal(t, 119, result.Invoices)
	assert.Equal(t, 69, result.Payments)
	assert.GreaterOrEqual(t, result.Refresh.Overdue, int64(overdueInvoices))

	assert.Equal(t, int64(8), count(t, db, "service_packages", "is_active = ?", true))
	assert.Equal(t, int64(25), count(t, db, "customers", "status = ?", "active"))
	assert.Equal(t, int64(5), count(t, db, "customers", "status = ?", "inactive"))
	assert.Equal(t, int64(3), count(t, db, "customers", "status = ?", "suspended"))
	assert.Equal(t, int64(119), count(t, db, "invoices", ""))
	assert.Equal(t, int64(69), count(t, db, "invoices", "status = ?", "paid"))
	assert.Equal(t, int64(69), count(t, db, "payments", ""))
}

func TestRunSkipsPopulatedDatabase(t *testing.T) {
	seeder, db := newTestSeeder(t)

	_, err := seeder.Run(context.Background())
	require.NoError(t, err)

	result, err := seeder.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, int64(10), count(t, db, "service_packages", ""))
	assert.Equal(t, int64(33), count(t, db, "customers", ""))
}

func TestRunOnStartHonoursFlag(t *testing.T) {
	seeder, db := newTestSeeder(t)

	require.NoError(t, runOnStart(config.Config{SeedDemoData: false}, seeder))
	assert.Zero(t, count(t, db, "service_packages", ""))

	require.NoError(t, runOnStart(config.Config{SeedDemoData: true}, seeder))
	assert.Equal(t, int64(10), count(t, db, "service_packages", ""))
}
