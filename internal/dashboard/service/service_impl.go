package service

import (
	"context"
	"time"

	"github.com/smallbiznis/ispdesk/internal/cache"
	"github.com/smallbiznis/ispdesk/internal/clock"
	"github.com/smallbiznis/ispdesk/internal/config"
	customerdomain "github.com/smallbiznis/ispdesk/internal/customer/domain"
	"github.com/smallbiznis/ispdesk/internal/dashboard/domain"
	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/ispdesk/internal/payment/domain"
	spdomain "github.com/smallbiznis/ispdesk/internal/servicepackage/domain"
	"github.com/smallbiznis/ispdesk/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Billing *config.BillingConfigHolder `optional:"true"`
	Cache   *cache.Store                `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	billing *config.BillingConfigHolder
	cache   *cache.Store
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("dashboard.service"),
		clock:   p.Clock,
		billing: p.Billing,
		cache:   p.Cache,
	}
}

func (s *Service) Compute(ctx context.Context) (domain.Summary, error) {
	cfg := s.billing.Get().Dashboard

	if cfg.CacheTTL > 0 {
		var cached domain.Summary
		found, err := s.cache.Get(ctx, cache.DashboardSummaryKey, &cached)
		if err != nil {
			s.log.Warn("dashboard cache read failed", zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	now := s.clock.Now()
	summary, err := s.compute(ctx, now, cfg.RecentLimit)
	if err != nil {
		return domain.Summary{}, err
	}

	if cfg.CacheTTL > 0 {
		if err := s.cache.Set(ctx, cache.DashboardSummaryKey, summary, cfg.CacheTTL); err != nil {
			s.log.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

func (s *Service) compute(ctx context.Context, now time.Time, limit int) (domain.Summary, error) {
	if limit <= 0 {
		limit = config.DefaultBillingConfig().Dashboard.RecentLimit
	}
	db := s.db.WithContext(ctx)

	stats, err := s.stats(db, now)
	if err != nil {
		return domain.Summary{}, err
	}

	recentCustomers := []customerdomain.Customer{}
	if err := db.Preload("ServicePackage").
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&recentCustomers).Error; err != nil {
		return domain.Summary{}, err
	}

	recentPayments := []paymentdomain.Payment{}
	if err := db.Preload("Customer").Preload("Invoice").
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&recentPayments).Error; err != nil {
		return domain.Summary{}, err
	}

	// Only unpaid rows: a status refresh moves past-due invoices out of this list.
	overdue := []invoicedomain.Invoice{}
	if err := db.Preload("Customer").
		Where("status = ? AND due_date < ?", invoicedomain.StatusUnpaid, now).
		Order("due_date asc, id asc").
		Limit(limit).
		Find(&overdue).Error; err != nil {
		return domain.Summary{}, err
	}

	return domain.Summary{
		Stats:           stats,
		RecentCustomers: recentCustomers,
		RecentPayments:  recentPayments,
		OverdueInvoices: overdue,
		GeneratedAt:     now,
	}, nil
}

func (s *Service) stats(db *gorm.DB, now time.Time) (domain.Stats, error) {
	var stats domain.Stats

	counts := []struct {
		dest  *int64
		model any
		where []any
	}{
		{&stats.TotalCustomers, &customerdomain.Customer{}, nil},
		{&stats.ActiveCustomers, &customerdomain.Customer{}, []any{"status = ?", customerdomain.StatusActive}},
		{&stats.TotalPackages, &spdomain.ServicePackage{}, nil},
		{&stats.ActivePackages, &spdomain.ServicePackage{}, []any{"is_active = ?", true}},
		{&stats.TotalInvoices, &invoicedomain.Invoice{}, nil},
		{&stats.UnpaidInvoices, &invoicedomain.Invoice{}, []any{"status = ?", invoicedomain.StatusUnpaid}},
	}
	for _, c := range counts {
		stmt := db.Model(c.model)
		if len(c.where) > 0 {
			stmt = stmt.Where(c.where[0], c.where[1:]...)
		}
		if err := stmt.Count(c.dest).Error; err != nil {
			return domain.Stats{}, err
		}
	}

	total, err := sumPayments(db)
	if err != nil {
		return domain.Stats{}, err
	}
	stats.TotalRevenue = total

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthly, err := sumPayments(db.Where("payment_date >= ? AND payment_date < ?", monthStart, monthStart.AddDate(0, 1, 0)))
	if err != nil {
		return domain.Stats{}, err
	}
	stats.MonthlyRevenue = monthly

	return stats, nil
}

func sumPayments(db *gorm.DB) (money.Amount, error) {
	var total int64
	err := db.Model(&paymentdomain.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return money.FromMinor(total), err
}
