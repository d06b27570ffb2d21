// Package seed loads a demo data set through the domain services.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/ispdesk/internal/clock"
	"github.com/smallbiznis/ispdesk/internal/config"
	customerdomain "github.com/smallbiznis/ispdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/ispdesk/internal/payment/domain"
	servicepackagedomain "github.com/smallbiznis/ispdesk/internal/servicepackage/domain"
	"github.com/smallbiznis/ispdesk/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("seed",
	fx.Provide(New),
	fx.Invoke(runOnStart),
)

const (
	activeCustomers    = 25
	inactiveCustomers  = 5
	suspendedCustomers = 3
	overdueInvoices    = 8
	dueDays            = 15
)

type packageSpec struct {
	name   string
	speed  string
	price  string
	active bool
}

var catalog = []packageSpec{
	{"Starter", "10 Mbps", "19.99", true},
	{"Basic", "25 Mbps", "29.99", true},
	{"Home", "50 Mbps", "39.99", true},
	{"Home Plus", "100 Mbps", "49.99", true},
	{"Family", "200 Mbps", "64.99", true},
	{"Gamer", "300 Mbps", "79.99", true},
	{"Fiber", "500 Mbps", "99.99", true},
	{"Fiber Max", "1 Gbps", "129.99", true},
	{"Legacy DSL", "8 Mbps", "14.99", false},
	{"Legacy Cable", "30 Mbps", "24.99", false},
}

var methods = []paymentdomain.Method{
	paymentdomain.MethodCash,
	paymentdomain.MethodBankTransfer,
	paymentdomain.MethodCreditCard,
	paymentdomain.MethodDebitCard,
	paymentdomain.MethodCheck,
}

type Params struct {
	fx.In

	Log               *zap.Logger
	Clock             clock.Clock
	ServicePackageSvc servicepackagedomain.Service
	CustomerSvc       customerdomain.Service
	InvoiceSvc        invoicedomain.Service
	PaymentSvc        paymentdomain.Service
}

type Seeder struct {
	log         *zap.Logger
	clock       clock.Clock
	packageSvc  servicepackagedomain.Service
	customerSvc customerdomain.Service
	invoiceSvc  invoicedomain.Service
	paymentSvc  paymentdomain.Service
}

// Result counts the records created by one Run.
type Result struct {
	Skipped         bool
	ServicePackages int
	Customers       int
	Invoices        int
	Payments        int
	Refresh         invoicedomain.RefreshResult
}

func New(p Params) *Seeder {
	return &Seeder{
		log:         p.Log.Named("seed"),
		clock:       p.Clock,
		packageSvc:  p.ServicePackageSvc,
		customerSvc: p.CustomerSvc,
		invoiceSvc:  p.InvoiceSvc,
		paymentSvc:  p.PaymentSvc,
	}
}

func runOnStart(cfg config.Config, s *Seeder) error {
	if !cfg.SeedDemoData {
		return nil
	}
	_, err := s.Run(context.Background())
	return err
}

// Run seeds an empty database. A database that already has service packages
// is left untouched.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	existing, err := s.packageSvc.List(ctx, servicepackagedomain.ListServicePackageRequest{PageSize: 1})
	if err != nil {
		return Result{}, err
	}
	if len(existing.ServicePackages) > 0 {
		s.log.Info("demo data skipped, database is not empty")
		return Result{Skipped: true}, nil
	}

	now := s.clock.Now().UTC()
	var result Result

	var active []servicepackagedomain.ServicePackage
	for _, entry := range catalog {
		isActive := entry.active
		pkg, err := s.packageSvc.Create(ctx, servicepackagedomain.UpsertServicePackageRequest{
			Name:     entry.name,
			Speed:    entry.speed,
			Price:    entry.price,
			IsActive: &isActive,
		})
		if err != nil {
			return result, fmt.Errorf("seed service package %q: %w", entry.name, err)
		}
		result.ServicePackages++
		if pkg.IsActive {
			active = append(active, pkg)
		}
	}

	total := activeCustomers + inactiveCustomers + suspendedCustomers
	customers := make([]customerdomain.Customer, 0, activeCustomers)
	prices := make(map[string]string, total)
	for i := 0; i < total; i++ {
		status := customerdomain.StatusActive
		switch {
		case i >= activeCustomers+inactiveCustomers:
			status = customerdomain.StatusSuspended
		case i >= activeCustomers:
			status = customerdomain.StatusInactive
		}
		pkg := active[i%len(active)]
		phone := fmt.Sprintf("+1-555-01%02d", i)
		customer, err := s.customerSvc.Create(ctx, customerdomain.UpsertCustomerRequest{
			Name:             fmt.Sprintf("Customer %02d", i+1),
			Email:            fmt.Sprintf("customer%02d@example.net", i+1),
			Phone:            &phone,
			Address:          fmt.Sprintf("%d Fiber Street", 10+i),
			Status:           string(status),
			ConnectionDate:   formatDate(now.AddDate(0, -(6 + i%12), 0)),
			ServicePackageID: pkg.ID.String(),
		})
		if err != nil {
			return result, fmt.Errorf("seed customer %d: %w", i+1, err)
		}
		result.Customers++
		prices[customer.ID.String()] = pkg.Price.String()
		if status == customerdomain.StatusActive {
			customers = append(customers, customer)
		}
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i, customer := range customers {
		count := 3 + i%4
		for m := 0; m < count; m++ {
			start := monthStart.AddDate(0, -m, 0)
			invoice, err := s.invoiceSvc.Create(ctx, invoicedomain.CreateInvoiceRequest{
				CustomerID:    customer.ID.String(),
				Amount:        prices[customer.ID.String()],
				InvoiceDate:   formatDate(start),
				DueDate:       formatDate(start.AddDate(0, 0, dueDays)),
				BillingPeriod: start.Format("January 2006"),
			})
			if err != nil {
				return result, fmt.Errorf("seed invoice: %w", err)
			}
			result.Invoices++

			// Older periods are mostly settled.
			if m == 0 || (i+m)%5 == 0 {
				continue
			}
			if _, err := s.paymentSvc.Create(ctx, paymentdomain.UpsertPaymentRequest{
				InvoiceID:     invoice.ID.String(),
				Amount:        invoice.Amount.String(),
				PaymentDate:   formatDate(start.AddDate(0, 0, (i+m)%dueDays)),
				PaymentMethod: string(methods[(i+m)%len(methods)]),
			}); err != nil {
				return result, fmt.Errorf("seed payment: %w", err)
			}
			result.Payments++
		}
	}

	for k := 0; k < overdueInvoices; k++ {
		customer := customers[(k*3)%len(customers)]
		invoiceDate := now.AddDate(0, 0, -45-k)
		if _, err := s.invoiceSvc.Create(ctx, invoicedomain.CreateInvoiceRequest{
			CustomerID:    customer.ID.String(),
			Amount:        prices[customer.ID.String()],
			InvoiceDate:   formatDate(invoiceDate),
			DueDate:       formatDate(invoiceDate.AddDate(0, 0, dueDays)),
			BillingPeriod: invoiceDate.Format("January 2006"),
		}); err != nil {
			return result, fmt.Errorf("seed overdue invoice: %w", err)
		}
		result.Invoices++
	}

	refresh, err := s.invoiceSvc.RefreshStatuses(ctx, now)
	if err != nil {
		return result, err
	}
	result.Refresh = refresh

	s.log.Info("demo data seeded",
		zap.Int("service_packages", result.ServicePackages),
		zap.Int("customers", result.Customers),
		zap.Int("invoices", result.Invoices),
		zap.Int("payments", result.Payments),
		zap.Int64("overdue", refresh.Overdue),
		zap.Int64("due", refresh.Due),
	)
	return result, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(validation.DateLayout)
}
