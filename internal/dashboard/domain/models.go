package domain

import (
	"context"
	"time"

	customerdomain "github.com/smallbiznis/ispdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/ispdesk/internal/payment/domain"
	"github.com/smallbiznis/ispdesk/pkg/money"
)

// Stats are the headline counters shown on the dashboard.
type Stats struct {
	TotalCustomers  int64        `json:"total_customers"`
	ActiveCustomers int64        `json:"active_customers"`
	TotalPackages   int64        `json:"total_packages"`
	ActivePackages  int64        `json:"active_packages"`
	TotalInvoices   int64        `json:"total_invoices"`
	UnpaidInvoices  int64        `json:"unpaid_invoices"`
	TotalRevenue    money.Amount `json:"total_revenue"`
	MonthlyRevenue  money.Amount `json:"monthly_revenue"`
}

type Summary struct {
	Stats           Stats                     `json:"stats"`
	RecentCustomers []customerdomain.Customer `json:"recent_customers"`
	RecentPayments  []paymentdomain.Payment   `json:"recent_payments"`
	OverdueInvoices []invoicedomain.Invoice   `json:"overdue_invoices"`
	GeneratedAt     time.Time                 `json:"generated_at"`
}

type Service interface {
	// Compute builds the summary as of the service clock's now.
	Compute(ctx context.Context) (Summary, error)
}
