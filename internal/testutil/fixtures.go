package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/ispdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/ispdesk/internal/payment/domain"
	spdomain "github.com/smallbiznis/ispdesk/internal/servicepackage/domain"
	"github.com/smallbiznis/ispdesk/pkg/money"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Fixtures inserts rows directly, bypassing the services.
type Fixtures struct {
	t    *testing.T
	db   *gorm.DB
	node *snowflake.Node
	now  time.Time
	seq  int
}

func NewFixtures(t *testing.T, db *gorm.DB, node *snowflake.Node, now time.Time) *Fixtures {
	return &Fixtures{t: t, db: db, node: node, now: now.UTC()}
}

// Advance moves the fixture creation clock forward.
func (f *Fixtures) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *Fixtures) create(value any) {
	f.t.Helper()
	if err := f.db.Omit(clause.Associations).Create(value).Error; err != nil {
		f.t.Fatalf("insert fixture %T: %v", value, err)
	}
}

func (f *Fixtures) Package(name string, price string, active bool) spdomain.ServicePackage {
	f.t.Helper()
	pkg := spdomain.ServicePackage{
		ID:        f.node.Generate(),
		Name:      name,
		Speed:     "100 Mbps",
		Price:     money.MustParse(price),
		IsActive:  active,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	f.create(&pkg)
	return pkg
}

func (f *Fixtures) Customer(pkg spdomain.ServicePackage, status customerdomain.Status) customerdomain.Customer {
	f.t.Helper()
	f.seq++
	customer := customerdomain.Customer{
		ID:               f.node.Generate(),
		Name:             fmt.Sprintf("Customer %d", f.seq),
		Email:            fmt.Sprintf("customer%d@example.com", f.seq),
		Address:          "1 Fiber Street",
		Status:           status,
		ConnectionDate:   datatypes.Date(Date(2024, time.January, 1)),
		ServicePackageID: pkg.ID,
		CreatedAt:        f.now,
		UpdatedAt:        f.now,
	}
	f.create(&customer)
	return customer
}

func (f *Fixtures) Invoice(customer customerdomain.Customer, amount string, dueDate time.Time, status invoicedomain.Status) invoicedomain.Invoice {
	f.t.Helper()
	f.seq++
	invoice := invoicedomain.Invoice{
		ID:            f.node.Generate(),
		InvoiceNumber: fmt.Sprintf("FIX-%06d", f.seq),
		CustomerID:    customer.ID,
		Amount:        money.MustParse(amount),
		InvoiceDate:   datatypes.Date(dueDate.AddDate(0, 0, -14)),
		DueDate:       datatypes.Date(dueDate),
		Status:        status,
		BillingPeriod: dueDate.Format("January 2006"),
		CreatedAt:     f.now,
		UpdatedAt:     f.now,
	}
	f.create(&invoice)
	return invoice
}

func (f *Fixtures) Payment(invoice invoicedomain.Invoice, amount string, paymentDate time.Time) paymentdomain.Payment {
	f.t.Helper()
	payment := paymentdomain.Payment{
		ID:            f.node.Generate(),
		InvoiceID:     invoice.ID,
		CustomerID:    invoice.CustomerID,
		Amount:        money.MustParse(amount),
		PaymentDate:   datatypes.Date(paymentDate),
		PaymentMethod: paymentdomain.MethodCash,
		CreatedAt:     f.now,
		UpdatedAt:     f.now,
	}
	f.create(&payment)
	return payment
}
