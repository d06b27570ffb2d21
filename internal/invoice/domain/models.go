package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/ispdesk/internal/customer/domain"
	"github.com/smallbiznis/ispdesk/pkg/money"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPaid    Status = "paid"
	StatusDue     Status = "due"
	StatusOverdue Status = "overdue"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnpaid, StatusPaid, StatusDue, StatusOverdue:
		return true
	default:
		return false
	}
}

type Invoice struct {
	ID            snowflake.ID             `gorm:"primaryKey" json:"id"`
	InvoiceNumber string                   `gorm:"not null;uniqueIndex" json:"invoice_number"`
	CustomerID    snowflake.ID             `gorm:"not null;index" json:"customer_id"`
	Amount        money.Amount             `gorm:"not null" json:"amount"`
	InvoiceDate   datatypes.Date           `gorm:"not null" json:"invoice_date"`
	DueDate       datatypes.Date           `gorm:"not null" json:"due_date"`
	Status        Status                   `gorm:"not null" json:"status"`
	PaidDate      *datatypes.Date          `json:"paid_date"`
	BillingPeriod string                   `gorm:"not null" json:"billing_period"`
	Description   *string                  `json:"description"`
	CreatedAt     time.Time                `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time                `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
	Customer      *customerdomain.Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Payments      []InvoicePayment         `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

func (Invoice) TableName() string { return "invoices" }

// InvoicePayment is the payment row listed under an invoice.
type InvoicePayment struct {
	ID              snowflake.ID   `gorm:"primaryKey" json:"id"`
	InvoiceID       snowflake.ID   `json:"invoice_id"`
	Amount          money.Amount   `json:"amount"`
	PaymentDate     datatypes.Date `json:"payment_date"`
	PaymentMethod   string         `json:"payment_method"`
	ReferenceNumber *string        `json:"reference_number"`
}

func (InvoicePayment) TableName() string { return "payments" }

// RefreshResult counts invoices whose stored status changed.
type RefreshResult struct {
	Overdue int64 `json:"overdue"`
	Due     int64 `json:"due"`
}
