package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	spdomain "github.com/smallbiznis/ispdesk/internal/servicepackage/domain"
	"github.com/smallbiznis/ispdesk/pkg/money"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

type Customer struct {
	ID               snowflake.ID             `gorm:"primaryKey" json:"id"`
	Name             string                   `gorm:"not null" json:"name"`
	Email            string                   `gorm:"not null;uniqueIndex" json:"email"`
	Phone            *string                  `json:"phone"`
	Address          string                   `gorm:"not null" json:"address"`
	Status           Status                   `gorm:"not null" json:"status"`
	ConnectionDate   datatypes.Date           `gorm:"not null" json:"connection_date"`
	ServicePackageID snowflake.ID             `gorm:"not null;index" json:"service_package_id"`
	Notes            *string                  `json:"notes"`
	CreatedAt        time.Time                `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt        time.Time                `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
	ServicePackage   *spdomain.ServicePackage `gorm:"foreignKey:ServicePackageID" json:"service_package,omitempty"`
	Invoices         []CustomerInvoice        `gorm:"foreignKey:CustomerID" json:"invoices,omitempty"`
}

func (Customer) TableName() string { return "customers" }

// CustomerInvoice is the billing history row shown with a customer.
type CustomerInvoice struct {
	ID            snowflake.ID   `gorm:"primaryKey" json:"id"`
	CustomerID    snowflake.ID   `json:"customer_id"`
	InvoiceNumber string         `json:"invoice_number"`
	Amount        money.Amount   `json:"amount"`
	DueDate       datatypes.Date `json:"due_date"`
	Status        string         `json:"status"`
	BillingPeriod string         `json:"billing_period"`
}

func (CustomerInvoice) TableName() string { return "invoices" }
