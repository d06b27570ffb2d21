package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/ispdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
	"github.com/smallbiznis/ispdesk/pkg/money"
	"gorm.io/datatypes"
)

type Method string

const (
	MethodCash         Method = "cash"
	MethodBankTransfer Method = "bank_transfer"
	MethodCreditCard   Method = "credit_card"
	MethodDebitCard    Method = "debit_card"
	MethodCheck        Method = "check"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodCreditCard, MethodDebitCard, MethodCheck:
		return true
	default:
		return false
	}
}

type Payment struct {
	ID              snowflake.ID             `gorm:"primaryKey" json:"id"`
	InvoiceID       snowflake.ID             `gorm:"not null;index" json:"invoice_id"`
	CustomerID      snowflake.ID             `gorm:"not null;index" json:"customer_id"`
	Amount          money.Amount             `gorm:"not null" json:"amount"`
	PaymentDate     datatypes.Date           `gorm:"not null" json:"payment_date"`
	PaymentMethod   Method                   `gorm:"not null" json:"payment_method"`
	ReferenceNumber *string                  `json:"reference_number"`
	Notes           *string                  `json:"notes"`
	CreatedAt       time.Time                `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt       time.Time                `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
	Customer        *customerdomain.Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Invoice         *invoicedomain.Invoice   `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
}

func (Payment) TableName() string { return "payments" }
