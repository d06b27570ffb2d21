package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/pkg/money"
)

// ServicePackage is an internet plan customers subscribe to.
type ServicePackage struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"not null" json:"name"`
	Speed       string            `gorm:"not null" json:"speed"`
	Price       money.Amount      `gorm:"not null" json:"price"`
	Description *string           `json:"description"`
	IsActive    bool              `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time         `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
	Customers   []PackageCustomer `gorm:"foreignKey:ServicePackageID" json:"customers,omitempty"`
}

func (ServicePackage) TableName() string { return "service_packages" }

// PackageCustomer is the subscriber view loaded with a package.
type PackageCustomer struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	ServicePackageID snowflake.ID `json:"service_package_id"`
	Name             string       `json:"name"`
	Email            string       `json:"email"`
	Status           string       `json:"status"`
}

func (PackageCustomer) TableName() string { return "customers" }
