package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/ispdesk/internal/invoice/format"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// BillingConfig holds the tunables that operators may change at runtime.
type BillingConfig struct {
	DueSoonDays         int              `mapstructure:"due_soon_days"`
	InvoiceNumberFormat string           `mapstructure:"invoice_number_format"`
	Dashboard           DashboardConfig  `mapstructure:"dashboard"`
	Pagination          PaginationConfig `mapstructure:"pagination"`
}

type DashboardConfig struct {
	RecentLimit int           `mapstructure:"recent_limit"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

type PaginationConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
}

// DueSoonWindow is the look-ahead used when marking invoices as due.
func (c BillingConfig) DueSoonWindow() time.Duration {
	return time.Duration(c.DueSoonDays) * 24 * time.Hour
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		DueSoonDays:         7,
		InvoiceNumberFormat: format.DefaultInvoiceNumberTemplate,
		Dashboard: DashboardConfig{
			RecentLimit: 5,
			CacheTTL:    0,
		},
		Pagination: PaginationConfig{
			DefaultPageSize: 10,
		},
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

// NewStaticBillingConfig wraps a fixed config, mainly for tests.
func NewStaticBillingConfig(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewBillingConfigHolder(log *zap.Logger) (*BillingConfigHolder, error) {
	log = log.Named("billing.config")
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/ispdesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ISPDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.due_soon_days", defaults.DueSoonDays)
	v.SetDefault("billing.invoice_number_format", defaults.InvoiceNumberFormat)
	v.SetDefault("billing.dashboard.recent_limit", defaults.Dashboard.RecentLimit)
	v.SetDefault("billing.dashboard.cache_ttl", defaults.Dashboard.CacheTTL)
	v.SetDefault("billing.pagination.default_page_size", defaults.Pagination.DefaultPageSize)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	cfg, err := decodeBillingConfig(v)
	if err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticBillingConfig(cfg)
	if !fileLoaded {
		log.Info("billing.yml not found, using defaults")
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeBillingConfig(v)
		if err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	if h == nil {
		return DefaultBillingConfig()
	}
	return h.current.Load().(BillingConfig)
}

// decodeBillingConfig unmarshals through AllSettings so defaults fill keys
// missing from the file.
func decodeBillingConfig(v *viper.Viper) (BillingConfig, error) {
	var wrapper struct {
		Billing BillingConfig `mapstructure:"billing"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return BillingConfig{}, err
	}
	return wrapper.Billing, nil
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.DueSoonDays < 0 {
		return errors.New("billing.due_soon_days cannot be negative")
	}
	if _, err := format.Compile(cfg.InvoiceNumberFormat); err != nil {
		return fmt.Errorf("billing.invoice_number_format: %w", err)
	}
	if cfg.Dashboard.RecentLimit <= 0 {
		return errors.New("billing.dashboard.recent_limit must be positive")
	}
	if cfg.Dashboard.CacheTTL < 0 {
		return errors.New("billing.dashboard.cache_ttl cannot be negative")
	}
	if cfg.Pagination.DefaultPageSize <= 0 {
		return errors.New("billing.pagination.default_page_size must be positive")
	}
	return nil
}
