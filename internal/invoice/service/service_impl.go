package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/internal/cache"
	"github.com/smallbiznis/ispdesk/internal/clock"
	"github.com/smallbiznis/ispdesk/internal/config"
	customerdomain "github.com/smallbiznis/ispdesk/internal/customer/domain"
	"github.com/smallbiznis/ispdesk/internal/invoice/domain"
	"github.com/smallbiznis/ispdesk/internal/invoice/format"
	obsmetrics "github.com/smallbiznis/ispdesk/internal/observability/metrics"
	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
	"github.com/smallbiznis/ispdesk/pkg/money"
	"github.com/smallbiznis/ispdesk/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	CustomerRepo customerdomain.Repository
	Billing      *config.BillingConfigHolder `optional:"true"`
	Metrics      *obsmetrics.Metrics         `optional:"true"`
	Cache        *cache.Store                `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	customerRepo customerdomain.Repository
	billing      *config.BillingConfigHolder
	metrics      *obsmetrics.Metrics
	cache        *cache.Store
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("invoice.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		billing:      p.Billing,
		metrics:      p.Metrics,
		cache:        p.Cache,
	}
}

var messages = validation.Messages{
	"customer_id.exists":      "Selected customer is invalid.",
	"amount.numeric":          "The amount must be a number of at least 0.",
	"due_date.after_or_equal": "The due date must be a date after or equal to invoice date.",
	"status.in":               "Invoice status must be unpaid, paid, due, or overdue.",
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	filter := domain.ListFilter{Status: domain.Status(strings.TrimSpace(req.Status))}
	if filter.Status != "" && !filter.Status.Valid() {
		return domain.ListInvoiceResponse{}, validation.New("status", "in", messages["status.in"])
	}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return domain.ListInvoiceResponse{}, validation.New("customer_id", "invalid", "invalid customer_id")
		}
		filter.CustomerID = &id
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.billing.Get().Pagination.DefaultPageSize
	}
	pageSize = pagination.NormalizeSize(pageSize)

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(inv *domain.Invoice) pagination.Cursor {
		return pagination.Cursor{
			ID:        inv.ID.String(),
			CreatedAt: inv.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	})

	return domain.ListInvoiceResponse{
		PageInfo: pageInfo,
		Invoices: deref(items),
	}, nil
}

func (s *Service) ListOpen(ctx context.Context) ([]domain.Invoice, error) {
	items, err := s.repo.ListOpen(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (s *Service) FormOptions(ctx context.Context) (domain.FormOptions, error) {
	items, err := s.customerRepo.ListActive(ctx, s.db)
	if err != nil {
		return domain.FormOptions{}, err
	}
	customers := make([]customerdomain.Customer, 0, len(items))
	for _, item := range items {
		customers = append(customers, *item)
	}
	return domain.FormOptions{Customers: customers}, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	var invoice domain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		input, err := s.validate(ctx, tx, &req, nil)
		if err != nil {
			return err
		}

		seq, err := s.repo.NextNumber(ctx, tx)
		if err != nil {
			return err
		}

		number, err := format.FormatInvoiceNumber(s.billing.Get().InvoiceNumberFormat, time.Time(input.invoiceDate), seq)
		if err != nil {
			return err
		}

		now := s.clock.Now()

		invoice = domain.Invoice{
			ID:            s.genID.Generate(),
			InvoiceNumber: number,
			CustomerID:    input.customerID,
			Amount:        input.amount,
			InvoiceDate:   input.invoiceDate,
			DueDate:       input.dueDate,
			Status:        domain.StatusUnpaid,
			BillingPeriod: req.BillingPeriod,
			Description:   normalizeOptional(req.Description),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return s.repo.Insert(ctx, tx, &invoice)
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	s.written(ctx, "create")
	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
	)
	return invoice, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Invoice, error) {
	invoiceID, err := s.parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, invoiceID, "Customer", "Payments")
	if err != nil {
		return domain.Invoice{}, err
	}
	if item == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateInvoiceRequest) (domain.Invoice, error) {
	invoiceID, err := s.parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if item == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	req.Status = strings.TrimSpace(req.Status)
	input, err := s.validate(ctx, s.db, &req.CreateInvoiceRequest, &req)
	if err != nil {
		return domain.Invoice{}, err
	}

	item.CustomerID = input.customerID
	item.Amount = input.amount
	item.InvoiceDate = input.invoiceDate
	item.DueDate = input.dueDate
	item.BillingPeriod = req.BillingPeriod
	item.Status = domain.Status(req.Status)
	if req.Description != nil {
		item.Description = normalizeOptional(req.Description)
	}
	item.UpdatedAt = s.clock.Now()

	if err := s.repo.Save(ctx, s.db, item); err != nil {
		return domain.Invoice{}, err
	}

	s.written(ctx, "update")
	return *item, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	invoiceID, err := s.parseID(id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}

		payments, err := s.repo.CountPayments(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if payments > 0 {
			return domain.ErrHasPayments
		}

		if _, err := s.repo.DeleteByID(ctx, tx, invoiceID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.written(ctx, "delete")
	return nil
}

func (s *Service) RefreshStatuses(ctx context.Context, now time.Time) (domain.RefreshResult, error) {
	now = now.UTC()
	horizon := now.Add(s.billing.Get().DueSoonWindow())

	var result domain.RefreshResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		overdue, err := s.repo.MarkOverdue(ctx, tx, now)
		if err != nil {
			return err
		}
		due, err := s.repo.MarkDue(ctx, tx, now, horizon)
		if err != nil {
			return err
		}
		result = domain.RefreshResult{Overdue: overdue, Due: due}
		return nil
	})
	if err != nil {
		return domain.RefreshResult{}, err
	}

	s.metrics.RecordStatusRefresh(ctx, string(domain.StatusOverdue), result.Overdue)
	s.metrics.RecordStatusRefresh(ctx, string(domain.StatusDue), result.Due)
	if result.Overdue > 0 || result.Due > 0 {
		s.cache.Invalidate(ctx, s.log, cache.DashboardSummaryKey)
		s.log.Info("invoice statuses refreshed",
			zap.Int64("overdue", result.Overdue),
			zap.Int64("due", result.Due),
		)
	}
	return result, nil
}

type validatedInput struct {
	customerID  snowflake.ID
	amount      money.Amount
	invoiceDate datatypes.Date
	dueDate     datatypes.Date
}

// validate checks the create fields and, when update is set, the status
// override. Every failure is reported together.
func (s *Service) validate(ctx context.Context, tx *gorm.DB, req *domain.CreateInvoiceRequest, update *domain.UpdateInvoiceRequest) (validatedInput, error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.Amount = strings.TrimSpace(req.Amount)
	req.InvoiceDate = strings.TrimSpace(req.InvoiceDate)
	req.DueDate = strings.TrimSpace(req.DueDate)
	req.BillingPeriod = strings.TrimSpace(req.BillingPeriod)

	var errs *validation.Errors
	if update != nil {
		errs = validation.Struct(update, messages)
	} else {
		errs = validation.Struct(req, messages)
	}

	var out validatedInput

	if !errs.Has("amount") {
		amount, err := money.Parse(req.Amount)
		if err == nil {
			out.amount = amount
		}
	}

	var invoiceDate, dueDate time.Time
	if !errs.Has("invoice_date") {
		if date, err := validation.ParseDate(req.InvoiceDate); err == nil {
			invoiceDate = date
			out.invoiceDate = datatypes.Date(date)
		}
	}
	if !errs.Has("due_date") {
		if date, err := validation.ParseDate(req.DueDate); err == nil {
			dueDate = date
			out.dueDate = datatypes.Date(date)
		}
	}
	if !invoiceDate.IsZero() && !dueDate.IsZero() && dueDate.Before(invoiceDate) {
		errs.Add("due_date", "after_or_equal", messages["due_date.after_or_equal"])
	}

	if !errs.Has("customer_id") {
		customerID, err := snowflake.ParseString(req.CustomerID)
		if err != nil || customerID == 0 {
			errs.Add("customer_id", "exists", messages["customer_id.exists"])
		} else {
			customer, err := s.customerRepo.FindByID(ctx, tx, customerID)
			if err != nil {
				return out, err
			}
			if customer == nil {
				errs.Add("customer_id", "exists", messages["customer_id.exists"])
			}
			out.customerID = customerID
		}
	}

	return out, errs.Err()
}

func deref(items []*domain.Invoice) []domain.Invoice {
	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		invoices = append(invoices, *item)
	}
	return invoices
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// written records a committed write and drops the cached dashboard.
func (s *Service) written(ctx context.Context, action string) {
	s.metrics.RecordMutation(ctx, "invoice", action)
	s.cache.Invalidate(ctx, s.log, cache.DashboardSummaryKey)
}
