package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/internal/cache"
	"github.com/smallbiznis/ispdesk/internal/clock"
	"github.com/smallbiznis/ispdesk/internal/config"
	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/ispdesk/internal/observability/metrics"
	"github.com/smallbiznis/ispdesk/internal/payment/domain"
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

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	InvoiceRepo invoicedomain.Repository
	Billing     *config.BillingConfigHolder `optional:"true"`
	Metrics     *obsmetrics.Metrics         `optional:"true"`
	Cache       *cache.Store                `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	invoiceRepo invoicedomain.Repository
	billing     *config.BillingConfigHolder
	metrics     *obsmetrics.Metrics
	cache       *cache.Store
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
		billing:     p.Billing,
		metrics:     p.Metrics,
		cache:       p.Cache,
	}
}

var messages = validation.Messages{
	"invoice_id.exists":    "Selected invoice is invalid.",
	"amount.numeric":       "The amount must be a number of at least 0.",
	"payment_method.in":    "Payment method must be cash, bank_transfer, credit_card, debit_card, or check.",
	"payment_date.date":    "The payment date is not a valid date.",
	"reference_number.max": "The reference number may not be greater than 255 characters.",
}

func (s *Service) List(ctx context.Context, req domain.ListPaymentRequest) (domain.ListPaymentResponse, error) {
	var filter domain.ListFilter
	if raw := strings.TrimSpace(req.InvoiceID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return domain.ListPaymentResponse{}, validation.New("invoice_id", "invalid", "invalid invoice_id")
		}
		filter.InvoiceID = &id
	}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return domain.ListPaymentResponse{}, validation.New("customer_id", "invalid", "invalid customer_id")
		}
		filter.CustomerID = &id
	}
	if raw := strings.TrimSpace(req.PaymentMethod); raw != "" {
		filter.PaymentMethod = domain.Method(raw)
		if !filter.PaymentMethod.Valid() {
			return domain.ListPaymentResponse{}, validation.New("payment_method", "in", messages["payment_method.in"])
		}
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
		return domain.ListPaymentResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(p *domain.Payment) pagination.Cursor {
		return pagination.Cursor{
			ID:        p.ID.String(),
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	})

	payments := make([]domain.Payment, 0, len(items))
	for _, item := range items {
		payments = append(payments, *item)
	}
	return domain.ListPaymentResponse{
		PageInfo: pageInfo,
		Payments: payments,
	}, nil
}

func (s *Service) FormOptions(ctx context.Context) (domain.FormOptions, error) {
	items, err := s.invoiceRepo.ListOpen(ctx, s.db)
	if err != nil {
		return domain.FormOptions{}, err
	}
	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		invoices = append(invoices, *item)
	}
	return domain.FormOptions{Invoices: invoices}, nil
}

// Create records a payment and, when it covers the invoice amount, marks the
// invoice paid in the same transaction.
func (s *Service) Create(ctx context.Context, req domain.UpsertPaymentRequest) (domain.Payment, error) {
	var (
		payment    domain.Payment
		markedPaid bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		input, err := s.validate(ctx, tx, &req)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		payment = domain.Payment{
			ID:              s.genID.Generate(),
			InvoiceID:       input.invoice.ID,
			CustomerID:      input.invoice.CustomerID,
			Amount:          input.amount,
			PaymentDate:     input.paymentDate,
			PaymentMethod:   domain.Method(req.PaymentMethod),
			ReferenceNumber: normalizeOptional(req.ReferenceNumber),
			Notes:           normalizeOptional(req.Notes),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			return err
		}

		if payment.Amount >= input.invoice.Amount {
			if err := s.invoiceRepo.MarkPaid(ctx, tx, input.invoice.ID, payment.PaymentDate, now); err != nil {
				return err
			}
			markedPaid = true
		}
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}

	s.written(ctx, "create")
	s.metrics.RecordPayment(ctx, string(payment.PaymentMethod), payment.Amount.Float64())
	if markedPaid {
		s.metrics.RecordInvoicePaid(ctx)
	}
	s.log.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", payment.InvoiceID.String()),
		zap.Bool("invoice_paid", markedPaid),
	)
	return payment, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Payment, error) {
	paymentID, err := s.parseID(id)
	if err != nil {
		return domain.Payment{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, paymentID, "Customer", "Invoice")
	if err != nil {
		return domain.Payment{}, err
	}
	if item == nil {
		return domain.Payment{}, domain.ErrNotFound
	}
	return *item, nil
}

// Update rewrites the payment fields only. The invoice status is left as is.
func (s *Service) Update(ctx context.Context, id string, req domain.UpsertPaymentRequest) (domain.Payment, error) {
	paymentID, err := s.parseID(id)
	if err != nil {
		return domain.Payment{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return domain.Payment{}, err
	}
	if item == nil {
		return domain.Payment{}, domain.ErrNotFound
	}

	input, err := s.validate(ctx, s.db, &req)
	if err != nil {
		return domain.Payment{}, err
	}

	item.InvoiceID = input.invoice.ID
	item.CustomerID = input.invoice.CustomerID
	item.Amount = input.amount
	item.PaymentDate = input.paymentDate
	item.PaymentMethod = domain.Method(req.PaymentMethod)
	if req.ReferenceNumber != nil {
		item.ReferenceNumber = normalizeOptional(req.ReferenceNumber)
	}
	if req.Notes != nil {
		item.Notes = normalizeOptional(req.Notes)
	}
	item.UpdatedAt = s.clock.Now()

	if err := s.repo.Save(ctx, s.db, item); err != nil {
		return domain.Payment{}, err
	}

	s.written(ctx, "update")
	return *item, nil
}

// Delete removes the payment without reverting the invoice status.
func (s *Service) Delete(ctx context.Context, id string) error {
	paymentID, err := s.parseID(id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.DeleteByID(ctx, s.db, paymentID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrNotFound
	}

	s.written(ctx, "delete")
	return nil
}

type validatedInput struct {
	invoice     *invoicedomain.Invoice
	amount      money.Amount
	paymentDate datatypes.Date
}

func (s *Service) validate(ctx context.Context, tx *gorm.DB, req *domain.UpsertPaymentRequest) (validatedInput, error) {
	req.InvoiceID = strings.TrimSpace(req.InvoiceID)
	req.Amount = strings.TrimSpace(req.Amount)
	req.PaymentDate = strings.TrimSpace(req.PaymentDate)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if req.ReferenceNumber != nil {
		ref := strings.TrimSpace(*req.ReferenceNumber)
		req.ReferenceNumber = &ref
	}

	errs := validation.Struct(req, messages)
	var out validatedInput

	if !errs.Has("amount") {
		if amount, err := money.Parse(req.Amount); err == nil {
			out.amount = amount
		}
	}
	if !errs.Has("payment_date") {
		if date, err := validation.ParseDate(req.PaymentDate); err == nil {
			out.paymentDate = datatypes.Date(date)
		}
	}

	if !errs.Has("invoice_id") {
		invoiceID, err := snowflake.ParseString(req.InvoiceID)
		if err != nil || invoiceID == 0 {
			errs.Add("invoice_id", "exists", messages["invoice_id.exists"])
		} else {
			invoice, err := s.invoiceRepo.FindByID(ctx, tx, invoiceID)
			if err != nil {
				return out, err
			}
			if invoice == nil {
				errs.Add("invoice_id", "exists", messages["invoice_id.exists"])
			}
			out.invoice = invoice
		}
	}

	return out, errs.Err()
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
	s.metrics.RecordMutation(ctx, "payment", action)
	s.cache.Invalidate(ctx, s.log, cache.DashboardSummaryKey)
}
