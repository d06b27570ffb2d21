package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/internal/cache"
	"github.com/smallbiznis/ispdesk/internal/clock"
	"github.com/smallbiznis/ispdesk/internal/config"
	"github.com/smallbiznis/ispdesk/internal/customer/domain"
	obsmetrics "github.com/smallbiznis/ispdesk/internal/observability/metrics"
	spdomain "github.com/smallbiznis/ispdesk/internal/servicepackage/domain"
	"github.com/smallbiznis/ispdesk/pkg/db"
	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
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
	PackageRepo spdomain.Repository
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
	packageRepo spdomain.Repository
	billing     *config.BillingConfigHolder
	metrics     *obsmetrics.Metrics
	cache       *cache.Store
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("customer.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		packageRepo: p.PackageRepo,
		billing:     p.Billing,
		metrics:     p.Metrics,
		cache:       p.Cache,
	}
}

var messages = validation.Messages{
	"email.unique":              "This email address is already registered.",
	"service_package_id.exists": "Selected service package is invalid.",
	"status.in":                 "Customer status must be active, inactive, or suspended.",
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	filter := domain.ListFilter{
		Status: domain.Status(strings.TrimSpace(req.Status)),
		Search: strings.TrimSpace(req.Search),
	}
	if raw := strings.TrimSpace(req.ServicePackageID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return domain.ListCustomerResponse{}, validation.New("service_package_id", "invalid", "invalid service_package_id")
		}
		filter.ServicePackageID = &id
	}
	if filter.Status != "" && !validStatus(filter.Status) {
		return domain.ListCustomerResponse{}, validation.New("status", "in", messages.Message("status", "in", "invalid status"))
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
		return domain.ListCustomerResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(c *domain.Customer) pagination.Cursor {
		return pagination.Cursor{
			ID:        c.ID.String(),
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	})

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		customers = append(customers, *item)
	}

	return domain.ListCustomerResponse{
		PageInfo:  pageInfo,
		Customers: customers,
	}, nil
}

func (s *Service) ListActive(ctx context.Context) ([]domain.Customer, error) {
	items, err := s.repo.ListActive(ctx, s.db)
	if err != nil {
		return nil, err
	}
	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		customers = append(customers, *item)
	}
	return customers, nil
}

func (s *Service) FormOptions(ctx context.Context) (domain.FormOptions, error) {
	items, err := s.packageRepo.ListActive(ctx, s.db)
	if err != nil {
		return domain.FormOptions{}, err
	}
	packages := make([]spdomain.ServicePackage, 0, len(items))
	for _, item := range items {
		packages = append(packages, *item)
	}
	return domain.FormOptions{ServicePackages: packages}, nil
}

func (s *Service) Create(ctx context.Context, req domain.UpsertCustomerRequest) (domain.Customer, error) {
	input, err := s.validate(ctx, s.db, &req, 0)
	if err != nil {
		return domain.Customer{}, err
	}

	now := s.clock.Now()
	customer := domain.Customer{
		ID:               s.genID.Generate(),
		Name:             req.Name,
		Email:            req.Email,
		Phone:            normalizeOptional(req.Phone),
		Address:          req.Address,
		Status:           domain.Status(req.Status),
		ConnectionDate:   input.connectionDate,
		ServicePackageID: input.packageID,
		Notes:            normalizeOptional(req.Notes),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Customer{}, validation.New("email", "unique", messages["email.unique"])
		}
		return domain.Customer{}, err
	}

	s.written(ctx, "create")
	s.log.Info("customer created", zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Customer, error) {
	customerID, err := s.parseID(id)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, customerID, "ServicePackage", "Invoices")
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpsertCustomerRequest) (domain.Customer, error) {
	customerID, err := s.parseID(id)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	input, err := s.validate(ctx, s.db, &req, customerID)
	if err != nil {
		return domain.Customer{}, err
	}

	item.Name = req.Name
	item.Email = req.Email
	item.Address = req.Address
	item.Status = domain.Status(req.Status)
	item.ConnectionDate = input.connectionDate
	item.ServicePackageID = input.packageID
	if req.Phone != nil {
		item.Phone = normalizeOptional(req.Phone)
	}
	if req.Notes != nil {
		item.Notes = normalizeOptional(req.Notes)
	}
	item.UpdatedAt = s.clock.Now()

	if err := s.repo.Save(ctx, s.db, item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Customer{}, validation.New("email", "unique", messages["email.unique"])
		}
		return domain.Customer{}, err
	}

	s.written(ctx, "update")
	return *item, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	customerID, err := s.parseID(id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}

		invoices, payments, err := s.repo.CountDependents(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if invoices > 0 || payments > 0 {
			return domain.ErrHasBillingRecords
		}

		if _, err := s.repo.DeleteByID(ctx, tx, customerID); err != nil {
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

type validatedInput struct {
	connectionDate datatypes.Date
	packageID      snowflake.ID
}

// validate runs field rules, then the uniqueness and existence checks, and
// reports every failure together.
func (s *Service) validate(ctx context.Context, tx *gorm.DB, req *domain.UpsertCustomerRequest, selfID snowflake.ID) (validatedInput, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Address = strings.TrimSpace(req.Address)
	req.Status = strings.TrimSpace(req.Status)
	req.ConnectionDate = strings.TrimSpace(req.ConnectionDate)
	req.ServicePackageID = strings.TrimSpace(req.ServicePackageID)
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		req.Phone = &phone
	}

	errs := validation.Struct(req, messages)
	var out validatedInput

	if !errs.Has("connection_date") {
		date, err := validation.ParseDate(req.ConnectionDate)
		if err == nil {
			out.connectionDate = datatypes.Date(date)
		}
	}

	if !errs.Has("email") {
		taken, err := s.repo.EmailTaken(ctx, tx, req.Email, selfID)
		if err != nil {
			return out, err
		}
		if taken {
			errs.Add("email", "unique", messages["email.unique"])
		}
	}

	if !errs.Has("service_package_id") {
		packageID, err := snowflake.ParseString(req.ServicePackageID)
		if err != nil || packageID == 0 {
			errs.Add("service_package_id", "exists", messages["service_package_id.exists"])
		} else {
			pkg, err := s.packageRepo.FindByID(ctx, tx, packageID)
			if err != nil {
				return out, err
			}
			if pkg == nil {
				errs.Add("service_package_id", "exists", messages["service_package_id.exists"])
			}
			out.packageID = packageID
		}
	}

	return out, errs.Err()
}

func validStatus(status domain.Status) bool {
	switch status {
	case domain.StatusActive, domain.StatusInactive, domain.StatusSuspended:
		return true
	default:
		return false
	}
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
	s.metrics.RecordMutation(ctx, "customer", action)
	s.cache.Invalidate(ctx, s.log, cache.DashboardSummaryKey)
}
