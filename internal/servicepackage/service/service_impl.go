package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/internal/cache"
	"github.com/smallbiznis/ispdesk/internal/clock"
	"github.com/smallbiznis/ispdesk/internal/config"
	obsmetrics "github.com/smallbiznis/ispdesk/internal/observability/metrics"
	"github.com/smallbiznis/ispdesk/internal/servicepackage/domain"
	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
	"github.com/smallbiznis/ispdesk/pkg/money"
	"github.com/smallbiznis/ispdesk/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Billing *config.BillingConfigHolder `optional:"true"`
	Metrics *obsmetrics.Metrics         `optional:"true"`
	Cache   *cache.Store                `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	billing *config.BillingConfigHolder
	metrics *obsmetrics.Metrics
	cache   *cache.Store
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("servicepackage.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		billing: p.Billing,
		metrics: p.Metrics,
		cache:   p.Cache,
	}
}

var messages = validation.Messages{
	"price.numeric": "The price must be a number of at least 0.",
}

func (s *Service) List(ctx context.Context, req domain.ListServicePackageRequest) (domain.ListServicePackageResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.billing.Get().Pagination.DefaultPageSize
	}
	pageSize = pagination.NormalizeSize(pageSize)

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		IsActive: req.IsActive,
		Name:     strings.TrimSpace(req.Name),
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListServicePackageResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(p *domain.ServicePackage) pagination.Cursor {
		return pagination.Cursor{
			ID:        p.ID.String(),
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	})

	packages := make([]domain.ServicePackage, 0, len(items))
	for _, item := range items {
		packages = append(packages, *item)
	}

	return domain.ListServicePackageResponse{
		PageInfo:        pageInfo,
		ServicePackages: packages,
	}, nil
}

func (s *Service) ListActive(ctx context.Context) ([]domain.ServicePackage, error) {
	items, err := s.repo.ListActive(ctx, s.db)
	if err != nil {
		return nil, err
	}
	packages := make([]domain.ServicePackage, 0, len(items))
	for _, item := range items {
		packages = append(packages, *item)
	}
	return packages, nil
}

func (s *Service) Create(ctx context.Context, req domain.UpsertServicePackageRequest) (domain.ServicePackage, error) {
	price, err := validateUpsert(&req)
	if err != nil {
		return domain.ServicePackage{}, err
	}

	now := s.clock.Now()
	pkg := domain.ServicePackage{
		ID:          s.genID.Generate(),
		Name:        req.Name,
		Speed:       req.Speed,
		Price:       price,
		Description: normalizeOptional(req.Description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		pkg.IsActive = *req.IsActive
	}

	if err := s.repo.Insert(ctx, s.db, &pkg); err != nil {
		return domain.ServicePackage{}, err
	}

	s.written(ctx, "create")
	s.log.Info("service package created", zap.String("service_package_id", pkg.ID.String()))
	return pkg, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.ServicePackage, error) {
	pkgID, err := s.parseID(id)
	if err != nil {
		return domain.ServicePackage{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, pkgID, "Customers")
	if err != nil {
		return domain.ServicePackage{}, err
	}
	if item == nil {
		return domain.ServicePackage{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpsertServicePackageRequest) (domain.ServicePackage, error) {
	pkgID, err := s.parseID(id)
	if err != nil {
		return domain.ServicePackage{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, pkgID)
	if err != nil {
		return domain.ServicePackage{}, err
	}
	if item == nil {
		return domain.ServicePackage{}, domain.ErrNotFound
	}

	price, err := validateUpsert(&req)
	if err != nil {
		return domain.ServicePackage{}, err
	}

	item.Name = req.Name
	item.Speed = req.Speed
	item.Price = price
	if req.Description != nil {
		item.Description = normalizeOptional(req.Description)
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	item.UpdatedAt = s.clock.Now()

	if err := s.repo.Save(ctx, s.db, item); err != nil {
		return domain.ServicePackage{}, err
	}

	s.written(ctx, "update")
	return *item, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	pkgID, err := s.parseID(id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, pkgID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}

		customers, err := s.repo.CountCustomers(ctx, tx, pkgID)
		if err != nil {
			return err
		}
		if customers > 0 {
			return domain.ErrInUse
		}

		if _, err := s.repo.DeleteByID(ctx, tx, pkgID); err != nil {
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

// validateUpsert trims input in place and returns the parsed price.
func validateUpsert(req *domain.UpsertServicePackageRequest) (money.Amount, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Speed = strings.TrimSpace(req.Speed)
	req.Price = strings.TrimSpace(req.Price)

	errs := validation.Struct(req, messages)
	if err := errs.Err(); err != nil {
		return 0, err
	}

	price, err := money.Parse(req.Price)
	if err != nil {
		return 0, validation.New("price", "numeric", messages.Message("price", "numeric", "The price must be a number."))
	}
	return price, nil
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
	s.metrics.RecordMutation(ctx, "service_package", action)
	s.cache.Invalidate(ctx, s.log, cache.DashboardSummaryKey)
}
