package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/ispdesk/internal/clock"
	"github.com/smallbiznis/ispdesk/internal/customer/domain"
	spdomain "github.com/smallbiznis/ispdesk/internal/servicepackage/domain"
	"github.com/smallbiznis/ispdesk/internal/servicepackage/repository"
	"github.com/smallbiznis/ispdesk/internal/testutil"
	"github.com/smallbiznis/ispdesk/pkg/money"
	"github.com/smallbiznis/ispdesk/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (spdomain.Service, *gorm.DB, *clock.FakeClock, *testutil.Fixtures) {
	t.Helper()
	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	clk := clock.NewFakeClock(testNow)
	svc := New(Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	})
	return svc, db, clk, testutil.NewFixtures(t, db, node, testNow)
}

func TestCreateDefaultsToActive(t *testing.T) {
	svc, _, _, _ := setupService(t)

	pkg, err := svc.Create(context.Background(), spdomain.UpsertServicePackageRequest{
		Name:  " Fiber 100 ",
		Speed: "100 Mbps",
		Price: "49.99",
	})
	require.NoError(t, err)
	assert.Equal(t, "Fiber 100", pkg.Name)
	assert.True(t, pkg.IsActive)
	assert.Equal(t, money.FromMinor(4999), pkg.Price)
	assert.Nil(t, pkg.Description)
	assert.Equal(t, testNow, pkg.CreatedAt)

	stored, err := svc.GetByID(context.Background(), pkg.ID.String())
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.Equal(t, pkg.Price, stored.Price)
}

func TestCreateInactivePackage(t *testing.T) {
	svc, _, _, _ := setupService(t)
	inactive := false

	pkg, err := svc.Create(context.Background(), spdomain.UpsertServicePackageRequest{
		Name:     "Legacy DSL",
		Speed:    "10 Mbps",
		Price:    "0",
		IsActive: &inactive,
	})
	require.NoError(t, err)

	stored, err := svc.GetByID(context.Background(), pkg.ID.String())
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, money.Amount(0), stored.Price)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc, _, _, _ := setupService(t)

	_, err := svc.Create(context.Background(), spdomain.UpsertServicePackageRequest{
		Name:  "",
		Speed: "100 Mbps",
		Price: "-5",
	})
	errs, ok := validation.As(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.True(t, errs.Has("name"))
	assert.True(t, errs.Has("price"))
	assert.False(t, errs.Has("speed"))
}

func TestUpdateKeepsUnsetOptionalFields(t *testing.T) {
	svc, _, clk, _ := setupService(t)
	desc := "Home plan"

	pkg, err := svc.Create(context.Background(), spdomain.UpsertServicePackageRequest{
		Name:        "Home",
		Speed:       "50 Mbps",
		Price:       "25",
		Description: &desc,
	})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	updated, err := svc.Update(context.Background(), pkg.ID.String(), spdomain.UpsertServicePackageRequest{
		Name:  "Home Plus",
		Speed: "75 Mbps",
		Price: "30.50",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "Home plan", *updated.Description)
	assert.True(t, updated.IsActive)
	assert.Equal(t, money.FromMinor(3050), updated.Price)
	assert.Equal(t, testNow.Add(time.Hour), updated.UpdatedAt)

	empty := ""
	cleared, err := svc.Update(context.Background(), pkg.ID.String(), spdomain.UpsertServicePackageRequest{
		Name:        "Home Plus",
		Speed:       "75 Mbps",
		Price:       "30.50",
		Description: &empty,
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.Description)
}

func TestGetByIDErrors(t *testing.T) {
	svc, _, _, _ := setupService(t)

	_, err := svc.GetByID(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, spdomain.ErrInvalidID)

	_, err = svc.GetByID(context.Background(), "12345")
	assert.ErrorIs(t, err, spdomain.ErrNotFound)
}

func TestGetByIDLoadsCustomers(t *testing.T) {
	svc, _, _, fx := setupService(t)
	pkg := fx.Package("Fiber", "40", true)
	fx.Customer(pkg, domain.StatusActive)
	fx.Customer(pkg, domain.StatusSuspended)

	got, err := svc.GetByID(context.Background(), pkg.ID.String())
	require.NoError(t, err)
	assert.Len(t, got.Customers, 2)
}

func TestDeleteRejectsPackageInUse(t *testing.T) {
	svc, db, _, fx := setupService(t)
	used := fx.Package("Fiber", "40", true)
	fx.Customer(used, domain.StatusActive)
	unused := fx.Package("Spare", "10", false)

	err := svc.Delete(context.Background(), used.ID.String())
	assert.ErrorIs(t, err, spdomain.ErrInUse)

	require.NoError(t, svc.Delete(context.Background(), unused.ID.String()))

	var count int64
	require.NoError(t, db.Model(&spdomain.ServicePackage{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	err = svc.Delete(context.Background(), unused.ID.String())
	assert.ErrorIs(t, err, spdomain.ErrNotFound)
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc, _, _, fx := setupService(t)
	for i := 0; i < 3; i++ {
		fx.Package("Active", "10", true)
		fx.Advance(time.Minute)
	}
	fx.Package("Retired", "10", false)

	active := true
	first, err := svc.List(context.Background(), spdomain.ListServicePackageRequest{PageSize: 2, IsActive: &active})
	require.NoError(t, err)
	require.Len(t, first.ServicePackages, 2)
	assert.True(t, first.HasMore)
	assert.NotEmpty(t, first.NextPageToken)
	assert.True(t, first.ServicePackages[0].CreatedAt.After(first.ServicePackages[1].CreatedAt))

	second, err := svc.List(context.Background(), spdomain.ListServicePackageRequest{
		PageSize:  2,
		PageToken: first.NextPageToken,
		IsActive:  &active,
	})
	require.NoError(t, err)
	require.Len(t, second.ServicePackages, 1)
	assert.False(t, second.HasMore)

	all, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
