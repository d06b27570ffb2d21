package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/ispdesk/internal/clock"
	"github.com/smallbiznis/ispdesk/internal/customer/domain"
	"github.com/smallbiznis/ispdesk/internal/customer/repository"
	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
	sprepository "github.com/smallbiznis/ispdesk/internal/servicepackage/repository"
	"github.com/smallbiznis/ispdesk/internal/testutil"
	"github.com/smallbiznis/ispdesk/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testNow = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (domain.Service, *clock.FakeClock, *testutil.Fixtures) {
	t.Helper()
	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	clk := clock.NewFakeClock(testNow)
	svc := New(Params{
		DB:          db,
		Log:         zaptest.NewLogger(t),
		GenID:       node,
		Clock:       clk,
		Repo:        repository.Provide(),
		PackageRepo: sprepository.Provide(),
	})
	return svc, clk, testutil.NewFixtures(t, db, node, testNow)
}

func validRequest(packageID string) domain.UpsertCustomerRequest {
	phone := "+62 811 0000"
	return domain.UpsertCustomerRequest{
		Name:             "Dewi Lestari",
		Email:            "dewi@example.com",
		Phone:            &phone,
		Address:          "Jl. Merdeka 10",
		Status:           "active",
		ConnectionDate:   "2024-02-01",
		ServicePackageID: packageID,
	}
}

func TestCreateCustomer(t *testing.T) {
	svc, _, fx := setupService(t)
	pkg := fx.Package("Fiber", "40", true)

	customer, err := svc.Create(context.Background(), validRequest(pkg.ID.String()))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, customer.Status)
	assert.Equal(t, pkg.ID, customer.ServicePackageID)
	require.NotNil(t, customer.Phone)
	assert.Equal(t, "+62 811 0000", *customer.Phone)
	assert.Nil(t, customer.Notes)

	got, err := svc.GetByID(context.Background(), customer.ID.String())
	require.NoError(t, err)
	require.NotNil(t, got.ServicePackage)
	assert.Equal(t, "Fiber", got.ServicePackage.Name)
	assert.Equal(t, testutil.Date(2024, time.February, 1), time.Time(got.ConnectionDate).UTC())
	assert.Empty(t, got.Invoices)
}

func TestCreateCollectsAllValidationErrors(t *testing.T) {
	svc, _, fx := setupService(t)
	pkg := fx.Package("Fiber", "40", true)
	existing := fx.Customer(pkg, domain.StatusActive)

	req := validRequest("999")
	req.Email = existing.Email
	req.Status = "gone"
	req.ConnectionDate = "31/02/2024"

	_, err := svc.Create(context.Background(), req)
	errs, ok := validation.As(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.True(t, errs.Has("email"))
	assert.True(t, errs.Has("status"))
	assert.True(t, errs.Has("connection_date"))
	assert.True(t, errs.Has("service_package_id"))
	assert.False(t, errs.Has("name"))

	for _, fe := range errs.Errors {
		switch fe.Field {
		case "email":
			assert.Equal(t, "unique", fe.Code)
		case "service_package_id":
			assert.Equal(t, "exists", fe.Code)
		case "status":
			assert.Equal(t, "in", fe.Code)
		}
	}
}

func TestUpdateAllowsOwnEmail(t *testing.T) {
	svc, clk, fx := setupService(t)
	pkg := fx.Package("Fiber", "40", true)
	other := fx.Package("Copper", "20", true)

	customer, err := svc.Create(context.Background(), validRequest(pkg.ID.String()))
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	req := validRequest(other.ID.String())
	req.Phone = nil
	req.Status = "suspended"
	updated, err := svc.Update(context.Background(), customer.ID.String(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuspended, updated.Status)
	assert.Equal(t, other.ID, updated.ServicePackageID)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, testNow.Add(2*time.Hour), updated.UpdatedAt)
	assert.True(t, updated.CreatedAt.Equal(testNow))
}

func TestUpdateRejectsEmailOfAnotherCustomer(t *testing.T) {
	svc, _, fx := setupService(t)
	pkg := fx.Package("Fiber", "40", true)
	taken := fx.Customer(pkg, domain.StatusActive)

	customer, err := svc.Create(context.Background(), validRequest(pkg.ID.String()))
	require.NoError(t, err)

	req := validRequest(pkg.ID.String())
	req.Email = taken.Email
	_, err = svc.Update(context.Background(), customer.ID.String(), req)
	errs, ok := validation.As(err)
	require.True(t, ok)
	assert.True(t, errs.Has("email"))
}

func TestUpdateMissingCustomer(t *testing.T) {
	svc, _, fx := setupService(t)
	pkg := fx.Package("Fiber", "40", true)

	_, err := svc.Update(context.Background(), "42", validRequest(pkg.ID.String()))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Update(context.Background(), "abc", validRequest(pkg.ID.String()))
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestDeleteRejectsCustomerWithInvoices(t *testing.T) {
	svc, _, fx := setupService(t)
	pkg := fx.Package("Fiber", "40", true)
	billed := fx.Customer(pkg, domain.StatusActive)
	fx.Invoice(billed, "40", testutil.Date(2024, time.March, 20), invoicedomain.StatusUnpaid)
	fresh := fx.Customer(pkg, domain.StatusActive)

	err := svc.Delete(context.Background(), billed.ID.String())
	assert.ErrorIs(t, err, domain.ErrHasBillingRecords)

	require.NoError(t, svc.Delete(context.Background(), fresh.ID.String()))
	_, err = svc.GetByID(context.Background(), fresh.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListFiltersBySearchAndStatus(t *testing.T) {
	svc, _, fx := setupService(t)
	pkg := fx.Package("Fiber", "40", true)
	first := fx.Customer(pkg, domain.StatusActive)
	fx.Advance(time.Minute)
	fx.Customer(pkg, domain.StatusInactive)

	res, err := svc.List(context.Background(), domain.ListCustomerRequest{Status: "inactive"})
	require.NoError(t, err)
	require.Len(t, res.Customers, 1)
	assert.Equal(t, domain.StatusInactive, res.Customers[0].Status)
	require.NotNil(t, res.Customers[0].ServicePackage)

	res, err = svc.List(context.Background(), domain.ListCustomerRequest{Search: first.Email})
	require.NoError(t, err)
	require.Len(t, res.Customers, 1)
	assert.Equal(t, first.ID, res.Customers[0].ID)

	_, err = svc.List(context.Background(), domain.ListCustomerRequest{Status: "unknown"})
	_, ok := validation.As(err)
	assert.True(t, ok)
}

func TestListSearchTreatsWildcardsLiterally(t *testing.T) {
	svc, _, fx := setupService(t)
	pkg := fx.Package("Fiber", "40", true)
	ctx := context.Background()

	for _, c := range []struct{ name, email string }{
		{"a_b Networks", "ab@example.com"},
		{"axb Networks", "axb@example.com"},
		{"100% Uptime", "uptime@example.com"},
	} {
		req := validRequest(pkg.ID.String())
		req.Name = c.name
		req.Email = c.email
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	res, err := svc.List(ctx, domain.ListCustomerRequest{Search: "a_b"})
	require.NoError(t, err)
	require.Len(t, res.Customers, 1)
	assert.Equal(t, "a_b Networks", res.Customers[0].Name)

	res, err = svc.List(ctx, domain.ListCustomerRequest{Search: "0%"})
	require.NoError(t, err)
	require.Len(t, res.Customers, 1)
	assert.Equal(t, "100% Uptime", res.Customers[0].Name)
}

func TestFormOptionsListsActivePackages(t *testing.T) {
	svc, _, fx := setupService(t)
	fx.Package("Fiber", "40", true)
	fx.Package("Retired", "10", false)

	opts, err := svc.FormOptions(context.Background())
	require.NoError(t, err)
	require.Len(t, opts.ServicePackages, 1)
	assert.Equal(t, "Fiber", opts.ServicePackages[0].Name)

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}
