package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/ispdesk/internal/auth"
	"github.com/smallbiznis/ispdesk/internal/authorization"
	"github.com/smallbiznis/ispdesk/internal/clock"
	"github.com/smallbiznis/ispdesk/internal/config"
	"github.com/smallbiznis/ispdesk/internal/customer"
	customerdomain "github.com/smallbiznis/ispdesk/internal/customer/domain"
	"github.com/smallbiznis/ispdesk/internal/dashboard"
	dashboarddomain "github.com/smallbiznis/ispdesk/internal/dashboard/domain"
	"github.com/smallbiznis/ispdesk/internal/invoice"
	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
	"github.com/smallbiznis/ispdesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/ispdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/ispdesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/ispdesk/internal/observability/tracing"
	"github.com/smallbiznis/ispdesk/internal/payment"
	paymentdomain "github.com/smallbiznis/ispdesk/internal/payment/domain"
	"github.com/smallbiznis/ispdesk/internal/servicepackage"
	servicepackagedomain "github.com/smallbiznis/ispdesk/internal/servicepackage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	auth.Module,
	authorization.Module,
	servicepackage.Module,
	customer.Module,
	invoice.Module,
	payment.Module,
	dashboard.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine            *gin.Engine
	cfg               config.Config
	log               *zap.Logger
	clock             clock.Clock
	sessions          *auth.Manager
	verifier          *auth.Verifier
	authzSvc          authorization.Service
	servicePackageSvc servicepackagedomain.Service
	customerSvc       customerdomain.Service
	invoiceSvc        invoicedomain.Service
	paymentSvc        paymentdomain.Service
	dashboardSvc      dashboarddomain.Service
}

type ServerParams struct {
	fx.In

	Gin               *gin.Engine
	Cfg               config.Config
	Log               *zap.Logger
	Clock             clock.Clock
	Sessions          *auth.Manager
	Verifier          *auth.Verifier
	AuthzSvc          authorization.Service
	ServicePackageSvc servicepackagedomain.Service
	CustomerSvc       customerdomain.Service
	InvoiceSvc        invoicedomain.Service
	PaymentSvc        paymentdomain.Service
	DashboardSvc      dashboarddomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:            p.Gin,
		cfg:               p.Cfg,
		log:               p.Log.Named("http.server"),
		clock:             p.Clock,
		sessions:          p.Sessions,
		verifier:          p.Verifier,
		authzSvc:          p.AuthzSvc,
		servicePackageSvc: p.ServicePackageSvc,
		customerSvc:       p.CustomerSvc,
		invoiceSvc:        p.InvoiceSvc,
		paymentSvc:        p.PaymentSvc,
		dashboardSvc:      p.DashboardSvc,
	}

	if !svc.verifier.Configured() {
		svc.log.Warn("AUTH_JWT_SECRET is empty; authenticated routes will reject every request")
	}

	svc.RegisterRoutes()
	return svc
}

func (s *Server) RegisterRoutes() {
	r := s.engine

	r.GET("/health-check", s.HealthCheck)
	r.GET("/", s.GetDashboard)

	app := r.Group("/")
	app.Use(s.AuthRequired())

	app.GET("/me", s.Me)
	app.POST("/logout", s.Logout)

	app.GET("/dashboard", s.authorize(authorization.ObjectDashboard, authorization.ActionView), s.GetDashboard)

	packages := app.Group("/service-packages")
	{
		packages.GET("", s.authorize(authorization.ObjectServicePackage, authorization.ActionView), s.ListServicePackages)
		packages.POST("", s.authorize(authorization.ObjectServicePackage, authorization.ActionCreate), s.CreateServicePackage)
		packages.GET("/create", s.authorize(authorization.ObjectServicePackage, authorization.ActionCreate), s.ServicePackageCreateForm)
		packages.GET("/:id", s.authorize(authorization.ObjectServicePackage, authorization.ActionView), s.GetServicePackage)
		packages.GET("/:id/edit", s.authorize(authorization.ObjectServicePackage, authorization.ActionUpdate), s.ServicePackageEditForm)
		packages.PUT("/:id", s.authorize(authorization.ObjectServicePackage, authorization.ActionUpdate), s.UpdateServicePackage)
		packages.PATCH("/:id", s.authorize(authorization.ObjectServicePackage, authorization.ActionUpdate), s.UpdateServicePackage)
		packages.DELETE("/:id", s.authorize(authorization.ObjectServicePackage, authorization.ActionDelete), s.DeleteServicePackage)
	}

	customers := app.Group("/customers")
	{
		customers.GET("", s.authorize(authorization.ObjectCustomer, authorization.ActionView), s.ListCustomers)
		customers.POST("", s.authorize(authorization.ObjectCustomer, authorization.ActionCreate), s.CreateCustomer)
		customers.GET("/create", s.authorize(authorization.ObjectCustomer, authorization.ActionCreate), s.CustomerCreateForm)
		customers.GET("/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionView), s.GetCustomer)
		customers.GET("/:id/edit", s.authorize(authorization.ObjectCustomer, authorization.ActionUpdate), s.CustomerEditForm)
		customers.PUT("/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionUpdate), s.UpdateCustomer)
		customers.PATCH("/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionUpdate), s.UpdateCustomer)
		customers.DELETE("/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionDelete), s.DeleteCustomer)
	}

	invoices := app.Group("/invoices")
	{
		invoices.GET("", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.ListInvoices)
		invoices.POST("", s.authorize(authorization.ObjectInvoice, authorization.ActionCreate), s.CreateInvoice)
		invoices.GET("/create", s.authorize(authorization.ObjectInvoice, authorization.ActionCreate), s.InvoiceCreateForm)
		invoices.POST("/refresh-statuses", s.authorize(authorization.ObjectInvoice, authorization.ActionRefresh), s.RefreshInvoiceStatuses)
		invoices.GET("/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.GetInvoice)
		invoices.GET("/:id/edit", s.authorize(authorization.ObjectInvoice, authorization.ActionUpdate), s.InvoiceEditForm)
		invoices.PUT("/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionUpdate), s.UpdateInvoice)
		invoices.PATCH("/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionUpdate), s.UpdateInvoice)
		invoices.DELETE("/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionDelete), s.DeleteInvoice)
	}

	payments := app.Group("/payments")
	{
		payments.GET("", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.ListPayments)
		payments.POST("", s.authorize(authorization.ObjectPayment, authorization.ActionCreate), s.CreatePayment)
		payments.GET("/create", s.authorize(authorization.ObjectPayment, authorization.ActionCreate), s.PaymentCreateForm)
		payments.GET("/:id", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.GetPayment)
		payments.GET("/:id/edit", s.authorize(authorization.ObjectPayment, authorization.ActionUpdate), s.PaymentEditForm)
		payments.PUT("/:id", s.authorize(authorization.ObjectPayment, authorization.ActionUpdate), s.UpdatePayment)
		payments.PATCH("/:id", s.authorize(authorization.ObjectPayment, authorization.ActionUpdate), s.UpdatePayment)
		payments.DELETE("/:id", s.authorize(authorization.ObjectPayment, authorization.ActionDelete), s.DeletePayment)
	}
}

func (s *Server) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339),
	})
}
