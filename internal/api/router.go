package api

import (
	"log/slog"
	"net/http"
	"time"

	"loan-ledger/internal/api/handler"
	mw "loan-ledger/internal/api/middleware"
	"loan-ledger/internal/config"
	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/repayment"

	_ "loan-ledger/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const (
	apiPrefix      = "/api/v1"
	requestTimeout = 60 * time.Second
)

type Services struct {
	Customers  customer.CustomerService
	Loans      loan.LoanService
	Repayments repayment.RepaymentService
}

// SetupRouter wires every route. rateLimiter may be nil, in which case no
// limit is applied.
func SetupRouter(svcs Services, cfg *config.Config, rateLimiter *mw.RateLimiterMiddleware, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, rateLimiter, logger)
	setupMetricsEndpoint(router, cfg, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	router.Route(apiPrefix, func(r chi.Router) {
		setupAuthRoutes(r, cfg, logger)
		r.Group(func(r chi.Router) {
			r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
			setupCustomerRoutes(r, svcs, logger)
			setupLoanRoutes(r, svcs, logger)
			setupRepaymentRoutes(r, svcs, logger)
		})
	})

	return router
}

func setupMiddleware(router *chi.Mux, rateLimiter *mw.RateLimiterMiddleware, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(requestTimeout))
	if rateLimiter != nil {
		router.Use(rateLimiter.Middleware)
	}
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

// setupAuthRoutes mounts the development token issuer only when explicitly
// configured, since it signs a token for whatever username is posted.
func setupAuthRoutes(r chi.Router, cfg *config.Config, logger *slog.Logger) {
	if !cfg.Server.Auth.IssueDevTokens {
		return
	}
	logger.Warn("Development token issuer enabled", "path", apiPrefix+"/auth/token")
	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)
	r.Post("/auth/token", authHandler.GenerateBearerToken)
}

func setupCustomerRoutes(r chi.Router, svcs Services, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svcs.Customers, svcs.Loans, logger)
	loans := handler.NewLoanHandler(svcs.Loans, svcs.Customers, logger)

	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.ListCustomers)
		r.Post("/", h.CreateCustomer)
		r.Route("/{customerID}", func(r chi.Router) {
			r.Get("/", h.GetCustomer)
			r.Put("/", h.UpdateCustomer)
			r.Delete("/", h.DeleteCustomer)
			r.Get("/loans", loans.ListCustomerLoans)
			r.Post("/loans", loans.CreateLoan)
		})
	})
}

// setupLoanRoutes registers the static summary and overdue paths ahead of
// the {loanID} subtree.
func setupLoanRoutes(r chi.Router, svcs Services, logger *slog.Logger) {
	h := handler.NewLoanHandler(svcs.Loans, svcs.Customers, logger)
	repayments := handler.NewRepaymentHandler(svcs.Repayments, svcs.Loans, logger)

	r.Route("/loans", func(r chi.Router) {
		r.Get("/", h.ListLoans)
		r.Get("/summary", h.Summary)
		r.Get("/overdue", h.OverdueLoans)
		r.Route("/{loanID}", func(r chi.Router) {
			r.Get("/", h.GetLoan)
			r.Put("/", h.UpdateLoan)
			r.Delete("/", h.DeleteLoan)
			r.Get("/repayments", repayments.ListLoanRepayments)
			r.Post("/repayments", repayments.CreateRepayment)
		})
	})
}

func setupRepaymentRoutes(r chi.Router, svcs Services, logger *slog.Logger) {
	h := handler.NewRepaymentHandler(svcs.Repayments, svcs.Loans, logger)

	r.Route("/repayments", func(r chi.Router) {
		r.Get("/", h.ListRepayments)
		r.Route("/{repaymentID}", func(r chi.Router) {
			r.Get("/", h.GetRepayment)
			r.Put("/", h.UpdateRepayment)
			r.Delete("/", h.DeleteRepayment)
		})
	})
}
