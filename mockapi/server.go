// Package mockapi is an in-memory stand-in for the HR backend. It speaks the
// same {success, data} envelope and error codes, issues expiring JWT session
// and payment tokens, and is used for local development and end-to-end tests.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/go-hr-portal/internal/config"
	"github.com/jrsteele09/go-hr-portal/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// APIPrefix is where the API is mounted; clients use http://host/api as base URL
const APIPrefix = "/api"

// OTPSink delivers a freshly issued passcode to the principal
type OTPSink func(p users.Principal, code string)

type Server struct {
	cfg      config.MockAPIConfig
	logger   zerolog.Logger
	now      func() time.Time
	router   chi.Router
	accounts users.AccountRepo
	data     *hrData
	tokens   *tokenManager
	otps     *otpStore
	otpSink  OTPSink
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock replaces time.Now for token and OTP expiry
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithOTPSink replaces the default sink, which logs the code
func WithOTPSink(sink OTPSink) Option {
	return func(s *Server) { s.otpSink = sink }
}

func WithAccountRepo(repo users.AccountRepo) Option {
	return func(s *Server) { s.accounts = repo }
}

// New builds the stub and seeds it with an admin, an employee and
// reference data. The seed logins are admin@hr.local and employee@hr.local.
func New(cfg config.MockAPIConfig, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		logger:   zerolog.Nop(),
		now:      time.Now,
		data:     newHRData(),
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.accounts == nil {
		return nil, errors.New("[mockapi New] an account repo is required")
	}
	if s.otpSink == nil {
		s.otpSink = func(p users.Principal, code string) {
			s.logger.Info().Str("email", p.Email).Str("otp", code).Msg("payslip otp issued")
		}
	}

	tokens, err := newTokenManager(cfg.GetJWTSecret(), cfg.GetAccessTokenTTL(), cfg.GetPaymentTokenTTL(), s.clock)
	if err != nil {
		return nil, fmt.Errorf("[mockapi New] %w", err)
	}
	s.tokens = tokens
	s.otps = newOTPStore(cfg.GetOTPTTL(), cfg.GetOTPRequestsPerMinute(), s.clock)

	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mockapi_http_requests_total",
		Help: "Requests served by the stub backend, by route pattern and status.",
	}, []string{"route", "status"})
	s.registry.MustRegister(s.requests)

	if err := s.seed(); err != nil {
		return nil, fmt.Errorf("[mockapi New] failed to seed data: %w", err)
	}

	s.initRoutes()
	return s, nil
}

func (s *Server) clock() time.Time {
	return s.now()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.GetListenAddr(),
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("mock api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) initRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "Method not allowed")
	})

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route(APIPrefix, func(r chi.Router) {
		r.Post("/auth/employee/login", s.login(users.RoleEmployee))
		r.Post("/auth/admin/login", s.login(users.RoleAdmin))

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Get("/auth/me", s.me)

			r.Get("/departments", s.listDepartments)
			r.Get("/positions", s.listPositions)
			r.Get("/employees/{id}", s.getEmployee)

			r.Post("/attendance/check-in", s.checkIn)
			r.Post("/attendance/check-out", s.checkOut)
			r.Get("/attendance", s.listAttendance)

			r.Get("/leaves", s.listLeaves)
			r.Post("/leaves", s.requestLeave)

			r.Post("/payslips/otp/request", s.requestOTP)
			r.Post("/payslips/otp/verify", s.verifyOTP)

			r.Group(func(r chi.Router) {
				r.Use(s.requirePaymentAccess)
				r.Get("/payslips", s.listPayslips)
				r.Get("/payslips/{id}", s.getPayslip)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Get("/employees", s.listEmployees)
				r.Post("/employees", s.createEmployee)
				r.Put("/employees/{id}", s.updateEmployee)
				r.Delete("/employees/{id}", s.deleteEmployee)

				r.Post("/departments", s.createDepartment)
				r.Put("/departments/{id}", s.updateDepartment)
				r.Delete("/departments/{id}", s.deleteDepartment)

				r.Post("/positions", s.createPosition)
				r.Put("/positions/{id}", s.updatePosition)
				r.Delete("/positions/{id}", s.deletePosition)

				r.Get("/attendance/report", s.attendanceReport)
				r.Patch("/leaves/{id}/status", s.reviewLeave)
				r.Get("/payroll", s.listPayroll)
			})
		})
	})

	s.router = r
}
