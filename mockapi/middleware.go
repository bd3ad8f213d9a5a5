package mockapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/go-hr-portal/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyAccount stores the authenticated account
	ContextKeyAccount ContextKey = "account"
)

const headerPaymentAccessToken = "X-Payment-Access-Token"

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("mockapi request")
	})
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireSession validates the bearer token. An expired token is answered
// with 403 TOKEN_EXPIRED so clients can end their session.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "Authentication required")
			return
		}

		claims, err := s.tokens.parse(raw, tokenTypeSession)
		if errors.Is(err, errTokenExpired) {
			writeError(w, http.StatusForbidden, CodeTokenExpired, "Session expired, please log in again")
			return
		}
		if err != nil {
			writeError(w, http.StatusUnauthorized, CodeInvalidToken, "Invalid token")
			return
		}

		account, err := s.accounts.GetByID(claims.Subject)
		if err != nil || account.Blocked {
			writeError(w, http.StatusUnauthorized, CodeInvalidToken, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyAccount, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin must be chained after requireSession
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !accountFrom(r).IsAdmin() {
			writeError(w, http.StatusForbidden, CodeForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requirePaymentAccess checks the OTP-issued grant. Every failure, including
// a grant issued to another user, is 403 INVALID_PAYMENT_ACCESS_TOKEN.
func (s *Server) requirePaymentAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(headerPaymentAccessToken)
		claims, err := s.tokens.parse(raw, tokenTypePayment)
		if err != nil || claims.Subject != accountFrom(r).ID {
			writeError(w, http.StatusForbidden, CodeInvalidPaymentAccessToken, "Payment access is missing or has expired")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func accountFrom(r *http.Request) *users.Account {
	a, _ := r.Context().Value(ContextKeyAccount).(*users.Account)
	return a
}
