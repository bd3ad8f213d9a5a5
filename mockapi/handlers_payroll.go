package mockapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-hr-portal/hrapi"
	hrerrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/jrsteele09/go-hr-portal/users"
)

func (s *Server) listPayroll(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = s.now().UTC().Format(hrapi.MonthLayout)
	}
	if _, err := time.Parse(hrapi.MonthLayout, month); err != nil {
		writeErrorDetails(w, http.StatusUnprocessableEntity, CodeValidation, "Validation failed", map[string]string{"month": "Month must be YYYY-MM"})
		return
	}

	s.data.mu.RLock()
	employees := s.data.sortedEmployees()
	s.data.mu.RUnlock()

	rows := make([]hrapi.PayrollRow, 0, len(employees))
	for _, e := range employees {
		if e.Status != hrapi.EmployeeActive {
			continue
		}
		rows = append(rows, payrollFor(e, month))
	}
	writeData(w, http.StatusOK, rows)
}

func (s *Server) requestOTP(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)

	code, exp, err := s.otps.issue(account.ID)
	if errors.Is(err, hrerrors.ErrTooManyRequests) {
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, CodeTooManyRequests, "Too many passcode requests, try again shortly")
		return
	}
	if err != nil {
		s.logger.Err(err).Msg("failed to issue otp")
		writeError(w, http.StatusInternalServerError, "", "Internal server error")
		return
	}

	s.otpSink(account.Principal, code)
	writeData(w, http.StatusOK, hrapi.OTPChallenge{Destination: maskDestination(account), ExpiresAt: exp})
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OTP string `json:"otp"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	account := accountFrom(r)

	switch err := s.otps.verify(account.ID, strings.TrimSpace(body.OTP)); {
	case errors.Is(err, hrerrors.ErrNotFound):
		writeError(w, http.StatusBadRequest, CodeOTPNotRequested, "Request a new passcode first")
		return
	case errors.Is(err, hrerrors.ErrOTPExpired):
		writeError(w, http.StatusBadRequest, CodeOTPExpired, "The passcode has expired")
		return
	case errors.Is(err, hrerrors.ErrOTPMismatch):
		writeError(w, http.StatusBadRequest, CodeOTPInvalid, "The passcode is incorrect")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "", "Internal server error")
		return
	}

	token, exp, err := s.tokens.issuePayment(account.ID)
	if err != nil {
		s.logger.Err(err).Msg("failed to issue payment token")
		writeError(w, http.StatusInternalServerError, "", "Internal server error")
		return
	}
	writeData(w, http.StatusOK, hrapi.PaymentAccess{PaymentAccessToken: token, ExpiresAt: exp})
}

// listPayslips returns the caller's payslips, newest first. Admins see all.
func (s *Server) listPayslips(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)

	s.data.mu.RLock()
	out := make([]hrapi.Payslip, 0)
	for _, p := range s.data.payslips {
		if account.IsAdmin() || p.EmployeeID == account.EmployeeID {
			out = append(out, *p)
		}
	}
	s.data.mu.RUnlock()

	sortBy(out, func(p hrapi.Payslip) string { return p.Month + p.EmployeeID })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) getPayslip(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)

	s.data.mu.RLock()
	p, ok := s.data.payslips[chi.URLParam(r, "id")]
	var out hrapi.Payslip
	if ok {
		out = *p
	}
	s.data.mu.RUnlock()

	if !ok || (!account.IsAdmin() && out.EmployeeID != account.EmployeeID) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Payslip not found")
		return
	}
	writeData(w, http.StatusOK, out)
}

// maskDestination shows only the last four digits of the phone number, or
// the first letter and domain of the email when there is no phone.
func maskDestination(a *users.Account) string {
	var digits []rune
	for _, c := range a.Phone {
		if c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) >= 4 {
		return "***" + string(digits[len(digits)-4:])
	}
	if at := strings.LastIndex(a.Email, "@"); at > 0 {
		return a.Email[:1] + "***" + a.Email[at:]
	}
	return "registered contact"
}
