package mockapi

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Error codes sent in the error body
const (
	CodeTokenExpired              = "TOKEN_EXPIRED"
	CodeInvalidPaymentAccessToken = "INVALID_PAYMENT_ACCESS_TOKEN"
	CodeInvalidToken              = "INVALID_TOKEN"
	CodeUnauthenticated           = "UNAUTHENTICATED"
	CodeForbidden                 = "FORBIDDEN"
	CodeInvalidCredentials        = "INVALID_CREDENTIALS"
	CodeAccountBlocked            = "ACCOUNT_BLOCKED"
	CodeBadRequest                = "BAD_REQUEST"
	CodeValidation                = "VALIDATION_ERROR"
	CodeNotFound                  = "NOT_FOUND"
	CodeConflict                  = "CONFLICT"
	CodeTooManyRequests           = "TOO_MANY_REQUESTS"
	CodeOTPNotRequested           = "OTP_NOT_REQUESTED"
	CodeOTPExpired                = "OTP_EXPIRED"
	CodeOTPInvalid                = "OTP_INVALID"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorEnvelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Error   *errorInfo `json:"error,omitempty"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeErrorDetails(w, status, code, message, nil)
}

func writeErrorDetails(w http.ResponseWriter, status int, code, message string, details any) {
	body := errorEnvelope{Message: message}
	if code != "" {
		body.Error = &errorInfo{Code: code, Details: details}
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("mockapi: failed to write response")
	}
}

// decodeBody reads a JSON request body into v, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body")
		return false
	}
	return true
}
