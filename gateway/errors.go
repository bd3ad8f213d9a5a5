package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Backend error codes that the client reacts to
const (
	CodeTokenExpired              = "TOKEN_EXPIRED"
	CodeInvalidPaymentAccessToken = "INVALID_PAYMENT_ACCESS_TOKEN"
)

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int             // HTTP status code
	Message string          // Human readable message from the body, or the status text
	Code    string          // error.code from the body, empty if absent
	Details json.RawMessage // error.details passthrough for field-level validation messages

	// Credentials the failed request carried, so a handler can tell whether
	// the rejection concerns the credential it currently holds.
	SentBearer       string
	SentPaymentToken string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsCode reports whether err is an *APIError carrying code
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// StatusOf returns the HTTP status of an *APIError in err's chain, or 0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// FieldErrors decodes Details as field name to message, the shape the
// backend uses for validation failures. Other shapes yield nil.
func (e *APIError) FieldErrors() map[string]string {
	if len(e.Details) == 0 {
		return nil
	}
	var fields map[string]string
	if err := json.Unmarshal(e.Details, &fields); err != nil {
		return nil
	}
	return fields
}

type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

type errorDetail struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

// newAPIError decodes {"message": ..., "error": {"code": ...}} leniently;
// a body that is not JSON still yields an APIError with the status text.
func newAPIError(status int, payload []byte) *APIError {
	apiErr := &APIError{Status: status}

	var body errorBody
	if err := json.Unmarshal(payload, &body); err == nil {
		apiErr.Message = body.Message
		raw := bytes.TrimSpace(body.Error)
		switch {
		case len(raw) > 0 && raw[0] == '{':
			var detail errorDetail
			if json.Unmarshal(raw, &detail) == nil {
				apiErr.Code = detail.Code
				apiErr.Details = detail.Details
				if apiErr.Message == "" {
					apiErr.Message = detail.Message
				}
			}
		case len(raw) > 0 && raw[0] == '"':
			var s string
			if json.Unmarshal(raw, &s) == nil && apiErr.Message == "" {
				apiErr.Message = s
			}
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
