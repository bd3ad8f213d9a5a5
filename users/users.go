package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// RoleType is the principal's role as issued by the backend
type RoleType string

const (
	RoleAdmin    RoleType = "admin"    // Manages employees, departments, positions, payroll
	RoleEmployee RoleType = "employee" // Self-service: attendance, leave, own payslips
)

// Valid reports whether r is one of the known roles
func (r RoleType) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// Principal is the authenticated identity held by the client session.
// Fields the client does not interpret are kept in Extra and written back
// unchanged when the principal is persisted.
type Principal struct {
	ID         string                     `json:"id"`
	Name       string                     `json:"name"`
	Email      string                     `json:"email,omitempty"`
	Role       RoleType                   `json:"role"`
	EmployeeID string                     `json:"employee_id,omitempty"` // Set for employee principals
	Extra      map[string]json.RawMessage `json:"-"`
}

var knownPrincipalFields = map[string]struct{}{
	"id": {}, "name": {}, "email": {}, "role": {}, "employee_id": {},
}

// Validate checks the attributes the client relies on
func (p *Principal) Validate() error {
	if p == nil {
		return fmt.Errorf("principal is nil")
	}
	if p.ID == "" {
		return fmt.Errorf("principal id is required")
	}
	if !p.Role.Valid() {
		return fmt.Errorf("principal role %q is not supported", p.Role)
	}
	return nil
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Clone returns a deep copy so callers cannot mutate store state
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	c := *p
	if p.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}

func (p Principal) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p.Extra)+5)
	for k, v := range p.Extra {
		out[k] = v
	}

	type plain Principal
	known, err := json.Marshal(plain(p))
	if err != nil {
		return nil, err
	}
	var knownMap map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	for k, v := range knownMap {
		out[k] = v
	}
	return json.Marshal(out)
}

func (p *Principal) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var decoded Principal
	var err error
	if decoded.ID, err = stringOrNumber(fields["id"]); err != nil {
		return fmt.Errorf("principal id: %w", err)
	}
	if decoded.EmployeeID, err = stringOrNumber(fields["employee_id"]); err != nil {
		return fmt.Errorf("principal employee_id: %w", err)
	}
	if raw, ok := fields["name"]; ok {
		if err := json.Unmarshal(raw, &decoded.Name); err != nil {
			return fmt.Errorf("principal name: %w", err)
		}
	}
	if raw, ok := fields["email"]; ok {
		if err := json.Unmarshal(raw, &decoded.Email); err != nil {
			return fmt.Errorf("principal email: %w", err)
		}
	}
	if raw, ok := fields["role"]; ok {
		if err := json.Unmarshal(raw, &decoded.Role); err != nil {
			return fmt.Errorf("principal role: %w", err)
		}
	}

	for k, v := range fields {
		if _, known := knownPrincipalFields[k]; known {
			continue
		}
		if decoded.Extra == nil {
			decoded.Extra = make(map[string]json.RawMessage)
		}
		decoded.Extra[k] = v
	}

	*p = decoded
	return nil
}

// stringOrNumber accepts ids sent either as JSON strings or numbers
func stringOrNumber(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// Account is the backend-side record behind a Principal
type Account struct {
	Principal
	PasswordHash string    `json:"-"` // Never serialize
	Phone        string    `json:"-"` // Destination for payslip OTPs
	Blocked      bool      `json:"-"`
	LastLogin    time.Time `json:"-"`
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
