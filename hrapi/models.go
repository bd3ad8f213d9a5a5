package hrapi

import (
	"time"

	"github.com/jrsteele09/go-hr-portal/users"
)

// Dates are exchanged as "2006-01-02" strings and months as "2006-01".
const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is what a credential exchange returns; it is committed to the
// session store by the caller.
type LoginResult struct {
	User  *users.Principal `json:"user"`
	Token string           `json:"token"`
}

// Page is one page of a list endpoint
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type ListOptions struct {
	Page   int
	Limit  int
	Search string
}

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

type Employee struct {
	ID           string         `json:"id"`
	EmployeeCode string         `json:"employee_code"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone,omitempty"`
	DepartmentID string         `json:"department_id,omitempty"`
	PositionID   string         `json:"position_id,omitempty"`
	HireDate     string         `json:"hire_date,omitempty"`
	BaseSalary   float64        `json:"base_salary"`
	Status       EmployeeStatus `json:"status"`
}

// EmployeeInput creates an employee; Password becomes their login password.
type EmployeeInput struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Password     string  `json:"password,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	DepartmentID string  `json:"department_id,omitempty"`
	PositionID   string  `json:"position_id,omitempty"`
	HireDate     string  `json:"hire_date,omitempty"`
	BaseSalary   float64 `json:"base_salary"`
}

// EmployeeUpdate is a partial update; nil fields are left unchanged.
type EmployeeUpdate struct {
	Name         *string         `json:"name,omitempty"`
	Email        *string         `json:"email,omitempty"`
	Phone        *string         `json:"phone,omitempty"`
	DepartmentID *string         `json:"department_id,omitempty"`
	PositionID   *string         `json:"position_id,omitempty"`
	BaseSalary   *float64        `json:"base_salary,omitempty"`
	Status       *EmployeeStatus `json:"status,omitempty"`
}

type Department struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Position struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	DepartmentID string  `json:"department_id,omitempty"`
	BaseSalary   float64 `json:"base_salary"`
}

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceAbsent  AttendanceStatus = "absent"
)

type Attendance struct {
	ID         string           `json:"id"`
	EmployeeID string           `json:"employee_id"`
	Date       string           `json:"date"`
	CheckIn    *time.Time       `json:"check_in,omitempty"`
	CheckOut   *time.Time       `json:"check_out,omitempty"`
	Status     AttendanceStatus `json:"status"`
}

type AttendanceReport struct {
	EmployeeID  string  `json:"employee_id"`
	Month       string  `json:"month"`
	PresentDays int     `json:"present_days"`
	LateDays    int     `json:"late_days"`
	AbsentDays  int     `json:"absent_days"`
	TotalHours  float64 `json:"total_hours"`
}

type LeaveType string

const (
	LeaveAnnual LeaveType = "annual"
	LeaveSick   LeaveType = "sick"
	LeaveUnpaid LeaveType = "unpaid"
)

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

type Leave struct {
	ID         string      `json:"id"`
	EmployeeID string      `json:"employee_id"`
	Type       LeaveType   `json:"type"`
	StartDate  string      `json:"start_date"`
	EndDate    string      `json:"end_date"`
	Reason     string      `json:"reason,omitempty"`
	Status     LeaveStatus `json:"status"`
	ReviewedBy string      `json:"reviewed_by,omitempty"`
	Note       string      `json:"note,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

type LeaveRequest struct {
	Type      LeaveType `json:"type"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Reason    string    `json:"reason,omitempty"`
}

type LeaveStatusUpdate struct {
	Status LeaveStatus `json:"status"`
	Note   string      `json:"note,omitempty"`
}

// PayrollRow is a display row; amounts are computed by the backend.
type PayrollRow struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Month        string  `json:"month"`
	BaseSalary   float64 `json:"base_salary"`
	Allowances   float64 `json:"allowances"`
	Deductions   float64 `json:"deductions"`
	NetPay       float64 `json:"net_pay"`
}

type Payslip struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Month      string    `json:"month"`
	BaseSalary float64   `json:"base_salary"`
	Allowances float64   `json:"allowances"`
	Deductions float64   `json:"deductions"`
	NetPay     float64   `json:"net_pay"`
	IssuedAt   time.Time `json:"issued_at"`
}

// OTPChallenge describes an issued one-time passcode; the code itself is
// delivered out of band.
type OTPChallenge struct {
	Destination string    `json:"destination"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type PaymentAccess struct {
	PaymentAccessToken string    `json:"paymentAccessToken"`
	ExpiresAt          time.Time `json:"expires_at"`
}
