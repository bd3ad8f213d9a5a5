package mockapi

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-hr-portal/hrapi"
	"github.com/jrsteele09/go-hr-portal/users"
)

// hrData holds every record except accounts
type hrData struct {
	mu          sync.RWMutex
	employees   map[string]*hrapi.Employee
	departments map[string]*hrapi.Department
	positions   map[string]*hrapi.Position
	attendance  []*hrapi.Attendance
	leaves      map[string]*hrapi.Leave
	payslips    map[string]*hrapi.Payslip
	nextCode    int
}

func newHRData() *hrData {
	return &hrData{
		employees:   make(map[string]*hrapi.Employee),
		departments: make(map[string]*hrapi.Department),
		positions:   make(map[string]*hrapi.Position),
		leaves:      make(map[string]*hrapi.Leave),
		payslips:    make(map[string]*hrapi.Payslip),
	}
}

func newID() string {
	return uuid.New().String()
}

// employeeCode must be called with mu held
func (d *hrData) employeeCode() string {
	d.nextCode++
	return fmt.Sprintf("EMP-%04d", d.nextCode)
}

func (d *hrData) sortedEmployees() []hrapi.Employee {
	out := make([]hrapi.Employee, 0, len(d.employees))
	for _, e := range d.employees {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out
}

// Seed passwords come from config; the emails are fixed.
const (
	SeedAdminEmail    = "admin@hr.local"
	SeedEmployeeEmail = "employee@hr.local"
)

func (s *Server) seed() error {
	adminHash, err := users.HashPassword(s.cfg.GetSeedAdminPassword())
	if err != nil {
		return err
	}
	if err := s.accounts.Upsert(&users.Account{
		Principal:    users.Principal{Name: "HR Administrator", Email: SeedAdminEmail, Role: users.RoleAdmin},
		PasswordHash: adminHash,
	}); err != nil {
		return err
	}

	d := s.data
	d.mu.Lock()
	eng := &hrapi.Department{ID: newID(), Name: "Engineering", Description: "Product and platform"}
	ops := &hrapi.Department{ID: newID(), Name: "Operations"}
	d.departments[eng.ID] = eng
	d.departments[ops.ID] = ops

	dev := &hrapi.Position{ID: newID(), Title: "Software Engineer", DepartmentID: eng.ID, BaseSalary: 5200}
	coord := &hrapi.Position{ID: newID(), Title: "Operations Coordinator", DepartmentID: ops.ID, BaseSalary: 3900}
	d.positions[dev.ID] = dev
	d.positions[coord.ID] = coord
	d.mu.Unlock()

	_, err = s.addEmployee(hrapi.EmployeeInput{
		Name:         "Ada Lovelace",
		Email:        SeedEmployeeEmail,
		Password:     s.cfg.GetSeedEmployeePassword(),
		Phone:        "+44 7700 900123",
		DepartmentID: eng.ID,
		PositionID:   dev.ID,
		HireDate:     "2021-03-01",
		BaseSalary:   dev.BaseSalary,
	})
	return err
}

// addEmployee creates the employee record, its login account and payslips
// for the three months before now.
func (s *Server) addEmployee(in hrapi.EmployeeInput) (*hrapi.Employee, error) {
	hash, err := users.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	d := s.data
	d.mu.Lock()
	defer d.mu.Unlock()

	e := &hrapi.Employee{
		ID:           newID(),
		EmployeeCode: d.employeeCode(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		DepartmentID: in.DepartmentID,
		PositionID:   in.PositionID,
		HireDate:     in.HireDate,
		BaseSalary:   in.BaseSalary,
		Status:       hrapi.EmployeeActive,
	}

	account := &users.Account{
		Principal: users.Principal{
			Name:       e.Name,
			Email:      e.Email,
			Role:       users.RoleEmployee,
			EmployeeID: e.ID,
		},
		PasswordHash: hash,
		Phone:        e.Phone,
	}
	if err := s.accounts.Upsert(account); err != nil {
		return nil, err
	}
	d.employees[e.ID] = e

	month := time.Date(s.now().Year(), s.now().Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		m := month.AddDate(0, -i, 0)
		p := payslipFor(*e, m.Format(hrapi.MonthLayout))
		p.ID = newID()
		p.IssuedAt = m.AddDate(0, 1, -1)
		d.payslips[p.ID] = &p
	}
	cp := *e
	return &cp, nil
}

// payrollFor derives display figures from the base salary
func payrollFor(e hrapi.Employee, month string) hrapi.PayrollRow {
	allowances := round2(e.BaseSalary * 0.10)
	deductions := round2(e.BaseSalary * 0.08)
	return hrapi.PayrollRow{
		EmployeeID:   e.ID,
		EmployeeName: e.Name,
		Month:        month,
		BaseSalary:   e.BaseSalary,
		Allowances:   allowances,
		Deductions:   deductions,
		NetPay:       round2(e.BaseSalary + allowances - deductions),
	}
}

func payslipFor(e hrapi.Employee, month string) hrapi.Payslip {
	row := payrollFor(e, month)
	return hrapi.Payslip{
		EmployeeID: e.ID,
		Month:      month,
		BaseSalary: row.BaseSalary,
		Allowances: row.Allowances,
		Deductions: row.Deductions,
		NetPay:     row.NetPay,
	}
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
