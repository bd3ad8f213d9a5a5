package mockapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-hr-portal/hrapi"
	"github.com/jrsteele09/go-hr-portal/users"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (s *Server) listEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	search := strings.ToLower(strings.TrimSpace(q.Get("search")))

	s.data.mu.RLock()
	all := s.data.sortedEmployees()
	s.data.mu.RUnlock()

	matched := make([]hrapi.Employee, 0, len(all))
	for _, e := range all {
		if search == "" || strings.Contains(strings.ToLower(e.Name), search) || strings.Contains(strings.ToLower(e.Email), search) {
			matched = append(matched, e)
		}
	}

	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	writeData(w, http.StatusOK, hrapi.Page[hrapi.Employee]{
		Items: matched[start:end],
		Total: len(matched),
		Page:  page,
		Limit: limit,
	})
}

// getEmployee lets admins read any record and employees only their own
func (s *Server) getEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	account := accountFrom(r)
	if !account.IsAdmin() && account.EmployeeID != id {
		writeError(w, http.StatusForbidden, CodeForbidden, "You may only view your own record")
		return
	}

	s.data.mu.RLock()
	e, ok := s.data.employees[id]
	var out hrapi.Employee
	if ok {
		out = *e
	}
	s.data.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "Employee not found")
		return
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) createEmployee(w http.ResponseWriter, r *http.Request) {
	var in hrapi.EmployeeInput
	if !decodeBody(w, r, &in) {
		return
	}

	problems := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		problems["name"] = "Name is required"
	}
	if !strings.Contains(in.Email, "@") {
		problems["email"] = "A valid email is required"
	}
	if err := users.ValidatePasswordStrength(in.Password); err != nil {
		problems["password"] = err.Error()
	}
	if in.BaseSalary < 0 {
		problems["base_salary"] = "Base salary cannot be negative"
	}
	if len(problems) > 0 {
		writeErrorDetails(w, http.StatusUnprocessableEntity, CodeValidation, "Validation failed", problems)
		return
	}
	if _, err := s.accounts.GetByEmail(in.Email); err == nil {
		writeError(w, http.StatusConflict, CodeConflict, "Email is already in use")
		return
	}

	e, err := s.addEmployee(in)
	if err != nil {
		s.logger.Err(err).Msg("failed to create employee")
		writeError(w, http.StatusInternalServerError, "", "Internal server error")
		return
	}
	writeData(w, http.StatusCreated, e)
}

func (s *Server) updateEmployee(w http.ResponseWriter, r *http.Request) {
	var upd hrapi.EmployeeUpdate
	if !decodeBody(w, r, &upd) {
		return
	}
	id := chi.URLParam(r, "id")

	s.data.mu.Lock()
	e, ok := s.data.employees[id]
	if ok {
		applyEmployeeUpdate(e, upd)
	}
	var out hrapi.Employee
	if ok {
		out = *e
	}
	s.data.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "Employee not found")
		return
	}
	writeData(w, http.StatusOK, out)
}

func applyEmployeeUpdate(e *hrapi.Employee, upd hrapi.EmployeeUpdate) {
	if upd.Name != nil {
		e.Name = *upd.Name
	}
	if upd.Email != nil {
		e.Email = *upd.Email
	}
	if upd.Phone != nil {
		e.Phone = *upd.Phone
	}
	if upd.DepartmentID != nil {
		e.DepartmentID = *upd.DepartmentID
	}
	if upd.PositionID != nil {
		e.PositionID = *upd.PositionID
	}
	if upd.BaseSalary != nil {
		e.BaseSalary = *upd.BaseSalary
	}
	if upd.Status != nil {
		e.Status = *upd.Status
	}
}

func (s *Server) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.data.mu.Lock()
	e, ok := s.data.employees[id]
	delete(s.data.employees, id)
	s.data.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "Employee not found")
		return
	}

	// The login stays on record but can no longer be used
	if account, err := s.accounts.GetByEmail(e.Email); err == nil {
		account.Blocked = true
		if err := s.accounts.Upsert(account); err != nil {
			s.logger.Err(err).Str("employee", id).Msg("failed to block account of deleted employee")
		}
	}
	writeData(w, http.StatusOK, nil)
}

func (s *Server) listDepartments(w http.ResponseWriter, r *http.Request) {
	s.data.mu.RLock()
	out := make([]hrapi.Department, 0, len(s.data.departments))
	for _, d := range s.data.departments {
		out = append(out, *d)
	}
	s.data.mu.RUnlock()

	sortBy(out, func(d hrapi.Department) string { return d.Name })
	writeData(w, http.StatusOK, out)
}

func (s *Server) createDepartment(w http.ResponseWriter, r *http.Request) {
	var d hrapi.Department
	if !decodeBody(w, r, &d) {
		return
	}
	if strings.TrimSpace(d.Name) == "" {
		writeErrorDetails(w, http.StatusUnprocessableEntity, CodeValidation, "Validation failed", map[string]string{"name": "Name is required"})
		return
	}
	d.ID = newID()

	s.data.mu.Lock()
	s.data.departments[d.ID] = &d
	s.data.mu.Unlock()

	writeData(w, http.StatusCreated, d)
}

func (s *Server) updateDepartment(w http.ResponseWriter, r *http.Request) {
	var d hrapi.Department
	if !decodeBody(w, r, &d) {
		return
	}
	d.ID = chi.URLParam(r, "id")

	s.data.mu.Lock()
	_, ok := s.data.departments[d.ID]
	if ok {
		s.data.departments[d.ID] = &d
	}
	s.data.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "Department not found")
		return
	}
	writeData(w, http.StatusOK, d)
}

// deleteDepartment refuses while employees are still assigned
func (s *Server) deleteDepartment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.data.mu.Lock()
	_, ok := s.data.departments[id]
	inUse := false
	for _, e := range s.data.employees {
		if e.DepartmentID == id {
			inUse = true
			break
		}
	}
	if ok && !inUse {
		delete(s.data.departments, id)
	}
	s.data.mu.Unlock()

	switch {
	case !ok:
		writeError(w, http.StatusNotFound, CodeNotFound, "Department not found")
	case inUse:
		writeError(w, http.StatusConflict, CodeConflict, "Department still has employees")
	default:
		writeData(w, http.StatusOK, nil)
	}
}

func (s *Server) listPositions(w http.ResponseWriter, r *http.Request) {
	s.data.mu.RLock()
	out := make([]hrapi.Position, 0, len(s.data.positions))
	for _, p := range s.data.positions {
		out = append(out, *p)
	}
	s.data.mu.RUnlock()

	sortBy(out, func(p hrapi.Position) string { return p.Title })
	writeData(w, http.StatusOK, out)
}

func (s *Server) createPosition(w http.ResponseWriter, r *http.Request) {
	var p hrapi.Position
	if !decodeBody(w, r, &p) {
		return
	}
	if strings.TrimSpace(p.Title) == "" {
		writeErrorDetails(w, http.StatusUnprocessableEntity, CodeValidation, "Validation failed", map[string]string{"title": "Title is required"})
		return
	}
	p.ID = newID()

	s.data.mu.Lock()
	s.data.positions[p.ID] = &p
	s.data.mu.Unlock()

	writeData(w, http.StatusCreated, p)
}

func (s *Server) updatePosition(w http.ResponseWriter, r *http.Request) {
	var p hrapi.Position
	if !decodeBody(w, r, &p) {
		return
	}
	p.ID = chi.URLParam(r, "id")

	s.data.mu.Lock()
	_, ok := s.data.positions[p.ID]
	if ok {
		s.data.positions[p.ID] = &p
	}
	s.data.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "Position not found")
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *Server) deletePosition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.data.mu.Lock()
	_, ok := s.data.positions[id]
	delete(s.data.positions, id)
	s.data.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "Position not found")
		return
	}
	writeData(w, http.StatusOK, nil)
}

func sortBy[T any](items []T, key func(T) string) {
	sort.Slice(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
}
