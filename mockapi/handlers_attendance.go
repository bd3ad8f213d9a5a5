package mockapi

import (
	"net/http"
	"sort"
	"time"

	"github.com/jrsteele09/go-hr-portal/hrapi"
)

// Check-ins after this time of day (UTC) are marked late
const lateAfter = 9*time.Hour + 15*time.Minute

func (s *Server) checkIn(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	if account.EmployeeID == "" {
		writeError(w, http.StatusForbidden, CodeForbidden, "Only employees record attendance")
		return
	}

	now := s.now().UTC()
	today := now.Format(hrapi.DateLayout)

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	for _, a := range s.data.attendance {
		if a.EmployeeID == account.EmployeeID && a.Date == today {
			writeError(w, http.StatusConflict, CodeConflict, "Already checked in today")
			return
		}
	}

	status := hrapi.AttendancePresent
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if now.Sub(midnight) > lateAfter {
		status = hrapi.AttendanceLate
	}
	a := &hrapi.Attendance{ID: newID(), EmployeeID: account.EmployeeID, Date: today, CheckIn: &now, Status: status}
	s.data.attendance = append(s.data.attendance, a)
	writeData(w, http.StatusCreated, *a)
}

func (s *Server) checkOut(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	now := s.now().UTC()
	today := now.Format(hrapi.DateLayout)

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	for _, a := range s.data.attendance {
		if a.EmployeeID != account.EmployeeID || a.Date != today {
			continue
		}
		if a.CheckOut != nil {
			writeError(w, http.StatusConflict, CodeConflict, "Already checked out today")
			return
		}
		a.CheckOut = &now
		writeData(w, http.StatusOK, *a)
		return
	}
	writeError(w, http.StatusConflict, CodeConflict, "You have not checked in today")
}

// listAttendance filters by month; employees only ever see their own records
func (s *Server) listAttendance(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	month := r.URL.Query().Get("month")
	employeeID := r.URL.Query().Get("employee_id")
	if !account.IsAdmin() {
		employeeID = account.EmployeeID
	}

	s.data.mu.RLock()
	out := make([]hrapi.Attendance, 0)
	for _, a := range s.data.attendance {
		if employeeID != "" && a.EmployeeID != employeeID {
			continue
		}
		if month != "" && !inMonth(a.Date, month) {
			continue
		}
		out = append(out, *a)
	}
	s.data.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	writeData(w, http.StatusOK, out)
}

func (s *Server) attendanceReport(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if _, err := time.Parse(hrapi.MonthLayout, month); err != nil {
		writeErrorDetails(w, http.StatusUnprocessableEntity, CodeValidation, "Validation failed", map[string]string{"month": "Month must be YYYY-MM"})
		return
	}

	s.data.mu.RLock()
	reports := make(map[string]*hrapi.AttendanceReport)
	for _, e := range s.data.employees {
		reports[e.ID] = &hrapi.AttendanceReport{EmployeeID: e.ID, Month: month}
	}
	for _, a := range s.data.attendance {
		rep, ok := reports[a.EmployeeID]
		if !ok || !inMonth(a.Date, month) {
			continue
		}
		switch a.Status {
		case hrapi.AttendanceLate:
			rep.LateDays++
		case hrapi.AttendanceAbsent:
			rep.AbsentDays++
		default:
			rep.PresentDays++
		}
		if a.CheckIn != nil && a.CheckOut != nil {
			rep.TotalHours = round2(rep.TotalHours + a.CheckOut.Sub(*a.CheckIn).Hours())
		}
	}
	s.data.mu.RUnlock()

	out := make([]hrapi.AttendanceReport, 0, len(reports))
	for _, rep := range reports {
		out = append(out, *rep)
	}
	sortBy(out, func(r hrapi.AttendanceReport) string { return r.EmployeeID })
	writeData(w, http.StatusOK, out)
}

func inMonth(date, month string) bool {
	return len(date) >= len(month) && date[:len(month)] == month
}
