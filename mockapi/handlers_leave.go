package mockapi

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-hr-portal/hrapi"
)

func (s *Server) listLeaves(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	status := hrapi.LeaveStatus(r.URL.Query().Get("status"))

	s.data.mu.RLock()
	out := make([]hrapi.Leave, 0)
	for _, l := range s.data.leaves {
		if !account.IsAdmin() && l.EmployeeID != account.EmployeeID {
			continue
		}
		if status != "" && l.Status != status {
			continue
		}
		out = append(out, *l)
	}
	s.data.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	writeData(w, http.StatusOK, out)
}

func (s *Server) requestLeave(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r)
	if account.EmployeeID == "" {
		writeError(w, http.StatusForbidden, CodeForbidden, "Only employees can request leave")
		return
	}

	var req hrapi.LeaveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	problems := map[string]string{}
	switch req.Type {
	case hrapi.LeaveAnnual, hrapi.LeaveSick, hrapi.LeaveUnpaid:
	default:
		problems["type"] = "Leave type must be annual, sick or unpaid"
	}
	start, startErr := time.Parse(hrapi.DateLayout, req.StartDate)
	end, endErr := time.Parse(hrapi.DateLayout, req.EndDate)
	if startErr != nil {
		problems["start_date"] = "Start date must be YYYY-MM-DD"
	}
	if endErr != nil {
		problems["end_date"] = "End date must be YYYY-MM-DD"
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		problems["end_date"] = "End date cannot be before start date"
	}
	if len(problems) > 0 {
		writeErrorDetails(w, http.StatusUnprocessableEntity, CodeValidation, "Validation failed", problems)
		return
	}

	l := &hrapi.Leave{
		ID:         newID(),
		EmployeeID: account.EmployeeID,
		Type:       req.Type,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Reason:     req.Reason,
		Status:     hrapi.LeavePending,
		CreatedAt:  s.now().UTC(),
	}

	s.data.mu.Lock()
	s.data.leaves[l.ID] = l
	s.data.mu.Unlock()

	writeData(w, http.StatusCreated, *l)
}

// reviewLeave decides a pending request; decided requests are final
func (s *Server) reviewLeave(w http.ResponseWriter, r *http.Request) {
	var upd hrapi.LeaveStatusUpdate
	if !decodeBody(w, r, &upd) {
		return
	}
	if upd.Status != hrapi.LeaveApproved && upd.Status != hrapi.LeaveRejected {
		writeErrorDetails(w, http.StatusUnprocessableEntity, CodeValidation, "Validation failed", map[string]string{"status": "Status must be approved or rejected"})
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()

	l, ok := s.data.leaves[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "Leave request not found")
		return
	}
	if l.Status != hrapi.LeavePending {
		writeError(w, http.StatusConflict, CodeConflict, "Leave request has already been reviewed")
		return
	}
	l.Status = upd.Status
	l.Note = upd.Note
	l.ReviewedBy = accountFrom(r).ID
	writeData(w, http.StatusOK, *l)
}
