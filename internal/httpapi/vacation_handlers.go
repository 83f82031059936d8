package httpapi

import (
	"net/http"
	"time"

	"github.com/workconnect/server/internal/workconnect/service"
	"github.com/workconnect/server/internal/workconnect/types"
)

const dateLayout = "2006-01-02"

type createVacationRequest struct {
	EmployeeID string `json:"employee_id"`
	ManagerID  string `json:"manager_id"`
	StartDate  string `json:"start_date"` // "2006-01-02"
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason,omitempty"`
}

func (s *Server) handleCreateVacation(w http.ResponseWriter, r *http.Request) {
	var req createVacationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start, err := time.ParseInLocation(dateLayout, req.StartDate, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "start_date must be yyyy-MM-dd")
		return
	}
	end, err := time.ParseInLocation(dateLayout, req.EndDate, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "end_date must be yyyy-MM-dd")
		return
	}

	created, err := s.vacations.CreateRequest(r.Context(), service.CreateRequestParams{
		EmployeeID: req.EmployeeID,
		ManagerID:  req.ManagerID,
		StartDate:  start,
		EndDate:    end,
		Reason:     req.Reason,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type decisionResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// Both decision handlers echo the status the request actually holds after
// the call. Deciding an already-decided request is a no-op in the service,
// so the response carries the existing decision, not the attempted one.
func (s *Server) handleApproveVacation(w http.ResponseWriter, r *http.Request) {
	req, err := s.vacations.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decisionResponse{RequestID: req.ID, Status: string(req.Status)})
}

func (s *Server) handleRejectVacation(w http.ResponseWriter, r *http.Request) {
	req, err := s.vacations.Reject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decisionResponse{RequestID: req.ID, Status: string(req.Status)})
}

// handleListVacations serves both views: ?employee_id= lists an employee's
// own requests, ?manager_id= lists the requests pending that manager's
// decision. Exactly one of the two must be set.
func (s *Server) handleListVacations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	employeeID := q.Get("employee_id")
	managerID := q.Get("manager_id")

	switch {
	case employeeID != "" && managerID == "":
		reqs, err := s.vacations.RequestsForEmployee(r.Context(), employeeID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listBody(reqs))
	case managerID != "" && employeeID == "":
		reqs, err := s.vacations.PendingForManager(r.Context(), managerID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listBody(reqs))
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "exactly one of employee_id or manager_id is required")
	}
}

func listBody(reqs []types.VacationRequest) map[string]any {
	if reqs == nil {
		reqs = []types.VacationRequest{}
	}
	return map[string]any{"requests": reqs}
}
