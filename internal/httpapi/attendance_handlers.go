package httpapi

import (
	"net/http"
	"time"

	"github.com/workconnect/server/internal/workconnect/types"
)

type startShiftRequest struct {
	UserID    string          `json:"user_id"`
	CompanyID string          `json:"company_id"`
	Timezone  string          `json:"timezone,omitempty"`
	Location  *types.Location `json:"location,omitempty"`
}

type endShiftRequest struct {
	UserID   string          `json:"user_id"`
	Location *types.Location `json:"location,omitempty"`
}

type shiftResponse struct {
	Result types.ShiftResult `json:"result"`
}

func (s *Server) handleStartShift(w http.ResponseWriter, r *http.Request) {
	var req startShiftRequest
	if !decodeBody(w, r, &req) {
		return
	}

	zone := s.companyZone
	if req.Timezone != "" {
		z, err := time.LoadLocation(req.Timezone)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_timezone", "unknown timezone "+req.Timezone)
			return
		}
		zone = z
	}

	res, err := s.attendance.StartShift(r.Context(), req.UserID, req.CompanyID, zone, req.Location)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shiftResponse{Result: res})
}

func (s *Server) handleEndShift(w http.ResponseWriter, r *http.Request) {
	var req endShiftRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.attendance.EndShift(r.Context(), req.UserID, req.Location)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shiftResponse{Result: res})
}

type monthlyHoursResponse struct {
	UserID    string  `json:"user_id"`
	CompanyID string  `json:"company_id"`
	Month     string  `json:"month"`
	Hours     float64 `json:"hours"`
}

func (s *Server) handleMonthlyHours(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user_id")
	companyID := q.Get("company_id")
	month := q.Get("month") // "2006-01"

	hours, err := s.attendance.MonthlyHours(r.Context(), userID, companyID, month)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, monthlyHoursResponse{
		UserID:    userID,
		CompanyID: companyID,
		Month:     month,
		Hours:     hours,
	})
}
