package httpapi

import (
	"io"
	"net/http"

	"github.com/workconnect/server/internal/workconnect/types"
)

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	u, err := s.users.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type accrueResponse struct {
	UserID  string  `json:"user_id"`
	Balance float64 `json:"balance"`
}

// handleAccrue applies the daily vacation accrual and returns the resulting
// balance. Calling it twice on the same day is a no-op the second time.
func (s *Server) handleAccrue(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	balance, err := s.vacations.AccrueDaily(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accrueResponse{UserID: id, Balance: balance})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}
	notifs, err := s.notifications.List(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if notifs == nil {
		notifs = []types.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifs})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}
	if err := s.notifications.Delete(r.Context(), userID, id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadPayslip accepts the raw document as the request body. The
// stored copy is base64 text, matching how the mobile clients consume it.
func (s *Server) handleUploadPayslip(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	period := r.PathValue("period")

	payload, err := io.ReadAll(io.LimitReader(r.Body, types.MaxPayslipBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "could not read request body")
		return
	}

	fileName := r.URL.Query().Get("file_name")
	contentType := r.Header.Get("Content-Type")

	meta, err := s.payslips.Upload(r.Context(), userID, period, fileName, contentType, payload)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleListPayslips(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	slips, err := s.payslips.List(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if slips == nil {
		slips = []types.Payslip{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"payslips": slips})
}

func (s *Server) handleGetPayslip(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	period := r.PathValue("period")

	p, err := s.payslips.Get(r.Context(), userID, period)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "not_found", "payslip not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
