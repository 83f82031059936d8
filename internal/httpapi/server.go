package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/workconnect/server/internal/workconnect/service"
	"github.com/workconnect/server/internal/workconnect/store"
)

type Dependencies struct {
	Logger logrus.FieldLogger
	Addr   string

	Attendance    *service.AttendanceService
	Vacations     *service.VacationService
	Payslips      *service.PayslipService
	Users         store.UserStore
	Notifications store.NotificationStore

	// CompanyZone resolves dateKeys when a request carries no timezone.
	// Defaults to UTC.
	CompanyZone *time.Location
}

type Server struct {
	httpServer *http.Server
	logger     logrus.FieldLogger
	mux        *http.ServeMux

	attendance    *service.AttendanceService
	vacations     *service.VacationService
	payslips      *service.PayslipService
	users         store.UserStore
	notifications store.NotificationStore
	companyZone   *time.Location
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	zone := d.CompanyZone
	if zone == nil {
		zone = time.UTC
	}

	s := &Server{
		logger:        d.Logger,
		mux:           mux,
		attendance:    d.Attendance,
		vacations:     d.Vacations,
		payslips:      d.Payslips,
		users:         d.Users,
		notifications: d.Notifications,
		companyZone:   zone,
	}

	mux.HandleFunc("POST /v1/attendance/start", s.handleStartShift)
	mux.HandleFunc("POST /v1/attendance/end", s.handleEndShift)
	mux.HandleFunc("GET /v1/attendance/hours", s.handleMonthlyHours)

	mux.HandleFunc("POST /v1/vacations", s.handleCreateVacation)
	mux.HandleFunc("POST /v1/vacations/{id}/approve", s.handleApproveVacation)
	mux.HandleFunc("POST /v1/vacations/{id}/reject", s.handleRejectVacation)
	mux.HandleFunc("GET /v1/vacations", s.handleListVacations)

	mux.HandleFunc("GET /v1/users/{id}", s.handleGetUser)
	mux.HandleFunc("POST /v1/users/{id}/accrue", s.handleAccrue)

	mux.HandleFunc("GET /v1/notifications", s.handleListNotifications)
	mux.HandleFunc("DELETE /v1/notifications/{id}", s.handleDeleteNotification)

	mux.HandleFunc("PUT /v1/users/{id}/payslips/{period}", s.handleUploadPayslip)
	mux.HandleFunc("GET /v1/users/{id}/payslips", s.handleListPayslips)
	mux.HandleFunc("GET /v1/users/{id}/payslips/{period}", s.handleGetPayslip)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// writeServiceError maps service sentinel errors to statuses. Anything
// unrecognized is logged in full and surfaced as an internal error.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidCompanyID),
		errors.Is(err, service.ErrMissingEndTime),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrEmptyPayslip):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrEmployeeNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, "insufficient_balance", err.Error())
	case errors.Is(err, service.ErrPayslipTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
	default:
		s.logger.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	return true
}
