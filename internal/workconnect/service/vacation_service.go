package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/workconnect/server/internal/workconnect/store"
	"github.com/workconnect/server/internal/workconnect/types"
)

var (
	ErrRequestNotFound     = errors.New("vacation request not found")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrInvalidRequest      = errors.New("invalid vacation request fields")
	ErrInvalidDateRange    = errors.New("end date is before start date")
	ErrInsufficientBalance = errors.New("not enough vacation balance")
)

// VacationService owns the vacation request workflow and the daily balance
// accrual. Approval is the authoritative balance check: it reads balance and
// request status, decides, and writes status, balance, and the outcome
// notification as one atomic unit.
type VacationService struct {
	store  store.VacationStore
	users  store.UserStore
	logger logrus.FieldLogger

	now func() time.Time

	// Guards against re-entrant accrual for the same user within this
	// process. Not a distributed lock: concurrent accrual from two
	// processes remains possible.
	mu       sync.Mutex
	accruing map[string]bool
}

func NewVacationService(st store.VacationStore, users store.UserStore, logger logrus.FieldLogger) *VacationService {
	return &VacationService{
		store:    st,
		users:    users,
		logger:   logger,
		now:      time.Now,
		accruing: make(map[string]bool),
	}
}

type CreateRequestParams struct {
	EmployeeID string
	ManagerID  string
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

// CreateRequest computes daysRequested as whole days inclusive, runs the
// soft balance check against the employee's currently known balance, and
// writes the request together with the manager's notification. The
// authoritative balance check happens at approval time. An unknown employee
// fails with ErrEmployeeNotFound: a request nobody could approve is never
// stored.
func (s *VacationService) CreateRequest(ctx context.Context, p CreateRequestParams) (*types.VacationRequest, error) {
	employeeID := strings.TrimSpace(p.EmployeeID)
	managerID := strings.TrimSpace(p.ManagerID)
	if employeeID == "" || managerID == "" {
		return nil, ErrInvalidRequest
	}

	start := truncateToDay(p.StartDate)
	end := truncateToDay(p.EndDate)
	days := int(end.Sub(start).Hours()/24) + 1
	if days <= 0 {
		return nil, ErrInvalidDateRange
	}

	u, err := s.users.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrEmployeeNotFound
	}
	if float64(days) > u.VacationBalance {
		return nil, ErrInsufficientBalance
	}

	now := s.now().UTC()
	req := types.VacationRequest{
		ID:            uuid.NewString(),
		EmployeeID:    employeeID,
		ManagerID:     managerID,
		StartDate:     start,
		EndDate:       end,
		Reason:        strings.TrimSpace(p.Reason),
		Status:        types.VacationPending,
		DaysRequested: days,
		CreatedAt:     now,
	}

	notif := &types.Notification{
		ID:    uuid.NewString(),
		Type:  types.NotifVacationNewRequest,
		Title: "New vacation request",
		Body:  "A new vacation request is waiting for approval",
		Data: map[string]string{
			"requestId":  req.ID,
			"employeeId": employeeID,
		},
		CreatedAt: now,
	}

	if err := s.store.CreateRequest(ctx, req, notif); err != nil {
		return nil, err
	}
	return &req, nil
}

// Approve deducts the employee's balance and marks the request APPROVED in
// one atomic unit, returning the request as decided. A request already
// decided is a no-op: the existing decision comes back unchanged, so callers
// see the real status, not the one they attempted. If the deduction would
// drive the balance negative the whole operation aborts with
// ErrInsufficientBalance and nothing changes.
func (s *VacationService) Approve(ctx context.Context, requestID string) (*types.VacationRequest, error) {
	var out *types.VacationRequest
	err := s.store.RunDecisionTx(ctx, requestID, func(tx store.DecisionTx) error {
		req, err := tx.Request(ctx)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrRequestNotFound
		}
		if req.Status.Terminal() {
			out = req
			return nil
		}
		if req.EmployeeID == "" || req.DaysRequested <= 0 {
			return ErrInvalidRequest
		}

		balance, ok, err := tx.Balance(ctx, req.EmployeeID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrEmployeeNotFound
		}

		newBalance := balance - float64(req.DaysRequested)
		if newBalance < 0 {
			return ErrInsufficientBalance
		}

		now := s.now().UTC()
		if err := tx.SetDecision(ctx, types.VacationApproved, now); err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, req.EmployeeID, newBalance); err != nil {
			return err
		}
		if err := tx.AddNotification(ctx, req.EmployeeID, types.Notification{
			ID:    uuid.NewString(),
			Type:  types.NotifVacationApproved,
			Title: "Vacation approved",
			Body:  "Your vacation request was approved",
			Data: map[string]string{
				"requestId": requestID,
				"status":    string(types.VacationApproved),
			},
			CreatedAt: now,
		}); err != nil {
			return err
		}
		req.Status = types.VacationApproved
		req.DecisionAt = &now
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reject marks the request REJECTED and returns it as decided. Same
// idempotency guard as Approve; no balance change.
func (s *VacationService) Reject(ctx context.Context, requestID string) (*types.VacationRequest, error) {
	var out *types.VacationRequest
	err := s.store.RunDecisionTx(ctx, requestID, func(tx store.DecisionTx) error {
		req, err := tx.Request(ctx)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrRequestNotFound
		}
		if req.Status.Terminal() {
			out = req
			return nil
		}
		if req.EmployeeID == "" {
			return ErrInvalidRequest
		}

		now := s.now().UTC()
		if err := tx.SetDecision(ctx, types.VacationRejected, now); err != nil {
			return err
		}
		if err := tx.AddNotification(ctx, req.EmployeeID, types.Notification{
			ID:    uuid.NewString(),
			Type:  types.NotifVacationRejected,
			Title: "Vacation rejected",
			Body:  "Your vacation request was rejected",
			Data: map[string]string{
				"requestId": requestID,
				"status":    string(types.VacationRejected),
			},
			CreatedAt: now,
		}); err != nil {
			return err
		}
		req.Status = types.VacationRejected
		req.DecisionAt = &now
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VacationService) RequestsForEmployee(ctx context.Context, employeeID string) ([]types.VacationRequest, error) {
	return s.store.RequestsForEmployee(ctx, employeeID)
}

func (s *VacationService) PendingForManager(ctx context.Context, managerID string) ([]types.VacationRequest, error) {
	return s.store.PendingForManager(ctx, managerID)
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
