package store

import (
	"context"
	"time"

	"github.com/workconnect/server/internal/workconnect/types"
)

// DecisionTx is the atomic scope for approving or rejecting a vacation
// request: the request's status, the employee's balance, and the outcome
// notification commit as one unit.
type DecisionTx interface {
	// Request returns the request under decision, or nil if it was never
	// created.
	Request(ctx context.Context) (*types.VacationRequest, error)

	SetDecision(ctx context.Context, status types.VacationStatus, decidedAt time.Time) error

	// Balance returns the employee's vacation balance; ok is false when the
	// employee record does not exist.
	Balance(ctx context.Context, employeeID string) (balance float64, ok bool, err error)

	SetBalance(ctx context.Context, employeeID string, balance float64) error

	AddNotification(ctx context.Context, userID string, n types.Notification) error
}

// VacationStore owns vacation requests.
type VacationStore interface {
	// CreateRequest writes the request and the manager's notification
	// together. managerNotif may be nil.
	CreateRequest(ctx context.Context, req types.VacationRequest, managerNotif *types.Notification) error

	// RunDecisionTx executes fn inside one atomic read-modify-write scoped
	// to requestID. Returning an error from fn aborts the whole unit.
	RunDecisionTx(ctx context.Context, requestID string, fn func(tx DecisionTx) error) error

	RequestsForEmployee(ctx context.Context, employeeID string) ([]types.VacationRequest, error)
	PendingForManager(ctx context.Context, managerID string) ([]types.VacationRequest, error)
}
