package store

import (
	"context"

	"github.com/workconnect/server/internal/workconnect/types"
)

// PayslipStore persists payslip documents keyed by (user, pay period).
type PayslipStore interface {
	// Put upserts the payslip and writes the employee's upload notification
	// in the same atomic unit. notif may be nil.
	Put(ctx context.Context, p types.Payslip, notif *types.Notification) error

	// List returns payslip metadata (no payload), newest period first.
	List(ctx context.Context, userID string) ([]types.Payslip, error)

	// Get returns one payslip including its payload, or nil if absent.
	Get(ctx context.Context, userID, periodKey string) (*types.Payslip, error)
}
