package store

import (
	"context"

	"github.com/workconnect/server/internal/workconnect/types"
)

// AccrualTx is the atomic scope for one accrual pass. The profile read and
// the balance write observe the same snapshot, so a deduction committed by a
// vacation decision can never be overwritten by an accrual computed from a
// stale balance.
type AccrualTx interface {
	// User returns the profile under accrual, or nil if it does not exist.
	User(ctx context.Context) (*types.User, error)

	// Apply sets the balance and advances lastAccrualDate in one write.
	Apply(ctx context.Context, newBalance float64, lastAccrualDate string) error
}

// UserStore reads user profiles and runs accrual updates. Profile creation
// belongs to the registration flow, which is outside this service; dev
// environments seed users directly.
type UserStore interface {
	// Get returns the user with the active-shift marker attached, or nil
	// if the user does not exist.
	Get(ctx context.Context, userID string) (*types.User, error)

	// RunAccrualTx executes fn inside one atomic read-modify-write scoped
	// to userID. Returning an error from fn aborts the whole unit.
	RunAccrualTx(ctx context.Context, userID string, fn func(tx AccrualTx) error) error
}
