package store

import (
	"context"
	"time"

	"github.com/workconnect/server/internal/workconnect/types"
)

// ShiftTx is the atomic scope for one shift transition. It exposes the two
// records the transition engine mutates together (the user's active-shift
// marker and a day's ledger entry) plus notification appends that must
// commit with them. All reads observe a consistent snapshot; all writes
// commit together or not at all.
type ShiftTx interface {
	// ActiveShift returns the user's marker, or nil if no shift is open.
	ActiveShift(ctx context.Context) (*types.ActiveShift, error)

	// LedgerEntry returns the entry, or nil if it does not exist.
	LedgerEntry(ctx context.Context, companyID, entryID string) (*types.LedgerEntry, error)

	// PutLedgerEntry creates or fully replaces an entry, periods included.
	PutLedgerEntry(ctx context.Context, e types.LedgerEntry) error

	SetActiveShift(ctx context.Context, m types.ActiveShift) error
	ClearActiveShift(ctx context.Context) error

	AddNotification(ctx context.Context, userID string, n types.Notification) error
}

// AttendanceStore owns ledger entries and active-shift markers.
type AttendanceStore interface {
	// RunShiftTx executes fn inside one atomic read-modify-write scoped to
	// userID. Returning an error from fn aborts the whole unit.
	RunShiftTx(ctx context.Context, userID string, fn func(tx ShiftTx) error) error

	// ActiveShiftFor returns the user's marker outside any transition, or
	// nil if no shift is open.
	ActiveShiftFor(ctx context.Context, userID string) (*types.ActiveShift, error)

	// Entry returns a single ledger entry, or nil if absent.
	Entry(ctx context.Context, companyID, entryID string) (*types.LedgerEntry, error)

	// EntriesForMonth returns the user's entries whose dateKey falls in
	// monthKey ("2006-01"), ordered by dateKey.
	EntriesForMonth(ctx context.Context, companyID, userID, monthKey string) ([]types.LedgerEntry, error)

	// OpenShiftsOlderThan returns markers whose shift started before cutoff.
	OpenShiftsOlderThan(ctx context.Context, cutoff time.Time) ([]types.ActiveShift, error)

	// PruneExpired deletes ledger entries whose expiry has passed and
	// returns the number of entries removed.
	PruneExpired(ctx context.Context, now time.Time) (int64, error)
}
