package types

import (
	"fmt"
	"time"
)

// ShiftResult is the outcome of a shift transition. Precondition failures
// (double start, ending a shift that is not open) are results, not errors,
// so callers can switch on them directly.
type ShiftResult string

const (
	ShiftStarted        ShiftResult = "STARTED"
	ShiftEnded          ShiftResult = "ENDED"
	ShiftAlreadyStarted ShiftResult = "ALREADY_STARTED"
	ShiftNotStarted     ShiftResult = "NOT_STARTED"
	ShiftError          ShiftResult = "ERROR"
)

// Location is an optional geotag attached to a period boundary.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Period is one start/end interval inside a day's ledger entry. EndAt is nil
// while the period is open. At most one period per entry may be open, and it
// must be the last one.
type Period struct {
	StartAt       time.Time  `json:"start_at"`
	EndAt         *time.Time `json:"end_at,omitempty"`
	StartLocation *Location  `json:"start_location,omitempty"`
	EndLocation   *Location  `json:"end_location,omitempty"`
}

// Open reports whether the period has no end time yet.
func (p Period) Open() bool { return p.EndAt == nil }

// LedgerEntry is one user's workday: an ordered list of periods, keyed by
// user + calendar day. Entries are never deleted by the application; they
// expire via ExpiresAt (370 days after the last write).
type LedgerEntry struct {
	ID        string    `json:"id"` // "{userId}_{dateKey}"
	UserID    string    `json:"user_id"`
	CompanyID string    `json:"company_id"`
	DateKey   string    `json:"date_key"` // "2006-01-02" in the company zone
	Periods   []Period  `json:"periods"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ActiveShift is the per-user marker recording an open shift. It exists if
// and only if the last period of the referenced ledger entry is open; the
// two are always written in the same transaction.
type ActiveShift struct {
	UserID    string    `json:"user_id"`
	CompanyID string    `json:"company_id"`
	DateKey   string    `json:"date_key"`
	EntryID   string    `json:"entry_id"`
	StartedAt time.Time `json:"started_at"`
}

// EntryID builds the ledger entry key for a user and day.
func EntryID(userID, dateKey string) string {
	return fmt.Sprintf("%s_%s", userID, dateKey)
}
