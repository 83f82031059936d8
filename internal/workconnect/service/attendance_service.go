package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/workconnect/server/internal/feed"
	"github.com/workconnect/server/internal/workconnect/store"
	"github.com/workconnect/server/internal/workconnect/types"
)

// MaxShiftDuration caps a single period at 13 hours. Forced ends are clamped
// to it and the monthly aggregation never credits more per period.
const MaxShiftDuration = 13 * time.Hour

// ledgerRetention is how long a ledger entry survives after its last write.
const ledgerRetention = 370 * 24 * time.Hour

const dateKeyLayout = "2006-01-02"

var (
	ErrInvalidUserID    = errors.New("user id is required")
	ErrInvalidCompanyID = errors.New("company id is required")
	ErrMissingEndTime   = errors.New("forced end time is required")
)

// AttendanceService is the shift transition engine. Every transition is one
// atomic read-modify-write over the active-shift marker and the day's ledger
// entry, so concurrent calls for the same user cannot produce a second open
// period or a dangling marker. Precondition failures come back as results,
// not errors; the service performs no internal retry.
type AttendanceService struct {
	store  store.AttendanceStore
	feed   *feed.Feed
	logger logrus.FieldLogger

	now func() time.Time
}

func NewAttendanceService(st store.AttendanceStore, f *feed.Feed, logger logrus.FieldLogger) *AttendanceService {
	return &AttendanceService{
		store:  st,
		feed:   f,
		logger: logger,
		now:    time.Now,
	}
}

// StartShift opens a new period for today (in zone) and sets the marker.
// Returns ALREADY_STARTED without mutating anything if a shift is open.
func (s *AttendanceService) StartShift(ctx context.Context, userID, companyID string, zone *time.Location, loc *types.Location) (types.ShiftResult, error) {
	userID = strings.TrimSpace(userID)
	companyID = strings.TrimSpace(companyID)
	if userID == "" {
		return types.ShiftError, ErrInvalidUserID
	}
	if companyID == "" {
		return types.ShiftError, ErrInvalidCompanyID
	}
	if zone == nil {
		zone = time.UTC
	}

	now := s.now().UTC()
	dateKey := now.In(zone).Format(dateKeyLayout)
	entryID := types.EntryID(userID, dateKey)

	result := types.ShiftError
	err := s.store.RunShiftTx(ctx, userID, func(tx store.ShiftTx) error {
		marker, err := tx.ActiveShift(ctx)
		if err != nil {
			return err
		}
		if marker != nil {
			result = types.ShiftAlreadyStarted
			return nil
		}

		entry, err := tx.LedgerEntry(ctx, companyID, entryID)
		if err != nil {
			return err
		}
		if entry == nil {
			entry = &types.LedgerEntry{
				ID:        entryID,
				UserID:    userID,
				CompanyID: companyID,
				DateKey:   dateKey,
			}
		}

		// Defensive double-check: the marker is authoritative, but a ledger
		// whose last period is still open must also refuse a second start.
		if n := len(entry.Periods); n > 0 && entry.Periods[n-1].Open() {
			result = types.ShiftAlreadyStarted
			return nil
		}

		entry.Periods = append(entry.Periods, types.Period{
			StartAt:       now,
			StartLocation: loc,
		})
		entry.UpdatedAt = now
		entry.ExpiresAt = now.Add(ledgerRetention)

		if err := tx.PutLedgerEntry(ctx, *entry); err != nil {
			return err
		}
		if err := tx.SetActiveShift(ctx, types.ActiveShift{
			UserID:    userID,
			CompanyID: companyID,
			DateKey:   dateKey,
			EntryID:   entryID,
			StartedAt: now,
		}); err != nil {
			return err
		}

		result = types.ShiftStarted
		return nil
	})
	if err != nil {
		return types.ShiftError, err
	}

	if result == types.ShiftStarted {
		s.publishMarker(userID, companyID, &feed.Marker{
			DateKey:   dateKey,
			EntryID:   entryID,
			StartedAt: now,
		})
	}
	return result, nil
}

// EndShift closes the open period at the current time. Returns NOT_STARTED
// without mutating anything if no shift is open.
func (s *AttendanceService) EndShift(ctx context.Context, userID string, loc *types.Location) (types.ShiftResult, error) {
	return s.endShift(ctx, userID, nil, loc)
}

// EndShiftAt closes the open period at the supplied time, clamped into
// [startAt, startAt+13h]. Used by the auto-end watchdog; emits an
// ATTENDANCE_AUTO_ENDED notification inside the same transaction.
func (s *AttendanceService) EndShiftAt(ctx context.Context, userID string, forcedEndAt time.Time, loc *types.Location) (types.ShiftResult, error) {
	if forcedEndAt.IsZero() {
		return types.ShiftError, ErrMissingEndTime
	}
	return s.endShift(ctx, userID, &forcedEndAt, loc)
}

func (s *AttendanceService) endShift(ctx context.Context, userID string, forced *time.Time, loc *types.Location) (types.ShiftResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return types.ShiftError, ErrInvalidUserID
	}

	now := s.now().UTC()
	result := types.ShiftError
	var companyID string

	err := s.store.RunShiftTx(ctx, userID, func(tx store.ShiftTx) error {
		marker, err := tx.ActiveShift(ctx)
		if err != nil {
			return err
		}
		if marker == nil {
			result = types.ShiftNotStarted
			return nil
		}
		companyID = marker.CompanyID

		entry, err := tx.LedgerEntry(ctx, marker.CompanyID, marker.EntryID)
		if err != nil {
			return err
		}
		if entry == nil || len(entry.Periods) == 0 {
			result = types.ShiftNotStarted
			return nil
		}

		last := &entry.Periods[len(entry.Periods)-1]
		if !last.Open() {
			result = types.ShiftNotStarted
			return nil
		}

		end := now
		if forced != nil {
			end = forced.UTC()
		}
		end = clampEnd(last.StartAt, end, forced != nil)

		last.EndAt = &end
		if loc != nil {
			last.EndLocation = loc
		}
		entry.UpdatedAt = now
		entry.ExpiresAt = now.Add(ledgerRetention)

		if err := tx.PutLedgerEntry(ctx, *entry); err != nil {
			return err
		}
		if err := tx.ClearActiveShift(ctx); err != nil {
			return err
		}

		if forced != nil {
			n := types.Notification{
				ID:    uuid.NewString(),
				Type:  types.NotifAttendanceAutoEnd,
				Title: "Shift ended automatically",
				Body:  "Your shift was open for too long and has been ended",
				Data: map[string]string{
					"companyId": marker.CompanyID,
					"dateKey":   marker.DateKey,
					"entryId":   marker.EntryID,
				},
				CreatedAt: now,
			}
			if err := tx.AddNotification(ctx, userID, n); err != nil {
				return err
			}
		}

		result = types.ShiftEnded
		return nil
	})
	if err != nil {
		return types.ShiftError, err
	}

	if result == types.ShiftEnded {
		s.publishMarker(userID, companyID, nil)
	}
	return result, nil
}

// clampEnd enforces endAt >= startAt always, and for forced ends also
// endAt <= startAt + MaxShiftDuration. Clamping an in-range value is a no-op.
func clampEnd(start, end time.Time, forced bool) time.Time {
	if end.Before(start) {
		return start
	}
	if forced {
		if limit := start.Add(MaxShiftDuration); end.After(limit) {
			return limit
		}
	}
	return end
}

func (s *AttendanceService) publishMarker(userID, companyID string, m *feed.Marker) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(feed.MarkerEvent{
		UserID:    userID,
		CompanyID: companyID,
		Marker:    m,
		At:        s.now().UTC(),
	})
}
