package service

import (
	"context"
	"strings"
)

// MonthlyHours sums the user's worked hours for monthKey ("2006-01").
// Open periods are counted up to "now"; every period is capped at 13 hours.
// Empty or malformed input yields 0.0 rather than an error; this feeds a
// summary display, not a payroll computation of record.
func (s *AttendanceService) MonthlyHours(ctx context.Context, userID, companyID, monthKey string) (float64, error) {
	userID = strings.TrimSpace(userID)
	companyID = strings.TrimSpace(companyID)
	monthKey = strings.TrimSpace(monthKey)
	if userID == "" || companyID == "" || monthKey == "" {
		return 0.0, nil
	}

	entries, err := s.store.EntriesForMonth(ctx, companyID, userID, monthKey)
	if err != nil {
		return 0.0, err
	}

	now := s.now().UTC()
	idPrefix := userID + "_" + monthKey

	total := 0.0
	for _, e := range entries {
		// Double-check month membership by dateKey or by entry id prefix:
		// the two can disagree when a shift was started around midnight on a
		// device with a skewed clock.
		if !strings.HasPrefix(e.DateKey, monthKey) && !strings.HasPrefix(e.ID, idPrefix) {
			continue
		}

		for _, p := range e.Periods {
			end := now
			if p.EndAt != nil {
				end = *p.EndAt
			}
			dur := end.Sub(p.StartAt)
			if dur <= 0 {
				continue
			}
			if dur > MaxShiftDuration {
				dur = MaxShiftDuration
			}
			total += dur.Hours()
		}
	}
	return total, nil
}
