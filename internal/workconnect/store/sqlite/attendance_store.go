package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/workconnect/server/internal/db"
	"github.com/workconnect/server/internal/workconnect/store"
	"github.com/workconnect/server/internal/workconnect/types"
)

// AttendanceStore persists ledger entries and active-shift markers. Every
// mutation runs through the single-writer worker, so shift transitions for
// any user serialize against each other and against reads issued inside a
// transition.
type AttendanceStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAttendanceStore(db *sql.DB, writer *dbpkg.Worker) *AttendanceStore {
	return &AttendanceStore{db: db, writer: writer}
}

func (s *AttendanceStore) RunShiftTx(ctx context.Context, userID string, fn func(tx store.ShiftTx) error) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(&shiftTx{tx: tx, userID: userID})
	})
}

func (s *AttendanceStore) ActiveShiftFor(ctx context.Context, userID string) (*types.ActiveShift, error) {
	return scanActiveShift(s.db.QueryRowContext(ctx, `
SELECT user_id, company_id, date_key, entry_id, started_at_ms
FROM active_shifts WHERE user_id = ?;
`, userID))
}

func (s *AttendanceStore) Entry(ctx context.Context, companyID, entryID string) (*types.LedgerEntry, error) {
	return loadEntry(ctx, s.db, companyID, entryID)
}

func (s *AttendanceStore) EntriesForMonth(ctx context.Context, companyID, userID, monthKey string) ([]types.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT entry_id, company_id, user_id, date_key, updated_at_ms, expires_at_ms
FROM attendance_entries
WHERE company_id = ? AND user_id = ? AND date_key >= ? AND date_key < ?
ORDER BY date_key;
`, companyID, userID, monthKey+"-01", monthKey+"-99")
	if err != nil {
		return nil, fmt.Errorf("EntriesForMonth query: %w", err)
	}
	defer rows.Close()

	var entries []types.LedgerEntry
	for rows.Next() {
		e, err := scanEntryRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("EntriesForMonth rows: %w", err)
	}

	for i := range entries {
		ps, err := loadPeriods(ctx, s.db, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Periods = ps
	}
	return entries, nil
}

func (s *AttendanceStore) OpenShiftsOlderThan(ctx context.Context, cutoff time.Time) ([]types.ActiveShift, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT user_id, company_id, date_key, entry_id, started_at_ms
FROM active_shifts WHERE started_at_ms < ?;
`, timeToMs(cutoff))
	if err != nil {
		return nil, fmt.Errorf("OpenShiftsOlderThan: %w", err)
	}
	defer rows.Close()

	var out []types.ActiveShift
	for rows.Next() {
		var m types.ActiveShift
		var startedMs int64
		if err := rows.Scan(&m.UserID, &m.CompanyID, &m.DateKey, &m.EntryID, &startedMs); err != nil {
			return nil, fmt.Errorf("OpenShiftsOlderThan scan: %w", err)
		}
		m.StartedAt = msToTime(startedMs)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *AttendanceStore) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM attendance_entries WHERE expires_at_ms < ?;
`, timeToMs(now))
		if err != nil {
			return fmt.Errorf("PruneExpired: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}

// ── shift transaction ────────────────────────────────────────────────────────

type shiftTx struct {
	tx     *sql.Tx
	userID string
}

func (t *shiftTx) ActiveShift(ctx context.Context) (*types.ActiveShift, error) {
	return scanActiveShift(t.tx.QueryRowContext(ctx, `
SELECT user_id, company_id, date_key, entry_id, started_at_ms
FROM active_shifts WHERE user_id = ?;
`, t.userID))
}

func (t *shiftTx) LedgerEntry(ctx context.Context, companyID, entryID string) (*types.LedgerEntry, error) {
	return loadEntry(ctx, t.tx, companyID, entryID)
}

func (t *shiftTx) PutLedgerEntry(ctx context.Context, e types.LedgerEntry) error {
	if _, err := t.tx.ExecContext(ctx, `
INSERT INTO attendance_entries(entry_id, company_id, user_id, date_key, updated_at_ms, expires_at_ms)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(entry_id) DO UPDATE SET
  updated_at_ms = excluded.updated_at_ms,
  expires_at_ms = excluded.expires_at_ms;
`, e.ID, e.CompanyID, e.UserID, e.DateKey, timeToMs(e.UpdatedAt), timeToMs(e.ExpiresAt)); err != nil {
		return fmt.Errorf("PutLedgerEntry upsert: %w", err)
	}

	// Replace the period list wholesale; the entry is small and the engine
	// mutates it in memory.
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM attendance_periods WHERE entry_id = ?;`, e.ID); err != nil {
		return fmt.Errorf("PutLedgerEntry clear periods: %w", err)
	}

	for i, p := range e.Periods {
		var endMs any
		if p.EndAt != nil {
			endMs = timeToMs(*p.EndAt)
		}
		startLat, startLng := locCols(p.StartLocation)
		endLat, endLng := locCols(p.EndLocation)

		if _, err := t.tx.ExecContext(ctx, `
INSERT INTO attendance_periods(entry_id, seq, start_at_ms, end_at_ms, start_lat, start_lng, end_lat, end_lng)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`, e.ID, i, timeToMs(p.StartAt), endMs, startLat, startLng, endLat, endLng); err != nil {
			return fmt.Errorf("PutLedgerEntry period %d: %w", i, err)
		}
	}
	return nil
}

func (t *shiftTx) SetActiveShift(ctx context.Context, m types.ActiveShift) error {
	if _, err := t.tx.ExecContext(ctx, `
INSERT INTO active_shifts(user_id, company_id, date_key, entry_id, started_at_ms)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  company_id = excluded.company_id,
  date_key = excluded.date_key,
  entry_id = excluded.entry_id,
  started_at_ms = excluded.started_at_ms;
`, t.userID, m.CompanyID, m.DateKey, m.EntryID, timeToMs(m.StartedAt)); err != nil {
		return fmt.Errorf("SetActiveShift: %w", err)
	}
	return nil
}

func (t *shiftTx) ClearActiveShift(ctx context.Context) error {
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM active_shifts WHERE user_id = ?;`, t.userID); err != nil {
		return fmt.Errorf("ClearActiveShift: %w", err)
	}
	return nil
}

func (t *shiftTx) AddNotification(ctx context.Context, userID string, n types.Notification) error {
	return insertNotification(ctx, t.tx, userID, n)
}

// ── row mapping ──────────────────────────────────────────────────────────────

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanActiveShift(row *sql.Row) (*types.ActiveShift, error) {
	var m types.ActiveShift
	var startedMs int64
	err := row.Scan(&m.UserID, &m.CompanyID, &m.DateKey, &m.EntryID, &startedMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan active shift: %w", err)
	}
	m.StartedAt = msToTime(startedMs)
	return &m, nil
}

type entryScanner interface {
	Scan(dest ...any) error
}

func scanEntryRow(sc entryScanner) (types.LedgerEntry, error) {
	var e types.LedgerEntry
	var updatedMs, expiresMs int64
	if err := sc.Scan(&e.ID, &e.CompanyID, &e.UserID, &e.DateKey, &updatedMs, &expiresMs); err != nil {
		return types.LedgerEntry{}, fmt.Errorf("scan ledger entry: %w", err)
	}
	e.UpdatedAt = msToTime(updatedMs)
	e.ExpiresAt = msToTime(expiresMs)
	return e, nil
}

func loadEntry(ctx context.Context, q querier, companyID, entryID string) (*types.LedgerEntry, error) {
	row := q.QueryRowContext(ctx, `
SELECT entry_id, company_id, user_id, date_key, updated_at_ms, expires_at_ms
FROM attendance_entries WHERE company_id = ? AND entry_id = ?;
`, companyID, entryID)

	var e types.LedgerEntry
	var updatedMs, expiresMs int64
	err := row.Scan(&e.ID, &e.CompanyID, &e.UserID, &e.DateKey, &updatedMs, &expiresMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load entry %s: %w", entryID, err)
	}
	e.UpdatedAt = msToTime(updatedMs)
	e.ExpiresAt = msToTime(expiresMs)

	ps, err := loadPeriods(ctx, q, entryID)
	if err != nil {
		return nil, err
	}
	e.Periods = ps
	return &e, nil
}

func loadPeriods(ctx context.Context, q querier, entryID string) ([]types.Period, error) {
	rows, err := q.QueryContext(ctx, `
SELECT start_at_ms, end_at_ms, start_lat, start_lng, end_lat, end_lng
FROM attendance_periods WHERE entry_id = ? ORDER BY seq;
`, entryID)
	if err != nil {
		return nil, fmt.Errorf("load periods %s: %w", entryID, err)
	}
	defer rows.Close()

	var ps []types.Period
	for rows.Next() {
		var p types.Period
		var startMs int64
		var endMs sql.NullInt64
		var sLat, sLng, eLat, eLng sql.NullFloat64
		if err := rows.Scan(&startMs, &endMs, &sLat, &sLng, &eLat, &eLng); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		p.StartAt = msToTime(startMs)
		p.EndAt = nullMsToTime(endMs)
		p.StartLocation = locFromCols(sLat, sLng)
		p.EndLocation = locFromCols(eLat, eLng)
		ps = append(ps, p)
	}
	return ps, rows.Err()
}

func locCols(l *types.Location) (lat, lng any) {
	if l == nil {
		return nil, nil
	}
	return l.Lat, l.Lng
}

func locFromCols(lat, lng sql.NullFloat64) *types.Location {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &types.Location{Lat: lat.Float64, Lng: lng.Float64}
}
