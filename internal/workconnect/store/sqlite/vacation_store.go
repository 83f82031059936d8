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

const dateLayout = "2006-01-02"

type VacationStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewVacationStore(db *sql.DB, writer *dbpkg.Worker) *VacationStore {
	return &VacationStore{db: db, writer: writer}
}

func (s *VacationStore) CreateRequest(ctx context.Context, req types.VacationRequest, managerNotif *types.Notification) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO vacation_requests(
  request_id, employee_id, manager_id, start_date, end_date,
  reason, status, days_requested, created_at_ms, decision_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL);
`,
			req.ID, req.EmployeeID, req.ManagerID,
			req.StartDate.UTC().Format(dateLayout), req.EndDate.UTC().Format(dateLayout),
			req.Reason, string(req.Status), req.DaysRequested, timeToMs(req.CreatedAt),
		); err != nil {
			return fmt.Errorf("CreateRequest insert: %w", err)
		}

		if managerNotif != nil {
			return insertNotification(ctx, tx, req.ManagerID, *managerNotif)
		}
		return nil
	})
}

func (s *VacationStore) RunDecisionTx(ctx context.Context, requestID string, fn func(tx store.DecisionTx) error) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(&decisionTx{tx: tx, requestID: requestID})
	})
}

func (s *VacationStore) RequestsForEmployee(ctx context.Context, employeeID string) ([]types.VacationRequest, error) {
	return s.queryRequests(ctx, `
SELECT request_id, employee_id, manager_id, start_date, end_date,
       reason, status, days_requested, created_at_ms, decision_at_ms
FROM vacation_requests WHERE employee_id = ? ORDER BY created_at_ms DESC;
`, employeeID)
}

func (s *VacationStore) PendingForManager(ctx context.Context, managerID string) ([]types.VacationRequest, error) {
	return s.queryRequests(ctx, `
SELECT request_id, employee_id, manager_id, start_date, end_date,
       reason, status, days_requested, created_at_ms, decision_at_ms
FROM vacation_requests WHERE manager_id = ? AND status = ? ORDER BY created_at_ms DESC;
`, managerID, string(types.VacationPending))
}

func (s *VacationStore) queryRequests(ctx context.Context, query string, args ...any) ([]types.VacationRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vacation requests: %w", err)
	}
	defer rows.Close()

	var out []types.VacationRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ── decision transaction ─────────────────────────────────────────────────────

type decisionTx struct {
	tx        *sql.Tx
	requestID string
}

func (t *decisionTx) Request(ctx context.Context) (*types.VacationRequest, error) {
	rows, err := t.tx.QueryContext(ctx, `
SELECT request_id, employee_id, manager_id, start_date, end_date,
       reason, status, days_requested, created_at_ms, decision_at_ms
FROM vacation_requests WHERE request_id = ?;
`, t.requestID)
	if err != nil {
		return nil, fmt.Errorf("decision read request: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	r, err := scanRequest(rows)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *decisionTx) SetDecision(ctx context.Context, status types.VacationStatus, decidedAt time.Time) error {
	if _, err := t.tx.ExecContext(ctx, `
UPDATE vacation_requests SET status = ?, decision_at_ms = ? WHERE request_id = ?;
`, string(status), timeToMs(decidedAt), t.requestID); err != nil {
		return fmt.Errorf("SetDecision: %w", err)
	}
	return nil
}

func (t *decisionTx) Balance(ctx context.Context, employeeID string) (float64, bool, error) {
	var balance float64
	err := t.tx.QueryRowContext(ctx,
		`SELECT vacation_balance FROM users WHERE user_id = ?;`, employeeID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read balance %s: %w", employeeID, err)
	}
	return balance, true, nil
}

func (t *decisionTx) SetBalance(ctx context.Context, employeeID string, balance float64) error {
	if _, err := t.tx.ExecContext(ctx, `
UPDATE users SET vacation_balance = ?, updated_at_ms = ? WHERE user_id = ?;
`, balance, timeToMs(time.Now()), employeeID); err != nil {
		return fmt.Errorf("SetBalance %s: %w", employeeID, err)
	}
	return nil
}

func (t *decisionTx) AddNotification(ctx context.Context, userID string, n types.Notification) error {
	return insertNotification(ctx, t.tx, userID, n)
}

// ── row mapping ──────────────────────────────────────────────────────────────

func scanRequest(rows *sql.Rows) (types.VacationRequest, error) {
	var r types.VacationRequest
	var startDate, endDate, status string
	var createdMs int64
	var decisionMs sql.NullInt64

	if err := rows.Scan(
		&r.ID, &r.EmployeeID, &r.ManagerID, &startDate, &endDate,
		&r.Reason, &status, &r.DaysRequested, &createdMs, &decisionMs,
	); err != nil {
		return types.VacationRequest{}, fmt.Errorf("scan vacation request: %w", err)
	}

	var err error
	if r.StartDate, err = time.ParseInLocation(dateLayout, startDate, time.UTC); err != nil {
		return types.VacationRequest{}, fmt.Errorf("parse start_date %q: %w", startDate, err)
	}
	if r.EndDate, err = time.ParseInLocation(dateLayout, endDate, time.UTC); err != nil {
		return types.VacationRequest{}, fmt.Errorf("parse end_date %q: %w", endDate, err)
	}
	r.Status = types.VacationStatus(status)
	r.CreatedAt = msToTime(createdMs)
	r.DecisionAt = nullMsToTime(decisionMs)
	return r, nil
}
