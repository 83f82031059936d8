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

type UserStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewUserStore(db *sql.DB, writer *dbpkg.Worker) *UserStore {
	return &UserStore{db: db, writer: writer}
}

const userColumns = `user_id, full_name, company_id, manager_id,
       vacation_days_per_month, vacation_balance, last_accrual_date, join_date_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*types.User, error) {
	var u types.User
	var managerID, lastAccrual sql.NullString
	var joinMs sql.NullInt64
	err := row.Scan(
		&u.ID, &u.FullName, &u.CompanyID, &managerID,
		&u.VacationDaysPerMonth, &u.VacationBalance, &lastAccrual, &joinMs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ManagerID = managerID.String
	u.LastAccrualDate = lastAccrual.String
	if joinMs.Valid {
		u.JoinDate = msToTime(joinMs.Int64)
	}
	return &u, nil
}

func (s *UserStore) Get(ctx context.Context, userID string) (*types.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = ?;`, userID))
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	if u == nil {
		return nil, nil
	}

	marker, err := scanActiveShift(s.db.QueryRowContext(ctx, `
SELECT user_id, company_id, date_key, entry_id, started_at_ms
FROM active_shifts WHERE user_id = ?;
`, userID))
	if err != nil {
		return nil, err
	}
	u.ActiveShift = marker
	return u, nil
}

// RunAccrualTx runs fn as one transaction on the writer, so the profile
// snapshot fn reads is the same one its Apply writes against.
func (s *UserStore) RunAccrualTx(ctx context.Context, userID string, fn func(tx store.AccrualTx) error) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(&accrualTx{tx: tx, userID: userID})
	})
}

type accrualTx struct {
	tx     *sql.Tx
	userID string
}

func (t *accrualTx) User(ctx context.Context) (*types.User, error) {
	u, err := scanUser(t.tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = ?;`, t.userID))
	if err != nil {
		return nil, fmt.Errorf("accrual read %s: %w", t.userID, err)
	}
	return u, nil
}

func (t *accrualTx) Apply(ctx context.Context, newBalance float64, lastAccrualDate string) error {
	res, err := t.tx.ExecContext(ctx, `
UPDATE users SET vacation_balance = ?, last_accrual_date = ?, updated_at_ms = ?
WHERE user_id = ?;
`, newBalance, lastAccrualDate, timeToMs(time.Now()), t.userID)
	if err != nil {
		return fmt.Errorf("apply accrual %s: %w", t.userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("apply accrual %s: user not found", t.userID)
	}
	return nil
}
