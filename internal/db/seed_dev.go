package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	CompanyID string
}

// SeedDev inserts a manager and one employee so the API is usable out of the
// box in dev. Idempotent: re-running against an existing database is a no-op.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	companyID := opt.CompanyID
	if companyID == "" {
		companyID = "acme"
	}

	now := time.Now().UTC()
	nowMs := now.UnixMilli()
	join := now.AddDate(0, -6, 0).UnixMilli()

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO users(
  user_id, full_name, company_id, manager_id,
  vacation_days_per_month, vacation_balance, last_accrual_date, join_date_ms,
  created_at_ms, updated_at_ms
) VALUES ('mgr-001', 'Dana Levi', ?, NULL, 1.5, 12.0, NULL, ?, ?, ?);
`, companyID, join, nowMs, nowMs); err != nil {
		return fmt.Errorf("seed manager: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO users(
  user_id, full_name, company_id, manager_id,
  vacation_days_per_month, vacation_balance, last_accrual_date, join_date_ms,
  created_at_ms, updated_at_ms
) VALUES ('emp-001', 'Noam Katz', ?, 'mgr-001', 1.5, 10.0, NULL, ?, ?, ?);
`, companyID, join, nowMs, nowMs); err != nil {
		return fmt.Errorf("seed employee: %w", err)
	}

	return nil
}
