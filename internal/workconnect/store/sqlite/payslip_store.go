package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	dbpkg "github.com/workconnect/server/internal/db"
	"github.com/workconnect/server/internal/workconnect/types"
)

type PayslipStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewPayslipStore(db *sql.DB, writer *dbpkg.Worker) *PayslipStore {
	return &PayslipStore{db: db, writer: writer}
}

func (s *PayslipStore) Put(ctx context.Context, p types.Payslip, notif *types.Notification) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO payslips(user_id, period_key, file_name, content_type, payload_b64, size_bytes, uploaded_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, period_key) DO UPDATE SET
  file_name = excluded.file_name,
  content_type = excluded.content_type,
  payload_b64 = excluded.payload_b64,
  size_bytes = excluded.size_bytes,
  uploaded_at_ms = excluded.uploaded_at_ms;
`, p.UserID, p.PeriodKey, p.FileName, p.ContentType, p.PayloadB64, p.SizeBytes, timeToMs(p.UploadedAt)); err != nil {
			return fmt.Errorf("put payslip: %w", err)
		}

		if notif != nil {
			return insertNotification(ctx, tx, p.UserID, *notif)
		}
		return nil
	})
}

func (s *PayslipStore) List(ctx context.Context, userID string) ([]types.Payslip, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT user_id, period_key, file_name, content_type, size_bytes, uploaded_at_ms
FROM payslips WHERE user_id = ? ORDER BY period_key DESC;
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payslips: %w", err)
	}
	defer rows.Close()

	var out []types.Payslip
	for rows.Next() {
		var p types.Payslip
		var uploadedMs int64
		if err := rows.Scan(&p.UserID, &p.PeriodKey, &p.FileName, &p.ContentType, &p.SizeBytes, &uploadedMs); err != nil {
			return nil, fmt.Errorf("scan payslip: %w", err)
		}
		p.UploadedAt = msToTime(uploadedMs)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PayslipStore) Get(ctx context.Context, userID, periodKey string) (*types.Payslip, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT user_id, period_key, file_name, content_type, payload_b64, size_bytes, uploaded_at_ms
FROM payslips WHERE user_id = ? AND period_key = ?;
`, userID, periodKey)

	var p types.Payslip
	var uploadedMs int64
	err := row.Scan(&p.UserID, &p.PeriodKey, &p.FileName, &p.ContentType, &p.PayloadB64, &p.SizeBytes, &uploadedMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payslip: %w", err)
	}
	p.UploadedAt = msToTime(uploadedMs)
	return &p, nil
}
