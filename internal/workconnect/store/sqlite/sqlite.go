package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/workconnect/server/internal/workconnect/types"
)

// Shared row-mapping helpers for the sqlite stores. Timestamps are stored as
// UTC epoch milliseconds in *_ms columns.

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMsToTime(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := msToTime(ms.Int64)
	return &t
}

func timeToMs(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// insertNotification appends a notification row inside an existing
// transaction. Used by the shift and decision transactions so the
// notification commits with the state change it announces.
func insertNotification(ctx context.Context, tx *sql.Tx, userID string, n types.Notification) error {
	var data any
	if len(n.Data) > 0 {
		b, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("insertNotification marshal data: %w", err)
		}
		data = string(b)
	}

	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO notifications(
  notification_id, user_id, type, title, body, data, read, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, 0, ?);
`, n.ID, userID, n.Type, n.Title, n.Body, data, timeToMs(createdAt)); err != nil {
		return fmt.Errorf("insertNotification: %w", err)
	}
	return nil
}
