package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	dbpkg "github.com/workconnect/server/internal/db"
	"github.com/workconnect/server/internal/workconnect/types"
)

type NotificationStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewNotificationStore(db *sql.DB, writer *dbpkg.Worker) *NotificationStore {
	return &NotificationStore{db: db, writer: writer}
}

func (s *NotificationStore) List(ctx context.Context, userID string) ([]types.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT notification_id, type, title, body, data, read, created_at_ms
FROM notifications WHERE user_id = ? ORDER BY created_at_ms DESC;
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []types.Notification
	for rows.Next() {
		var n types.Notification
		var data sql.NullString
		var read int
		var createdMs int64
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &data, &read, &createdMs); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &n.Data); err != nil {
				return nil, fmt.Errorf("decode notification data: %w", err)
			}
		}
		n.Read = read != 0
		n.CreatedAt = msToTime(createdMs)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *NotificationStore) Delete(ctx context.Context, userID, notificationID string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM notifications WHERE user_id = ? AND notification_id = ?;
`, userID, notificationID); err != nil {
			return fmt.Errorf("delete notification: %w", err)
		}
		return nil
	})
}
