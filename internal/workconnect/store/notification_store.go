package store

import (
	"context"

	"github.com/workconnect/server/internal/workconnect/types"
)

// NotificationStore lists and deletes per-user notifications. Creation
// happens inside the workflow transactions (ShiftTx, DecisionTx), never
// through this interface.
type NotificationStore interface {
	// List returns the user's notifications, newest first.
	List(ctx context.Context, userID string) ([]types.Notification, error)

	// Delete removes a notification once the recipient has acted on it.
	// Deleting a notification that is already gone is not an error.
	Delete(ctx context.Context, userID, notificationID string) error
}
