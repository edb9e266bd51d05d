package database

import (
	"context"
	"encoding/json"
	"fmt"
)

// ListNotifications retrieves the acting user's inbox through the
// backend procedure, which scopes rows to the caller.
func (r *Repository) ListNotifications(ctx context.Context) ([]Notification, error) {
	data, err := r.client.rpc(ctx, "get_user_notifications", map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("%w: list notifications: %v", ErrRemoteCall, err)
	}

	var notifications []Notification
	if err := json.Unmarshal(data, &notifications); err != nil {
		return nil, fmt.Errorf("%w: unmarshal notifications: %v", ErrRemoteCall, err)
	}
	return notifications, nil
}

// MarkNotificationsRead marks the given notifications read; with no ids
// it marks the whole inbox.
func (r *Repository) MarkNotificationsRead(ctx context.Context, notificationIDs []string) error {
	for _, id := range notificationIDs {
		if err := ValidateID(id); err != nil {
			return err
		}
	}

	params := map[string]any{}
	if len(notificationIDs) > 0 {
		params["p_notification_ids"] = notificationIDs
	}
	if _, err := r.client.rpc(ctx, "mark_notifications_read", params); err != nil {
		return fmt.Errorf("%w: mark notifications read: %v", ErrRemoteCall, err)
	}
	return nil
}
