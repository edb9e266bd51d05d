package database

import (
	"context"
	"fmt"
)

// AwardPost spends coins on a post through the backend procedure. The
// procedure is atomic on the backend: it debits the sender, records the
// award, and enqueues the author's notification as one unit. If the call
// fails, nothing is assumed to have happened.
func (r *Repository) AwardPost(ctx context.Context, actingUserID, postID, stickerID string) error {
	return r.award(ctx, "award_post", actingUserID, postID, stickerID)
}

// AwardComment spends coins on a comment. Same contract as AwardPost.
func (r *Repository) AwardComment(ctx context.Context, actingUserID, commentID, stickerID string) error {
	return r.award(ctx, "award_comment", actingUserID, commentID, stickerID)
}

func (r *Repository) award(ctx context.Context, procedure, actingUserID, targetID, stickerID string) error {
	if err := ValidateUserID(actingUserID); err != nil {
		return err
	}
	if err := ValidateID(targetID); err != nil {
		return err
	}
	if err := ValidateID(stickerID); err != nil {
		return err
	}

	_, err := r.client.rpc(ctx, procedure, map[string]any{
		"p_user_id":   actingUserID,
		"p_post_id":   targetID,
		"p_reward_id": stickerID,
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRemoteCall, procedure, err)
	}
	return nil
}

// CreateNotification writes a notification for another user. In the award
// flow this call is best-effort; failures must not affect the award.
func (r *Repository) CreateNotification(ctx context.Context, targetUserID, fromUserID, kind, content, referenceID, referenceType string) error {
	if err := ValidateUserID(targetUserID); err != nil {
		return err
	}
	if err := ValidateUserID(fromUserID); err != nil {
		return err
	}
	if kind == "" {
		return fmt.Errorf("%w: notification type cannot be empty", ErrInvalidInput)
	}

	_, err := r.client.rpc(ctx, "create_notification", map[string]any{
		"p_user_id":        targetUserID,
		"p_user_from_id":   fromUserID,
		"p_type":           kind,
		"p_content":        content,
		"p_reference_id":   referenceID,
		"p_reference_type": referenceType,
	})
	if err != nil {
		return fmt.Errorf("%w: create notification: %v", ErrRemoteCall, err)
	}
	return nil
}
