package database

import (
	"context"
	"encoding/json"
	"fmt"
)

// ListCoinPackages retrieves the purchasable coin bundles, cheapest
// first.
func (r *Repository) ListCoinPackages(ctx context.Context) ([]CoinPackage, error) {
	query := "select=*&order=coin_amount.asc"
	data, err := r.client.request(ctx, "GET", "coin_packages", nil, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list coin packages: %v", ErrRemoteCall, err)
	}

	var packages []CoinPackage
	if err := json.Unmarshal(data, &packages); err != nil {
		return nil, fmt.Errorf("%w: unmarshal coin packages: %v", ErrRemoteCall, err)
	}
	return packages, nil
}

// PurchaseReward redeems coins for a shop reward through the backend
// procedure. The debit is atomic on the backend; the caller re-fetches
// the balance afterward instead of computing it locally.
func (r *Repository) PurchaseReward(ctx context.Context, actingUserID, rewardID string) error {
	if err := ValidateUserID(actingUserID); err != nil {
		return err
	}
	if err := ValidateID(rewardID); err != nil {
		return err
	}

	_, err := r.client.rpc(ctx, "purchase_reward", map[string]any{
		"p_user_id":   actingUserID,
		"p_reward_id": rewardID,
	})
	if err != nil {
		return fmt.Errorf("%w: purchase reward: %v", ErrRemoteCall, err)
	}
	return nil
}
