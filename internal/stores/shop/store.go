// Package shop caches the coin packages and the acting user's balance,
// and redeems rewards. Like awards, a purchase never computes the new
// balance locally; it re-fetches it after the backend commits the
// debit.
package shop

import (
	"context"
	"sync"

	"github.com/roastlabs/roastapp-client/internal/database"
	"github.com/roastlabs/roastapp-client/internal/logging"
)

// Gateway is the slice of the repository the store depends on.
type Gateway interface {
	ListCoinPackages(ctx context.Context) ([]database.CoinPackage, error)
	GetCoinBalance(ctx context.Context, userID string) (int, error)
	PurchaseReward(ctx context.Context, actingUserID, rewardID string) error
}

// Store holds the shop catalog and balance.
type Store struct {
	gw           Gateway
	logger       logging.Logger
	actingUserID string

	mu       sync.RWMutex
	packages []database.CoinPackage
	balance  int
	loading  bool
	errMsg   string
}

// NewStore creates an empty shop store for the acting user.
func NewStore(gw Gateway, logger logging.Logger, actingUserID string) *Store {
	return &Store{gw: gw, logger: logger, actingUserID: actingUserID}
}

// Packages returns a snapshot of the coin packages.
func (s *Store) Packages() []database.CoinPackage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.CoinPackage, len(s.packages))
	copy(out, s.packages)
	return out
}

// Balance returns the last balance fetched from the backend.
func (s *Store) Balance() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance
}

// Loading reports whether a fetch or purchase is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last recorded error message.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Fetch loads the package catalog and the current balance.
func (s *Store) Fetch(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	packages, err := s.gw.ListCoinPackages(ctx)
	if err != nil {
		s.setError(err)
		return err
	}
	balance, err := s.gw.GetCoinBalance(ctx, s.actingUserID)
	if err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	s.packages = packages
	s.balance = balance
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// Purchase redeems a reward. The backend debit is atomic; on success
// the balance is re-fetched, and a failed re-fetch only logs because
// the purchase itself went through.
func (s *Store) Purchase(ctx context.Context, rewardID string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.gw.PurchaseReward(ctx, s.actingUserID, rewardID); err != nil {
		s.setError(err)
		return err
	}

	balance, err := s.gw.GetCoinBalance(ctx, s.actingUserID)
	if err != nil {
		s.logger.Warn("balance re-fetch after purchase failed", "reward", rewardID, "err", err)
		return nil
	}
	s.mu.Lock()
	s.balance = balance
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	s.errMsg = err.Error()
	s.mu.Unlock()
}
