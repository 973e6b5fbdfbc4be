// Package store persists farmed wallets through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
)

// ErrNotFound is returned when a lookup matches no wallet
var ErrNotFound = errors.New("wallet not found")

// WalletStore reads and writes wallet rows
type WalletStore struct {
	mu     sync.RWMutex
	logger *logrus.Logger
	db     *gorm.DB
}

// NewWalletStore wraps an open database handle
func NewWalletStore(logger *logrus.Logger, db *gorm.DB) *WalletStore {
	return &WalletStore{
		logger: logger,
		db:     db,
	}
}

// ListDue returns wallets in status whose timer for that status is at or
// before the given epoch second, oldest first
func (s *WalletStore) ListDue(ctx context.Context, status models.Status, before int64) ([]*models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	column := "next_activity_action_time"
	if status == models.StatusInitial {
		column = "next_initial_action_time"
	}

	var wallets []*models.Wallet
	err := s.db.WithContext(ctx).
		Where("status = ? AND "+column+" <= ?", status, before).
		Order(column + " ASC").
		Find(&wallets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due wallets: %w", err)
	}
	return wallets, nil
}

// ListAll returns every wallet, or every wallet in status when status is set
func (s *WalletStore) ListAll(ctx context.Context, status models.Status) ([]*models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := s.db.WithContext(ctx).Order("id ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var wallets []*models.Wallet
	if err := q.Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return wallets, nil
}

// Commit persists the mutable fields of the given wallets in one transaction
func (s *WalletStore) Commit(ctx context.Context, wallets ...*models.Wallet) error {
	if len(wallets) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, w := range wallets {
			if !w.Status.Valid() {
				return fmt.Errorf("wallet %d: invalid status %q", w.ID, w.Status)
			}
			err := tx.Model(&models.Wallet{}).Where("id = ?", w.ID).Updates(map[string]interface{}{
				"address":                   w.Address,
				"name":                      w.Name,
				"proxy":                     w.Proxy,
				"h_merk_done":               w.HMerkDone,
				"h_nft_done":                w.HNFTDone,
				"status":                    w.Status,
				"next_initial_action_time":  w.NextInitialActionTime,
				"next_activity_action_time": w.NextActivityActionTime,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to commit wallet %d: %w", w.ID, err)
			}
		}
		return nil
	})
}

// Insert adds a wallet. A wallet whose private key or address is already
// stored is left untouched and reported through the returned bool.
func (s *WalletStore) Insert(ctx context.Context, w *models.Wallet) (bool, error) {
	if !w.Status.Valid() {
		return false, fmt.Errorf("invalid status %q", w.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(w)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert wallet: %w", res.Error)
	}

	s.logger.WithFields(logrus.Fields{
		"address":  w.Address,
		"inserted": res.RowsAffected > 0,
	}).Debug("Insert wallet")

	return res.RowsAffected > 0, nil
}

// GetByAddress looks up a wallet by its checksum address
func (s *WalletStore) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var w models.Wallet
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

// UpdateName renames a wallet
func (s *WalletStore) UpdateName(ctx context.Context, id uint, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.WithContext(ctx).Model(&models.Wallet{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return fmt.Errorf("failed to update wallet name: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the wallets with the given addresses and returns how many
// rows were removed
func (s *WalletStore) Delete(ctx context.Context, addresses ...string) (int64, error) {
	if len(addresses) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.WithContext(ctx).Where("address IN ?", addresses).Delete(&models.Wallet{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete wallets: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteAll removes every wallet
func (s *WalletStore) DeleteAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Wallet{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete wallets: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Requeue moves wallets in from back to Initial, due at the given time
func (s *WalletStore) Requeue(ctx context.Context, from models.Status, at int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("status = ?", from).
		Updates(map[string]interface{}{
			"status":                   models.StatusInitial,
			"next_initial_action_time": at,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to requeue wallets: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Count returns the number of wallets per status
func (s *WalletStore) Count(ctx context.Context) (map[models.Status]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []struct {
		Status models.Status
		Total  int64
	}
	err := s.db.WithContext(ctx).Model(&models.Wallet{}).
		Select("status, count(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count wallets: %w", err)
	}

	out := make(map[models.Status]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Total
	}
	return out, nil
}
