package models

import (
	"time"
)

// Status represents where a wallet is in its farming lifecycle
type Status string

const (
	StatusInitial    Status = "initial"
	StatusActivity   Status = "activity"
	StatusNotStarted Status = "not started"
	StatusWithdrawn  Status = "withdrawn"
	StatusBridged    Status = "bridged"
)

// Statuses lists every status in display order
var Statuses = []Status{
	StatusInitial,
	StatusActivity,
	StatusNotStarted,
	StatusWithdrawn,
	StatusBridged,
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Wallet represents the database model for a farmed wallet
type Wallet struct {
	ID         uint   `gorm:"primaryKey;column:id"`
	PrivateKey string `gorm:"column:private_key;uniqueIndex;not null"`
	Address    string `gorm:"column:address;uniqueIndex;not null"`
	Name       string `gorm:"column:name"`
	Proxy      string `gorm:"column:proxy"`

	// Targets, fixed at import
	HMerk int `gorm:"column:h_merk;not null;default:0"`
	HNFT  int `gorm:"column:h_nft;not null;default:0"`

	// Completed actions recorded after successful bridges
	HMerkDone int `gorm:"column:h_merk_done;not null;default:0"`
	HNFTDone  int `gorm:"column:h_nft_done;not null;default:0"`

	// Scheduling
	Status                 Status `gorm:"column:status;type:text;not null;default:initial;index"`
	NextInitialActionTime  int64  `gorm:"column:next_initial_action_time;not null;default:0"`
	NextActivityActionTime int64  `gorm:"column:next_activity_action_time;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for the Wallet model
func (Wallet) TableName() string {
	return "wallets"
}

// NextActionTime returns the timer that governs the wallet's current status
func (w *Wallet) NextActionTime() int64 {
	if w.Status == StatusInitial {
		return w.NextInitialActionTime
	}
	return w.NextActivityActionTime
}

// Done reports whether every target has been reached
func (w *Wallet) Done() bool {
	return w.HMerkDone >= w.HMerk && w.HNFTDone >= w.HNFT
}
