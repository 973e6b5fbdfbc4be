package progress

import (
	"context"

	"github.com/lisanmuaddib/hyperfarm/pkg/actions"
	"github.com/lisanmuaddib/hyperfarm/pkg/db/models"
)

// Counts maps each action type to how many times the wallet has completed it
type Counts map[actions.Type]int

// Source reports completed actions for a wallet
type Source interface {
	Counts(ctx context.Context, w *models.Wallet) (Counts, error)
}

// Targets returns the wallet's target counts keyed the same way as Counts
func Targets(w *models.Wallet) Counts {
	return Counts{
		actions.MintBridgeHFT:  w.HMerk,
		actions.MintBridgeHNFT: w.HNFT,
	}
}

// StoreSource reads the done counters the scheduler keeps on each wallet row
type StoreSource struct{}

func (StoreSource) Counts(_ context.Context, w *models.Wallet) (Counts, error) {
	return Counts{
		actions.MintBridgeHFT:  w.HMerkDone,
		actions.MintBridgeHNFT: w.HNFTDone,
	}, nil
}
