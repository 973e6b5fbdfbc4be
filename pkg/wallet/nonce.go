package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type nonceKey struct {
	network NetworkType
	address common.Address
}

// NonceManager tracks nonces handed out but not yet released, per network and
// address, so concurrent submissions from one wallet never reuse a nonce.
// A single manager is shared by every client the farm dials.
type NonceManager struct {
	pending map[nonceKey]map[uint64]time.Time
	mu      sync.Mutex
}

// NewNonceManager creates a new nonce manager instance.
func NewNonceManager() *NonceManager {
	return &NonceManager{
		pending: make(map[nonceKey]map[uint64]time.Time),
	}
}

// GetNonce returns the next nonce for the client's wallet that is neither
// known to the node nor pending locally.
func (nm *NonceManager) GetNonce(ctx context.Context, client *Client) (uint64, error) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	nonce, err := client.eth.PendingNonceAt(ctx, client.address)
	if err != nil {
		return 0, NewWalletError(ErrCodeRPCError, "failed to get nonce", err, client.config.Type)
	}

	key := nonceKey{network: client.config.Type, address: client.address}
	if nm.pending[key] == nil {
		nm.pending[key] = make(map[uint64]time.Time)
	}

	for {
		if _, isPending := nm.pending[key][nonce]; !isPending {
			nm.pending[key][nonce] = time.Now()
			return nonce, nil
		}
		nonce++
	}
}

// ReleaseNonce releases a previously issued nonce.
// Call it once the transaction is mined or rejected.
func (nm *NonceManager) ReleaseNonce(network NetworkType, address common.Address, nonce uint64) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	key := nonceKey{network: network, address: address}
	if nm.pending[key] != nil {
		delete(nm.pending[key], nonce)
		if len(nm.pending[key]) == 0 {
			delete(nm.pending, key)
		}
	}
}
