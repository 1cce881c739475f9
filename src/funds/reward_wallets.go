package funds

import (
	"sync"

	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/routing"
)

// RewardWallets is the registry of node identity to payout wallet and age.
// Ages are sourced from live membership at write time, never from the caller
// of a registration message, so an entry is never overwritten with stale age
// information.
type RewardWallets struct {
	sync.RWMutex
	wallets map[routing.XorName]data.NodeWallet
}

// NewRewardWallets returns an empty registry.
func NewRewardWallets() *RewardWallets {
	return &RewardWallets{
		wallets: map[routing.XorName]data.NodeWallet{},
	}
}

// SetNodeWallet registers or updates the wallet of a section member.
func (r *RewardWallets) SetNodeWallet(node routing.XorName, wallet routing.PublicKey, age uint8) {
	r.Lock()
	defer r.Unlock()
	r.wallets[node] = data.NodeWallet{Key: wallet, Age: age}
}

// RemoveNodeWallet evicts the entry of a departed member.
func (r *RewardWallets) RemoveNodeWallet(node routing.XorName) {
	r.Lock()
	defer r.Unlock()
	delete(r.wallets, node)
}

// Get returns the entry for a node, if registered.
func (r *RewardWallets) Get(node routing.XorName) (data.NodeWallet, bool) {
	r.RLock()
	defer r.RUnlock()
	w, ok := r.wallets[node]
	return w, ok
}

// All returns a copy of the registry contents.
func (r *RewardWallets) All() map[routing.XorName]data.NodeWallet {
	r.RLock()
	defer r.RUnlock()
	out := make(map[routing.XorName]data.NodeWallet, len(r.wallets))
	for name, w := range r.wallets {
		out[name] = w
	}
	return out
}

// Len returns the number of registered wallets.
func (r *RewardWallets) Len() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.wallets)
}
