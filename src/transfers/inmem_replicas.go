package transfers

import (
	"fmt"
	"sync"

	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/keys"
	"github.com/vaultnet/vaultnode/src/routing"
)

// walletState is one wallet's replicated ledger state.
type walletState struct {
	balance data.Token
	version int
	history []data.TransferProof
}

// InmemReplicas is an in-memory implementation of the Replicas contract. It
// keeps wallet balances, per-wallet transfer history and an append-only event
// log in maps guarded by a mutex. Suitable for single-node deployments and
// tests; a distributed ledger implements the same interface.
type InmemReplicas struct {
	sync.Mutex

	sectionKey routing.PublicKey
	sign       func([]byte) ([]byte, error)

	wallets map[string]*walletState
	applied map[[32]byte]struct{}
	events  []data.ReplicaEvent
}

// NewInmemReplicas returns an empty ledger replica. The sign function
// produces this replica's validation signatures.
func NewInmemReplicas(sectionKey routing.PublicKey, sign func([]byte) ([]byte, error)) *InmemReplicas {
	return &InmemReplicas{
		sectionKey: sectionKey,
		sign:       sign,
		wallets:    map[string]*walletState{},
		applied:    map[[32]byte]struct{}{},
	}
}

// Validate implements Replicas. The transfer must be well formed, carry a
// valid debit signature, and the debiting wallet must cover the amount.
func (r *InmemReplicas) Validate(transfer data.SignedTransfer) ([]byte, error) {
	r.Lock()
	defer r.Unlock()

	if transfer.Transfer.Amount == 0 {
		return nil, fmt.Errorf("zero amount transfer")
	}

	signable, err := transfer.Transfer.SignableBytes()
	if err != nil {
		return nil, err
	}
	pub := keys.ToPublicKey(transfer.Transfer.From)
	if pub == nil {
		return nil, fmt.Errorf("unparseable debit key %s", transfer.Transfer.From)
	}
	if !keys.Verify(pub, signable, transfer.Sig) {
		return nil, fmt.Errorf("invalid debit signature on transfer %x", transfer.Transfer.ID[:4])
	}

	w := r.wallets[transfer.Transfer.From.Hex()]
	if w == nil || w.balance < transfer.Transfer.Amount {
		return nil, fmt.Errorf("insufficient balance in %s", transfer.Transfer.From)
	}

	return r.sign(signable)
}

// Register implements Replicas. Applying the same proof twice is a no-op.
func (r *InmemReplicas) Register(proof data.TransferProof) error {
	r.Lock()
	defer r.Unlock()

	transfer := proof.Transfer.Transfer
	if _, ok := r.applied[transfer.ID]; ok {
		return nil
	}

	from := r.wallet(transfer.From)
	if from.balance < transfer.Amount {
		return fmt.Errorf("insufficient balance in %s", transfer.From)
	}
	from.balance -= transfer.Amount
	from.version++
	from.history = append(from.history, proof)

	to := r.wallet(transfer.To)
	to.balance += transfer.Amount
	to.version++
	to.history = append(to.history, proof)

	r.applied[transfer.ID] = struct{}{}
	return r.appendEvent(proof)
}

// ReceivePropagated implements Replicas. Re-delivery of a credit proof is a
// no-op, keyed by the deterministic credit id.
func (r *InmemReplicas) ReceivePropagated(proof data.CreditAgreementProof) error {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.applied[proof.Credit.ID]; ok {
		return nil
	}

	w := r.wallet(proof.Credit.Recipient)
	w.balance += proof.Credit.Amount
	w.version++

	r.applied[proof.Credit.ID] = struct{}{}
	return r.appendEvent(proof)
}

// Balance implements Replicas. Unknown wallets have a zero balance.
func (r *InmemReplicas) Balance(wallet routing.PublicKey) (data.Token, error) {
	r.Lock()
	defer r.Unlock()

	if w := r.wallets[wallet.Hex()]; w != nil {
		return w.balance, nil
	}
	return 0, nil
}

// History implements Replicas.
func (r *InmemReplicas) History(wallet routing.PublicKey, sinceVersion int) ([]data.TransferProof, error) {
	r.Lock()
	defer r.Unlock()

	w := r.wallets[wallet.Hex()]
	if w == nil || sinceVersion >= len(w.history) {
		return []data.TransferProof{}, nil
	}
	if sinceVersion < 0 {
		sinceVersion = 0
	}
	out := make([]data.TransferProof, len(w.history)-sinceVersion)
	copy(out, w.history[sinceVersion:])
	return out, nil
}

// AllEvents implements Replicas.
func (r *InmemReplicas) AllEvents() ([]data.ReplicaEvent, error) {
	r.Lock()
	defer r.Unlock()

	out := make([]data.ReplicaEvent, len(r.events))
	copy(out, r.events)
	return out, nil
}

// CreditWithoutProof implements Replicas. Test networks only.
func (r *InmemReplicas) CreditWithoutProof(transfer data.Transfer) error {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.applied[transfer.ID]; ok {
		return nil
	}
	w := r.wallet(transfer.To)
	w.balance += transfer.Amount
	w.version++
	r.applied[transfer.ID] = struct{}{}
	return nil
}

// UpdateReplicaKeys implements Replicas.
func (r *InmemReplicas) UpdateReplicaKeys(sectionKey routing.PublicKey) error {
	r.Lock()
	defer r.Unlock()

	r.sectionKey = sectionKey
	return nil
}

// MergeUserWallets implements Replicas. A pushed history wins only when its
// version is ahead of ours, so the merge is idempotent and order-independent.
func (r *InmemReplicas) MergeUserWallets(wallets []data.WalletHistory) error {
	r.Lock()
	defer r.Unlock()

	for _, h := range wallets {
		w := r.wallets[h.Key.Hex()]
		if w == nil {
			r.wallets[h.Key.Hex()] = &walletState{balance: h.Balance, version: h.Version}
			continue
		}
		if h.Version > w.version {
			w.balance = h.Balance
			w.version = h.Version
		}
	}
	return nil
}

// UserWallets implements Replicas.
func (r *InmemReplicas) UserWallets() []data.WalletHistory {
	r.Lock()
	defer r.Unlock()

	out := make([]data.WalletHistory, 0, len(r.wallets))
	for key, w := range r.wallets {
		pk, err := routing.PublicKeyFromHex(key)
		if err != nil {
			continue
		}
		out = append(out, data.WalletHistory{Key: pk, Balance: w.balance, Version: w.version})
	}
	return out
}

// wallet returns the state for a key, creating it on first touch. Callers
// hold the lock.
func (r *InmemReplicas) wallet(key routing.PublicKey) *walletState {
	w := r.wallets[key.Hex()]
	if w == nil {
		w = &walletState{}
		r.wallets[key.Hex()] = w
	}
	return w
}

// appendEvent records a mutation in the replay log. Callers hold the lock.
func (r *InmemReplicas) appendEvent(v interface{}) error {
	raw, err := data.CanonicalBytes(v)
	if err != nil {
		return err
	}
	r.events = append(r.events, data.ReplicaEvent{Payload: raw})
	return nil
}
