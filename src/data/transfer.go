package data

import (
	"encoding/hex"

	"github.com/vaultnet/vaultnode/src/routing"
)

// Transfer is a movement of tokens between two wallets.
type Transfer struct {
	ID     [32]byte
	From   routing.PublicKey
	To     routing.PublicKey
	Amount Token
}

// SignableBytes returns the canonical bytes the debiting wallet owner signs.
func (t Transfer) SignableBytes() ([]byte, error) {
	return CanonicalBytes(struct {
		ID     string
		From   string
		To     string
		Amount uint64
	}{hex.EncodeToString(t.ID[:]), t.From.Hex(), t.To.Hex(), uint64(t.Amount)})
}

// SignedTransfer is a transfer signed by the debiting wallet owner. Signature
// validation belongs to the ledger collaborator.
type SignedTransfer struct {
	Transfer Transfer
	Sig      []byte
}

// TransferProof is a section-certified transfer, as produced by the ledger
// collaborator once a transfer has been validated and registered.
type TransferProof struct {
	Transfer   SignedTransfer
	SectionSig []byte
	SectionKey routing.PublicKey
}

// WalletHistory is the replicated state of one wallet, exchanged between
// Elder sets when section state is synchronized.
type WalletHistory struct {
	Key     routing.PublicKey
	Balance Token
	Version int
}

// ReplicaEvent is an opaque event from the ledger replica's log, replayed to
// new Elders when they take over the ledger.
type ReplicaEvent struct {
	Payload []byte
}
