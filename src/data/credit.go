package data

import (
	"encoding/hex"

	"github.com/vaultnet/vaultnode/src/routing"
)

// Token is an amount of network currency, in indivisible units.
type Token uint64

// CreditId identifies a credit. It is derived deterministically from the
// credit's content, so independent Elders proposing the same reward split
// produce the same ids.
type CreditId [32]byte

// Hex returns the full hexadecimal representation of the id.
func (id CreditId) Hex() string {
	return hex.EncodeToString(id[:])
}

// String returns a short form of the id for logging.
func (id CreditId) String() string {
	return hex.EncodeToString(id[:4])
}

// Credit is an entitlement to a reward payment: an amount payable to the
// wallet identified by Recipient.
type Credit struct {
	ID        CreditId
	Recipient routing.PublicKey
	Amount    Token
	Msg       string
}

// creditContent is the signable content of a credit. The seed ties the id to
// the churn event that produced it, so credits from distinct rounds never
// collide.
type creditContent struct {
	Recipient string
	Amount    uint64
	Msg       string
	Seed      string
}

// NewCredit builds a credit with its deterministic id. The seed names are
// typically the section key name and the recipient name of the churn round.
func NewCredit(recipient routing.PublicKey, amount Token, msg string, seed ...routing.XorName) (Credit, error) {
	content := creditContent{
		Recipient: recipient.Hex(),
		Amount:    uint64(amount),
		Msg:       msg,
		Seed:      routing.CombineID(seed...).String(),
	}
	raw, err := CanonicalBytes(content)
	if err != nil {
		return Credit{}, err
	}
	return Credit{
		ID:        CreditId(routing.HashedName(raw)),
		Recipient: recipient,
		Amount:    amount,
		Msg:       msg,
	}, nil
}

// SignableBytes returns the canonical bytes Elders sign when accumulating
// evidence for this credit.
func (c Credit) SignableBytes() ([]byte, error) {
	return CanonicalBytes(struct {
		ID        string
		Recipient string
		Amount    uint64
		Msg       string
	}{c.ID.Hex(), c.Recipient.Hex(), uint64(c.Amount), c.Msg})
}

// CreditAgreementProof is a quorum-certified credit: the credit itself plus
// the evidence shares of the agreeing Elders, keyed by signer name hex. It is
// immutable once constructed and verifiable by the ledger collaborator.
type CreditAgreementProof struct {
	Credit Credit
	Shares map[string][]byte
}

// CreditProofs maps credit ids to their agreement proofs.
type CreditProofs map[CreditId]CreditAgreementProof

// Sum returns the total amount across all proofs. It is only used for
// observability.
func (p CreditProofs) Sum() Token {
	var total Token
	for _, proof := range p {
		total += proof.Credit.Amount
	}
	return total
}

// Clone returns a shallow copy of the proofs map.
func (p CreditProofs) Clone() CreditProofs {
	out := make(CreditProofs, len(p))
	for id, proof := range p {
		out[id] = proof
	}
	return out
}

// NodeWallet is a reward registry entry: the payout wallet of a node and the
// node's age at registration time.
type NodeWallet struct {
	Key routing.PublicKey
	Age uint8
}
