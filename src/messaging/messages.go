package messaging

import (
	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/routing"
	"github.com/vaultnet/vaultnode/src/section"
)

// Chunk and metadata exchanges.

// ForwardedChunkRead carries a chunk read to the section responsible for the
// address, when it did not fall under the receiving node's prefix.
type ForwardedChunkRead struct {
	Read   data.ChunkRead
	Origin EndUser
}

// Kind implements Message.
func (ForwardedChunkRead) Kind() string { return "ForwardedChunkRead" }

// ForwardedDataQuery carries a metadata query to the responsible section.
type ForwardedDataQuery struct {
	Query  data.Query
	Origin EndUser
}

// Kind implements Message.
func (ForwardedDataQuery) Kind() string { return "ForwardedDataQuery" }

// DataResponse answers a chunk read or metadata query.
type DataResponse struct {
	Chunk         *data.Chunk
	Holders       []routing.XorName
	Error         string
	CorrelationID routing.MessageID
}

// Kind implements Message.
func (DataResponse) Kind() string { return "DataResponse" }

// RequestChunk asks a current holder to send a chunk to a new holder as part
// of replication.
type RequestChunk struct {
	Address   routing.XorName
	NewHolder routing.XorName
}

// Kind implements Message.
func (RequestChunk) Kind() string { return "RequestChunk" }

// ReplicateChunk delivers chunk bytes to their new holder. The envelope id is
// the correlation id the holder re-derives before storing.
type ReplicateChunk struct {
	Chunk data.Chunk
}

// Kind implements Message.
func (ReplicateChunk) Kind() string { return "ReplicateChunk" }

// StoreChunk instructs an Adult to store a newly written chunk.
type StoreChunk struct {
	Chunk data.Chunk
}

// Kind implements Message.
func (StoreChunk) Kind() string { return "StoreChunk" }

// StorageFull notifies the section Elders that an Adult has reached its
// storage capacity.
type StorageFull struct {
	Node routing.XorName
}

// Kind implements Message.
func (StorageFull) Kind() string { return "StorageFull" }

// Reward churn exchanges.

// RewardProposal is one Elder's signed proposal of a reward split.
type RewardProposal struct {
	SectionKey routing.PublicKey
	Proposer   routing.XorName
	Credits    []data.Credit
	Sig        []byte
}

// Kind implements Message.
func (RewardProposal) Kind() string { return "RewardProposal" }

// CreditShare is one Elder's evidence toward a single credit.
type CreditShare struct {
	ID    data.CreditId
	Share []byte
}

// RewardAccumulation carries one Elder's evidence shares, one per credit in
// the agreed split.
type RewardAccumulation struct {
	SectionKey routing.PublicKey
	Signer     routing.XorName
	Shares     []CreditShare
}

// Kind implements Message.
func (RewardAccumulation) Kind() string { return "RewardAccumulation" }

// PropagateCredit delivers a finalized credit proof to the payee's home
// section. Each proof travels independently so partial delivery failure of
// one does not block the others.
type PropagateCredit struct {
	Proof data.CreditAgreementProof
}

// Kind implements Message.
func (PropagateCredit) Kind() string { return "PropagateCredit" }

// WalletRegistration is a node's request to register its payout wallet with
// its section.
type WalletRegistration struct {
	Node   routing.XorName
	Wallet routing.PublicKey
	Origin EndUser
}

// Kind implements Message.
func (WalletRegistration) Kind() string { return "WalletRegistration" }

// NodeWalletKeyResponse returns the wallet key a node has registered for
// rewards.
type NodeWalletKeyResponse struct {
	Wallet        routing.PublicKey
	CorrelationID routing.MessageID
}

// Kind implements Message.
func (NodeWalletKeyResponse) Kind() string { return "NodeWalletKeyResponse" }

// Section state exchanges.

// NodeWalletEntry pairs a node name with its registered wallet.
type NodeWalletEntry struct {
	Name   routing.XorName
	Wallet data.NodeWallet
}

// StateSync pushes the section's replicated reward and wallet state to a new
// Elder set. Retransmissions of the same churn carry the same envelope id, so
// receivers can deduplicate.
type StateSync struct {
	NodeWallets []NodeWalletEntry
	UserWallets []data.WalletHistory
}

// Kind implements Message.
func (StateSync) Kind() string { return "StateSync" }

// SectionEldersQuery asks a section for its Elder set.
type SectionEldersQuery struct {
	Origin EndUser
}

// Kind implements Message.
func (SectionEldersQuery) Kind() string { return "SectionEldersQuery" }

// SectionEldersResponse answers a SectionEldersQuery.
type SectionEldersResponse struct {
	Elders        section.Elders
	CorrelationID routing.MessageID
}

// Kind implements Message.
func (SectionEldersResponse) Kind() string { return "SectionEldersResponse" }

// Transfer exchanges. The payloads are produced by the ledger collaborator;
// these messages only ship them.

// TransferValidated returns a replica's validation signature to the client.
type TransferValidated struct {
	Transfer      data.SignedTransfer
	ReplicaSig    []byte
	Error         string
	CorrelationID routing.MessageID
}

// Kind implements Message.
func (TransferValidated) Kind() string { return "TransferValidated" }

// TransferRegistered confirms registration of a transfer proof.
type TransferRegistered struct {
	Proof         data.TransferProof
	Error         string
	CorrelationID routing.MessageID
}

// Kind implements Message.
func (TransferRegistered) Kind() string { return "TransferRegistered" }

// TransferHistory returns a wallet's transfer history.
type TransferHistory struct {
	History       []data.TransferProof
	CorrelationID routing.MessageID
}

// Kind implements Message.
func (TransferHistory) Kind() string { return "TransferHistory" }

// BalanceResponse returns a wallet balance.
type BalanceResponse struct {
	Balance       data.Token
	CorrelationID routing.MessageID
}

// Kind implements Message.
func (BalanceResponse) Kind() string { return "BalanceResponse" }

// StoreCostResponse returns the current cost of storing a number of bytes.
type StoreCostResponse struct {
	Cost          data.Token
	Bytes         uint64
	CorrelationID routing.MessageID
}

// Kind implements Message.
func (StoreCostResponse) Kind() string { return "StoreCostResponse" }

// ReplicaEventsResponse returns the ledger replica's event log.
type ReplicaEventsResponse struct {
	Events        []data.ReplicaEvent
	CorrelationID routing.MessageID
}

// Kind implements Message.
func (ReplicaEventsResponse) Kind() string { return "ReplicaEventsResponse" }
