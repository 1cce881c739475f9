package duties

import (
	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/messaging"
	"github.com/vaultnet/vaultnode/src/routing"
)

// Duty is one unit of work for the node's dispatcher. The set of variants is
// closed: every variant has exactly one handling branch, and handlers return
// an ordered list of follow-up duties that the outer runtime loop drains
// breadth-first.
type Duty interface {
	// String names the variant for logging.
	String() string

	// duty seals the vocabulary.
	duty()
}

// Role and lifecycle duties.

// Genesis bootstraps the very first Elder of the network.
type Genesis struct{}

func (Genesis) String() string { return "Genesis" }
func (Genesis) duty()          {}

// EldersChanged reacts to a change of the section's Elder set. Newbie is true
// when this node was promoted into the set by the change.
type EldersChanged struct {
	OurKey    routing.PublicKey
	OurPrefix routing.Prefix
	Newbie    bool
}

func (EldersChanged) String() string { return "EldersChanged" }
func (EldersChanged) duty()          {}

// SectionSplit reacts to the section splitting in two. Newbie is true when
// this node now belongs to the brand-new section.
type SectionSplit struct {
	OurKey     routing.PublicKey
	OurPrefix  routing.Prefix
	SiblingKey routing.PublicKey
	Newbie     bool
}

func (SectionSplit) String() string { return "SectionSplit" }
func (SectionSplit) duty()          {}

// LevelDown demotes the node from Elder to Adult.
type LevelDown struct{}

func (LevelDown) String() string { return "LevelDown" }
func (LevelDown) duty()          {}

// SynchState merges replicated section state pushed by the previous Elder
// set.
type SynchState struct {
	NodeWallets map[routing.XorName]data.NodeWallet
	UserWallets []data.WalletHistory
}

func (SynchState) String() string { return "SynchState" }
func (SynchState) duty()          {}

// GetSectionElders answers a remote section asking who manages a wallet.
type GetSectionElders struct {
	MsgID  routing.MessageID
	Origin messaging.EndUser
}

func (GetSectionElders) String() string { return "GetSectionElders" }
func (GetSectionElders) duty()          {}

// Membership duties.

// ProcessNewMember registers a node that joined the section for the first
// time.
type ProcessNewMember struct {
	Name routing.XorName
}

func (ProcessNewMember) String() string { return "ProcessNewMember" }
func (ProcessNewMember) duty()          {}

// ProcessLostMember evicts a departed member's wallet entry and re-replicates
// the chunks it held.
type ProcessLostMember struct {
	Name routing.XorName
	Age  uint8
}

func (ProcessLostMember) String() string { return "ProcessLostMember" }
func (ProcessLostMember) duty()          {}

// ProcessRelocatedMember registers a member that arrived from another
// section under a new identity.
type ProcessRelocatedMember struct {
	OldName routing.XorName
	NewName routing.XorName
	Age     uint8
}

func (ProcessRelocatedMember) String() string { return "ProcessRelocatedMember" }
func (ProcessRelocatedMember) duty()          {}

// Reward duties.

// ReceiveRewardProposal feeds a peer Elder's churn proposal into the open
// reward round.
type ReceiveRewardProposal struct {
	Proposal messaging.RewardProposal
}

func (ReceiveRewardProposal) String() string { return "ReceiveRewardProposal" }
func (ReceiveRewardProposal) duty()          {}

// ReceiveRewardAccumulation feeds a peer Elder's evidence shares into the
// open reward round.
type ReceiveRewardAccumulation struct {
	Accumulation messaging.RewardAccumulation
}

func (ReceiveRewardAccumulation) String() string { return "ReceiveRewardAccumulation" }
func (ReceiveRewardAccumulation) duty()          {}

// SetNodeWallet registers a section member's payout wallet.
type SetNodeWallet struct {
	WalletID routing.PublicKey
	NodeID   routing.XorName
	MsgID    routing.MessageID
	Origin   messaging.EndUser
}

func (SetNodeWallet) String() string { return "SetNodeWallet" }
func (SetNodeWallet) duty()          {}

// GetNodeWalletKey queries a node's registered wallet key.
type GetNodeWalletKey struct {
	NodeName routing.XorName
	MsgID    routing.MessageID
	Origin   messaging.EndUser
}

func (GetNodeWalletKey) String() string { return "GetNodeWalletKey" }
func (GetNodeWalletKey) duty()          {}

// AddPayment records a credit arriving for the next reward round.
type AddPayment struct {
	Credit data.CreditAgreementProof
}

func (AddPayment) String() string { return "AddPayment" }
func (AddPayment) duty()          {}

// Transfer duties.

// GetTransferReplicaEvents replays the ledger replica's event log.
type GetTransferReplicaEvents struct {
	MsgID  routing.MessageID
	Origin messaging.EndUser
}

func (GetTransferReplicaEvents) String() string { return "GetTransferReplicaEvents" }
func (GetTransferReplicaEvents) duty()          {}

// PropagateTransfer applies a credit proof issued by another section.
type PropagateTransfer struct {
	Proof  data.CreditAgreementProof
	MsgID  routing.MessageID
	Origin messaging.EndUser
}

func (PropagateTransfer) String() string { return "PropagateTransfer" }
func (PropagateTransfer) duty()          {}

// ValidateClientTransfer validates a client's signed transfer.
type ValidateClientTransfer struct {
	SignedTransfer data.SignedTransfer
	MsgID          routing.MessageID
	Origin         messaging.EndUser
}

func (ValidateClientTransfer) String() string { return "ValidateClientTransfer" }
func (ValidateClientTransfer) duty()          {}

// RegisterTransfer registers a validated transfer proof with the ledger.
type RegisterTransfer struct {
	Proof data.TransferProof
	MsgID routing.MessageID
}

func (RegisterTransfer) String() string { return "RegisterTransfer" }
func (RegisterTransfer) duty()          {}

// GetTransfersHistory queries a wallet's transfer history.
type GetTransfersHistory struct {
	At           routing.PublicKey
	SinceVersion int
	MsgID        routing.MessageID
	Origin       messaging.EndUser
}

func (GetTransfersHistory) String() string { return "GetTransfersHistory" }
func (GetTransfersHistory) duty()          {}

// GetBalance queries a wallet balance.
type GetBalance struct {
	At     routing.PublicKey
	MsgID  routing.MessageID
	Origin messaging.EndUser
}

func (GetBalance) String() string { return "GetBalance" }
func (GetBalance) duty()          {}

// GetStoreCost quotes the cost of storing a number of bytes.
type GetStoreCost struct {
	Requester routing.PublicKey
	Bytes     uint64
	MsgID     routing.MessageID
	Origin    messaging.EndUser
}

func (GetStoreCost) String() string { return "GetStoreCost" }
func (GetStoreCost) duty()          {}

// SimulatePayout credits a wallet without proof. Test networks only.
type SimulatePayout struct {
	Transfer data.Transfer
	MsgID    routing.MessageID
	Origin   messaging.EndUser
}

func (SimulatePayout) String() string { return "SimulatePayout" }
func (SimulatePayout) duty()          {}

// ProcessDataPayment validates the payment attached to a client data write
// and credits the section funds.
type ProcessDataPayment struct {
	Payment data.SignedTransfer
	MsgID   routing.MessageID
	Origin  messaging.EndUser
}

func (ProcessDataPayment) String() string { return "ProcessDataPayment" }
func (ProcessDataPayment) duty()          {}

// IncrementFullNodeCount records that an Adult reported a full store, which
// feeds the store cost.
type IncrementFullNodeCount struct {
	NodeID routing.XorName
}

func (IncrementFullNodeCount) String() string { return "IncrementFullNodeCount" }
func (IncrementFullNodeCount) duty()          {}

// Chunk duties.

// ReadChunk serves a chunk read if the address is ours, otherwise forwards
// it.
type ReadChunk struct {
	Read   data.ChunkRead
	MsgID  routing.MessageID
	Origin messaging.EndUser
}

func (ReadChunk) String() string { return "ReadChunk" }
func (ReadChunk) duty()          {}

// WriteChunk stores a chunk on this Adult.
type WriteChunk struct {
	Write  data.ChunkWrite
	MsgID  routing.MessageID
	Origin messaging.EndUser
}

func (WriteChunk) String() string { return "WriteChunk" }
func (WriteChunk) duty()          {}

// ReachingMaxCapacity notifies the section that this Adult's store is full.
type ReachingMaxCapacity struct{}

func (ReachingMaxCapacity) String() string { return "ReachingMaxCapacity" }
func (ReachingMaxCapacity) duty()          {}

// ReplicateChunk makes this node fetch a chunk it was elected to hold.
type ReplicateChunk struct {
	Address        routing.XorName
	CurrentHolders []routing.XorName
	ID             routing.MessageID
}

func (ReplicateChunk) String() string { return "ReplicateChunk" }
func (ReplicateChunk) duty()          {}

// GetChunkForReplication makes this node send a held chunk to its new
// holder.
type GetChunkForReplication struct {
	Address   routing.XorName
	NewHolder routing.XorName
	ID        routing.MessageID
}

func (GetChunkForReplication) String() string { return "GetChunkForReplication" }
func (GetChunkForReplication) duty()          {}

// StoreChunkForReplication stores replicated chunk bytes, provided the
// correlation id matches the expected derivation.
type StoreChunkForReplication struct {
	Chunk         data.Chunk
	CorrelationID routing.MessageID
}

func (StoreChunkForReplication) String() string { return "StoreChunkForReplication" }
func (StoreChunkForReplication) duty()          {}

// Metadata duties.

// ProcessRead serves a metadata query if the address is ours, otherwise
// forwards it.
type ProcessRead struct {
	Query  data.Query
	ID     routing.MessageID
	Origin messaging.EndUser
}

func (ProcessRead) String() string { return "ProcessRead" }
func (ProcessRead) duty()          {}

// ProcessWrite registers a chunk with its elected holders.
type ProcessWrite struct {
	Cmd    data.Cmd
	ID     routing.MessageID
	Origin messaging.EndUser
}

func (ProcessWrite) String() string { return "ProcessWrite" }
func (ProcessWrite) duty()          {}

// Generic duties.

// Send hands a message to the outbound transport.
type Send struct {
	Msg messaging.OutgoingMsg
}

func (Send) String() string { return "Send" }
func (Send) duty()          {}

// SendToNodes hands a message addressed to specific nodes to the outbound
// transport.
type SendToNodes struct {
	Targets []routing.XorName
	Msg     messaging.Message
	ID      routing.MessageID
}

func (SendToNodes) String() string { return "SendToNodes" }
func (SendToNodes) duty()          {}

// SetNodeJoinsAllowed toggles whether the section admits new members.
type SetNodeJoinsAllowed struct {
	Allowed bool
}

func (SetNodeJoinsAllowed) String() string { return "SetNodeJoinsAllowed" }
func (SetNodeJoinsAllowed) duty()          {}

// NoOp does nothing. Dispatching it is the idempotent identity operation.
type NoOp struct{}

func (NoOp) String() string { return "NoOp" }
func (NoOp) duty()          {}
