package transfers

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/duties"
	"github.com/vaultnet/vaultnode/src/messaging"
	"github.com/vaultnet/vaultnode/src/routing"
)

// Replicas is the contract of the external transfer ledger. Balance and
// signature validation internals live behind it; this subsystem only
// orchestrates requests and shapes the responses into duties.
type Replicas interface {
	Validate(transfer data.SignedTransfer) ([]byte, error)
	Register(proof data.TransferProof) error
	ReceivePropagated(proof data.CreditAgreementProof) error
	Balance(wallet routing.PublicKey) (data.Token, error)
	History(wallet routing.PublicKey, sinceVersion int) ([]data.TransferProof, error)
	AllEvents() ([]data.ReplicaEvent, error)
	CreditWithoutProof(transfer data.Transfer) error
	UpdateReplicaKeys(sectionKey routing.PublicKey) error
	MergeUserWallets(wallets []data.WalletHistory) error
	UserWallets() []data.WalletHistory
}

// Transfers is the Elder subsystem fronting the transfer ledger. It exists
// only while the node is an Elder.
type Transfers struct {
	replicas  Replicas
	fullNodes map[routing.XorName]struct{}
	logger    *logrus.Entry
}

// NewTransfers wraps the ledger collaborator.
func NewTransfers(replicas Replicas, logger *logrus.Entry) *Transfers {
	return &Transfers{
		replicas:  replicas,
		fullNodes: map[routing.XorName]struct{}{},
		logger:    logger,
	}
}

// Validate validates a client transfer and returns the replica signature to
// the client.
func (t *Transfers) Validate(transfer data.SignedTransfer, msgID routing.MessageID, origin messaging.EndUser) (duties.Duty, error) {
	response := messaging.TransferValidated{Transfer: transfer, CorrelationID: msgID}
	sig, err := t.replicas.Validate(transfer)
	if err != nil {
		response.Error = err.Error()
	} else {
		response.ReplicaSig = sig
	}
	return t.respond(response, origin), nil
}

// Register registers a validated transfer proof.
func (t *Transfers) Register(proof data.TransferProof, msgID routing.MessageID) (duties.Duty, error) {
	if err := t.replicas.Register(proof); err != nil {
		return nil, fmt.Errorf("registering transfer: %w", err)
	}
	return t.respond(messaging.TransferRegistered{Proof: proof, CorrelationID: msgID},
		messaging.EndUser{Name: proof.Transfer.Transfer.From.Name()}), nil
}

// ReceivePropagated applies a credit proof issued by another section.
func (t *Transfers) ReceivePropagated(proof data.CreditAgreementProof, msgID routing.MessageID, origin messaging.EndUser) (duties.Duty, error) {
	if err := t.replicas.ReceivePropagated(proof); err != nil {
		return nil, fmt.Errorf("receiving propagated credit: %w", err)
	}
	t.logger.WithFields(logrus.Fields{
		"credit": proof.Credit.ID,
		"amount": proof.Credit.Amount,
	}).Info("Propagated credit applied")
	return duties.NoOp{}, nil
}

// Balance answers a wallet balance query.
func (t *Transfers) Balance(wallet routing.PublicKey, msgID routing.MessageID, origin messaging.EndUser) (duties.Duty, error) {
	balance, err := t.replicas.Balance(wallet)
	if err != nil {
		return nil, fmt.Errorf("querying balance: %w", err)
	}
	return t.respond(messaging.BalanceResponse{Balance: balance, CorrelationID: msgID}, origin), nil
}

// History answers a wallet history query.
func (t *Transfers) History(wallet routing.PublicKey, sinceVersion int, msgID routing.MessageID, origin messaging.EndUser) (duties.Duty, error) {
	history, err := t.replicas.History(wallet, sinceVersion)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	return t.respond(messaging.TransferHistory{History: history, CorrelationID: msgID}, origin), nil
}

// AllEvents replays the replica event log to the querying node.
func (t *Transfers) AllEvents(msgID routing.MessageID, origin messaging.EndUser) (duties.Duty, error) {
	events, err := t.replicas.AllEvents()
	if err != nil {
		return nil, fmt.Errorf("querying replica events: %w", err)
	}
	return t.respond(messaging.ReplicaEventsResponse{Events: events, CorrelationID: msgID}, origin), nil
}

// CreditWithoutProof credits a wallet without a proof. Test networks only.
func (t *Transfers) CreditWithoutProof(transfer data.Transfer) (duties.Duty, error) {
	if err := t.replicas.CreditWithoutProof(transfer); err != nil {
		return nil, fmt.Errorf("simulating payout: %w", err)
	}
	return duties.NoOp{}, nil
}

// GetStoreCost quotes the cost of storing the given number of bytes. The
// cost rises with the share of full Adults in the section.
func (t *Transfers) GetStoreCost(bytes uint64, msgID routing.MessageID, origin messaging.EndUser) []duties.Duty {
	cost := t.storeCost(bytes)
	return []duties.Duty{
		t.respond(messaging.StoreCostResponse{Cost: cost, Bytes: bytes, CorrelationID: msgID}, origin),
	}
}

// ProcessPayment validates the payment attached to a client data write. On
// success it emits the follow-up duty crediting the section funds with the
// payment, plus the validation response to the client.
func (t *Transfers) ProcessPayment(payment data.SignedTransfer, msgID routing.MessageID, origin messaging.EndUser) ([]duties.Duty, error) {
	response := messaging.TransferValidated{Transfer: payment, CorrelationID: msgID}
	sig, err := t.replicas.Validate(payment)
	if err != nil {
		response.Error = err.Error()
		return []duties.Duty{t.respond(response, origin)}, nil
	}
	response.ReplicaSig = sig

	credit, err := data.NewCredit(payment.Transfer.To, payment.Transfer.Amount,
		"data payment", payment.Transfer.To.Name(), payment.Transfer.From.Name())
	if err != nil {
		return nil, err
	}
	proof := data.CreditAgreementProof{
		Credit: credit,
		Shares: map[string][]byte{origin.Name.Hex(): sig},
	}

	return []duties.Duty{
		duties.AddPayment{Credit: proof},
		t.respond(response, origin),
	}, nil
}

// IncreaseFullNodeCount records that an Adult reported a full store.
func (t *Transfers) IncreaseFullNodeCount(node routing.XorName) {
	t.fullNodes[node] = struct{}{}
	t.logger.WithFields(logrus.Fields{
		"node":  node,
		"count": len(t.fullNodes),
	}).Info("Adult reported full storage")
}

// FullNodeCount returns the number of Adults known to be full.
func (t *Transfers) FullNodeCount() int {
	return len(t.fullNodes)
}

// UpdateReplicaKeys resynchronizes the ledger replicas with a new section
// key after churn.
func (t *Transfers) UpdateReplicaKeys(sectionKey routing.PublicKey) error {
	return t.replicas.UpdateReplicaKeys(sectionKey)
}

// MergeUserWallets merges wallet histories pushed by the previous Elder set.
func (t *Transfers) MergeUserWallets(wallets []data.WalletHistory) error {
	return t.replicas.MergeUserWallets(wallets)
}

// UserWallets snapshots the ledger's wallet histories for replication to a
// new Elder set.
func (t *Transfers) UserWallets() []data.WalletHistory {
	return t.replicas.UserWallets()
}

// storeCost derives a quote from the byte count and the full-node pressure.
// One token buys a kilobyte on an empty section; every full Adult doubles
// the price.
func (t *Transfers) storeCost(bytes uint64) data.Token {
	cost := bytes/1024 + 1
	return data.Token(cost << uint(len(t.fullNodes)))
}

func (t *Transfers) respond(msg messaging.Message, origin messaging.EndUser) duties.Duty {
	return duties.Send{Msg: messaging.OutgoingMsg{
		ID:          routing.RandomMessageID(),
		Msg:         msg,
		Dst:         messaging.NodeDst(origin.Name),
		Aggregation: messaging.AggregationNone,
	}}
}
