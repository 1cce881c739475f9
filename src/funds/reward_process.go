package funds

import (
	"github.com/sirupsen/logrus"

	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/messaging"
	"github.com/vaultnet/vaultnode/src/routing"
)

// Signer produces this node's evidence shares. Share verification and the
// underlying scheme belong to the crypto collaborator.
type Signer interface {
	Sign(data []byte) ([]byte, error)
}

// pendingCredit tracks the evidence gathered so far for one credit.
type pendingCredit struct {
	credit data.Credit
	shares map[routing.XorName][]byte
}

// RewardProcess drives one churn round's reward agreement. It is mutated by
// exactly one duty-handling step at a time; cross-Elder concurrency exists
// only as message passing through the dispatcher.
//
// Evidence merging is idempotent and order-independent: the outcome depends
// only on the set of (signer, credit, share) triples received, never on
// arrival order or duplication.
type RewardProcess struct {
	ourName     routing.XorName
	sectionKey  routing.PublicKey
	sectionName routing.XorName
	threshold   int
	signer      Signer
	logger      *logrus.Entry

	stage        RewardStage
	credits      []data.Credit
	ourSig       []byte
	proposalSigs map[routing.XorName][]byte
	pending      map[data.CreditId]*pendingCredit
	completed    data.CreditProofs
}

// NewRewardProcess starts a churn round over the proposed credit set. The
// threshold is derived by the caller from live membership. The process seeds
// itself with this node's own proposal signature and evidence shares.
func NewRewardProcess(
	ourName routing.XorName,
	sectionKey routing.PublicKey,
	sectionName routing.XorName,
	credits []data.Credit,
	threshold int,
	signer Signer,
	logger *logrus.Entry,
) (*RewardProcess, error) {
	if threshold < 1 {
		threshold = 1
	}

	p := &RewardProcess{
		ourName:      ourName,
		sectionKey:   sectionKey,
		sectionName:  sectionName,
		threshold:    threshold,
		signer:       signer,
		logger:       logger,
		stage:        AwaitingProposals,
		credits:      credits,
		proposalSigs: map[routing.XorName][]byte{},
		pending:      map[data.CreditId]*pendingCredit{},
	}

	proposalBytes, err := p.proposalBytes()
	if err != nil {
		return nil, err
	}
	if p.ourSig, err = signer.Sign(proposalBytes); err != nil {
		return nil, err
	}
	p.proposalSigs[ourName] = p.ourSig

	for _, credit := range credits {
		signable, err := credit.SignableBytes()
		if err != nil {
			return nil, err
		}
		share, err := signer.Sign(signable)
		if err != nil {
			return nil, err
		}
		p.pending[credit.ID] = &pendingCredit{
			credit: credit,
			shares: map[routing.XorName][]byte{ourName: share},
		}
	}

	return p, nil
}

// Stage returns a read-only snapshot of the current stage.
func (p *RewardProcess) Stage() RewardStage {
	return p.stage
}

// Credits returns the credits under negotiation.
func (p *RewardProcess) Credits() []data.Credit {
	return p.credits
}

// CompletedProofs returns the finalized proofs, or nil while the round is
// still open.
func (p *RewardProcess) CompletedProofs() data.CreditProofs {
	if p.stage != Completed {
		return nil
	}
	return p.completed.Clone()
}

// OurProposal returns this node's proposal message, broadcast when the round
// starts and re-broadcast while proposal quorum is pending.
func (p *RewardProcess) OurProposal() messaging.RewardProposal {
	return messaging.RewardProposal{
		SectionKey: p.sectionKey,
		Proposer:   p.ourName,
		Credits:    p.credits,
		Sig:        p.ourSig,
	}
}

// OurAccumulation returns this node's evidence shares for every credit in
// the round.
func (p *RewardProcess) OurAccumulation() messaging.RewardAccumulation {
	shares := make([]messaging.CreditShare, 0, len(p.pending))
	for _, credit := range p.credits {
		if pc, ok := p.pending[credit.ID]; ok {
			shares = append(shares, messaging.CreditShare{
				ID:    credit.ID,
				Share: pc.shares[p.ourName],
			})
		}
	}
	return messaging.RewardAccumulation{
		SectionKey: p.sectionKey,
		Signer:     p.ourName,
		Shares:     shares,
	}
}

// ReceiveChurnProposal records a peer Elder's proposed split. When proposal
// quorum is reached the stage moves to Accumulating and our accumulation
// vote is broadcast; the stage is never moved to Completed from here.
func (p *RewardProcess) ReceiveChurnProposal(proposal messaging.RewardProposal) (*messaging.OutgoingMsg, error) {
	if p.stage == Completed {
		return nil, nil
	}
	if !proposal.SectionKey.Equal(p.sectionKey) {
		return nil, NewProtocolError("proposal section key %s does not match churn key %s",
			proposal.SectionKey, p.sectionKey)
	}
	if !p.sameCreditSet(proposal.Credits) {
		return nil, NewProtocolError("proposal credit set from %s does not match ours", proposal.Proposer)
	}

	p.proposalSigs[proposal.Proposer] = proposal.Sig

	if p.stage == AwaitingProposals && len(p.proposalSigs) >= p.threshold {
		p.stage = Accumulating
		p.logger.WithFields(logrus.Fields{
			"proposals": len(p.proposalSigs),
			"threshold": p.threshold,
		}).Info("Reward proposal quorum reached, accumulating")
		return p.broadcast(p.OurAccumulation()), nil
	}

	if p.stage == AwaitingProposals {
		return p.broadcast(p.OurProposal()), nil
	}
	return p.broadcast(p.OurAccumulation()), nil
}

// ReceiveWalletAccumulation merges one peer's evidence. When the merge makes
// every pending credit reach quorum, the stage transitions to Completed and
// the finalized proofs become available through CompletedProofs. Partial
// evidence is retained across calls. The merge either fully applies or fully
// no-ops: all share ids are validated before any state is touched.
func (p *RewardProcess) ReceiveWalletAccumulation(acc messaging.RewardAccumulation) (*messaging.OutgoingMsg, error) {
	if p.stage == Completed {
		return nil, nil
	}
	if !acc.SectionKey.Equal(p.sectionKey) {
		return nil, NewProtocolError("accumulation section key %s does not match churn key %s",
			acc.SectionKey, p.sectionKey)
	}
	for _, share := range acc.Shares {
		if _, ok := p.pending[share.ID]; !ok {
			return nil, NewProtocolError("accumulation from %s references unknown credit %s",
				acc.Signer, share.ID)
		}
	}

	for _, share := range acc.Shares {
		p.pending[share.ID].shares[acc.Signer] = share.Share
	}

	if p.stage == Accumulating && p.allCreditsAtQuorum() {
		p.finalize()
		return nil, nil
	}

	return p.broadcast(p.OurAccumulation()), nil
}

// allCreditsAtQuorum reports whether every outstanding credit has gathered
// threshold evidence.
func (p *RewardProcess) allCreditsAtQuorum() bool {
	for _, pc := range p.pending {
		if len(pc.shares) < p.threshold {
			return false
		}
	}
	return len(p.pending) > 0
}

// finalize moves the round to Completed, freezing one agreement proof per
// credit.
func (p *RewardProcess) finalize() {
	proofs := make(data.CreditProofs, len(p.pending))
	for id, pc := range p.pending {
		shares := make(map[string][]byte, len(pc.shares))
		for signer, share := range pc.shares {
			shares[signer.Hex()] = share
		}
		proofs[id] = data.CreditAgreementProof{
			Credit: pc.credit,
			Shares: shares,
		}
	}
	p.completed = proofs
	p.stage = Completed
	p.logger.WithFields(logrus.Fields{
		"credits": len(proofs),
		"total":   proofs.Sum(),
	}).Info("Reward round completed")
}

// sameCreditSet compares a proposed credit set with ours by id.
func (p *RewardProcess) sameCreditSet(credits []data.Credit) bool {
	if len(credits) != len(p.credits) {
		return false
	}
	for _, c := range credits {
		if _, ok := p.pending[c.ID]; !ok {
			return false
		}
	}
	return true
}

// proposalBytes returns the canonical signable bytes of the proposed split.
func (p *RewardProcess) proposalBytes() ([]byte, error) {
	ids := make([]string, len(p.credits))
	for i, c := range p.credits {
		ids[i] = c.ID.Hex()
	}
	return data.CanonicalBytes(struct {
		SectionKey string
		CreditIds  []string
	}{p.sectionKey.Hex(), ids})
}

// broadcast wraps a message for this churn's section Elders.
func (p *RewardProcess) broadcast(msg messaging.Message) *messaging.OutgoingMsg {
	return &messaging.OutgoingMsg{
		ID:          routing.RandomMessageID(),
		Msg:         msg,
		Dst:         messaging.SectionDst(p.sectionName),
		Aggregation: messaging.AggregationNone,
	}
}
