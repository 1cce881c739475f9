package node

import (
	"encoding/hex"

	"github.com/vaultnet/vaultnode/src/chunks"
	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/duties"
	"github.com/vaultnet/vaultnode/src/funds"
	"github.com/vaultnet/vaultnode/src/messaging"
	"github.com/vaultnet/vaultnode/src/metadata"
	"github.com/vaultnet/vaultnode/src/routing"
	"github.com/vaultnet/vaultnode/src/section"
	"github.com/vaultnet/vaultnode/src/transfers"
)

// levelUp assumes Elder duties. The chunk store is released and the three
// Elder subsystems are constructed fresh; replicated state arrives separately
// through a SynchState duty.
func (n *Node) levelUp() error {
	if n.chunks != nil {
		if err := n.chunks.Close(); err != nil {
			n.logger.WithError(err).Error("Closing chunk store on promotion")
		}
		n.chunks = nil
	}

	n.metaData = metadata.NewMetadata(n.logger)
	n.transfers = transfers.NewTransfers(n.replicas, n.logger)

	wallets := funds.NewRewardWallets()
	if n.conf.RewardWallet != "" {
		raw, err := hex.DecodeString(n.conf.RewardWallet)
		if err != nil {
			return NewErrorf(NoSectionFunds, "bad reward wallet hex: %v", err)
		}
		wallets.SetNodeWallet(n.Name(), routing.PublicKey(raw), n.networkAPI.OurAge())
	}
	n.sectionFunds = funds.NewKeepingFunds(wallets, data.CreditProofs{})

	n.SetRole(Elder)
	n.logger.Info("Level up: we are Elder")
	return nil
}

// levelDown drops back to Adult duties. Elder state is discarded; the
// surviving Elders hold the authoritative copy.
func (n *Node) levelDown() error {
	n.metaData = nil
	n.transfers = nil
	n.sectionFunds = nil

	if n.chunks == nil {
		c, err := chunks.NewChunks(n.Name(), n.conf.DataDir, n.conf.MaxCapacity, n.logger)
		if err != nil {
			return err
		}
		n.chunks = c
	}

	n.SetRole(Adult)
	n.logger.Info("Level down: we are Adult")
	return nil
}

// churnAsOldie reacts to an Elder change as a continuing Elder: point the
// ledger replicas at the new key, open a reward round re-issuing the
// section's funds to it, and push our replicated state to the (possibly
// refreshed) Elder set.
func (n *Node) churnAsOldie(ourKey routing.PublicKey, ourPrefix routing.Prefix) ([]duties.Duty, error) {
	f, err := n.getSectionFunds()
	if err != nil {
		return nil, err
	}
	t, err := n.getTransfers()
	if err != nil {
		return nil, err
	}
	if err := t.UpdateReplicaKeys(ourKey); err != nil {
		return nil, err
	}

	credits, err := funds.ChurnCredits(ourKey, n.fundsTotal(f))
	if err != nil {
		return nil, err
	}
	return n.beginChurn(f, credits, ourKey, ourPrefix)
}

// beginSplitAsNewbie starts Elder life in the brand-new section. State
// arrives from the oldie side via SynchState.
func (n *Node) beginSplitAsNewbie() error {
	return n.levelUp()
}

// beginSplitAsOldie reacts to a split as a continuing Elder of the original
// section: renegotiate the section funds across the two descendant keys. Any
// round already open is superseded, its evidence discarded, but the funds it
// was re-issuing are rolled into the new round's total.
func (n *Node) beginSplitAsOldie(ourKey routing.PublicKey, ourPrefix routing.Prefix, siblingKey routing.PublicKey) ([]duties.Duty, error) {
	f, err := n.getSectionFunds()
	if err != nil {
		return nil, err
	}
	t, err := n.getTransfers()
	if err != nil {
		return nil, err
	}
	if err := t.UpdateReplicaKeys(ourKey); err != nil {
		return nil, err
	}

	credits, err := funds.SplitCredits(ourKey, siblingKey, n.fundsTotal(f))
	if err != nil {
		return nil, err
	}
	return n.beginChurn(f, credits, ourKey, ourPrefix)
}

// beginChurn opens a reward round over the given credits, swaps the funds
// into churning mode and returns the proposal broadcast plus the state push.
// With nothing to re-issue there is nothing to negotiate: funds stay in
// steady state and only the state push goes out.
func (n *Node) beginChurn(f *funds.SectionFunds, credits []data.Credit, ourKey routing.PublicKey, ourPrefix routing.Prefix) ([]duties.Duty, error) {
	pushState := n.pushState(f, ourKey, ourPrefix)

	if len(credits) == 0 {
		n.sectionFunds = funds.NewKeepingFunds(f.Wallets(), f.Payments())
		return []duties.Duty{pushState}, nil
	}

	threshold := section.SupermajorityThreshold(len(n.networkAPI.OurElders()))
	process, err := funds.NewRewardProcess(
		n.Name(), ourKey, ourPrefix.Name(), credits, threshold, n.validator, n.logger)
	if err != nil {
		return nil, err
	}
	n.sectionFunds = funds.NewChurningFunds(process, f.Wallets(), f.Payments())

	proposal := duties.Send{Msg: messaging.OutgoingMsg{
		ID:          routing.RandomMessageID(),
		Msg:         process.OurProposal(),
		Dst:         messaging.SectionDst(ourPrefix.Name()),
		Aggregation: messaging.AggregationNone,
	}}
	return []duties.Duty{proposal, pushState}, nil
}

// fundsTotal is the amount a new round re-issues: pending payments plus
// whatever a superseded open round was already re-issuing.
func (n *Node) fundsTotal(f *funds.SectionFunds) data.Token {
	total := f.Payments().Sum()
	if f.IsChurning() {
		for _, credit := range f.Process().Credits() {
			total += credit.Amount
		}
	}
	return total
}

// pushState builds the duty replicating our wallet registry and user wallet
// histories to the new Elder set. The id is derived from the churn's prefix
// and key, so every Elder pushing state for the same churn sends the same
// envelope and receivers deduplicate.
func (n *Node) pushState(f *funds.SectionFunds, ourKey routing.PublicKey, ourPrefix routing.Prefix) duties.Duty {
	nodeWallets := []messaging.NodeWalletEntry{}
	for name, wallet := range f.Wallets().All() {
		nodeWallets = append(nodeWallets, messaging.NodeWalletEntry{Name: name, Wallet: wallet})
	}

	userWallets := []data.WalletHistory{}
	if t, err := n.getTransfers(); err == nil {
		userWallets = t.UserWallets()
	}

	return duties.Send{Msg: messaging.OutgoingMsg{
		ID:          routing.CombineID(ourPrefix.Name(), ourKey.Name()),
		Msg:         messaging.StateSync{NodeWallets: nodeWallets, UserWallets: userWallets},
		Dst:         messaging.SectionDst(ourPrefix.Name()),
		Aggregation: messaging.AggregationNone,
	}}
}

// synchState merges state pushed by the previous Elder set. The merge is
// idempotent: wallet entries overwrite by name and history merging is
// version-aware in the replica layer.
func (n *Node) synchState(nodeWallets map[routing.XorName]data.NodeWallet, userWallets []data.WalletHistory) error {
	f, err := n.getSectionFunds()
	if err != nil {
		return err
	}
	for name, wallet := range nodeWallets {
		f.Wallets().SetNodeWallet(name, wallet.Key, wallet.Age)
	}

	t, err := n.getTransfers()
	if err != nil {
		return err
	}
	return t.MergeUserWallets(userWallets)
}

// getSectionElders answers a query for the section's Elder set.
func (n *Node) getSectionElders(msgID routing.MessageID, origin messaging.EndUser) duties.Duty {
	elders := section.Elders{
		Prefix: n.networkAPI.OurPrefix(),
		Key:    n.networkAPI.SectionKey(),
		Names:  n.networkAPI.OurElders(),
	}
	return duties.Send{Msg: messaging.OutgoingMsg{
		ID:          routing.RandomMessageID(),
		Msg:         messaging.SectionEldersResponse{Elders: elders, CorrelationID: msgID},
		Dst:         messaging.NodeDst(origin.Name),
		Aggregation: messaging.AggregationNone,
	}}
}

// notifySectionOfOurStorage tells our Elders this node's store is filling up.
func (n *Node) notifySectionOfOurStorage() duties.Duty {
	ourName := n.networkAPI.OurName()
	return duties.Send{Msg: messaging.OutgoingMsg{
		ID:          routing.RandomMessageID(),
		Msg:         messaging.StorageFull{Node: ourName},
		Dst:         messaging.SectionDst(ourName),
		Aggregation: messaging.AggregationNone,
	}}
}
