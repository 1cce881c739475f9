package node

import (
	"github.com/sirupsen/logrus"

	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/duties"
	"github.com/vaultnet/vaultnode/src/funds"
	"github.com/vaultnet/vaultnode/src/messaging"
	"github.com/vaultnet/vaultnode/src/routing"
)

// Handle dispatches one duty and returns the ordered list of follow-up
// duties. Dispatch is total over the closed duty vocabulary; every call is
// independent and all state lives in the subsystem handles.
func (n *Node) Handle(duty duties.Duty) ([]duties.Duty, error) {
	n.logger.WithField("duty", duty.String()).Info("Handling duty")

	switch d := duty.(type) {
	case duties.Genesis:
		if err := n.levelUp(); err != nil {
			return nil, err
		}
		return []duties.Duty{}, nil

	case duties.EldersChanged:
		if d.Newbie {
			n.logger.Info("Promoted to Elder on churn")
			if err := n.levelUp(); err != nil {
				return nil, err
			}
			return []duties.Duty{}, nil
		}
		n.logger.Info("Updating our replicas on churn")
		return n.churnAsOldie(d.OurKey, d.OurPrefix)

	case duties.SectionSplit:
		if d.Newbie {
			n.logger.Info("Beginning split as newbie")
			if err := n.beginSplitAsNewbie(); err != nil {
				return nil, err
			}
			return []duties.Duty{}, nil
		}
		n.logger.Info("Beginning split as oldie")
		return n.beginSplitAsOldie(d.OurKey, d.OurPrefix, d.SiblingKey)

	case duties.GetSectionElders:
		return []duties.Duty{n.getSectionElders(d.MsgID, d.Origin)}, nil

	case duties.ReceiveRewardProposal:
		process, err := n.getChurningProcess()
		if err != nil {
			return nil, err
		}
		msg, err := process.ReceiveChurnProposal(d.Proposal)
		if err != nil {
			return nil, err
		}
		return wrapSend(msg), nil

	case duties.ReceiveRewardAccumulation:
		return n.receiveRewardAccumulation(d.Accumulation)

	//
	// ------- reward reg -------
	case duties.SetNodeWallet:
		f, err := n.getSectionFunds()
		if err != nil {
			return nil, err
		}
		members := n.networkAPI.OurMembers()
		age, ok := members[d.NodeID]
		if !ok {
			n.logger.WithFields(logrus.Fields{
				"node":   d.NodeID,
				"wallet": d.WalletID,
			}).Debug("Couldn't find node when adding wallet")
			return nil, NewErrorf(NodeNotFoundForReward, "node %s", d.NodeID)
		}
		f.Wallets().SetNodeWallet(d.NodeID, d.WalletID, age)
		return []duties.Duty{}, nil

	case duties.GetNodeWalletKey:
		f, err := n.getSectionFunds()
		if err != nil {
			return nil, err
		}
		wallet, ok := f.Wallets().Get(d.NodeName)
		if !ok {
			return nil, NewErrorf(NodeNotFoundForReward, "node %s has no registered wallet", d.NodeName)
		}
		return []duties.Duty{duties.Send{Msg: messaging.OutgoingMsg{
			ID:          routing.RandomMessageID(),
			Msg:         messaging.NodeWalletKeyResponse{Wallet: wallet.Key, CorrelationID: d.MsgID},
			Dst:         messaging.NodeDst(d.Origin.Name),
			Aggregation: messaging.AggregationNone,
		}}}, nil

	case duties.ProcessNewMember:
		n.logger.WithField("node", d.Name).Info("New member joined")
		return []duties.Duty{}, nil

	case duties.ProcessRelocatedMember:
		n.logger.WithFields(logrus.Fields{
			"old": d.OldName,
			"new": d.NewName,
			"age": d.Age,
		}).Info("Relocated member joined")
		return []duties.Duty{}, nil

	case duties.ProcessLostMember:
		n.logger.WithField("node", d.Name).Info("Member lost")
		f, err := n.getSectionFunds()
		if err != nil {
			return nil, err
		}
		f.Wallets().RemoveNodeWallet(d.Name)

		md, err := n.getMetadata()
		if err != nil {
			return nil, err
		}
		return md.TriggerChunkReplication(d.Name)

	//
	// ---------- Levelling --------------
	case duties.SynchState:
		return []duties.Duty{}, n.synchState(d.NodeWallets, d.UserWallets)

	case duties.LevelDown:
		n.logger.Info("Getting demoted")
		if err := n.levelDown(); err != nil {
			return nil, err
		}
		return []duties.Duty{}, nil

	//
	// ----------- Transfers -----------
	case duties.GetTransferReplicaEvents:
		t, err := n.getTransfers()
		if err != nil {
			return nil, err
		}
		op, err := t.AllEvents(d.MsgID, d.Origin)
		if err != nil {
			return nil, err
		}
		return []duties.Duty{op}, nil

	case duties.PropagateTransfer:
		t, err := n.getTransfers()
		if err != nil {
			return nil, err
		}
		op, err := t.ReceivePropagated(d.Proof, d.MsgID, d.Origin)
		if err != nil {
			return nil, err
		}
		return []duties.Duty{op}, nil

	case duties.ValidateClientTransfer:
		t, err := n.getTransfers()
		if err != nil {
			return nil, err
		}
		op, err := t.Validate(d.SignedTransfer, d.MsgID, d.Origin)
		if err != nil {
			return nil, err
		}
		return []duties.Duty{op}, nil

	case duties.SimulatePayout:
		t, err := n.getTransfers()
		if err != nil {
			return nil, err
		}
		op, err := t.CreditWithoutProof(d.Transfer)
		if err != nil {
			return nil, err
		}
		return []duties.Duty{op}, nil

	case duties.GetTransfersHistory:
		t, err := n.getTransfers()
		if err != nil {
			return nil, err
		}
		op, err := t.History(d.At, d.SinceVersion, d.MsgID, d.Origin)
		if err != nil {
			return nil, err
		}
		return []duties.Duty{op}, nil

	case duties.GetBalance:
		t, err := n.getTransfers()
		if err != nil {
			return nil, err
		}
		op, err := t.Balance(d.At, d.MsgID, d.Origin)
		if err != nil {
			return nil, err
		}
		return []duties.Duty{op}, nil

	case duties.GetStoreCost:
		t, err := n.getTransfers()
		if err != nil {
			return nil, err
		}
		return t.GetStoreCost(d.Bytes, d.MsgID, d.Origin), nil

	case duties.RegisterTransfer:
		t, err := n.getTransfers()
		if err != nil {
			return nil, err
		}
		op, err := t.Register(d.Proof, d.MsgID)
		if err != nil {
			return nil, err
		}
		return []duties.Duty{op}, nil

	//
	// -------- Immutable chunks --------
	case duties.ReadChunk:
		// TODO: remove this conditional branching once routing forwards
		// data requests to the responsible section itself.
		address := d.Read.DstAddress()
		if !n.ownsAddress(address) {
			return wrapSend(&messaging.OutgoingMsg{
				ID:          d.MsgID,
				Msg:         messaging.ForwardedChunkRead{Read: d.Read, Origin: d.Origin},
				Dst:         messaging.SectionDst(address),
				Aggregation: messaging.AggregationNone,
			}), nil
		}
		c, err := n.getChunks()
		if err != nil {
			return nil, err
		}
		read, err := c.Read(d.Read, d.MsgID, d.Origin)
		if err != nil {
			return nil, err
		}
		ops := c.CheckStorage()
		return append([]duties.Duty{read}, ops...), nil

	case duties.WriteChunk:
		c, err := n.getChunks()
		if err != nil {
			return nil, err
		}
		op, err := c.Write(d.Write, d.MsgID, d.Origin)
		if err != nil {
			return nil, err
		}
		return []duties.Duty{op}, nil

	case duties.ReachingMaxCapacity:
		return []duties.Duty{n.notifySectionOfOurStorage()}, nil

	//
	// ------- Misc ------------
	case duties.IncrementFullNodeCount:
		t, err := n.getTransfers()
		if err != nil {
			return nil, err
		}
		t.IncreaseFullNodeCount(d.NodeID)
		// A member running out of space means the section needs capacity;
		// open the door for new joiners.
		return []duties.Duty{duties.SetNodeJoinsAllowed{Allowed: true}}, nil

	case duties.Send:
		if err := n.networkAPI.Send(d.Msg); err != nil {
			return nil, err
		}
		return []duties.Duty{}, nil

	case duties.SendToNodes:
		if err := n.networkAPI.SendToNodes(d.Targets, d.Msg, d.ID); err != nil {
			return nil, err
		}
		return []duties.Duty{}, nil

	case duties.SetNodeJoinsAllowed:
		if err := n.networkAPI.SetJoinsAllowed(d.Allowed); err != nil {
			return nil, err
		}
		return []duties.Duty{}, nil

	//
	// ------- Data ------------
	case duties.ProcessRead:
		// TODO: remove this conditional branching once routing forwards
		// data requests to the responsible section itself.
		address := d.Query.DstAddress()
		if !n.ownsAddress(address) {
			return wrapSend(&messaging.OutgoingMsg{
				ID:          d.ID,
				Msg:         messaging.ForwardedDataQuery{Query: d.Query, Origin: d.Origin},
				Dst:         messaging.SectionDst(address),
				Aggregation: messaging.AggregationNone,
			}), nil
		}
		md, err := n.getMetadata()
		if err != nil {
			return nil, err
		}
		op, err := md.Read(d.Query, d.ID, d.Origin)
		if err != nil {
			return nil, err
		}
		return []duties.Duty{op}, nil

	case duties.ProcessWrite:
		md, err := n.getMetadata()
		if err != nil {
			return nil, err
		}
		op, err := md.Write(d.Cmd, d.ID, d.Origin)
		if err != nil {
			return nil, err
		}
		return []duties.Duty{op}, nil

	case duties.ProcessDataPayment:
		t, err := n.getTransfers()
		if err != nil {
			return nil, err
		}
		return t.ProcessPayment(d.Payment, d.MsgID, d.Origin)

	case duties.AddPayment:
		f, err := n.getSectionFunds()
		if err != nil {
			return nil, err
		}
		f.AddPayment(d.Credit)
		return []duties.Duty{}, nil

	case duties.ReplicateChunk:
		c, err := n.getChunks()
		if err != nil {
			return nil, err
		}
		op, err := c.ReplicateChunk(d.Address, d.CurrentHolders, d.ID)
		if err != nil {
			return nil, err
		}
		return []duties.Duty{op}, nil

	case duties.GetChunkForReplication:
		c, err := n.getChunks()
		if err != nil {
			return nil, err
		}
		op, err := c.GetChunkForReplication(d.Address, d.NewHolder)
		if err != nil {
			return nil, err
		}
		return []duties.Duty{op}, nil

	case duties.StoreChunkForReplication:
		// Recreate the original id from the chunk address and our name. A
		// mismatch means a stale or replayed replication instruction.
		expected := routing.CombineID(d.Chunk.Name(), n.Name())
		if expected != d.CorrelationID {
			n.logger.WithFields(logrus.Fields{
				"chunk": d.Chunk.Name(),
				"id":    d.CorrelationID,
			}).Warn("Invalid correlation id on replicated chunk")
			return []duties.Duty{}, nil
		}
		c, err := n.getChunks()
		if err != nil {
			return nil, err
		}
		if err := c.StoreReplicatedChunk(d.Chunk); err != nil {
			return nil, err
		}
		return []duties.Duty{}, nil

	case duties.NoOp:
		return []duties.Duty{}, nil

	default:
		n.logger.WithField("duty", duty.String()).Warn("Unhandled duty variant")
		return []duties.Duty{}, nil
	}
}

// receiveRewardAccumulation merges peer evidence and, on completion, emits
// the propagation duties and swaps the funds into steady state. The swap and
// the duty emission happen within this single dispatch call; no intermediate
// state is observable to other duties.
func (n *Node) receiveRewardAccumulation(acc messaging.RewardAccumulation) ([]duties.Duty, error) {
	f, err := n.getSectionFunds()
	if err != nil {
		return nil, err
	}
	if !f.IsChurning() {
		return nil, NewError(NotChurning)
	}
	process := f.Process()

	msg, err := process.ReceiveWalletAccumulation(acc)
	if err != nil {
		return nil, err
	}
	ops := wrapSend(msg)

	if process.Stage() == funds.Completed {
		proofs := process.CompletedProofs()
		ops = append(ops, n.propagateCredits(proofs)...)

		n.sectionFunds = funds.NewKeepingFunds(f.Wallets(), f.Payments())

		n.logger.WithFields(logrus.Fields{
			"section_key": n.networkAPI.SectionKey(),
			"total":       proofs.Sum(),
		}).Info("Churn completed, total rewards paid")
	}

	return ops, nil
}

// propagateCredits emits one outbound duty per finalized proof, so each
// payee's home section receives its credit independently. The message id is
// derived from the credit id and the recipient, so retransmissions from
// other Elders deduplicate at the receiver.
func (n *Node) propagateCredits(proofs data.CreditProofs) []duties.Duty {
	ops := []duties.Duty{}
	for _, proof := range proofs {
		recipient := proof.Credit.Recipient.Name()
		ops = append(ops, duties.Send{Msg: messaging.OutgoingMsg{
			ID:          routing.CombineID(routing.XorName(proof.Credit.ID), recipient),
			Msg:         messaging.PropagateCredit{Proof: proof},
			Dst:         messaging.SectionDst(recipient),
			Aggregation: messaging.AggregationSection,
		}})
	}
	return ops
}

// wrapSend turns an optional outgoing message into a duty list.
func wrapSend(msg *messaging.OutgoingMsg) []duties.Duty {
	if msg == nil {
		return []duties.Duty{}
	}
	return []duties.Duty{duties.Send{Msg: *msg}}
}
