package network

import (
	"github.com/sirupsen/logrus"

	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/duties"
	"github.com/vaultnet/vaultnode/src/messaging"
	"github.com/vaultnet/vaultnode/src/routing"
	"github.com/vaultnet/vaultnode/src/section"
)

// EventTranslator maps events from the transport layer into the duty
// vocabulary. Malformed payloads are logged and dropped, never escalated:
// the sender is remote and nothing local is wrong.
//
// Role signals from the transport are advisory. The translator re-checks
// them against this node's current age and membership before emitting a
// role-changing duty, because events and true state can race, and state
// wins.
type EventTranslator struct {
	net      Network
	wasElder bool
	logger   *logrus.Entry
}

// NewEventTranslator returns a translator over the network collaborator.
func NewEventTranslator(net Network, logger *logrus.Entry) *EventTranslator {
	return &EventTranslator{
		net:    net,
		logger: logger,
	}
}

// ProcessEvent translates one event into a duty, or nil when the event calls
// for no local work.
func (t *EventTranslator) ProcessEvent(event Event) duties.Duty {
	switch e := event.(type) {
	case MemberLeft:
		t.logger.WithField("node", e.Name).Debug("A node has left the section")
		return duties.ProcessLostMember{Name: e.Name, Age: e.Age}

	case MemberJoined:
		t.logger.WithField("node", e.Name).Debug("New member has joined the section")
		if e.PreviousName != nil {
			return duties.ProcessRelocatedMember{
				OldName: *e.PreviousName,
				NewName: e.Name,
				Age:     e.Age,
			}
		}
		return duties.ProcessNewMember{Name: e.Name}

	case EldersChanged:
		amElder := containsName(e.Elders, t.net.OurName())
		wasElder := t.wasElder

		if !amElder {
			t.wasElder = false
			if wasElder {
				t.logger.Info("No longer part of the Elder set")
				return duties.LevelDown{}
			}
			return nil
		}
		if !wasElder && t.net.OurAge() < section.MinAdultAge {
			t.logger.WithField("age", t.net.OurAge()).Info("Elder signal ignored, age below threshold")
			return nil
		}
		t.wasElder = true
		return duties.EldersChanged{
			OurKey:    e.Key,
			OurPrefix: e.Prefix,
			Newbie:    !wasElder,
		}

	case SectionSplit:
		amElder := containsName(e.Elders, t.net.OurName())
		if !amElder {
			t.wasElder = false
			return nil
		}
		wasElder := t.wasElder
		t.wasElder = true
		return duties.SectionSplit{
			OurKey:     e.OurKey,
			OurPrefix:  e.OurPrefix,
			SiblingKey: e.SiblingKey,
			Newbie:     !wasElder,
		}

	case Promoted:
		if !containsName(t.net.OurElders(), t.net.OurName()) {
			t.logger.Info("Promotion signal ignored, not in the Elder set")
			return nil
		}
		if t.net.OurAge() < section.MinAdultAge {
			t.logger.WithField("age", t.net.OurAge()).Info("Promotion signal ignored, age below threshold")
			return nil
		}
		t.logger.Info("Node promoted to Elder")
		t.wasElder = true
		return duties.Genesis{}

	case Demoted:
		t.wasElder = false
		if t.net.OurAge() < section.MinAdultAge {
			t.logger.WithField("age", t.net.OurAge()).Info("We are not Adult, do nothing")
			return nil
		}
		t.logger.Info("Node demoted to Adult")
		return duties.LevelDown{}

	case Relocated:
		t.wasElder = false
		if t.net.OurAge() < section.MinAdultAge {
			t.logger.WithField("age", t.net.OurAge()).Info("We are not Adult, do nothing")
			return nil
		}
		t.logger.Info("Node relocated, restarting as Adult")
		return duties.LevelDown{}

	case MessageReceived:
		return t.evaluateMsg(e)

	default:
		// Ignore all other events
		return nil
	}
}

// evaluateMsg decodes an inbound payload and maps it to a duty.
func (t *EventTranslator) evaluateMsg(e MessageReceived) duties.Duty {
	msg, id, err := messaging.Decode(e.Content)
	if err != nil {
		t.logger.WithError(err).Error("Error deserializing received network message")
		return nil
	}

	origin := messaging.EndUser{Name: e.Src}

	switch m := msg.(type) {
	case *messaging.RewardProposal:
		return duties.ReceiveRewardProposal{Proposal: *m}

	case *messaging.RewardAccumulation:
		return duties.ReceiveRewardAccumulation{Accumulation: *m}

	case *messaging.PropagateCredit:
		return duties.PropagateTransfer{Proof: m.Proof, MsgID: id, Origin: origin}

	case *messaging.StorageFull:
		return duties.IncrementFullNodeCount{NodeID: m.Node}

	case *messaging.RequestChunk:
		return duties.GetChunkForReplication{Address: m.Address, NewHolder: m.NewHolder, ID: id}

	case *messaging.ReplicateChunk:
		return duties.StoreChunkForReplication{Chunk: m.Chunk, CorrelationID: id}

	case *messaging.StoreChunk:
		return duties.WriteChunk{Write: data.ChunkWrite{Chunk: m.Chunk}, MsgID: id, Origin: origin}

	case *messaging.ForwardedChunkRead:
		return duties.ReadChunk{Read: m.Read, MsgID: id, Origin: m.Origin}

	case *messaging.ForwardedDataQuery:
		return duties.ProcessRead{Query: m.Query, ID: id, Origin: m.Origin}

	case *messaging.WalletRegistration:
		return duties.SetNodeWallet{WalletID: m.Wallet, NodeID: m.Node, MsgID: id, Origin: m.Origin}

	case *messaging.SectionEldersQuery:
		return duties.GetSectionElders{MsgID: id, Origin: m.Origin}

	case *messaging.StateSync:
		wallets := make(map[routing.XorName]data.NodeWallet, len(m.NodeWallets))
		for _, entry := range m.NodeWallets {
			wallets[entry.Name] = entry.Wallet
		}
		return duties.SynchState{NodeWallets: wallets, UserWallets: m.UserWallets}

	default:
		t.logger.WithField("kind", msg.Kind()).Debug("Inbound message requires no local duty")
		return nil
	}
}

func containsName(names []routing.XorName, name routing.XorName) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
