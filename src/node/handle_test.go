package node

import (
	"crypto/ecdsa"
	"testing"

	"github.com/vaultnet/vaultnode/src/config"
	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/duties"
	"github.com/vaultnet/vaultnode/src/funds"
	"github.com/vaultnet/vaultnode/src/keys"
	"github.com/vaultnet/vaultnode/src/messaging"
	"github.com/vaultnet/vaultnode/src/network"
	"github.com/vaultnet/vaultnode/src/routing"
	"github.com/vaultnet/vaultnode/src/section"
	"github.com/vaultnet/vaultnode/src/transfers"
)

type testNode struct {
	node     *Node
	net      *network.InmemNetwork
	replicas *transfers.InmemReplicas
	key      *ecdsa.PrivateKey
}

func newTestNode(t *testing.T) *testNode {
	t.Helper()

	conf := config.NewTestConfig(t)
	conf.DataDir = t.TempDir()
	conf.MaxCapacity = 1024 * 1024

	key, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	validator := NewValidator(key, "test")
	name := validator.Name()
	sectionKey := validator.PublicKeyBytes()

	net := network.NewInmemNetwork(name, section.MinAdultAge,
		routing.NewPrefix(name, 0), sectionKey)
	replicas := transfers.NewInmemReplicas(sectionKey, validator.Sign)

	n := NewNode(conf, validator, net, replicas)
	t.Cleanup(func() { n.Shutdown() })

	return &testNode{node: n, net: net, replicas: replicas, key: key}
}

func (tn *testNode) handle(t *testing.T, duty duties.Duty) []duties.Duty {
	t.Helper()

	ops, err := tn.node.Handle(duty)
	if err != nil {
		t.Fatalf("Handling %s: %v", duty, err)
	}
	return ops
}

func testProof(t *testing.T, amount data.Token) data.CreditAgreementProof {
	t.Helper()

	key, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	recipient := keys.FromPublicKey(&key.PublicKey)
	credit, err := data.NewCredit(recipient, amount, "payment", recipient.Name(), routing.RandomName())
	if err != nil {
		t.Fatal(err)
	}
	return data.CreditAgreementProof{Credit: credit, Shares: map[string][]byte{}}
}

func TestGenesisLevelsUp(t *testing.T) {
	tn := newTestNode(t)

	if tn.node.GetRole() != Uninitialized {
		t.Fatalf("Fresh node should be %v, not %v", Uninitialized, tn.node.GetRole())
	}

	tn.handle(t, duties.Genesis{})

	if tn.node.GetRole() != Elder {
		t.Fatalf("Role should be %v, not %v", Elder, tn.node.GetRole())
	}

	// Elder subsystems are live, the chunk store is not.
	if _, err := tn.node.getMetadata(); err != nil {
		t.Fatal(err)
	}
	if _, err := tn.node.getTransfers(); err != nil {
		t.Fatal(err)
	}
	if _, err := tn.node.getSectionFunds(); err != nil {
		t.Fatal(err)
	}
	if _, err := tn.node.getChunks(); !IsRoleMismatch(err) {
		t.Fatalf("Elder should have no chunk store, got %v", err)
	}

	// Chunk duties bounce with a role mismatch.
	_, err := tn.node.Handle(duties.WriteChunk{
		Write:  data.ChunkWrite{Chunk: data.Chunk{Value: []byte("bytes")}},
		MsgID:  routing.RandomMessageID(),
		Origin: messaging.EndUser{Name: routing.RandomName()},
	})
	if !IsRoleMismatch(err) {
		t.Fatalf("Chunk duty on an Elder should be a role mismatch, got %v", err)
	}
}

func TestLevelDownSwapsRole(t *testing.T) {
	tn := newTestNode(t)
	tn.handle(t, duties.Genesis{})
	tn.handle(t, duties.LevelDown{})

	if tn.node.GetRole() != Adult {
		t.Fatalf("Role should be %v, not %v", Adult, tn.node.GetRole())
	}

	// Elder duties now bounce, including the reward protocol.
	_, err := tn.node.Handle(duties.ReceiveRewardProposal{})
	if !IsRoleMismatch(err) {
		t.Fatalf("Reward duty on an Adult should be a role mismatch, got %v", err)
	}
	_, err = tn.node.Handle(duties.ProcessWrite{})
	if !IsRoleMismatch(err) {
		t.Fatalf("Metadata duty on an Adult should be a role mismatch, got %v", err)
	}

	// Chunk duties work.
	ops := tn.handle(t, duties.WriteChunk{
		Write:  data.ChunkWrite{Chunk: data.Chunk{Value: []byte("bytes")}},
		MsgID:  routing.RandomMessageID(),
		Origin: messaging.EndUser{Name: routing.RandomName()},
	})
	if len(ops) != 1 {
		t.Fatalf("Chunk write should ack, got %d duties", len(ops))
	}
}

func TestStoreReplicatedChunkCorrelation(t *testing.T) {
	tn := newTestNode(t)
	tn.handle(t, duties.LevelDown{})

	chunk := data.Chunk{Value: []byte("replicated bytes")}

	// A stale or replayed correlation id drops the chunk without error.
	ops := tn.handle(t, duties.StoreChunkForReplication{
		Chunk:         chunk,
		CorrelationID: routing.RandomMessageID(),
	})
	if len(ops) != 0 {
		t.Fatalf("Dropped chunk should yield no duties, got %d", len(ops))
	}
	has, err := tn.node.chunks.Has(chunk.Name())
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Fatal("Mismatched correlation must not store the chunk")
	}

	// The derived id stores it.
	tn.handle(t, duties.StoreChunkForReplication{
		Chunk:         chunk,
		CorrelationID: routing.CombineID(chunk.Name(), tn.node.Name()),
	})
	has, err = tn.node.chunks.Has(chunk.Name())
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Fatal("Matching correlation should store the chunk")
	}
}

func TestReadChunkForwardsForeignAddress(t *testing.T) {
	tn := newTestNode(t)
	tn.handle(t, duties.LevelDown{})

	// Make every address foreign.
	tn.node.SetAddressPolicy(func(routing.XorName) bool { return false })

	address := routing.RandomName()
	msgID := routing.RandomMessageID()
	origin := messaging.EndUser{Name: routing.RandomName()}

	ops := tn.handle(t, duties.ReadChunk{
		Read:   data.ChunkRead{Address: address},
		MsgID:  msgID,
		Origin: origin,
	})
	if len(ops) != 1 {
		t.Fatalf("Foreign read should forward, got %d duties", len(ops))
	}
	send := ops[0].(duties.Send)
	forwarded, ok := send.Msg.Msg.(messaging.ForwardedChunkRead)
	if !ok {
		t.Fatalf("Forwarded message should be a ForwardedChunkRead, not %s", send.Msg.Msg.Kind())
	}
	if forwarded.Origin != origin {
		t.Fatal("Forwarding must preserve the origin")
	}
	if send.Msg.ID != msgID {
		t.Fatal("Forwarding must preserve the message id")
	}
	if send.Msg.Dst != messaging.SectionDst(address) {
		t.Fatal("Forward should target the responsible section")
	}
}

func TestSetNodeWalletRequiresMembership(t *testing.T) {
	tn := newTestNode(t)
	tn.handle(t, duties.Genesis{})

	member := routing.RandomName()
	tn.net.SetMembers(section.Members{tn.node.Name(): 5, member: 7})

	walletKey, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	wallet := keys.FromPublicKey(&walletKey.PublicKey)

	tn.handle(t, duties.SetNodeWallet{
		WalletID: wallet,
		NodeID:   member,
		MsgID:    routing.RandomMessageID(),
		Origin:   messaging.EndUser{Name: member},
	})

	f, _ := tn.node.getSectionFunds()
	entry, ok := f.Wallets().Get(member)
	if !ok {
		t.Fatal("Member wallet should be registered")
	}
	// Age comes from live membership, not from the message.
	if entry.Age != 7 {
		t.Fatalf("Entry age should be 7, not %d", entry.Age)
	}

	stranger := routing.RandomName()
	_, err = tn.node.Handle(duties.SetNodeWallet{
		WalletID: wallet,
		NodeID:   stranger,
		MsgID:    routing.RandomMessageID(),
		Origin:   messaging.EndUser{Name: stranger},
	})
	if !IsNotFound(err) {
		t.Fatalf("Unknown node should be a not-found error, got %v", err)
	}

	// The registered key can be read back.
	msgID := routing.RandomMessageID()
	ops := tn.handle(t, duties.GetNodeWalletKey{
		NodeName: member,
		MsgID:    msgID,
		Origin:   messaging.EndUser{Name: member},
	})
	if len(ops) != 1 {
		t.Fatalf("Wallet key query should produce 1 op, got %d", len(ops))
	}
	send, ok := ops[0].(duties.Send)
	if !ok {
		t.Fatalf("Wallet key query should produce a Send, got %v", ops[0])
	}
	resp, ok := send.Msg.Msg.(messaging.NodeWalletKeyResponse)
	if !ok {
		t.Fatalf("Expected NodeWalletKeyResponse, got %T", send.Msg.Msg)
	}
	if string(resp.Wallet) != string(wallet) {
		t.Fatal("Response should carry the registered wallet key")
	}
	if resp.CorrelationID != msgID {
		t.Fatal("Response should correlate with the query")
	}

	_, err = tn.node.Handle(duties.GetNodeWalletKey{
		NodeName: stranger,
		MsgID:    routing.RandomMessageID(),
		Origin:   messaging.EndUser{Name: stranger},
	})
	if !IsNotFound(err) {
		t.Fatalf("Unknown node wallet query should be not-found, got %v", err)
	}
}

func TestProcessLostMember(t *testing.T) {
	tn := newTestNode(t)
	tn.handle(t, duties.Genesis{})

	lost := routing.RandomName()
	survivor := routing.RandomName()

	walletKey, _ := keys.GenerateKey()
	f, _ := tn.node.getSectionFunds()
	f.Wallets().SetNodeWallet(lost, keys.FromPublicKey(&walletKey.PublicKey), 5)

	md, _ := tn.node.getMetadata()
	address := routing.RandomName()
	md.Register(address, []routing.XorName{lost, survivor})

	ops := tn.handle(t, duties.ProcessLostMember{Name: lost, Age: 5})

	if _, ok := f.Wallets().Get(lost); ok {
		t.Fatal("Lost member's wallet should be evicted")
	}
	if len(ops) != 1 {
		t.Fatalf("Lost holder should trigger 1 replication, got %d", len(ops))
	}
	rep := ops[0].(duties.ReplicateChunk)
	if rep.Address != address {
		t.Fatalf("Replication should target %s, not %s", address, rep.Address)
	}
}

func TestChurnRewardFlow(t *testing.T) {
	tn := newTestNode(t)
	tn.handle(t, duties.Genesis{})

	// A payment arrives during steady state.
	payment := testProof(t, 100)
	tn.handle(t, duties.AddPayment{Credit: payment})

	// Two peer Elders appear and the section key rotates.
	peer1, _ := keys.GenerateKey()
	peer2, _ := keys.GenerateKey()
	peerNames := []routing.XorName{keys.NodeName(&peer1.PublicKey), keys.NodeName(&peer2.PublicKey)}
	tn.net.SetElders(append([]routing.XorName{tn.node.Name()}, peerNames...))

	newKeyPriv, _ := keys.GenerateKey()
	newKey := keys.FromPublicKey(&newKeyPriv.PublicKey)
	ourPrefix := tn.net.OurPrefix()

	ops := tn.handle(t, duties.EldersChanged{OurKey: newKey, OurPrefix: ourPrefix, Newbie: false})

	// The churn broadcasts our proposal and pushes replicated state.
	if len(ops) != 2 {
		t.Fatalf("Churn should emit 2 duties, not %d", len(ops))
	}
	proposalMsg := ops[0].(duties.Send).Msg.Msg.(messaging.RewardProposal)
	if _, ok := ops[1].(duties.Send).Msg.Msg.(messaging.StateSync); !ok {
		t.Fatal("Second duty should push section state")
	}

	f, _ := tn.node.getSectionFunds()
	if !f.IsChurning() {
		t.Fatal("Funds should be churning after an Elder change")
	}

	// Independent peers derive the same credits from the same facts.
	credits, err := funds.ChurnCredits(newKey, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(proposalMsg.Credits) != 1 || proposalMsg.Credits[0].ID != credits[0].ID {
		t.Fatal("Our proposal should re-issue the pending payments to the new key")
	}

	threshold := section.SupermajorityThreshold(3)
	peers := make([]*funds.RewardProcess, 2)
	for i, priv := range []*ecdsa.PrivateKey{peer1, peer2} {
		key := priv
		signer := signerFunc(func(d []byte) ([]byte, error) { return keys.Sign(key, d) })
		peers[i], err = funds.NewRewardProcess(keys.NodeName(&key.PublicKey), newKey,
			ourPrefix.Name(), credits, threshold, signer, tn.node.logger)
		if err != nil {
			t.Fatal(err)
		}
	}

	// A payment arriving mid-churn lands in the payments map.
	midChurn := testProof(t, 11)
	tn.handle(t, duties.AddPayment{Credit: midChurn})

	// Peer proposals reach quorum.
	for _, peer := range peers {
		tn.handle(t, duties.ReceiveRewardProposal{Proposal: peer.OurProposal()})
	}
	if f.Process().Stage() != funds.Accumulating {
		t.Fatalf("Stage should be %v, not %v", funds.Accumulating, f.Process().Stage())
	}

	// Peer evidence completes the round.
	tn.handle(t, duties.ReceiveRewardAccumulation{Accumulation: peers[0].OurAccumulation()})
	ops = tn.handle(t, duties.ReceiveRewardAccumulation{Accumulation: peers[1].OurAccumulation()})

	// Completion emits one propagation per proof.
	var propagated int
	for _, op := range ops {
		if send, ok := op.(duties.Send); ok {
			if _, ok := send.Msg.Msg.(messaging.PropagateCredit); ok {
				propagated++
				if send.Msg.Dst != messaging.SectionDst(credits[0].Recipient.Name()) {
					t.Fatal("Credit should propagate to the payee's section")
				}
			}
		}
	}
	if propagated != 1 {
		t.Fatalf("Completion should propagate 1 credit, not %d", propagated)
	}

	// Funds swap back to steady state, carrying the payments present right
	// before the transition.
	f, _ = tn.node.getSectionFunds()
	if f.IsChurning() {
		t.Fatal("Funds should be keeping after completion")
	}
	payments := f.Payments()
	if _, ok := payments[midChurn.Credit.ID]; !ok {
		t.Fatal("Mid-churn payment should survive the transition")
	}
}

type signerFunc func([]byte) ([]byte, error)

func (f signerFunc) Sign(d []byte) ([]byte, error) { return f(d) }

func TestSynchState(t *testing.T) {
	tn := newTestNode(t)
	tn.handle(t, duties.Genesis{})

	node := routing.RandomName()
	walletKey, _ := keys.GenerateKey()
	wallet := keys.FromPublicKey(&walletKey.PublicKey)

	tn.handle(t, duties.SynchState{
		NodeWallets: map[routing.XorName]data.NodeWallet{
			node: {Key: wallet, Age: 6},
		},
		UserWallets: []data.WalletHistory{
			{Key: wallet, Balance: 77, Version: 3},
		},
	})

	f, _ := tn.node.getSectionFunds()
	entry, ok := f.Wallets().Get(node)
	if !ok || entry.Age != 6 {
		t.Fatalf("Synched wallet should be registered with age 6, got %+v", entry)
	}

	balance, err := tn.replicas.Balance(wallet)
	if err != nil {
		t.Fatal(err)
	}
	if balance != 77 {
		t.Fatalf("Synched history should set the balance to 77, not %d", balance)
	}
}

func TestReachingMaxCapacityNotifiesSection(t *testing.T) {
	tn := newTestNode(t)
	tn.handle(t, duties.LevelDown{})

	ops := tn.handle(t, duties.ReachingMaxCapacity{})
	if len(ops) != 1 {
		t.Fatalf("Should emit 1 duty, not %d", len(ops))
	}
	send := ops[0].(duties.Send)
	full, ok := send.Msg.Msg.(messaging.StorageFull)
	if !ok {
		t.Fatalf("Message should be StorageFull, not %s", send.Msg.Msg.Kind())
	}
	if full.Node != tn.node.Name() {
		t.Fatal("Notification should name this node")
	}
}

func TestRunDutyDrainsFollowUps(t *testing.T) {
	tn := newTestNode(t)
	tn.handle(t, duties.LevelDown{})

	// WriteChunk produces a Send follow-up, which RunDuty feeds back through
	// the dispatcher and out the network.
	tn.node.RunDuty(duties.WriteChunk{
		Write:  data.ChunkWrite{Chunk: data.Chunk{Value: []byte("bytes")}},
		MsgID:  routing.RandomMessageID(),
		Origin: messaging.EndUser{Name: routing.RandomName()},
	})

	sent := tn.net.Sent()
	if len(sent) != 1 {
		t.Fatalf("One message should have left the node, not %d", len(sent))
	}
	if _, ok := sent[0].Msg.(messaging.DataResponse); !ok {
		t.Fatalf("Sent message should be a DataResponse, not %s", sent[0].Msg.Kind())
	}
}

func TestSectionSplitAsOldie(t *testing.T) {
	tn := newTestNode(t)
	tn.handle(t, duties.Genesis{})

	tn.handle(t, duties.AddPayment{Credit: testProof(t, 1000)})

	ourKeyPriv, _ := keys.GenerateKey()
	siblingKeyPriv, _ := keys.GenerateKey()
	ourKey := keys.FromPublicKey(&ourKeyPriv.PublicKey)
	siblingKey := keys.FromPublicKey(&siblingKeyPriv.PublicKey)

	ops := tn.handle(t, duties.SectionSplit{
		OurKey:     ourKey,
		OurPrefix:  tn.net.OurPrefix(),
		SiblingKey: siblingKey,
		Newbie:     false,
	})
	if len(ops) != 2 {
		t.Fatalf("Split should emit 2 duties, not %d", len(ops))
	}

	proposal := ops[0].(duties.Send).Msg.Msg.(messaging.RewardProposal)
	if len(proposal.Credits) != 2 {
		t.Fatalf("Split should propose 2 credits, not %d", len(proposal.Credits))
	}
	var total data.Token
	for _, c := range proposal.Credits {
		total += c.Amount
	}
	if total != 1000 {
		t.Fatalf("Split should conserve the total, got %d", total)
	}

	f, _ := tn.node.getSectionFunds()
	if !f.IsChurning() {
		t.Fatal("Funds should be churning after a split")
	}
}

func TestSectionSplitAsNewbie(t *testing.T) {
	tn := newTestNode(t)
	tn.handle(t, duties.LevelDown{})

	ourKeyPriv, _ := keys.GenerateKey()
	siblingKeyPriv, _ := keys.GenerateKey()

	ops := tn.handle(t, duties.SectionSplit{
		OurKey:     keys.FromPublicKey(&ourKeyPriv.PublicKey),
		OurPrefix:  tn.net.OurPrefix(),
		SiblingKey: keys.FromPublicKey(&siblingKeyPriv.PublicKey),
		Newbie:     true,
	})
	if len(ops) != 0 {
		t.Fatalf("Newbie split should emit no duties, got %d", len(ops))
	}
	if tn.node.GetRole() != Elder {
		t.Fatalf("Newbie should level up to %v, not %v", Elder, tn.node.GetRole())
	}
	// The new section starts with empty funds; state arrives via SynchState.
	f, _ := tn.node.getSectionFunds()
	if f.IsChurning() {
		t.Fatal("Newbie funds should start in keeping mode")
	}
}
