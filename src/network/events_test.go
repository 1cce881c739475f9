package network

import (
	"testing"

	"github.com/vaultnet/vaultnode/src/common"
	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/duties"
	"github.com/vaultnet/vaultnode/src/keys"
	"github.com/vaultnet/vaultnode/src/messaging"
	"github.com/vaultnet/vaultnode/src/routing"
	"github.com/vaultnet/vaultnode/src/section"
)

func newTestTranslator(t *testing.T, age uint8) (*EventTranslator, *InmemNetwork) {
	t.Helper()

	key, err := keys.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	name := keys.NodeName(&key.PublicKey)
	net := NewInmemNetwork(name, age, routing.NewPrefix(name, 0),
		keys.FromPublicKey(&key.PublicKey))
	return NewEventTranslator(net, common.NewTestEntry(t, "network")), net
}

func TestMembershipEvents(t *testing.T) {
	translator, _ := newTestTranslator(t, section.MinAdultAge)

	lost := routing.RandomName()
	duty := translator.ProcessEvent(MemberLeft{Name: lost, Age: 6})
	if d, ok := duty.(duties.ProcessLostMember); !ok || d.Name != lost {
		t.Fatalf("MemberLeft should map to ProcessLostMember, got %v", duty)
	}

	joined := routing.RandomName()
	duty = translator.ProcessEvent(MemberJoined{Name: joined, Age: 5})
	if d, ok := duty.(duties.ProcessNewMember); !ok || d.Name != joined {
		t.Fatalf("MemberJoined should map to ProcessNewMember, got %v", duty)
	}

	previous := routing.RandomName()
	duty = translator.ProcessEvent(MemberJoined{Name: joined, PreviousName: &previous, Age: 5})
	d, ok := duty.(duties.ProcessRelocatedMember)
	if !ok || d.OldName != previous || d.NewName != joined {
		t.Fatalf("Relocation should map to ProcessRelocatedMember, got %v", duty)
	}
}

func TestEldersChangedTransitions(t *testing.T) {
	translator, net := newTestTranslator(t, section.MinAdultAge)

	key := net.SectionKey()
	prefix := net.OurPrefix()

	// Not in the new Elder set and never were: nothing to do.
	strangers := []routing.XorName{routing.RandomName()}
	if duty := translator.ProcessEvent(EldersChanged{Key: key, Prefix: prefix, Elders: strangers}); duty != nil {
		t.Fatalf("Non-elder should get no duty, got %v", duty)
	}

	// Promoted into the set.
	ours := []routing.XorName{net.OurName(), routing.RandomName()}
	duty := translator.ProcessEvent(EldersChanged{Key: key, Prefix: prefix, Elders: ours})
	d, ok := duty.(duties.EldersChanged)
	if !ok || !d.Newbie {
		t.Fatalf("First appearance in the set should be a newbie EldersChanged, got %v", duty)
	}

	// Still in the set on the next churn.
	duty = translator.ProcessEvent(EldersChanged{Key: key, Prefix: prefix, Elders: ours})
	d, ok = duty.(duties.EldersChanged)
	if !ok || d.Newbie {
		t.Fatalf("Staying in the set should not be a newbie change, got %v", duty)
	}

	// Dropped from the set.
	duty = translator.ProcessEvent(EldersChanged{Key: key, Prefix: prefix, Elders: strangers})
	if _, ok := duty.(duties.LevelDown); !ok {
		t.Fatalf("Leaving the set should map to LevelDown, got %v", duty)
	}

	// Dropped again: already an Adult, nothing to do.
	if duty := translator.ProcessEvent(EldersChanged{Key: key, Prefix: prefix, Elders: strangers}); duty != nil {
		t.Fatalf("Repeated demotion should be silent, got %v", duty)
	}
}

func TestElderSignalsRecheckAge(t *testing.T) {
	translator, net := newTestTranslator(t, section.MinAdultAge-1)

	// The transport says we are an Elder, but our age says otherwise. State
	// wins over the event.
	ours := []routing.XorName{net.OurName()}
	duty := translator.ProcessEvent(EldersChanged{
		Key:    net.SectionKey(),
		Prefix: net.OurPrefix(),
		Elders: ours,
	})
	if duty != nil {
		t.Fatalf("Underage node should ignore the Elder signal, got %v", duty)
	}

	if duty := translator.ProcessEvent(Promoted{}); duty != nil {
		t.Fatalf("Underage node should ignore promotion, got %v", duty)
	}

	// Grown up, the same promotion is honored.
	net.SetAge(section.MinAdultAge)
	duty = translator.ProcessEvent(Promoted{})
	if _, ok := duty.(duties.Genesis); !ok {
		t.Fatalf("Promotion should map to Genesis, got %v", duty)
	}
}

func TestPromotionRequiresElderSet(t *testing.T) {
	translator, net := newTestTranslator(t, section.MinAdultAge)

	// The promotion signal races ahead of the Elder set: ignore it.
	net.SetElders([]routing.XorName{routing.RandomName()})
	if duty := translator.ProcessEvent(Promoted{}); duty != nil {
		t.Fatalf("Promotion outside the Elder set should be ignored, got %v", duty)
	}

	net.SetElders([]routing.XorName{net.OurName()})
	duty := translator.ProcessEvent(Promoted{})
	if _, ok := duty.(duties.Genesis); !ok {
		t.Fatalf("Promotion should map to Genesis, got %v", duty)
	}
}

func TestDemotedAndRelocated(t *testing.T) {
	translator, _ := newTestTranslator(t, section.MinAdultAge)

	duty := translator.ProcessEvent(Demoted{})
	if _, ok := duty.(duties.LevelDown); !ok {
		t.Fatalf("Demotion should map to LevelDown, got %v", duty)
	}

	duty = translator.ProcessEvent(Relocated{})
	if _, ok := duty.(duties.LevelDown); !ok {
		t.Fatalf("Relocation should map to LevelDown, got %v", duty)
	}
}

func TestMessageMapping(t *testing.T) {
	translator, _ := newTestTranslator(t, section.MinAdultAge)
	src := routing.RandomName()

	// Malformed payloads are dropped, not escalated.
	if duty := translator.ProcessEvent(MessageReceived{Content: []byte("not a frame"), Src: src}); duty != nil {
		t.Fatalf("Garbage payload should be dropped, got %v", duty)
	}

	// A replication handover carries its correlation id through the frame.
	chunk := data.Chunk{Value: []byte("chunk bytes")}
	id := routing.RandomMessageID()
	raw, err := messaging.Encode(messaging.ReplicateChunk{Chunk: chunk}, id)
	if err != nil {
		t.Fatal(err)
	}
	duty := translator.ProcessEvent(MessageReceived{Content: raw, Src: src})
	store, ok := duty.(duties.StoreChunkForReplication)
	if !ok {
		t.Fatalf("ReplicateChunk should map to StoreChunkForReplication, got %v", duty)
	}
	if store.CorrelationID != id {
		t.Fatal("The frame id must surface as the correlation id")
	}

	// A full-store report maps to the counter duty.
	full := routing.RandomName()
	raw, err = messaging.Encode(messaging.StorageFull{Node: full}, routing.RandomMessageID())
	if err != nil {
		t.Fatal(err)
	}
	duty = translator.ProcessEvent(MessageReceived{Content: raw, Src: src})
	if d, ok := duty.(duties.IncrementFullNodeCount); !ok || d.NodeID != full {
		t.Fatalf("StorageFull should map to IncrementFullNodeCount, got %v", duty)
	}

	// A response kind needs no local duty.
	raw, err = messaging.Encode(messaging.BalanceResponse{Balance: 1}, routing.RandomMessageID())
	if err != nil {
		t.Fatal(err)
	}
	if duty := translator.ProcessEvent(MessageReceived{Content: raw, Src: src}); duty != nil {
		t.Fatalf("Response kinds should yield no duty, got %v", duty)
	}
}
