package metadata

import (
	"testing"

	"github.com/vaultnet/vaultnode/src/common"
	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/duties"
	"github.com/vaultnet/vaultnode/src/messaging"
	"github.com/vaultnet/vaultnode/src/routing"
)

func TestWriteRegistersHolders(t *testing.T) {
	m := NewMetadata(common.NewTestEntry(t, "metadata"))

	chunk := data.Chunk{Value: []byte("chunk bytes")}
	holders := []routing.XorName{routing.RandomName(), routing.RandomName()}
	msgID := routing.RandomMessageID()

	duty, err := m.Write(data.Cmd{Chunk: chunk, Holders: holders}, msgID,
		messaging.EndUser{Name: routing.RandomName()})
	if err != nil {
		t.Fatal(err)
	}

	instruct, ok := duty.(duties.SendToNodes)
	if !ok {
		t.Fatalf("Duty should be a SendToNodes, not %s", duty)
	}
	if len(instruct.Targets) != 2 {
		t.Fatalf("Both holders should be instructed, got %d", len(instruct.Targets))
	}
	if instruct.ID != msgID {
		t.Fatal("Instruction should carry the originating id")
	}
	if _, ok := instruct.Msg.(messaging.StoreChunk); !ok {
		t.Fatalf("Instruction should be a StoreChunk, not %s", instruct.Msg.Kind())
	}

	if got := len(m.Holders(chunk.Name())); got != 2 {
		t.Fatalf("Record should list 2 holders, not %d", got)
	}
}

func TestReadAnswersHolders(t *testing.T) {
	m := NewMetadata(common.NewTestEntry(t, "metadata"))

	address := routing.RandomName()
	holder := routing.RandomName()
	m.Register(address, []routing.XorName{holder})

	origin := messaging.EndUser{Name: routing.RandomName()}
	msgID := routing.RandomMessageID()

	duty, err := m.Read(data.Query{Address: address}, msgID, origin)
	if err != nil {
		t.Fatal(err)
	}
	send := duty.(duties.Send)
	response := send.Msg.Msg.(messaging.DataResponse)
	if len(response.Holders) != 1 || response.Holders[0] != holder {
		t.Fatalf("Response should list the holder, got %v", response.Holders)
	}
	if response.CorrelationID != msgID {
		t.Fatal("Response should correlate to the query")
	}

	duty, err = m.Read(data.Query{Address: routing.RandomName()}, msgID, origin)
	if err != nil {
		t.Fatal(err)
	}
	response = duty.(duties.Send).Msg.Msg.(messaging.DataResponse)
	if response.Error == "" {
		t.Fatal("Unknown address should report an error to the client")
	}
}

func TestTriggerChunkReplication(t *testing.T) {
	m := NewMetadata(common.NewTestEntry(t, "metadata"))

	lost := routing.RandomName()
	survivor := routing.RandomName()

	shared := routing.RandomName()
	orphaned := routing.RandomName()
	untouched := routing.RandomName()

	m.Register(shared, []routing.XorName{lost, survivor})
	m.Register(orphaned, []routing.XorName{lost})
	m.Register(untouched, []routing.XorName{survivor})

	ops, err := m.TriggerChunkReplication(lost)
	if err != nil {
		t.Fatal(err)
	}

	// Only the shared address can be replicated; the orphaned one has no
	// source left.
	if len(ops) != 1 {
		t.Fatalf("Should emit 1 replication duty, not %d", len(ops))
	}
	rep, ok := ops[0].(duties.ReplicateChunk)
	if !ok {
		t.Fatalf("Duty should be a ReplicateChunk, not %s", ops[0])
	}
	if rep.Address != shared {
		t.Fatalf("Duty should target the shared address, not %s", rep.Address)
	}
	if len(rep.CurrentHolders) != 1 || rep.CurrentHolders[0] != survivor {
		t.Fatalf("Remaining holders should be the survivor, got %v", rep.CurrentHolders)
	}
	if rep.ID != routing.CombineID(shared, lost) {
		t.Fatal("Duty id should combine address and lost holder")
	}

	if got := len(m.Holders(orphaned)); got != 0 {
		t.Fatalf("Orphaned record should be dropped, got %d holders", got)
	}
	if got := len(m.Holders(untouched)); got != 1 {
		t.Fatalf("Unrelated record should be intact, got %d holders", got)
	}

	// The lost node is fully evicted: a second trigger finds nothing.
	ops, err = m.TriggerChunkReplication(lost)
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 0 {
		t.Fatalf("Second trigger should be empty, got %d duties", len(ops))
	}
}
