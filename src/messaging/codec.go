package messaging

import (
	"bytes"
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/vaultnet/vaultnode/src/routing"
)

// envelope is the wire frame around a message: the variant kind, the message
// id, and the codec-encoded payload.
type envelope struct {
	Kind    string
	ID      routing.MessageID
	Payload []byte
}

// registry maps variant kinds to payload constructors for decoding.
var registry = map[string]func() Message{
	ForwardedChunkRead{}.Kind():    func() Message { return &ForwardedChunkRead{} },
	ForwardedDataQuery{}.Kind():    func() Message { return &ForwardedDataQuery{} },
	DataResponse{}.Kind():          func() Message { return &DataResponse{} },
	RequestChunk{}.Kind():          func() Message { return &RequestChunk{} },
	ReplicateChunk{}.Kind():        func() Message { return &ReplicateChunk{} },
	StoreChunk{}.Kind():            func() Message { return &StoreChunk{} },
	StorageFull{}.Kind():           func() Message { return &StorageFull{} },
	RewardProposal{}.Kind():        func() Message { return &RewardProposal{} },
	RewardAccumulation{}.Kind():    func() Message { return &RewardAccumulation{} },
	PropagateCredit{}.Kind():       func() Message { return &PropagateCredit{} },
	WalletRegistration{}.Kind():    func() Message { return &WalletRegistration{} },
	NodeWalletKeyResponse{}.Kind(): func() Message { return &NodeWalletKeyResponse{} },
	StateSync{}.Kind():             func() Message { return &StateSync{} },
	SectionEldersQuery{}.Kind():    func() Message { return &SectionEldersQuery{} },
	SectionEldersResponse{}.Kind(): func() Message { return &SectionEldersResponse{} },
	TransferValidated{}.Kind():     func() Message { return &TransferValidated{} },
	TransferRegistered{}.Kind():    func() Message { return &TransferRegistered{} },
	TransferHistory{}.Kind():       func() Message { return &TransferHistory{} },
	BalanceResponse{}.Kind():       func() Message { return &BalanceResponse{} },
	StoreCostResponse{}.Kind():     func() Message { return &StoreCostResponse{} },
	ReplicaEventsResponse{}.Kind(): func() Message { return &ReplicaEventsResponse{} },
}

func jsonHandle() *codec.JsonHandle {
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	return jh
}

// Encode frames a message and its id for the wire.
func Encode(msg Message, id routing.MessageID) ([]byte, error) {
	payload := new(bytes.Buffer)
	if err := codec.NewEncoder(payload, jsonHandle()).Encode(msg); err != nil {
		return nil, err
	}

	env := envelope{
		Kind:    msg.Kind(),
		ID:      id,
		Payload: payload.Bytes(),
	}

	framed := new(bytes.Buffer)
	if err := codec.NewEncoder(framed, jsonHandle()).Encode(env); err != nil {
		return nil, err
	}

	return framed.Bytes(), nil
}

// Decode parses a wire frame back into a message and its id. An unknown kind
// or a malformed payload is an error; callers at the network boundary log and
// drop, they never escalate.
func Decode(raw []byte) (Message, routing.MessageID, error) {
	var env envelope
	if err := codec.NewDecoder(bytes.NewBuffer(raw), jsonHandle()).Decode(&env); err != nil {
		return nil, routing.MessageID{}, err
	}

	build, ok := registry[env.Kind]
	if !ok {
		return nil, routing.MessageID{}, fmt.Errorf("unknown message kind %q", env.Kind)
	}

	msg := build()
	if err := codec.NewDecoder(bytes.NewBuffer(env.Payload), jsonHandle()).Decode(msg); err != nil {
		return nil, routing.MessageID{}, err
	}

	return msg, env.ID, nil
}
