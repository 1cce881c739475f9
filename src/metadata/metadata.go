package metadata

import (
	"github.com/sirupsen/logrus"

	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/duties"
	"github.com/vaultnet/vaultnode/src/messaging"
	"github.com/vaultnet/vaultnode/src/routing"
)

// Metadata is the Elder subsystem tracking which Adults hold which chunks.
// It owns no chunk bytes itself; it keeps the address-to-holders records and
// drives replication when a holder is lost.
type Metadata struct {
	holders map[routing.XorName]map[routing.XorName]struct{}
	served  map[routing.XorName]map[routing.XorName]struct{}
	logger  *logrus.Entry
}

// NewMetadata returns an empty metadata store. Records are rebuilt from
// section state synchronization, not from disk.
func NewMetadata(logger *logrus.Entry) *Metadata {
	return &Metadata{
		holders: map[routing.XorName]map[routing.XorName]struct{}{},
		served:  map[routing.XorName]map[routing.XorName]struct{}{},
		logger:  logger,
	}
}

// Read answers a metadata query with the holder record of the address.
func (m *Metadata) Read(query data.Query, msgID routing.MessageID, origin messaging.EndUser) (duties.Duty, error) {
	response := messaging.DataResponse{CorrelationID: msgID}
	if held, ok := m.holders[query.Address]; ok {
		for holder := range held {
			response.Holders = append(response.Holders, holder)
		}
	} else {
		response.Error = "no record for address"
	}

	return duties.Send{Msg: messaging.OutgoingMsg{
		ID:          routing.RandomMessageID(),
		Msg:         response,
		Dst:         messaging.NodeDst(origin.Name),
		Aggregation: messaging.AggregationNone,
	}}, nil
}

// Write registers a chunk with its elected holders and instructs them to
// store it.
func (m *Metadata) Write(cmd data.Cmd, msgID routing.MessageID, origin messaging.EndUser) (duties.Duty, error) {
	address := cmd.Chunk.Name()
	m.Register(address, cmd.Holders)

	return duties.SendToNodes{
		Targets: cmd.Holders,
		Msg:     messaging.StoreChunk{Chunk: cmd.Chunk},
		ID:      msgID,
	}, nil
}

// Register records the holders of an address.
func (m *Metadata) Register(address routing.XorName, holders []routing.XorName) {
	if _, ok := m.holders[address]; !ok {
		m.holders[address] = map[routing.XorName]struct{}{}
	}
	for _, holder := range holders {
		m.holders[address][holder] = struct{}{}
		if _, ok := m.served[holder]; !ok {
			m.served[holder] = map[routing.XorName]struct{}{}
		}
		m.served[holder][address] = struct{}{}
	}
}

// Holders returns the recorded holders of an address.
func (m *Metadata) Holders(address routing.XorName) []routing.XorName {
	var out []routing.XorName
	for holder := range m.holders[address] {
		out = append(out, holder)
	}
	return out
}

// TriggerChunkReplication evicts a departed holder from the records and
// returns one replication duty per address it held, targeting the remaining
// holders. An address with no remaining holder is logged as lost; there is
// nothing left to replicate from.
func (m *Metadata) TriggerChunkReplication(lost routing.XorName) ([]duties.Duty, error) {
	addresses, ok := m.served[lost]
	if !ok {
		return nil, nil
	}

	var ops []duties.Duty
	for address := range addresses {
		delete(m.holders[address], lost)
		remaining := m.Holders(address)
		if len(remaining) == 0 {
			delete(m.holders, address)
			m.logger.WithField("address", address).Warn("Last holder of chunk lost")
			continue
		}
		ops = append(ops, duties.ReplicateChunk{
			Address:        address,
			CurrentHolders: remaining,
			ID:             routing.CombineID(address, lost),
		})
	}
	delete(m.served, lost)

	m.logger.WithFields(logrus.Fields{
		"node":   lost,
		"chunks": len(ops),
	}).Info("Triggering chunk replication for lost member")

	return ops, nil
}
