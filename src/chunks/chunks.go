package chunks

import (
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/vaultnet/vaultnode/src/data"
	"github.com/vaultnet/vaultnode/src/duties"
	"github.com/vaultnet/vaultnode/src/messaging"
	"github.com/vaultnet/vaultnode/src/routing"
)

// ChunkDbDir is the name of the folder containing the Badger chunk database,
// under the node's root dir.
const ChunkDbDir = "chunks_db"

// Chunks is the Adult subsystem: it stores and serves immutable chunks, takes
// part in replication, and watches its own capacity. It exists only while the
// node is an Adult; promotion tears it down.
type Chunks struct {
	nodeName    routing.XorName
	store       *Store
	maxCapacity uint64
	logger      *logrus.Entry
}

// NewChunks opens the chunk store rooted at the node's designated storage
// path.
func NewChunks(nodeName routing.XorName, rootDir string, maxCapacity uint64, logger *logrus.Entry) (*Chunks, error) {
	store, err := NewStore(filepath.Join(rootDir, ChunkDbDir))
	if err != nil {
		return nil, err
	}
	return &Chunks{
		nodeName:    nodeName,
		store:       store,
		maxCapacity: maxCapacity,
		logger:      logger,
	}, nil
}

// Read serves a chunk read, answering the originating end user.
func (c *Chunks) Read(read data.ChunkRead, msgID routing.MessageID, origin messaging.EndUser) (duties.Duty, error) {
	response := messaging.DataResponse{CorrelationID: msgID}
	value, err := c.store.Get(read.Address)
	if err != nil {
		if !IsChunkNotFound(err) {
			return nil, err
		}
		response.Error = err.Error()
	} else {
		response.Chunk = &data.Chunk{Value: value}
	}

	return duties.Send{Msg: messaging.OutgoingMsg{
		ID:          routing.RandomMessageID(),
		Msg:         response,
		Dst:         messaging.NodeDst(origin.Name),
		Aggregation: messaging.AggregationNone,
	}}, nil
}

// Write stores a chunk and acknowledges the originating end user.
func (c *Chunks) Write(write data.ChunkWrite, msgID routing.MessageID, origin messaging.EndUser) (duties.Duty, error) {
	if err := c.store.Put(write.Chunk.Name(), write.Chunk.Value); err != nil {
		return nil, err
	}

	return duties.Send{Msg: messaging.OutgoingMsg{
		ID:          routing.RandomMessageID(),
		Msg:         messaging.DataResponse{CorrelationID: msgID},
		Dst:         messaging.NodeDst(origin.Name),
		Aggregation: messaging.AggregationNone,
	}}, nil
}

// CheckStorage emits a capacity duty when used space has crossed the
// configured maximum.
func (c *Chunks) CheckStorage() []duties.Duty {
	used := c.store.UsedSpace()
	if used < c.maxCapacity {
		return nil
	}
	c.logger.WithFields(logrus.Fields{
		"used": used,
		"max":  c.maxCapacity,
	}).Info("Chunk storage reached max capacity")
	return []duties.Duty{duties.ReachingMaxCapacity{}}
}

// ReplicateChunk asks the current holders of a chunk to send it to this
// node, which was elected as a new holder.
func (c *Chunks) ReplicateChunk(address routing.XorName, currentHolders []routing.XorName, msgID routing.MessageID) (duties.Duty, error) {
	return duties.SendToNodes{
		Targets: currentHolders,
		Msg: messaging.RequestChunk{
			Address:   address,
			NewHolder: c.nodeName,
		},
		ID: msgID,
	}, nil
}

// GetChunkForReplication reads a held chunk and sends it to its new holder.
// The message id is the deterministic combination of the chunk address and
// the new holder's name, which is the correlation the receiver re-derives.
func (c *Chunks) GetChunkForReplication(address routing.XorName, newHolder routing.XorName) (duties.Duty, error) {
	value, err := c.store.Get(address)
	if err != nil {
		return nil, err
	}
	return duties.Send{Msg: messaging.OutgoingMsg{
		ID:          routing.CombineID(address, newHolder),
		Msg:         messaging.ReplicateChunk{Chunk: data.Chunk{Value: value}},
		Dst:         messaging.NodeDst(newHolder),
		Aggregation: messaging.AggregationNone,
	}}, nil
}

// StoreReplicatedChunk stores chunk bytes received from a current holder.
// Correlation checking happens in the dispatcher before this is called.
func (c *Chunks) StoreReplicatedChunk(chunk data.Chunk) error {
	return c.store.Put(chunk.Name(), chunk.Value)
}

// Has reports whether this node holds the chunk at an address.
func (c *Chunks) Has(address routing.XorName) (bool, error) {
	return c.store.Has(address)
}

// UsedSpace returns the approximate number of bytes stored.
func (c *Chunks) UsedSpace() uint64 {
	return c.store.UsedSpace()
}

// Close closes the underlying store.
func (c *Chunks) Close() error {
	return c.store.Close()
}
