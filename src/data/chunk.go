package data

import (
	"github.com/vaultnet/vaultnode/src/routing"
)

// Chunk is an immutable blob of client data. Its address is derived from its
// content, so a chunk can never be overwritten with different bytes.
type Chunk struct {
	Value []byte
}

// Name returns the content address of the chunk.
func (c Chunk) Name() routing.XorName {
	return routing.HashedName(c.Value)
}

// ChunkRead is a request to read the chunk at an address.
type ChunkRead struct {
	Address routing.XorName
}

// DstAddress returns the address the request operates on, used to decide
// which section is responsible for it.
func (r ChunkRead) DstAddress() routing.XorName {
	return r.Address
}

// ChunkWrite is a request to store a chunk.
type ChunkWrite struct {
	Chunk Chunk
}

// DstAddress returns the address the request operates on.
func (w ChunkWrite) DstAddress() routing.XorName {
	return w.Chunk.Name()
}

// Query is a metadata read: it asks the data section for the record of a
// chunk address.
type Query struct {
	Address routing.XorName
}

// DstAddress returns the address the query operates on.
func (q Query) DstAddress() routing.XorName {
	return q.Address
}

// Cmd is a metadata write: it registers a chunk with the set of Adults
// elected to hold it.
type Cmd struct {
	Chunk   Chunk
	Holders []routing.XorName
}

// DstAddress returns the address the command operates on.
func (c Cmd) DstAddress() routing.XorName {
	return c.Chunk.Name()
}
