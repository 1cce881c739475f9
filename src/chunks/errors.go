package chunks

import "fmt"

// StoreErrType ...
type StoreErrType uint32

const (
	// ChunkNotFound ...
	ChunkNotFound StoreErrType = iota
	// InvalidChunk ...
	InvalidChunk
)

// StoreErr is a typed chunk store failure.
type StoreErr struct {
	errType StoreErrType
	key     string
}

// NewStoreErr ...
func NewStoreErr(errType StoreErrType, key string) StoreErr {
	return StoreErr{errType: errType, key: key}
}

// Error implements the error interface.
func (e StoreErr) Error() string {
	m := ""
	switch e.errType {
	case ChunkNotFound:
		m = "Chunk Not Found"
	case InvalidChunk:
		m = "Invalid Chunk"
	}
	return fmt.Sprintf("%s, %s", m, e.key)
}

// IsChunkNotFound checks whether an error is a missing-chunk failure.
func IsChunkNotFound(err error) bool {
	storeErr, ok := err.(StoreErr)
	return ok && storeErr.errType == ChunkNotFound
}
