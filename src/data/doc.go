/*
Package data defines the domain value types exchanged between sections:
immutable chunks and their access requests, reward credits and their quorum
agreement proofs, and transfer types consumed by the ledger collaborator.

Everything here is plain data. The packages chunks, metadata, transfers and
funds implement behavior over these types.
*/
package data
