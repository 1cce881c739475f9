package node

import (
	"sync/atomic"
)

// Role captures the capability set of a node: Uninitialized, Adult (chunk
// store only), or Elder (metadata, transfers, and section funds).
//
// The role is not itself the source of truth. The subsystem handles on the
// Node are: the role value mirrors them for observers, and the two only
// diverge transiently inside a single duty-handling step.
type Role uint32

const (
	// Uninitialized is the role before the node first joins a section.
	Uninitialized Role = iota

	// Adult is the role in which a node stores and serves chunks.
	Adult

	// Elder is the role in which a node manages section metadata, client
	// transfers, and section reward funds.
	Elder
)

// String returns the string representation of a Role.
func (r Role) String() string {
	switch r {
	case Uninitialized:
		return "Uninitialized"
	case Adult:
		return "Adult"
	case Elder:
		return "Elder"
	default:
		return "Unknown"
	}
}

// roleManager wraps a Role with atomic get and set methods, so that
// observers outside the duty-handling loop can read it safely.
type roleManager struct {
	role Role
}

// GetRole returns the current role.
func (m *roleManager) GetRole() Role {
	roleAddr := (*uint32)(&m.role)
	return Role(atomic.LoadUint32(roleAddr))
}

// SetRole sets the role.
func (m *roleManager) SetRole(r Role) {
	roleAddr := (*uint32)(&m.role)
	atomic.StoreUint32(roleAddr, uint32(r))
}
