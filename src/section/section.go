package section

import (
	"github.com/vaultnet/vaultnode/src/routing"
)

// MinAdultAge is the age below which a node is considered an infant and takes
// no storage or management duties. Promotion and demotion signals from the
// transport are re-checked against the node's tracked age, because events and
// true state can race.
const MinAdultAge uint8 = 5

// Members is a snapshot of the section's live membership: node identity to
// age. It is always sourced from the network collaborator at the point of
// use, never cached across duty-handling steps.
type Members map[routing.XorName]uint8

// Contains reports whether the name is a current section member.
func (m Members) Contains(name routing.XorName) bool {
	_, ok := m[name]
	return ok
}

// Elders describes a section's Elder set: the section prefix, the section
// key, and the Elder names. It is the payload answered to a remote section
// asking who manages a wallet.
type Elders struct {
	Prefix routing.Prefix
	Key    routing.PublicKey
	Names  []routing.XorName
}

// Address returns the name of the section key: where messages for this Elder
// set are addressed.
func (e Elders) Address() routing.XorName {
	return e.Key.Name()
}

// SupermajorityThreshold returns the number of agreeing Elders required to
// finalize a credit, out of an Elder set of the given size. The threshold is
// re-derived from live membership at the start of every churn round.
func SupermajorityThreshold(elderCount int) int {
	if elderCount <= 0 {
		return 1
	}
	return 2*elderCount/3 + 1
}
