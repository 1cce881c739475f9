package network

import (
	"sync"

	"github.com/vaultnet/vaultnode/src/messaging"
	"github.com/vaultnet/vaultnode/src/routing"
	"github.com/vaultnet/vaultnode/src/section"
)

// NodeSend records one SendToNodes call.
type NodeSend struct {
	Targets []routing.XorName
	Msg     messaging.Message
	ID      routing.MessageID
}

// InmemNetwork implements Network fully in memory. It is used in tests and
// for running a standalone node without a transport binding: sent messages
// are recorded instead of delivered.
type InmemNetwork struct {
	sync.Mutex

	name    routing.XorName
	age     uint8
	prefix  routing.Prefix
	members section.Members
	elders  []routing.XorName
	key     routing.PublicKey
	joins   bool

	sent      []messaging.OutgoingMsg
	nodeSends []NodeSend
}

// NewInmemNetwork returns an in-memory network with the given self view.
func NewInmemNetwork(name routing.XorName, age uint8, prefix routing.Prefix, key routing.PublicKey) *InmemNetwork {
	return &InmemNetwork{
		name:    name,
		age:     age,
		prefix:  prefix,
		key:     key,
		members: section.Members{name: age},
		elders:  []routing.XorName{name},
	}
}

// OurName implements Network.
func (n *InmemNetwork) OurName() routing.XorName {
	return n.name
}

// OurAge implements Network.
func (n *InmemNetwork) OurAge() uint8 {
	n.Lock()
	defer n.Unlock()
	return n.age
}

// OurPrefix implements Network.
func (n *InmemNetwork) OurPrefix() routing.Prefix {
	n.Lock()
	defer n.Unlock()
	return n.prefix
}

// OurMembers implements Network.
func (n *InmemNetwork) OurMembers() section.Members {
	n.Lock()
	defer n.Unlock()
	out := make(section.Members, len(n.members))
	for name, age := range n.members {
		out[name] = age
	}
	return out
}

// OurElders implements Network.
func (n *InmemNetwork) OurElders() []routing.XorName {
	n.Lock()
	defer n.Unlock()
	return append([]routing.XorName{}, n.elders...)
}

// SectionKey implements Network.
func (n *InmemNetwork) SectionKey() routing.PublicKey {
	n.Lock()
	defer n.Unlock()
	return n.key
}

// SetJoinsAllowed implements Network.
func (n *InmemNetwork) SetJoinsAllowed(allowed bool) error {
	n.Lock()
	defer n.Unlock()
	n.joins = allowed
	return nil
}

// Send implements Network by recording the message.
func (n *InmemNetwork) Send(msg messaging.OutgoingMsg) error {
	n.Lock()
	defer n.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

// SendToNodes implements Network by recording the send.
func (n *InmemNetwork) SendToNodes(targets []routing.XorName, msg messaging.Message, id routing.MessageID) error {
	n.Lock()
	defer n.Unlock()
	n.nodeSends = append(n.nodeSends, NodeSend{Targets: targets, Msg: msg, ID: id})
	return nil
}

// Mutators and accessors for tests and the standalone runner.

// SetMembers replaces the membership snapshot.
func (n *InmemNetwork) SetMembers(members section.Members) {
	n.Lock()
	defer n.Unlock()
	n.members = members
}

// SetElders replaces the Elder set.
func (n *InmemNetwork) SetElders(elders []routing.XorName) {
	n.Lock()
	defer n.Unlock()
	n.elders = append([]routing.XorName{}, elders...)
}

// SetAge sets this node's tracked age.
func (n *InmemNetwork) SetAge(age uint8) {
	n.Lock()
	defer n.Unlock()
	n.age = age
	n.members[n.name] = age
}

// SetSectionKey sets the section key.
func (n *InmemNetwork) SetSectionKey(key routing.PublicKey) {
	n.Lock()
	defer n.Unlock()
	n.key = key
}

// JoinsAllowed returns the last joins-allowed toggle.
func (n *InmemNetwork) JoinsAllowed() bool {
	n.Lock()
	defer n.Unlock()
	return n.joins
}

// Sent returns the recorded outgoing messages.
func (n *InmemNetwork) Sent() []messaging.OutgoingMsg {
	n.Lock()
	defer n.Unlock()
	return append([]messaging.OutgoingMsg{}, n.sent...)
}

// NodeSends returns the recorded node-addressed sends.
func (n *InmemNetwork) NodeSends() []NodeSend {
	n.Lock()
	defer n.Unlock()
	return append([]NodeSend{}, n.nodeSends...)
}
