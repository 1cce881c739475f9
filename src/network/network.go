package network

import (
	"github.com/vaultnet/vaultnode/src/messaging"
	"github.com/vaultnet/vaultnode/src/routing"
	"github.com/vaultnet/vaultnode/src/section"
)

// Network is the contract of the routing/membership collaborator: live
// section membership, this node's view of itself, and message delivery. Peer
// discovery, BLS section keys, and delivery guarantees all live behind it.
type Network interface {
	// OurName returns this node's identity.
	OurName() routing.XorName

	// OurAge returns this node's tracked age.
	OurAge() uint8

	// OurPrefix returns the prefix of this node's section.
	OurPrefix() routing.Prefix

	// OurMembers returns a snapshot of the section's live membership.
	OurMembers() section.Members

	// OurElders returns the names of the current Elder set.
	OurElders() []routing.XorName

	// SectionKey returns the current section key.
	SectionKey() routing.PublicKey

	// SetJoinsAllowed toggles whether the section admits new members.
	SetJoinsAllowed(allowed bool) error

	// Send hands a message to the transport.
	Send(msg messaging.OutgoingMsg) error

	// SendToNodes hands a message addressed to specific nodes to the
	// transport.
	SendToNodes(targets []routing.XorName, msg messaging.Message, id routing.MessageID) error
}

// Event is a membership or transport event surfaced by the Network. The set
// of variants is closed.
type Event interface {
	event()
}

// MemberLeft signals a node departing the section.
type MemberLeft struct {
	Name routing.XorName
	Age  uint8
}

func (MemberLeft) event() {}

// MemberJoined signals a node joining the section. PreviousName is set when
// the node was relocated from another section.
type MemberJoined struct {
	Name         routing.XorName
	PreviousName *routing.XorName
	Age          uint8
}

func (MemberJoined) event() {}

// EldersChanged signals a change of the section's Elder set.
type EldersChanged struct {
	Key    routing.PublicKey
	Prefix routing.Prefix
	Elders []routing.XorName
}

func (EldersChanged) event() {}

// SectionSplit signals the section splitting in two.
type SectionSplit struct {
	OurKey     routing.PublicKey
	OurPrefix  routing.Prefix
	SiblingKey routing.PublicKey
	Elders     []routing.XorName
}

func (SectionSplit) event() {}

// Promoted signals that the transport believes this node became an Elder.
type Promoted struct{}

func (Promoted) event() {}

// Demoted signals that the transport believes this node stopped being an
// Elder.
type Demoted struct{}

func (Demoted) event() {}

// Relocated signals that this node was moved to a new section.
type Relocated struct{}

func (Relocated) event() {}

// MessageReceived carries an inbound message payload.
type MessageReceived struct {
	Content []byte
	Src     routing.XorName
}

func (MessageReceived) event() {}
