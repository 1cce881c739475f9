package messaging

import (
	"github.com/vaultnet/vaultnode/src/routing"
)

// Message is one of the closed set of node-to-node message variants. Each
// variant is a concrete struct carrying exactly the fields it needs; Kind
// identifies the variant on the wire.
type Message interface {
	Kind() string
}

// EndUser is the originating endpoint of a client request, echoed back so the
// response can be routed to it.
type EndUser struct {
	Name routing.XorName
}

// DstKind discriminates message destinations.
type DstKind uint8

const (
	// DstNode addresses a single node by name.
	DstNode DstKind = iota
	// DstSection addresses the Elders of the section responsible for a name.
	DstSection
)

// DstLocation is the destination of an outgoing message.
type DstLocation struct {
	Kind DstKind
	Name routing.XorName
}

// NodeDst addresses a single node.
func NodeDst(name routing.XorName) DstLocation {
	return DstLocation{Kind: DstNode, Name: name}
}

// SectionDst addresses the section responsible for a name.
func SectionDst(name routing.XorName) DstLocation {
	return DstLocation{Kind: DstSection, Name: name}
}

// Aggregation controls whether the transport accumulates signatures over a
// message before delivering it.
type Aggregation uint8

const (
	// AggregationNone delivers the message as is.
	AggregationNone Aggregation = iota
	// AggregationSection delivers once a section signature is accumulated.
	AggregationSection
)

// OutgoingMsg pairs a message with its id and destination, ready to be handed
// to the transport.
type OutgoingMsg struct {
	ID          routing.MessageID
	Msg         Message
	Dst         DstLocation
	Aggregation Aggregation
}
