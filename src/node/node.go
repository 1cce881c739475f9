package node

import (
	"github.com/sirupsen/logrus"

	"github.com/vaultnet/vaultnode/src/chunks"
	"github.com/vaultnet/vaultnode/src/config"
	"github.com/vaultnet/vaultnode/src/funds"
	"github.com/vaultnet/vaultnode/src/metadata"
	"github.com/vaultnet/vaultnode/src/network"
	"github.com/vaultnet/vaultnode/src/routing"
	"github.com/vaultnet/vaultnode/src/transfers"
)

// Node is a network participant. Its role is encoded by the joint presence
// or absence of the four optional subsystem handles: an Adult holds only the
// chunk store, an Elder holds metadata, transfers, and section funds. The
// handles are replaced wholesale on every role transition, never mutated
// field by field across roles.
//
// All node state is mutated by exactly one duty-handling step at a time;
// that exclusive access is the only local synchronization required.
type Node struct {
	roleManager

	conf      *config.Config
	logger    *logrus.Entry
	validator *Validator

	networkAPI network.Network
	replicas   transfers.Replicas

	// ownsAddress decides whether a data address falls under this node's
	// section responsibility. It is a policy point: forwarding on a foreign
	// prefix is a compatibility shim pending direct routing support.
	ownsAddress func(routing.XorName) bool

	chunks       *chunks.Chunks
	metaData     *metadata.Metadata
	transfers    *transfers.Transfers
	sectionFunds *funds.SectionFunds
}

// NewNode is a factory method that returns an uninitialized Node. The role
// subsystems are constructed by the Genesis and LevelDown duties.
func NewNode(conf *config.Config, validator *Validator, networkAPI network.Network, replicas transfers.Replicas) *Node {
	n := &Node{
		conf:       conf,
		logger:     conf.Logger().WithField("this_node", validator.Name()),
		validator:  validator,
		networkAPI: networkAPI,
		replicas:   replicas,
	}
	n.ownsAddress = func(address routing.XorName) bool {
		return networkAPI.OurPrefix().Matches(address)
	}
	return n
}

// SetAddressPolicy replaces the address-ownership predicate.
func (n *Node) SetAddressPolicy(owns func(routing.XorName) bool) {
	n.ownsAddress = owns
}

// Name returns this node's identity.
func (n *Node) Name() routing.XorName {
	return n.validator.Name()
}

// getChunks returns the chunk store subsystem, or a role-mismatch error.
func (n *Node) getChunks() (*chunks.Chunks, error) {
	if n.chunks == nil {
		return nil, NewError(NoChunks)
	}
	return n.chunks, nil
}

// getMetadata returns the metadata subsystem, or a role-mismatch error.
func (n *Node) getMetadata() (*metadata.Metadata, error) {
	if n.metaData == nil {
		return nil, NewError(NoMetadata)
	}
	return n.metaData, nil
}

// getTransfers returns the transfer subsystem, or a role-mismatch error.
func (n *Node) getTransfers() (*transfers.Transfers, error) {
	if n.transfers == nil {
		return nil, NewError(NoTransfers)
	}
	return n.transfers, nil
}

// getSectionFunds returns the section funds subsystem, or a role-mismatch
// error.
func (n *Node) getSectionFunds() (*funds.SectionFunds, error) {
	if n.sectionFunds == nil {
		return nil, NewError(NoSectionFunds)
	}
	return n.sectionFunds, nil
}

// getChurningProcess returns the open reward round, or an error when the
// node is not an Elder or no round is open.
func (n *Node) getChurningProcess() (*funds.RewardProcess, error) {
	f, err := n.getSectionFunds()
	if err != nil {
		return nil, err
	}
	if !f.IsChurning() {
		return nil, NewError(NotChurning)
	}
	return f.Process(), nil
}
