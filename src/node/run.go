package node

import (
	"context"

	"github.com/vaultnet/vaultnode/src/duties"
	"github.com/vaultnet/vaultnode/src/network"
)

// Run consumes routing events until the context is cancelled or the event
// channel closes. Each event translates into at most one duty, which is then
// drained together with its follow-ups before the next event is read; the
// loop is the single mutator of node state.
func (n *Node) Run(ctx context.Context, events <-chan network.Event) error {
	translator := network.NewEventTranslator(n.networkAPI, n.logger)

	n.logger.WithField("role", n.GetRole()).Info("Node running")

	for {
		select {
		case <-ctx.Done():
			return n.Shutdown()
		case event, ok := <-events:
			if !ok {
				return n.Shutdown()
			}
			duty := translator.ProcessEvent(event)
			if duty == nil {
				continue
			}
			n.RunDuty(duty)
		}
	}
}

// RunDuty dispatches a duty and drains its follow-ups breadth-first. A
// failing duty is logged and dropped; its siblings still run. Role-mismatch
// failures are routine during transitions and logged at debug.
func (n *Node) RunDuty(duty duties.Duty) {
	queue := []duties.Duty{duty}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		ops, err := n.Handle(next)
		if err != nil {
			entry := n.logger.WithField("duty", next.String()).WithError(err)
			if IsRoleMismatch(err) {
				entry.Debug("Duty not for our role")
			} else {
				entry.Error("Duty failed")
			}
			continue
		}
		queue = append(queue, ops...)
	}
}

// Shutdown releases the node's resources. Calling it on a node without an
// open chunk store is a no-op.
func (n *Node) Shutdown() error {
	n.logger.Debug("Shutdown")
	if n.chunks != nil {
		if err := n.chunks.Close(); err != nil {
			return err
		}
		n.chunks = nil
	}
	return nil
}
