// Package node is the Art-Net receive engine: the output patch table,
// per-output sequence tracking, the receive loop and the ArtPollReply
// responder.
package node

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"artnode/internal/artnet"
	"artnode/internal/logger"
	"artnode/internal/mailbox"
	"artnode/internal/stats"
)

// Node is one Art-Net node instance. Outputs must be patched before Serve.
type Node struct {
	log *logger.Log

	mu   sync.RWMutex
	opts Options
	conn PacketConn

	patch     *patch
	stats     stats.Node
	pollCount atomic.Uint32
}

// New creates a node with an empty patch table.
func New(log logger.Logger, opts Options) (*Node, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Node{
		log:   log.With(logger.Fields{"module": "node"}),
		opts:  copyOptions(opts),
		patch: newPatch(),
	}, nil
}

func copyOptions(o Options) Options {
	if o.IP != nil {
		o.IP = append(net.IP(nil), o.IP...)
	}
	if o.MAC != nil {
		o.MAC = append(net.HardwareAddr(nil), o.MAC...)
	}
	return o
}

// Options returns a copy of the current options.
func (n *Node) Options() Options {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return copyOptions(n.opts)
}

// SetOptions replaces the options. The port is fixed once the socket is
// bound, and the base address cannot move away from patched outputs.
func (n *Node) SetOptions(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn != nil && opts.Port != n.opts.Port {
		return fmt.Errorf("%w: %d -> %d", ErrPortLocked, n.opts.Port, opts.Port)
	}
	if !n.patch.fits(opts.Address) {
		return fmt.Errorf("%w: base %s does not cover patched outputs", ErrSubnetMismatch, opts.Address)
	}

	n.opts = copyOptions(opts)
	n.log.With(logger.Fields{"address": opts.Address.String()}).Info("options updated")
	return nil
}

// AddOutput patches a single-port output.
func (n *Node) AddOutput(addr artnet.Address, mb *mailbox.Mailbox) (*Output, error) {
	return n.addOutput(&Output{address: addr, mailbox: mb})
}

// AddGroupedOutput patches an output whose writes also signal index on group.
func (n *Node) AddGroupedOutput(addr artnet.Address, index mailbox.GroupIndex, mb *mailbox.Mailbox, group *mailbox.Group) (*Output, error) {
	if err := index.Validate(); err != nil {
		return nil, err
	}
	if group == nil {
		return nil, fmt.Errorf("grouped output %s: nil group", addr)
	}
	return n.addOutput(&Output{address: addr, mailbox: mb, group: group, groupIndex: index})
}

func (n *Node) addOutput(o *Output) (*Output, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.patch.add(n.opts.Address, o); err != nil {
		return nil, err
	}

	n.log.With(logger.Fields{
		"universe": o.address.String(),
		"index":    o.index,
		"grouped":  o.group != nil,
	}).Debug("output patched")
	return o, nil
}

// Dispatch writes f to the output patched at addr. It reports false, and
// counts a discard, when nothing is patched there. No sequence check is done.
func (n *Node) Dispatch(addr artnet.Address, f mailbox.Frame) bool {
	o := n.patch.lookup(addr)
	if o == nil {
		n.stats.DMXDiscarded()
		return false
	}
	o.deliver(f)
	return true
}

// Stats returns the node counters.
func (n *Node) Stats(reset bool) stats.NodeSnapshot {
	return n.stats.Snapshot(reset)
}

// Outputs dumps the patch table in patch order.
func (n *Node) Outputs(reset bool) []OutputStatus {
	n.mu.RLock()
	outputs := n.patch.outputs
	n.mu.RUnlock()

	result := make([]OutputStatus, len(outputs))
	for i, o := range outputs {
		result[i] = o.status(reset)
	}
	return result
}

// LocalAddr returns the bound socket address, or nil before Serve.
func (n *Node) LocalAddr() net.Addr {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.conn == nil {
		return nil
	}
	return n.conn.LocalAddr()
}

// Close closes the socket, which ends Serve.
func (n *Node) Close() error {
	n.mu.RLock()
	conn := n.conn
	n.mu.RUnlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}
