// Package stats holds the operational counters of a node. Counters are
// written by the receive loop and may be read at any time from other
// goroutines.
package stats

import "sync/atomic"

// counter is a monotonically increasing value with read-and-reset.
type counter struct {
	v atomic.Uint64
}

func (c *counter) Inc() {
	c.v.Add(1)
}

func (c *counter) read(reset bool) uint64 {
	if reset {
		return c.v.Swap(0)
	}
	return c.v.Load()
}

// Node counts packets seen by the receive loop.
type Node struct {
	received     counter
	invalid      counter
	unknown      counter
	errors       counter
	pollRequests counter
	pollReplies  counter
	dmxDiscarded counter
}

// NodeSnapshot is a point-in-time copy of Node.
type NodeSnapshot struct {
	Received     uint64 `json:"received"`
	Invalid      uint64 `json:"invalid"`
	Unknown      uint64 `json:"unknown"`
	Errors       uint64 `json:"errors"`
	PollRequests uint64 `json:"poll_requests"`
	PollReplies  uint64 `json:"poll_replies"`
	DMXDiscarded uint64 `json:"dmx_discarded"`
}

func (n *Node) Received()     { n.received.Inc() }
func (n *Node) Invalid()      { n.invalid.Inc() }
func (n *Node) Unknown()      { n.unknown.Inc() }
func (n *Node) Error()        { n.errors.Inc() }
func (n *Node) PollRequest()  { n.pollRequests.Inc() }
func (n *Node) PollReply()    { n.pollReplies.Inc() }
func (n *Node) DMXDiscarded() { n.dmxDiscarded.Inc() }

// Snapshot copies the counters, zeroing them if reset is set.
func (n *Node) Snapshot(reset bool) NodeSnapshot {
	return NodeSnapshot{
		Received:     n.received.read(reset),
		Invalid:      n.invalid.read(reset),
		Unknown:      n.unknown.read(reset),
		Errors:       n.errors.read(reset),
		PollRequests: n.pollRequests.read(reset),
		PollReplies:  n.pollReplies.read(reset),
		DMXDiscarded: n.dmxDiscarded.read(reset),
	}
}

// Output counts events for a single patched output.
type Output struct {
	dmxRecv   counter
	seqSkip   counter
	seqDrop   counter
	overwrite counter
}

// OutputSnapshot is a point-in-time copy of Output.
type OutputSnapshot struct {
	DMXRecv   uint64 `json:"dmx_recv"`
	SeqSkip   uint64 `json:"seq_skip"`
	SeqDrop   uint64 `json:"seq_drop"`
	Overwrite uint64 `json:"overwrite"`
}

func (o *Output) DMXRecv()   { o.dmxRecv.Inc() }
func (o *Output) SeqSkip()   { o.seqSkip.Inc() }
func (o *Output) SeqDrop()   { o.seqDrop.Inc() }
func (o *Output) Overwrite() { o.overwrite.Inc() }

// Snapshot copies the counters, zeroing them if reset is set.
func (o *Output) Snapshot(reset bool) OutputSnapshot {
	return OutputSnapshot{
		DMXRecv:   o.dmxRecv.read(reset),
		SeqSkip:   o.seqSkip.read(reset),
		SeqDrop:   o.seqDrop.read(reset),
		Overwrite: o.overwrite.read(reset),
	}
}
