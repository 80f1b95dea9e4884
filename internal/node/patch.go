package node

import (
	"fmt"
	"sync/atomic"

	"artnode/internal/artnet"
	"artnode/internal/mailbox"
	"artnode/internal/stats"
)

// MaxOutputs is the capacity of the patch table.
const MaxOutputs = 16

// Output is one patch table entry.
type Output struct {
	index      int
	address    artnet.Address
	mailbox    *mailbox.Mailbox
	group      *mailbox.Group
	groupIndex mailbox.GroupIndex

	seq   SequenceTracker
	stats stats.Output

	// mirror of seq for readers outside the receive loop: state<<8 | last
	seqStatus atomic.Uint32
	active    atomic.Bool
}

// OutputStatus is a patch table dump entry.
type OutputStatus struct {
	Index      int
	Address    artnet.Address
	Grouped    bool
	GroupIndex mailbox.GroupIndex
	SeqState   TrackerState
	SeqLast    uint8
	Active     bool // at least one frame delivered
	Stats      stats.OutputSnapshot
}

func (o *Output) Address() artnet.Address {
	return o.address
}

func (o *Output) Mailbox() *mailbox.Mailbox {
	return o.mailbox
}

// track runs the sequence gate and updates counters for the verdict.
func (o *Output) track(seq uint8) Verdict {
	v := o.seq.Track(seq)
	o.seqStatus.Store(uint32(o.seq.State())<<8 | uint32(o.seq.Last()))

	switch v {
	case Skip:
		o.stats.SeqSkip()
	case Drop:
		o.stats.SeqDrop()
	}
	return v
}

// deliver writes f into the mailbox and raises the group bit.
func (o *Output) deliver(f mailbox.Frame) {
	overwritten := o.mailbox.Write(f)
	o.active.Store(true)
	if o.group != nil {
		o.group.Signal(o.groupIndex)
	}

	if overwritten {
		o.stats.Overwrite()
	}
	o.stats.DMXRecv()
}

func (o *Output) status(reset bool) OutputStatus {
	seq := o.seqStatus.Load()
	return OutputStatus{
		Index:      o.index,
		Address:    o.address,
		Grouped:    o.group != nil,
		GroupIndex: o.groupIndex,
		SeqState:   TrackerState(seq >> 8),
		SeqLast:    uint8(seq),
		Active:     o.active.Load(),
		Stats:      o.stats.Snapshot(reset),
	}
}

// patch is the fixed-capacity output table. It is written only before the
// receive loop starts and read-only afterwards.
type patch struct {
	outputs []*Output
	sealed  atomic.Bool
}

func newPatch() *patch {
	return &patch{outputs: make([]*Output, 0, MaxOutputs)}
}

func (p *patch) add(base artnet.Address, o *Output) error {
	if p.sealed.Load() {
		return ErrPatchSealed
	}
	if o.mailbox == nil {
		return ErrNilMailbox
	}
	if len(p.outputs) >= MaxOutputs {
		return fmt.Errorf("%w: %d outputs", ErrPatchFull, MaxOutputs)
	}
	if !o.address.SameSubnet(base) {
		return fmt.Errorf("%w: output %s, node %d.%d", ErrSubnetMismatch, o.address, base.Net(), base.SubNet())
	}
	if p.lookup(o.address) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateAddress, o.address)
	}

	o.index = len(p.outputs)
	p.outputs = append(p.outputs, o)
	return nil
}

func (p *patch) lookup(addr artnet.Address) *Output {
	for _, o := range p.outputs {
		if o.address == addr {
			return o
		}
	}
	return nil
}

// fits reports whether every patched output lies in base's net:sub-net.
func (p *patch) fits(base artnet.Address) bool {
	for _, o := range p.outputs {
		if !o.address.SameSubnet(base) {
			return false
		}
	}
	return true
}
