package mailbox

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// GroupSize is the number of ports that can share one consumer.
const GroupSize = 4

var ErrGroupIndex = errors.New("group index out of range")

// GroupIndex identifies a port within a group, 0-3.
type GroupIndex uint8

// Validate checks the index is within the group.
func (i GroupIndex) Validate() error {
	if int(i) >= GroupSize {
		return fmt.Errorf("%w: %d", ErrGroupIndex, i)
	}
	return nil
}

// Group lets one consumer wait on up to four mailboxes. Writers call Signal
// with their index; the consumer learns which ports changed from Wait.
type Group struct {
	pending atomic.Uint32
	wake    chan struct{}
}

// NewGroup creates a group with nothing pending.
func NewGroup() *Group {
	return &Group{
		wake: make(chan struct{}, 1),
	}
}

// Signal marks index as changed. It never blocks.
func (g *Group) Signal(index GroupIndex) {
	g.pending.Or(uint32(1) << index)

	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// Take returns and clears the changed indices in ascending order.
func (g *Group) Take() []GroupIndex {
	bits := g.pending.Swap(0)
	if bits == 0 {
		return nil
	}

	changed := make([]GroupIndex, 0, GroupSize)
	for i := 0; i < GroupSize; i++ {
		if bits&(1<<i) != 0 {
			changed = append(changed, GroupIndex(i))
		}
	}
	return changed
}

// Wait blocks until at least one index has changed or ctx is done.
func (g *Group) Wait(ctx context.Context) ([]GroupIndex, error) {
	for {
		if changed := g.Take(); changed != nil {
			return changed, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-g.wake:
		}
	}
}
