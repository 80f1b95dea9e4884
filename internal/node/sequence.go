package node

// TrackerState is the sequence tracking mode of one output.
type TrackerState uint8

const (
	Uninitialized TrackerState = iota
	Tracking
	// Disabled is permanent: the first packet seen carried sequence 0.
	Disabled
)

func (s TrackerState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Tracking:
		return "tracking"
	case Disabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Verdict classifies one sequence number.
type Verdict uint8

const (
	// Accept is in order, the baseline packet, or any packet with tracking disabled.
	Accept Verdict = iota
	// Skip is accepted after a gap; the newest data is still applied.
	Skip
	// Drop is stale, duplicate or reordered and must not be forwarded.
	Drop
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case Skip:
		return "skip"
	case Drop:
		return "drop"
	default:
		return "unknown"
	}
}

// Forward reports whether the frame should reach the mailbox.
func (v Verdict) Forward() bool {
	return v != Drop
}

// SequenceTracker classifies ArtDmx sequence numbers for one output.
// It is only touched by the receive loop.
type SequenceTracker struct {
	state TrackerState
	last  uint8
}

// State returns the current tracking mode.
func (t *SequenceTracker) State() TrackerState {
	return t.state
}

// Last returns the last accepted sequence number.
func (t *SequenceTracker) Last() uint8 {
	return t.last
}

// Track classifies seq and advances the tracker when it is accepted.
func (t *SequenceTracker) Track(seq uint8) Verdict {
	switch t.state {
	case Disabled:
		return Accept
	case Uninitialized:
		if seq == 0 {
			t.state = Disabled
			return Accept
		}
		t.state = Tracking
		t.last = seq
		return Accept
	}

	// Signed distance modulo 256: 1 is next, >1 is ahead, <=0 is behind.
	switch d := int8(seq - t.last); {
	case d == 1:
		t.last = seq
		return Accept
	case d > 1:
		t.last = seq
		return Skip
	default:
		return Drop
	}
}
