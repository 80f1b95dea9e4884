package node

import (
	"bytes"
	"errors"
	"net"
	"testing"

	"artnode/internal/artnet"
	"artnode/internal/logger"
	"artnode/internal/mailbox"
)

func newTestNode(t *testing.T, netID, subnet uint8) *Node {
	t.Helper()
	opts := DefaultOptions()
	opts.Port = 0
	opts.Address = artnet.NewAddress(netID, subnet, 0)

	n, err := New(logger.NewDiscard(), opts)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	return n
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Options)
		want error
	}{
		{"short name", func(o *Options) { o.ShortName = "eighteen-chars-xxx" }, ErrNameTooLong},
		{"long name", func(o *Options) { o.LongName = string(bytes.Repeat([]byte("x"), 64)) }, ErrNameTooLong},
		{"port", func(o *Options) { o.Port = 70000 }, ErrInvalidPort},
		{"ipv6", func(o *Options) { o.IP = net.ParseIP("::1") }, ErrInvalidIP},
		{"mac", func(o *Options) { o.MAC = net.HardwareAddr{1, 2, 3} }, ErrInvalidMAC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mod(&opts)
			if _, err := New(logger.NewDiscard(), opts); !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAddOutput_SubnetConstraint(t *testing.T) {
	n := newTestNode(t, 1, 2)

	if _, err := n.AddOutput(artnet.NewAddress(1, 2, 3), mailbox.New()); err != nil {
		t.Errorf("AddOutput(1.2.3) returned error: %v", err)
	}
	if _, err := n.AddOutput(artnet.NewAddress(1, 3, 3), mailbox.New()); !errors.Is(err, ErrSubnetMismatch) {
		t.Errorf("AddOutput(1.3.3) error = %v, want ErrSubnetMismatch", err)
	}
	if _, err := n.AddOutput(artnet.NewAddress(2, 2, 3), mailbox.New()); !errors.Is(err, ErrSubnetMismatch) {
		t.Errorf("AddOutput(2.2.3) error = %v, want ErrSubnetMismatch", err)
	}
}

func TestAddOutput_Capacity(t *testing.T) {
	n := newTestNode(t, 0, 0)

	for i := 0; i < MaxOutputs; i++ {
		if _, err := n.AddOutput(artnet.NewAddress(0, 0, uint8(i)), mailbox.New()); err != nil {
			t.Fatalf("AddOutput(%d) returned error: %v", i, err)
		}
	}

	// All 16 universes of the sub-net are taken; a 17th entry fails on capacity first.
	if _, err := n.AddOutput(artnet.NewAddress(0, 0, 0), mailbox.New()); !errors.Is(err, ErrPatchFull) {
		t.Errorf("17th AddOutput() error = %v, want ErrPatchFull", err)
	}
	if got := len(n.Outputs(false)); got != MaxOutputs {
		t.Errorf("len(Outputs()) = %d, want %d", got, MaxOutputs)
	}
}

func TestAddOutput_Rejects(t *testing.T) {
	n := newTestNode(t, 0, 0)
	addr := artnet.NewAddress(0, 0, 1)

	if _, err := n.AddOutput(addr, mailbox.New()); err != nil {
		t.Fatalf("AddOutput() returned error: %v", err)
	}
	if _, err := n.AddOutput(addr, mailbox.New()); !errors.Is(err, ErrDuplicateAddress) {
		t.Errorf("duplicate AddOutput() error = %v, want ErrDuplicateAddress", err)
	}
	if _, err := n.AddOutput(artnet.NewAddress(0, 0, 2), nil); !errors.Is(err, ErrNilMailbox) {
		t.Errorf("AddOutput(nil) error = %v, want ErrNilMailbox", err)
	}
	if _, err := n.AddGroupedOutput(artnet.NewAddress(0, 0, 3), 4, mailbox.New(), mailbox.NewGroup()); !errors.Is(err, mailbox.ErrGroupIndex) {
		t.Errorf("AddGroupedOutput(index 4) error = %v, want ErrGroupIndex", err)
	}
	if _, err := n.AddGroupedOutput(artnet.NewAddress(0, 0, 3), 0, mailbox.New(), nil); err == nil {
		t.Error("AddGroupedOutput(nil group) expected error")
	}
}

func TestDispatch_Backpressure(t *testing.T) {
	n := newTestNode(t, 0, 0)
	mb := mailbox.New()
	addr := artnet.NewAddress(0, 0, 1)
	if _, err := n.AddOutput(addr, mb); err != nil {
		t.Fatalf("AddOutput() returned error: %v", err)
	}

	n.Dispatch(addr, mailbox.Frame{Data: []byte{1, 1}})
	n.Dispatch(addr, mailbox.Frame{Data: []byte{2, 2}})

	st := n.Outputs(false)[0].Stats
	if st.Overwrite != 1 {
		t.Errorf("Overwrite = %d, want 1", st.Overwrite)
	}
	if st.DMXRecv != 2 {
		t.Errorf("DMXRecv = %d, want 2", st.DMXRecv)
	}

	f, ok := mb.TryRead()
	if !ok {
		t.Fatal("mailbox empty")
	}
	if !bytes.Equal(f.Data, []byte{2, 2}) {
		t.Errorf("Data = %v, want [2 2] (second frame)", f.Data)
	}
}

func TestDispatch_Discard(t *testing.T) {
	n := newTestNode(t, 0, 0)
	mb := mailbox.New()
	if _, err := n.AddOutput(artnet.NewAddress(0, 0, 1), mb); err != nil {
		t.Fatalf("AddOutput() returned error: %v", err)
	}

	if n.Dispatch(artnet.NewAddress(0, 0, 2), mailbox.Frame{Data: []byte{1}}) {
		t.Error("Dispatch() to unpatched address reported a match")
	}

	if got := n.Stats(false).DMXDiscarded; got != 1 {
		t.Errorf("DMXDiscarded = %d, want 1", got)
	}
	if _, ok := mb.Peek(); ok {
		t.Error("unrelated mailbox was written")
	}
}

func TestDispatch_GroupSignal(t *testing.T) {
	n := newTestNode(t, 0, 0)
	group := mailbox.NewGroup()
	mbs := []*mailbox.Mailbox{mailbox.New(), mailbox.New()}

	for i, mb := range mbs {
		addr := artnet.NewAddress(0, 0, uint8(i))
		if _, err := n.AddGroupedOutput(addr, mailbox.GroupIndex(i+2), mb, group); err != nil {
			t.Fatalf("AddGroupedOutput() returned error: %v", err)
		}
	}

	n.Dispatch(artnet.NewAddress(0, 0, 1), mailbox.Frame{Data: []byte{7}})

	changed := group.Take()
	if len(changed) != 1 || changed[0] != 3 {
		t.Errorf("Take() = %v, want [3]", changed)
	}
	if _, ok := mbs[1].TryRead(); !ok {
		t.Error("grouped mailbox not written")
	}

	status := n.Outputs(false)
	if !status[1].Grouped || status[1].GroupIndex != 3 {
		t.Errorf("Outputs()[1] = %+v, want grouped index 3", status[1])
	}
}

func TestSetOptions(t *testing.T) {
	n := newTestNode(t, 1, 2)
	if _, err := n.AddOutput(artnet.NewAddress(1, 2, 3), mailbox.New()); err != nil {
		t.Fatalf("AddOutput() returned error: %v", err)
	}

	opts := n.Options()
	opts.ShortName = "renamed"
	opts.Address = artnet.NewAddress(1, 2, 9) // universe nibble ignored
	if err := n.SetOptions(opts); err != nil {
		t.Errorf("SetOptions() returned error: %v", err)
	}
	if n.Options().ShortName != "renamed" {
		t.Errorf("ShortName = %q, want renamed", n.Options().ShortName)
	}

	opts.Address = artnet.NewAddress(1, 3, 0)
	if err := n.SetOptions(opts); !errors.Is(err, ErrSubnetMismatch) {
		t.Errorf("SetOptions(1.3) error = %v, want ErrSubnetMismatch", err)
	}

	opts = n.Options()
	opts.LongName = string(bytes.Repeat([]byte("y"), 70))
	if err := n.SetOptions(opts); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("SetOptions(long name) error = %v, want ErrNameTooLong", err)
	}
}

func TestOptions_Copied(t *testing.T) {
	opts := DefaultOptions()
	opts.IP = net.IPv4(10, 0, 0, 1).To4()
	n, err := New(logger.NewDiscard(), opts)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	opts.IP[3] = 99
	got := n.Options()
	if !got.IP.Equal(net.IPv4(10, 0, 0, 1)) {
		t.Errorf("IP = %s, want 10.0.0.1", got.IP)
	}
	got.IP[3] = 42
	if !n.Options().IP.Equal(net.IPv4(10, 0, 0, 1)) {
		t.Error("Options() result aliases node state")
	}
}
