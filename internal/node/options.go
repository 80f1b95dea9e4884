package node

import (
	"fmt"
	"net"

	"artnode/internal/artnet"
)

const (
	MaxShortName = 17
	MaxLongName  = 63
)

// Options is the node identity. Address is the base address; only its net
// and sub-net are significant.
type Options struct {
	Port      int
	Address   artnet.Address
	IP        net.IP
	MAC       net.HardwareAddr
	ShortName string
	LongName  string
}

// DefaultOptions listens on the standard port with base address 0.0.0.
func DefaultOptions() Options {
	return Options{
		Port:      artnet.Port,
		ShortName: "artnode",
		LongName:  "artnode DMX node",
	}
}

// Validate checks name lengths, the port range, and the address formats.
func (o Options) Validate() error {
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, o.Port)
	}
	if len(o.ShortName) > MaxShortName {
		return fmt.Errorf("%w: short name %q exceeds %d bytes", ErrNameTooLong, o.ShortName, MaxShortName)
	}
	if len(o.LongName) > MaxLongName {
		return fmt.Errorf("%w: long name %q exceeds %d bytes", ErrNameTooLong, o.LongName, MaxLongName)
	}
	if o.IP != nil && o.IP.To4() == nil {
		return fmt.Errorf("%w: %s", ErrInvalidIP, o.IP)
	}
	if o.MAC != nil && len(o.MAC) != 6 {
		return fmt.Errorf("%w: %s", ErrInvalidMAC, o.MAC)
	}
	return nil
}

func (o Options) ip4() [4]byte {
	var b [4]byte
	if ip := o.IP.To4(); ip != nil {
		copy(b[:], ip)
	}
	return b
}

func (o Options) mac() [6]byte {
	var b [6]byte
	copy(b[:], o.MAC)
	return b
}
