package artnet

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is a 15-bit Art-Net port address.
// Bits 14-8: Net (0-127)
// Bits 7-4: SubNet (0-15)
// Bits 3-0: Universe (0-15)
type Address uint16

// MaxAddress is the highest valid 15-bit port address.
const MaxAddress Address = 0x7FFF

// subnetMask selects everything but the universe nibble.
const subnetMask Address = 0xFFF0

// NewAddress packs net, sub-net and universe. Out-of-range inputs are masked.
func NewAddress(net, subnet, universe uint8) Address {
	return Address((uint16(net&0x7F) << 8) | (uint16(subnet&0x0F) << 4) | uint16(universe&0x0F))
}

// AddressFromWire builds an address from the ArtDmx SubUni and Net bytes.
func AddressFromWire(subUni, net uint8) Address {
	return Address(uint16(net&0x7F)<<8 | uint16(subUni))
}

func (a Address) Net() uint8 {
	return uint8((a >> 8) & 0x7F)
}

func (a Address) SubNet() uint8 {
	return uint8((a >> 4) & 0x0F)
}

func (a Address) Universe() uint8 {
	return uint8(a & 0x0F)
}

// SubUni returns the low byte as carried on the wire: sub-net<<4 | universe.
func (a Address) SubUni() uint8 {
	return uint8(a & 0xFF)
}

// SameSubnet reports whether a and b share net and sub-net.
func (a Address) SameSubnet(b Address) bool {
	return a&subnetMask == b&subnetMask
}

func (a Address) String() string {
	return fmt.Sprintf("%d.%d.%d", a.Net(), a.SubNet(), a.Universe())
}

// ParseAddress parses "net.subnet.universe" or a plain 15-bit integer.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty address")
	}

	if strings.Contains(s, ".") {
		parts := strings.Split(s, ".")
		if len(parts) != 3 {
			return 0, fmt.Errorf("invalid address format: %s (expected net.subnet.universe)", s)
		}
		net, err := parseField(parts[0], 127)
		if err != nil {
			return 0, fmt.Errorf("invalid net: %w", err)
		}
		subnet, err := parseField(parts[1], 15)
		if err != nil {
			return 0, fmt.Errorf("invalid subnet: %w", err)
		}
		universe, err := parseField(parts[2], 15)
		if err != nil {
			return 0, fmt.Errorf("invalid universe: %w", err)
		}
		return NewAddress(net, subnet, universe), nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %s", s)
	}
	if v < 0 || v > int(MaxAddress) {
		return 0, fmt.Errorf("address %d out of range 0-%d", v, MaxAddress)
	}
	return Address(v), nil
}

func parseField(s string, limit int) (uint8, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > limit {
		return 0, fmt.Errorf("%d out of range 0-%d", v, limit)
	}
	return uint8(v), nil
}
