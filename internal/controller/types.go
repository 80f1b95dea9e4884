package controller

import (
	"fmt"
	"strings"

	"artnode/internal/artnet"
)

// Universe wraps the 512 byte array for convenience.
type Universe [artnet.MaxChannels]byte

// UniverseStateMap holds the state of all used universes.
type UniverseStateMap map[artnet.Address]Universe

// ChannelValue defines an Art-Net universe and the value of one DMX channel.
type ChannelValue struct {
	Universe artnet.Address
	Channel  uint16 // Channel: номер байта (канал), 0-511.
	Value    uint8  // Value: значение для канала.
}

// NodeInfo describes a node that answered the controller's polls.
type NodeInfo struct {
	IP           string
	Name         string
	Manufacturer string
	Description  string
	Inputs       []string
	Outputs      []artnet.Address
}

func (n NodeInfo) String() string {
	outputs := make([]string, len(n.Outputs))
	for i, a := range n.Outputs {
		outputs[i] = a.String()
	}
	return fmt.Sprintf(
		"IP=%s name=%q manufacturer=%q desc=%q inputs=%q outputs=%q",
		n.IP, n.Name, n.Manufacturer, n.Description,
		strings.Join(n.Inputs, "; "), strings.Join(outputs, "; "),
	)
}
