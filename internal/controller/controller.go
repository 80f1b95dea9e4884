// Package controller drives Art-Net nodes from the controller side. It is
// used by the probe to discover nodes and send them test frames.
package controller

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"artnode/internal/artnet"
	"artnode/internal/logger"
	goartnet "github.com/Haba1234/go-artnet"
)

var (
	ErrChannel = errors.New("channel out of range")
	ErrRunning = errors.New("controller is still polling")
)

// Controller keeps the last state of every universe it has written and
// sends whole universes through a go-artnet controller.
type Controller struct {
	log     *logger.Log
	sender  *goartnet.Controller
	running atomic.Bool

	mu    sync.Mutex
	state UniverseStateMap

	// send transmits one universe; replaced in tests.
	send func(addr artnet.Address, u Universe)
}

// New creates a controller bound to ip. host is announced as the controller
// name; fps caps the send rate per universe.
func New(log logger.Logger, host string, ip net.IP, fps int) *Controller {
	l := log.With(logger.Fields{"module": "controller"})
	l.Infof("Using ArtNet IP %s and hostname %s", ip.String(), host)

	senderLogger := goartnet.NewDefaultLogger("info")

	c := &Controller{
		log:    l,
		sender: goartnet.NewController(host, ip, senderLogger, goartnet.MaxFPS(fps)),
		state:  UniverseStateMap{},
	}
	c.send = c.sendDMX
	return c
}

// Start begins polling for nodes.
func (c *Controller) Start() error {
	if err := c.sender.Start(); err != nil {
		return fmt.Errorf("failed to start Controller: %w", err)
	}
	c.running.Store(true)
	return nil
}

// Stop the controller.
func (c *Controller) Stop() {
	c.sender.Stop()
	c.running.Store(false)
}

// SetChannelValues updates the stored universes and sends every universe
// that changed.
func (c *Controller) SetChannelValues(values []ChannelValue) error {
	for _, v := range values {
		if int(v.Channel) >= artnet.MaxChannels {
			return fmt.Errorf("%w: %d", ErrChannel, v.Channel)
		}
	}

	c.mu.Lock()
	changed := map[artnet.Address]Universe{}
	for _, v := range values {
		u := c.state[v.Universe]
		u[v.Channel] = v.Value
		c.state[v.Universe] = u
		changed[v.Universe] = u
	}
	c.mu.Unlock()

	for addr, u := range changed {
		c.send(addr, u)
	}
	return nil
}

// SetFrame replaces the leading channels of addr with data and sends the
// universe. Channels past len(data) keep their previous values.
func (c *Controller) SetFrame(addr artnet.Address, data []byte) {
	c.mu.Lock()
	u := c.state[addr]
	copy(u[:], data)
	c.state[addr] = u
	c.mu.Unlock()

	c.send(addr, u)
}

// State returns the stored universe for addr.
func (c *Controller) State(addr artnet.Address) Universe {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state[addr]
}

func (c *Controller) sendDMX(addr artnet.Address, u Universe) {
	c.log.With(logger.Fields{"universe": addr.String()}).Debug("DMX. Отправка в контроллер")
	c.sender.SendDMXToAddress(u, toWire(addr))
}

// Nodes returns the nodes registered by the controller. go-artnet updates
// its node list under a private lock, so Nodes fails with ErrRunning until
// Stop has been called.
func (c *Controller) Nodes() ([]NodeInfo, error) {
	if c.running.Load() {
		return nil, ErrRunning
	}

	nodes := c.sender.Nodes
	result := make([]NodeInfo, 0, len(nodes))
	for _, n := range nodes {
		result = append(result, nodeInfo(n))
	}
	return result, nil
}

// toWire converts a port address to go-artnet's Net/SubUni pair.
func toWire(a artnet.Address) goartnet.Address {
	return goartnet.Address{
		Net:    a.Net(),
		SubUni: a.SubUni(),
	}
}

func fromWire(a goartnet.Address) artnet.Address {
	return artnet.AddressFromWire(a.SubUni, a.Net)
}

func nodeInfo(n *goartnet.ControlledNode) NodeInfo {
	info := NodeInfo{
		IP:           n.UDPAddress.String(),
		Name:         n.Node.Name,
		Manufacturer: n.Node.Manufacturer,
		Description:  n.Node.Description,
	}
	for _, p := range n.Node.InputPorts {
		info.Inputs = append(info.Inputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
	}
	for _, p := range n.Node.OutputPorts {
		info.Outputs = append(info.Outputs, fromWire(p.Address))
	}
	return info
}
