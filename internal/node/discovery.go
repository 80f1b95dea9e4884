package node

import (
	"fmt"
	"net"

	"artnode/internal/artnet"
)

const (
	// FirmwareVersion is announced in ArtPollReply VersionInfo.
	FirmwareVersion = 0x0100
	// EstaManufacturer is the ESTA prototyping code.
	EstaManufacturer = 0x7FF0
)

// pollReplies builds one ArtPollReply per artnet.PollReplyPorts outputs. A node
// without outputs still answers with a single reply.
func (n *Node) pollReplies(port uint16) []*artnet.PollReplyPacket {
	opts := n.Options()
	report := fmt.Sprintf("#0001 [%04d] OK", n.pollCount.Add(1)%10000)

	n.mu.RLock()
	outputs := n.patch.outputs
	n.mu.RUnlock()

	pages := (len(outputs) + artnet.PollReplyPorts - 1) / artnet.PollReplyPorts
	if pages == 0 {
		pages = 1
	}

	replies := make([]*artnet.PollReplyPacket, 0, pages)
	for page := 0; page < pages; page++ {
		p := &artnet.PollReplyPacket{
			IPAddress:   opts.ip4(),
			Port:        port,
			VersionInfo: FirmwareVersion,
			NetSwitch:   opts.Address.Net(),
			SubSwitch:   opts.Address.SubNet(),
			Status1:     artnet.Status1Indicator,
			EstaMan:     EstaManufacturer,
			Style:       artnet.StyleNode,
			MAC:         opts.mac(),
			BindIP:      opts.ip4(),
			BindIndex:   uint8(page + 1),
			Status2:     artnet.Status2PortAddr,
		}
		p.SetNames(opts.ShortName, opts.LongName, report)

		start := page * artnet.PollReplyPorts
		end := start + artnet.PollReplyPorts
		if end > len(outputs) {
			end = len(outputs)
		}
		for i, o := range outputs[start:end] {
			p.PortTypes[i] = artnet.PortTypeOutput
			p.SwOut[i] = o.address.Universe()
			if o.active.Load() {
				p.GoodOutput[i] = artnet.GoodOutputData
			}
		}
		p.NumPorts = uint16(end - start)

		replies = append(replies, p)
	}
	return replies
}

// respond sends the ArtPollReply set to the poll sender.
func (n *Node) respond(conn PacketConn, dst net.Addr) error {
	port := uint16(n.Options().Port)
	if udp, ok := conn.LocalAddr().(*net.UDPAddr); ok && udp.Port != 0 {
		port = uint16(udp.Port)
	}

	for _, p := range n.pollReplies(port) {
		if _, err := conn.WriteTo(p.Bytes(), dst); err != nil {
			return fmt.Errorf("send poll reply to %s: %w", addrString(dst), err)
		}
	}
	return nil
}
