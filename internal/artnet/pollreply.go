package artnet

import (
	"bytes"
	"encoding/binary"
)

// pollReplyMinSize covers everything up to and including the MAC address.
// Older nodes stop there.
const pollReplyMinSize = 207

// PollReplyPorts is the number of port slots in one ArtPollReply. Nodes with
// more ports answer with several replies told apart by BindIndex.
const PollReplyPorts = 4

// Port type and status bits used in ArtPollReply.
const (
	PortTypeOutput   = 0x80
	PortTypeInput    = 0x40
	GoodOutputData   = 0x80
	StyleNode        = 0x00
	Status2PortAddr  = 0x08 // supports 15-bit port addresses
	Status1Indicator = 0xC0 // indicators in normal mode
)

// PollReplyPacket represents an ArtPollReply packet (OpCode 0x2100)
type PollReplyPacket struct {
	IPAddress   [4]byte
	Port        uint16 // low byte first
	VersionInfo uint16
	NetSwitch   uint8
	SubSwitch   uint8
	Oem         uint16
	UbeaVersion uint8
	Status1     uint8
	EstaMan     uint16 // low byte first
	ShortName   [18]byte
	LongName    [64]byte
	NodeReport  [64]byte
	NumPorts    uint16
	PortTypes   [PollReplyPorts]byte
	GoodInput   [PollReplyPorts]byte
	GoodOutput  [PollReplyPorts]byte
	SwIn        [PollReplyPorts]byte
	SwOut       [PollReplyPorts]byte
	SwVideo     uint8
	SwMacro     uint8
	SwRemote    uint8
	Style       uint8
	MAC         [6]byte
	BindIP      [4]byte
	BindIndex   uint8
	Status2     uint8
}

func (p *PollReplyPacket) Header() Header { return Header{OpCode: OpPollReply} }

// Universes returns the output port addresses advertised by this reply.
func (p *PollReplyPacket) Universes() []Address {
	n := int(p.NumPorts)
	if n > PollReplyPorts {
		n = PollReplyPorts
	}

	var result []Address
	for i := 0; i < n; i++ {
		if p.PortTypes[i]&PortTypeOutput != 0 {
			result = append(result, NewAddress(p.NetSwitch, p.SubSwitch, p.SwOut[i]))
		}
	}
	return result
}

// ShortNameString returns the short name up to the first NUL.
func (p *PollReplyPacket) ShortNameString() string {
	return cString(p.ShortName[:])
}

// LongNameString returns the long name up to the first NUL.
func (p *PollReplyPacket) LongNameString() string {
	return cString(p.LongName[:])
}

// NodeReportString returns the node report up to the first NUL.
func (p *PollReplyPacket) NodeReportString() string {
	return cString(p.NodeReport[:])
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// SetNames copies names into the fixed fields, truncating so a NUL always terminates them.
func (p *PollReplyPacket) SetNames(shortName, longName, report string) {
	p.ShortName = [18]byte{}
	p.LongName = [64]byte{}
	p.NodeReport = [64]byte{}
	copy(p.ShortName[:len(p.ShortName)-1], shortName)
	copy(p.LongName[:len(p.LongName)-1], longName)
	copy(p.NodeReport[:len(p.NodeReport)-1], report)
}

func parsePollReply(data []byte) (*PollReplyPacket, error) {
	if len(data) < pollReplyMinSize {
		return nil, parseError(OpPollReply, len(data), ErrPacketTooShort)
	}

	pkt := &PollReplyPacket{
		Port:        binary.LittleEndian.Uint16(data[14:16]),
		VersionInfo: binary.BigEndian.Uint16(data[16:18]),
		NetSwitch:   data[18],
		SubSwitch:   data[19],
		Oem:         binary.BigEndian.Uint16(data[20:22]),
		UbeaVersion: data[22],
		Status1:     data[23],
		EstaMan:     binary.LittleEndian.Uint16(data[24:26]),
		NumPorts:    binary.BigEndian.Uint16(data[172:174]),
		SwVideo:     data[194],
		SwMacro:     data[195],
		SwRemote:    data[196],
		Style:       data[200],
	}

	copy(pkt.IPAddress[:], data[10:14])
	copy(pkt.ShortName[:], data[26:44])
	copy(pkt.LongName[:], data[44:108])
	copy(pkt.NodeReport[:], data[108:172])
	copy(pkt.PortTypes[:], data[174:178])
	copy(pkt.GoodInput[:], data[178:182])
	copy(pkt.GoodOutput[:], data[182:186])
	copy(pkt.SwIn[:], data[186:190])
	copy(pkt.SwOut[:], data[190:194])
	copy(pkt.MAC[:], data[201:207])

	if len(data) >= 213 {
		copy(pkt.BindIP[:], data[207:211])
		pkt.BindIndex = data[211]
		pkt.Status2 = data[212]
	}

	return pkt, nil
}

// Bytes serializes the reply into the fixed 239-byte layout.
func (p *PollReplyPacket) Bytes() []byte {
	buf := make([]byte, PollReplySize)

	copy(buf[0:8], ArtNetID[:])
	binary.LittleEndian.PutUint16(buf[8:10], uint16(OpPollReply))
	copy(buf[10:14], p.IPAddress[:])
	binary.LittleEndian.PutUint16(buf[14:16], p.Port)
	binary.BigEndian.PutUint16(buf[16:18], p.VersionInfo)
	buf[18] = p.NetSwitch
	buf[19] = p.SubSwitch
	binary.BigEndian.PutUint16(buf[20:22], p.Oem)
	buf[22] = p.UbeaVersion
	buf[23] = p.Status1
	binary.LittleEndian.PutUint16(buf[24:26], p.EstaMan)
	copy(buf[26:44], p.ShortName[:])
	copy(buf[44:108], p.LongName[:])
	copy(buf[108:172], p.NodeReport[:])
	binary.BigEndian.PutUint16(buf[172:174], p.NumPorts)
	copy(buf[174:178], p.PortTypes[:])
	copy(buf[178:182], p.GoodInput[:])
	copy(buf[182:186], p.GoodOutput[:])
	copy(buf[186:190], p.SwIn[:])
	copy(buf[190:194], p.SwOut[:])
	buf[194] = p.SwVideo
	buf[195] = p.SwMacro
	buf[196] = p.SwRemote
	buf[200] = p.Style
	copy(buf[201:207], p.MAC[:])
	copy(buf[207:211], p.BindIP[:])
	buf[211] = p.BindIndex
	buf[212] = p.Status2

	return buf
}
