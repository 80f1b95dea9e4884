// Package artnet implements the Art-Net wire format: header validation,
// opcode dispatch and the ArtPoll, ArtPollReply and ArtDmx payloads.
//
// The opcode is little-endian on the wire while the protocol version and all
// other multi-byte numeric fields are big-endian, except the ArtPollReply
// port field which is little-endian as well.
package artnet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	Port = 6454

	// OpCodes
	OpPoll      OpCode = 0x2000
	OpPollReply OpCode = 0x2100
	OpDmx       OpCode = 0x5000

	// Protocol
	ProtocolVersion    = 14
	MinProtocolVersion = 14

	HeaderSize    = 12
	DMXHeaderSize = 18
	PollSize      = 14
	PollReplySize = 239

	MaxChannels = 512
)

var (
	ArtNetID = [8]byte{'A', 'r', 't', '-', 'N', 'e', 't', 0x00}

	ErrPacketTooShort     = errors.New("packet too short")
	ErrInvalidID          = errors.New("invalid Art-Net ID")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrLengthTooLarge     = errors.New("DMX length exceeds 512")
	ErrTruncated          = errors.New("payload truncated")
)

// OpCode identifies the packet type.
type OpCode uint16

func (op OpCode) String() string {
	switch op {
	case OpPoll:
		return "OpPoll"
	case OpPollReply:
		return "OpPollReply"
	case OpDmx:
		return "OpDmx"
	default:
		return fmt.Sprintf("OpCode(0x%04x)", uint16(op))
	}
}

// ParseError describes a rejected packet.
type ParseError struct {
	OpCode OpCode
	Offset int
	Err    error
}

func (e *ParseError) Error() string {
	if e.OpCode != 0 {
		return fmt.Sprintf("%s: %v at offset %d", e.OpCode, e.Err, e.Offset)
	}
	return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseError(op OpCode, offset int, err error) *ParseError {
	return &ParseError{OpCode: op, Offset: offset, Err: err}
}

// Header is the common packet header.
type Header struct {
	OpCode OpCode
	// Version is zero for ArtPollReply, which has no version field.
	Version uint16
}

// Packet is one of *PollPacket, *PollReplyPacket, *DMXPacket or *UnknownPacket.
type Packet interface {
	Header() Header
}

// PollPacket represents an ArtPoll packet (OpCode 0x2000)
type PollPacket struct {
	Version      uint16
	Flags        uint8
	DiagPriority uint8
}

func (p *PollPacket) Header() Header { return Header{OpCode: OpPoll, Version: p.Version} }

// DMXPacket represents an ArtDmx packet (OpCode 0x5000)
type DMXPacket struct {
	Version  uint16
	Sequence uint8 // 0x00 disables sequencing
	Physical uint8 // informational only
	Address  Address
	Data     []byte // len(Data) is the declared length
}

func (p *DMXPacket) Header() Header { return Header{OpCode: OpDmx, Version: p.Version} }

// UnknownPacket is a valid header with an opcode this package does not decode.
type UnknownPacket struct {
	Head Header
	Raw  []byte
}

func (p *UnknownPacket) Header() Header { return p.Head }

// Parse validates the header and decodes the payload. The returned packet
// does not alias data.
func Parse(data []byte) (Packet, error) {
	if len(data) < HeaderSize {
		return nil, parseError(0, len(data), ErrPacketTooShort)
	}

	if !bytes.Equal(data[:8], ArtNetID[:]) {
		return nil, parseError(0, 0, ErrInvalidID)
	}

	opCode := OpCode(binary.LittleEndian.Uint16(data[8:10]))

	// ArtPollReply carries the IP address where other packets carry the version.
	if opCode == OpPollReply {
		return parsePollReply(data)
	}

	version := binary.BigEndian.Uint16(data[10:12])
	if version < MinProtocolVersion {
		return nil, parseError(opCode, 10, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version))
	}

	switch opCode {
	case OpDmx:
		return parseDMX(data, version)
	case OpPoll:
		return parsePoll(data, version)
	default:
		raw := make([]byte, len(data))
		copy(raw, data)
		return &UnknownPacket{Head: Header{OpCode: opCode, Version: version}, Raw: raw}, nil
	}
}

func parsePoll(data []byte, version uint16) (*PollPacket, error) {
	if len(data) < PollSize {
		return nil, parseError(OpPoll, len(data), ErrPacketTooShort)
	}

	return &PollPacket{
		Version:      version,
		Flags:        data[12],
		DiagPriority: data[13],
	}, nil
}

func parseDMX(data []byte, version uint16) (*DMXPacket, error) {
	if len(data) < DMXHeaderSize {
		return nil, parseError(OpDmx, len(data), ErrPacketTooShort)
	}

	length := int(binary.BigEndian.Uint16(data[16:18]))
	if length > MaxChannels {
		return nil, parseError(OpDmx, 16, fmt.Errorf("%w: %d", ErrLengthTooLarge, length))
	}
	if len(data)-DMXHeaderSize < length {
		return nil, parseError(OpDmx, DMXHeaderSize, fmt.Errorf("%w: length %d, have %d", ErrTruncated, length, len(data)-DMXHeaderSize))
	}

	pkt := &DMXPacket{
		Version:  version,
		Sequence: data[12],
		Physical: data[13],
		Address:  AddressFromWire(data[14], data[15]),
		Data:     make([]byte, length),
	}
	copy(pkt.Data, data[DMXHeaderSize:DMXHeaderSize+length])

	return pkt, nil
}
