package artnet

import "encoding/binary"

func putHeader(buf []byte, op OpCode) {
	copy(buf[0:8], ArtNetID[:])
	binary.LittleEndian.PutUint16(buf[8:10], uint16(op))
	binary.BigEndian.PutUint16(buf[10:12], ProtocolVersion)
}

// BuildDMX creates a raw ArtDmx packet. Data beyond 512 bytes is cut off.
// The length is sent as given; callers wanting the even lengths some
// receivers expect must pad themselves.
func BuildDMX(addr Address, sequence uint8, data []byte) []byte {
	n := len(data)
	if n > MaxChannels {
		n = MaxChannels
	}

	buf := make([]byte, DMXHeaderSize+n)
	putHeader(buf, OpDmx)
	buf[12] = sequence
	buf[13] = 0 // Physical
	buf[14] = addr.SubUni()
	buf[15] = addr.Net()
	binary.BigEndian.PutUint16(buf[16:18], uint16(n))
	copy(buf[DMXHeaderSize:], data[:n])

	return buf
}

// BuildPoll creates an ArtPoll packet.
func BuildPoll(flags, diagPriority uint8) []byte {
	buf := make([]byte, PollSize)
	putHeader(buf, OpPoll)
	buf[12] = flags
	buf[13] = diagPriority

	return buf
}
