package node

import (
	"net"

	"golang.org/x/net/ipv4"
)

// UDPConn is an IPv4 datagram socket that also reports each datagram's
// destination address, so broadcast and unicast traffic can be told apart.
type UDPConn struct {
	conn net.PacketConn
	pc   *ipv4.PacketConn
}

// ListenUDP binds an IPv4 UDP socket on addr ("host:port" or ":port").
func ListenUDP(addr string) (*UDPConn, error) {
	c, err := net.ListenPacket("udp4", addr)
	if err != nil {
		return nil, err
	}

	p := ipv4.NewPacketConn(c)
	// Not supported everywhere; without it dst is simply unknown.
	_ = p.SetControlMessage(ipv4.FlagDst, true)

	return &UDPConn{conn: c, pc: p}, nil
}

// ReadFromDst reads one datagram. dst is nil when the platform does not
// deliver control messages.
func (u *UDPConn) ReadFromDst(b []byte) (int, net.Addr, net.IP, error) {
	n, cm, src, err := u.pc.ReadFrom(b)
	if err != nil {
		return 0, nil, nil, err
	}

	var dst net.IP
	if cm != nil {
		dst = cm.Dst
	}
	return n, src, dst, nil
}

func (u *UDPConn) ReadFrom(b []byte) (int, net.Addr, error) {
	n, src, _, err := u.ReadFromDst(b)
	return n, src, err
}

func (u *UDPConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	return u.pc.WriteTo(b, nil, addr)
}

func (u *UDPConn) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

func (u *UDPConn) Close() error {
	return u.pc.Close()
}
