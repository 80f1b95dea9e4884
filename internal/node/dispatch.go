package node

import (
	"context"
	"fmt"
	"net"

	"artnode/internal/artnet"
	"artnode/internal/logger"
	"artnode/internal/mailbox"
)

// recvBufferSize fits any Art-Net packet; the largest, ArtDmx, is 530 bytes.
const recvBufferSize = 1500

// PacketConn is the datagram socket the receive loop runs on.
type PacketConn interface {
	ReadFrom(p []byte) (int, net.Addr, error)
	WriteTo(p []byte, addr net.Addr) (int, error)
	LocalAddr() net.Addr
	Close() error
}

// dstReader is implemented by sockets that report the destination address.
type dstReader interface {
	ReadFromDst(p []byte) (int, net.Addr, net.IP, error)
}

// Run binds the configured port and serves until ctx is done or the socket fails.
func (n *Node) Run(ctx context.Context) error {
	port := n.Options().Port

	conn, err := ListenUDP(fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", port, err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	err = n.Serve(conn)
	if ctx.Err() != nil {
		// The socket was closed on purpose.
		return nil
	}
	return err
}

// Serve runs the receive loop on conn. The patch table becomes read-only.
// Serve returns only when reading from conn fails; closing conn ends it with
// an error wrapping net.ErrClosed.
func (n *Node) Serve(conn PacketConn) error {
	n.mu.Lock()
	if n.conn != nil {
		n.mu.Unlock()
		return ErrRunning
	}
	n.conn = conn
	n.patch.sealed.Store(true)
	n.mu.Unlock()

	n.log.With(logger.Fields{
		"addr":    conn.LocalAddr().String(),
		"outputs": len(n.patch.outputs),
	}).Info("receive loop started")

	dr, hasDst := conn.(dstReader)
	buf := make([]byte, recvBufferSize)

	for {
		var (
			size int
			src  net.Addr
			dst  net.IP
			err  error
		)
		if hasDst {
			size, src, dst, err = dr.ReadFromDst(buf)
		} else {
			size, src, err = conn.ReadFrom(buf)
		}
		if err != nil {
			return fmt.Errorf("receive: %w", err)
		}

		n.handle(conn, src, dst, buf[:size])
	}
}

func (n *Node) handle(conn PacketConn, src net.Addr, dst net.IP, data []byte) {
	// Counted once the packet is fully handled.
	defer n.stats.Received()

	pkt, err := artnet.Parse(data)
	if err != nil {
		n.stats.Invalid()
		n.log.With(logger.Fields{"src": addrString(src), "dst": ipString(dst)}).Debugf("invalid packet: %v", err)
		return
	}

	switch p := pkt.(type) {
	case *artnet.DMXPacket:
		n.handleDMX(p)
	case *artnet.PollPacket:
		n.stats.PollRequest()
		if err := n.respond(conn, src); err != nil {
			n.stats.Error()
			n.log.With(logger.Fields{"dst": addrString(src)}).Warnf("poll reply failed: %v", err)
		}
	case *artnet.PollReplyPacket:
		n.stats.PollReply()
	default:
		n.stats.Unknown()
		n.log.With(logger.Fields{"src": addrString(src)}).Debugf("unhandled %s", pkt.Header().OpCode)
	}
}

func (n *Node) handleDMX(p *artnet.DMXPacket) {
	o := n.patch.lookup(p.Address)
	if o == nil {
		n.stats.DMXDiscarded()
		return
	}

	v := o.track(p.Sequence)
	if !v.Forward() {
		n.log.With(logger.Fields{
			"universe": p.Address.String(),
			"seq":      p.Sequence,
			"last":     o.seq.Last(),
		}).Debug("stale sequence dropped")
		return
	}

	o.deliver(mailbox.Frame{Data: p.Data})
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}
