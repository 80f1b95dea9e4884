package node

import (
	"errors"
	"fmt"
	"net"
)

var ErrNoInterface = errors.New("no matching IPv4 interface")

// FindInterface returns the IPv4 address and MAC of the first up,
// non-loopback interface. With a non-empty cidr only addresses inside it
// are considered.
func FindInterface(cidr string) (net.IP, net.HardwareAddr, error) {
	var within *net.IPNet
	if cidr != "" {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid interface CIDR %q: %w", cidr, err)
		}
		within = n
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, nil, fmt.Errorf("error getting interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		if ip := matchIPv4(addrs, within); ip != nil {
			return ip, iface.HardwareAddr, nil
		}
	}

	return nil, nil, ErrNoInterface
}

func matchIPv4(addrs []net.Addr, within *net.IPNet) net.IP {
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}

		ip := ipnet.IP.To4()
		if ip == nil {
			continue
		}

		if within == nil || within.Contains(ip) {
			return ip
		}
	}
	return nil
}
