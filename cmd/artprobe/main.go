package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"artnode/internal/artnet"
	"artnode/internal/config"
	"artnode/internal/controller"
	"artnode/internal/logger"
	"artnode/internal/node"
)

var (
	ipFlag       string
	cidrFlag     string
	universeFlag string
	channels     int
	fps          int
	duration     time.Duration
	logLevel     string
)

func init() {
	flag.StringVar(&ipFlag, "ip", "", "Local IPv4 address to bind; detected when empty")
	flag.StringVar(&cidrFlag, "cidr", "", "Restrict interface detection to this network")
	flag.StringVar(&universeFlag, "universe", "0.0.0", "Target port address as net.subnet.universe or integer")
	flag.IntVar(&channels, "channels", artnet.MaxChannels, "Number of channels in each test frame")
	flag.IntVar(&fps, "fps", 30, "Frames per second")
	flag.DurationVar(&duration, "duration", 5*time.Second, "How long to send and listen for nodes")
	flag.StringVar(&logLevel, "log-level", "info", "Log level")
}

func main() {
	flag.Parse()

	log, err := logger.NewLogger(config.LogConf{Level: logLevel})
	if err != nil {
		fmt.Printf("failed to create a logger: %v\n", err)
		os.Exit(1)
	}

	addr, err := artnet.ParseAddress(universeFlag)
	if err != nil {
		log.Errorf("universe: %v", err)
		os.Exit(1)
	}
	if channels < 1 || channels > artnet.MaxChannels {
		log.Errorf("channels must be 1-%d", artnet.MaxChannels)
		os.Exit(1)
	}

	ip, err := localIP()
	if err != nil {
		log.Errorf("failed to find the art-net IP: %v", err)
		os.Exit(1)
	}

	host, err := os.Hostname()
	if err != nil {
		log.Errorf("failed to resolve hostname: %v", err)
		os.Exit(1)
	}
	host = strings.ToLower(strings.Split(host, ".")[0])

	c := controller.New(log, host, ip, fps)
	if err := c.Start(); err != nil {
		log.Error(err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, duration)
	defer cancelTimeout()

	sent := sendRamp(ctx, c, addr)
	log.With(logger.Fields{"universe": addr.String(), "frames": sent}).Info("test frames sent")

	// The node list is only safe to read once polling has stopped.
	c.Stop()
	nodes, err := c.Nodes()
	if err != nil {
		log.Errorf("nodes: %v", err)
		os.Exit(1)
	}
	fmt.Printf("Currently %d devices are registered\n", len(nodes))
	for _, n := range nodes {
		fmt.Println(" | " + n.String())
	}
}

// sendRamp sends frames whose channels all carry a value rising by one per
// frame, until ctx is done.
func sendRamp(ctx context.Context, c *controller.Controller, addr artnet.Address) int {
	t := time.NewTicker(time.Second / time.Duration(max(fps, 1)))
	defer t.Stop()

	frame := make([]byte, channels)
	for sent := 0; ; sent++ {
		select {
		case <-ctx.Done():
			return sent
		case <-t.C:
		}
		for i := range frame {
			frame[i] = byte(sent)
		}
		c.SetFrame(addr, frame)
	}
}

func localIP() (net.IP, error) {
	if ipFlag != "" {
		ip := net.ParseIP(ipFlag).To4()
		if ip == nil {
			return nil, fmt.Errorf("invalid IPv4 address %q", ipFlag)
		}
		return ip, nil
	}
	ip, _, err := node.FindInterface(cidrFlag)
	return ip, err
}
