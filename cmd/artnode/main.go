package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"artnode/internal/clientmqtt"
	"artnode/internal/config"
	"artnode/internal/logger"
	"artnode/internal/mailbox"
	"artnode/internal/node"
	"artnode/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	configFile string
	withTUI    bool
)

func init() {
	flag.StringVar(&configFile, "config", "configs/conf.toml", "Path to configuration file")
	flag.BoolVar(&withTUI, "tui", false, "Show live counters instead of logging to stdout")
}

// outputGroup is a set of outputs served by one MQTT consumer.
type outputGroup struct {
	group *mailbox.Group
	ports map[mailbox.GroupIndex]clientmqtt.Port
}

func main() {
	flag.Parse()
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		fmt.Printf("configuration file read error: %v\n", err)
		os.Exit(1)
	}

	if withTUI && cfg.Logger.File == "" {
		cfg.Logger.File = os.DevNull
	}
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Printf("failed to create a logger: %v\n", err)
		os.Exit(1)
	}
	log.Module("logger").Debug("newLogger created ok")

	opts, err := nodeOptions(cfg.Node)
	if err != nil {
		log.Module("node").Errorf("node options: %v", err)
		os.Exit(1)
	}

	n, err := node.New(log, opts)
	if err != nil {
		log.Module("node").Errorf("error while creating the node: %v", err)
		os.Exit(1)
	}

	ports, groups, err := patchOutputs(n, cfg.Outputs)
	if err != nil {
		log.Module("node").Errorf("patch: %v", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	var wg sync.WaitGroup

	var client *clientmqtt.ClientMQTT
	if cfg.MQTT.Enabled {
		client = clientmqtt.NewClient(log, ConvertConfigClientMQTT(cfg.MQTT))
		if err := client.Start(ctx); err != nil {
			log.Module("mqtt").Errorf("failed to start MQTT service: %v", err)
			os.Exit(1)
		}
		startConsumers(ctx, &wg, log, client, ports, groups)
	}

	if cfg.Status.Interval.Duration > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logStatus(ctx, log, n, cfg.Status)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run(ctx)
	}()

	if withTUI {
		p := tea.NewProgram(tui.NewModel(n, 250*time.Millisecond), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			log.Errorf("TUI: %v", err)
		}
		cancel()
	}

	if err := <-errCh; err != nil {
		log.Module("node").Errorf("receive loop stopped: %v", err)
	}
	cancel()
	wg.Wait()

	if client != nil {
		if err := client.Stop(); err != nil {
			log.Error("failed to stop MQTT service:", err.Error())
		}
	}

	log.Info("shutdown complete")
}

// nodeOptions builds node options, detecting IP and MAC when not configured.
func nodeOptions(cfg config.NodeConf) (node.Options, error) {
	opts := node.DefaultOptions()
	opts.Port = cfg.Port
	opts.Address = cfg.Address()
	opts.ShortName = cfg.ShortName
	opts.LongName = cfg.LongName

	if cfg.IP != "" {
		ip := net.ParseIP(cfg.IP)
		if ip == nil {
			return opts, fmt.Errorf("invalid ip %q", cfg.IP)
		}
		opts.IP = ip
	}
	if cfg.MAC != "" {
		mac, err := net.ParseMAC(cfg.MAC)
		if err != nil {
			return opts, fmt.Errorf("invalid mac %q: %w", cfg.MAC, err)
		}
		opts.MAC = mac
	}

	if opts.IP == nil || opts.MAC == nil {
		ip, mac, err := node.FindInterface(cfg.InterfaceCIDR)
		switch {
		case errors.Is(err, node.ErrNoInterface) && cfg.InterfaceCIDR == "":
			// Announce 0.0.0.0 and a zero MAC.
		case err != nil:
			return opts, err
		default:
			if opts.IP == nil {
				opts.IP = ip
			}
			if opts.MAC == nil && len(mac) == 6 {
				opts.MAC = mac
			}
		}
	}
	return opts, nil
}

// patchOutputs creates one mailbox per configured output. Outputs sharing a
// group name share a notifier.
func patchOutputs(n *node.Node, outputs []config.OutputConf) ([]clientmqtt.Port, map[string]*outputGroup, error) {
	var ports []clientmqtt.Port
	groups := map[string]*outputGroup{}

	for _, o := range outputs {
		p := clientmqtt.Port{Name: o.Name, Universe: o.Universe.Address, Mailbox: mailbox.New()}

		if o.Group == "" {
			if _, err := n.AddOutput(p.Universe, p.Mailbox); err != nil {
				return nil, nil, fmt.Errorf("output %q: %w", o.Name, err)
			}
			ports = append(ports, p)
			continue
		}

		g, ok := groups[o.Group]
		if !ok {
			g = &outputGroup{group: mailbox.NewGroup(), ports: map[mailbox.GroupIndex]clientmqtt.Port{}}
			groups[o.Group] = g
		}
		index := mailbox.GroupIndex(o.GroupIndex)
		if _, err := n.AddGroupedOutput(p.Universe, index, p.Mailbox, g.group); err != nil {
			return nil, nil, fmt.Errorf("output %q: %w", o.Name, err)
		}
		g.ports[index] = p
	}
	return ports, groups, nil
}

func startConsumers(ctx context.Context, wg *sync.WaitGroup, log *logger.Log, client *clientmqtt.ClientMQTT,
	ports []clientmqtt.Port, groups map[string]*outputGroup,
) {
	run := func(name string, consume func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consume(); err != nil && !errors.Is(err, context.Canceled) {
				log.With(logger.Fields{"module": "mqtt", "consumer": name}).Errorf("consumer stopped: %v", err)
			}
		}()
	}

	for _, p := range ports {
		run(p.Name, func() error { return client.Consume(ctx, p) })
	}
	for name, g := range groups {
		run(name, func() error { return client.ConsumeGroup(ctx, g.group, g.ports) })
	}
}

// logStatus writes the counters at each interval until ctx is done.
func logStatus(ctx context.Context, log *logger.Log, n *node.Node, cfg config.StatusConf) {
	t := time.NewTicker(cfg.Interval.Duration)
	defer t.Stop()

	l := log.Module("status")
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		s := n.Stats(cfg.Reset)
		l.With(logger.Fields{
			"received":      s.Received,
			"invalid":       s.Invalid,
			"unknown":       s.Unknown,
			"errors":        s.Errors,
			"poll_requests": s.PollRequests,
			"dmx_discarded": s.DMXDiscarded,
		}).Info("node")

		for _, o := range n.Outputs(cfg.Reset) {
			l.With(logger.Fields{
				"universe":  o.Address.String(),
				"seq":       o.SeqState.String(),
				"dmx_recv":  o.Stats.DMXRecv,
				"seq_skip":  o.Stats.SeqSkip,
				"seq_drop":  o.Stats.SeqDrop,
				"overwrite": o.Stats.Overwrite,
			}).Debug("output")
		}
	}
}

// ConvertConfigClientMQTT преобразует структуры.
func ConvertConfigClientMQTT(cfg config.MQTTConf) clientmqtt.MQTTConf {
	return clientmqtt.MQTTConf{
		ClientID:    cfg.ClientID,
		Schema:      "tcp",
		Host:        cfg.Host,
		Port:        cfg.Port,
		User:        cfg.User,
		Password:    cfg.Password,
		Qos:         cfg.Qos,
		TopicPrefix: cfg.TopicPrefix,
	}
}
