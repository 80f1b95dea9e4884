package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"artnode/internal/artnet"
)

// MaxOutputs mirrors the patch table capacity so config errors surface at load time.
const MaxOutputs = 16

// Config структура конфигурации.
type Config struct {
	Logger  LogConf      `toml:"logger"` // Logger - конфигурация регистратора.
	Node    NodeConf     `toml:"node"`   // Node - идентификация и адрес узла.
	Outputs []OutputConf `toml:"output"` // Outputs - таблица выходов.
	MQTT    MQTTConf     `toml:"mqtt"`   // MQTT - конфигурация MQTT клиента.
	Status  StatusConf   `toml:"status"` // Status - периодический вывод статистики.
}

// LogConf структура конфигурации.
type LogConf struct {
	Level  string `toml:"log-level"`  // Level - уровень логирования.
	Format string `toml:"log-format"` // Format - "text" или "json".
	File   string `toml:"log-file"`   // File - файл журнала, пусто - stdout.
}

// NodeConf describes the node identity announced in ArtPollReply.
type NodeConf struct {
	Port          int    `toml:"port"`
	Net           uint8  `toml:"net"`
	SubNet        uint8  `toml:"subnet"`
	IP            string `toml:"ip"`             // empty: detect from interfaces
	MAC           string `toml:"mac"`            // empty: detect from interfaces
	InterfaceCIDR string `toml:"interface-cidr"` // restricts interface detection
	ShortName     string `toml:"short-name"`
	LongName      string `toml:"long-name"`
}

// Address returns the base address; the universe nibble is zero.
func (n NodeConf) Address() artnet.Address {
	return artnet.NewAddress(n.Net, n.SubNet, 0)
}

// OutputConf is one patch table entry.
type OutputConf struct {
	Name     string   `toml:"name"`
	Universe Universe `toml:"universe"`
	// Group names a shared consumer; outputs with the same group are
	// published together. Empty means a standalone output.
	Group      string `toml:"group"`
	GroupIndex uint8  `toml:"group-index"`
}

// MQTTConf структура конфигурации.
type MQTTConf struct {
	Enabled     bool   `toml:"enabled"`
	ClientID    string `toml:"clientID"`     // ClientID - имя клиента.
	Host        string `toml:"server"`       // Host - адрес MQTT сервера.
	Port        string `toml:"port"`         // Port - порт MQTT сервера.
	User        string `toml:"user"`         // User - логин для подключения к MQTT серверу.
	Password    string `toml:"password"`     // Password - пароль для подключения к MQTT серверу.
	Qos         byte   `toml:"qos"`          // Qos - качество обслуживания.
	TopicPrefix string `toml:"topic-prefix"` // TopicPrefix - префикс топиков выходов.
}

// StatusConf controls the periodic stats log line.
type StatusConf struct {
	Interval Duration `toml:"interval"`
	Reset    bool     `toml:"reset"` // reset counters after each line
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		Logger: LogConf{Level: "info", Format: "text"},
		Node: NodeConf{
			Port:      artnet.Port,
			ShortName: "artnode",
			LongName:  "artnode DMX node",
		},
		MQTT: MQTTConf{
			ClientID:    "artnode",
			Port:        "1883",
			TopicPrefix: "artnode",
		},
	}
}

// NewConfig конструктор.
func NewConfig(path string) (*Config, error) {
	// default values
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return &cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return &cfg, err
	}
	return &cfg, nil
}

// Validate checks values the node would otherwise reject at startup.
func (c *Config) Validate() error {
	if c.Node.Port < 0 || c.Node.Port > 65535 {
		return fmt.Errorf("node: port %d out of range", c.Node.Port)
	}
	if c.Node.Net > 127 {
		return fmt.Errorf("node: net %d out of range 0-127", c.Node.Net)
	}
	if c.Node.SubNet > 15 {
		return fmt.Errorf("node: subnet %d out of range 0-15", c.Node.SubNet)
	}
	if len(c.Outputs) > MaxOutputs {
		return fmt.Errorf("%d outputs configured, at most %d supported", len(c.Outputs), MaxOutputs)
	}

	names := map[string]bool{}
	groups := map[string]map[uint8]string{}
	for i, o := range c.Outputs {
		if o.Name == "" {
			return fmt.Errorf("output %d: name is required", i)
		}
		if names[o.Name] {
			return fmt.Errorf("output %d: duplicate name %q", i, o.Name)
		}
		names[o.Name] = true
		if o.Group == "" {
			continue
		}
		if o.GroupIndex > 3 {
			return fmt.Errorf("output %q: group-index %d out of range 0-3", o.Name, o.GroupIndex)
		}
		if groups[o.Group] == nil {
			groups[o.Group] = map[uint8]string{}
		}
		if other, ok := groups[o.Group][o.GroupIndex]; ok {
			return fmt.Errorf("output %q: group %q index %d already used by %q", o.Name, o.Group, o.GroupIndex, other)
		}
		groups[o.Group][o.GroupIndex] = o.Name
	}

	if c.MQTT.Enabled && c.MQTT.Host == "" {
		return errors.New("mqtt: server is required when enabled")
	}
	return nil
}
