package clientmqtt

import (
	"artnode/internal/artnet"
	"artnode/internal/mailbox"
)

type MQTTConf struct {
	ClientID    string // ClientID - уникальное имя клиента для брокеров.
	Schema      string // Schema - тип подключения.
	Host        string // Host - адрес MQTT сервера.
	Port        string // Port - порт MQTT сервера.
	User        string // User - логин для подключения к MQTT серверу.
	Password    string // Password - пароль для подключения к MQTT серверу.
	Qos         byte   // Qos - качество обслуживания публикаций.
	TopicPrefix string // TopicPrefix - префикс топиков выходов.
}

// Port is one patched output as seen by the publisher.
type Port struct {
	Name     string
	Universe artnet.Address
	Mailbox  *mailbox.Mailbox
}

type DMXCommand struct {
	Channel uint16 `json:"channel"` // Channel is the channel a command can talk to (0-511).
	Value   uint8  `json:"value"`   // Value is the value a DMX channel can represent (0-255).
}

type Payload []DMXCommand

// Message is the JSON document published for each frame.
type Message struct {
	Output   string  `json:"output"`
	Universe string  `json:"universe"`
	Channels Payload `json:"channels"`
}

// NewMessage converts a frame into its published form.
func NewMessage(p Port, f mailbox.Frame) Message {
	channels := make(Payload, f.Len())
	for i, v := range f.Data {
		channels[i] = DMXCommand{Channel: uint16(i), Value: v}
	}
	return Message{
		Output:   p.Name,
		Universe: p.Universe.String(),
		Channels: channels,
	}
}
