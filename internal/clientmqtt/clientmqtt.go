// Package clientmqtt publishes DMX frames taken from output mailboxes to an
// MQTT broker.
package clientmqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"artnode/internal/logger"
	"artnode/internal/mailbox"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var ErrNotConnected = errors.New("mqtt client is not connected")

// publishTimeout bounds the wait for a broker acknowledgement.
const publishTimeout = 5 * time.Second

// ClientMQTT структура клиента MQTT.
type ClientMQTT struct {
	log       *logger.Log
	cfgClient MQTTConf
	client    mqtt.Client
	opts      *mqtt.ClientOptions

	// send delivers one payload; replaced in tests.
	send func(topic string, payload []byte) error
}

// NewClient конструктор.
func NewClient(log logger.Logger, cfgClient MQTTConf) *ClientMQTT {
	if cfgClient.Schema == "" {
		cfgClient.Schema = "tcp"
	}
	c := &ClientMQTT{
		log:       log.With(logger.Fields{"module": "mqtt"}),
		cfgClient: cfgClient,
	}
	c.send = c.publish
	return c
}

// Start connects to the broker. It returns when the first connection attempt
// completes or ctx is done.
func (c *ClientMQTT) Start(ctx context.Context) error {
	mqtt.ERROR = pahoLogger{c.log.Errorf}
	mqtt.CRITICAL = pahoLogger{c.log.Errorf}
	mqtt.WARN = pahoLogger{c.log.Warnf}

	c.opts = mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%s", c.cfgClient.Schema, c.cfgClient.Host, c.cfgClient.Port)).
		SetUsername(c.cfgClient.User).
		SetPassword(c.cfgClient.Password).
		SetOnConnectHandler(c.connectHandler).
		SetConnectionLostHandler(c.connectLostHandler).
		SetClientID(c.cfgClient.ClientID).
		SetOrderMatters(false).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	c.client = mqtt.NewClient(c.opts)

	token := c.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return token.Error()
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	c.log.Infof("Status: %v", c.client.IsConnected())
	return nil
}

func (c *ClientMQTT) Stop() error {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(500)
	}
	return nil
}

func (c *ClientMQTT) connectHandler(_ mqtt.Client) {
	c.log.Info("client connected to server")
}

func (c *ClientMQTT) connectLostHandler(_ mqtt.Client, err error) {
	c.log.Errorf("server connect lost: %v", err)
}

// Topic returns the topic frames of the named output are published to.
func (c *ClientMQTT) Topic(output string) string {
	prefix := strings.TrimSuffix(c.cfgClient.TopicPrefix, "/")
	if prefix == "" {
		return output
	}
	return prefix + "/" + output
}

// Publish sends one frame of p.
func (c *ClientMQTT) Publish(p Port, f mailbox.Frame) error {
	msg, err := json.Marshal(NewMessage(p, f))
	if err != nil {
		return fmt.Errorf("marshal frame of %s: %w", p.Name, err)
	}
	return c.send(c.Topic(p.Name), msg)
}

func (c *ClientMQTT) publish(topic string, payload []byte) error {
	if c.client == nil {
		return ErrNotConnected
	}
	token := c.client.Publish(topic, c.cfgClient.Qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Consume publishes every frame written to p's mailbox until ctx is done.
// Frames overwritten before they are taken are never published.
func (c *ClientMQTT) Consume(ctx context.Context, p Port) error {
	for {
		f, err := p.Mailbox.Read(ctx)
		if err != nil {
			return err
		}
		c.publishLogged(p, f)
	}
}

// ConsumeGroup serves up to four ports with one goroutine, woken by the
// group notifier.
func (c *ClientMQTT) ConsumeGroup(ctx context.Context, g *mailbox.Group, ports map[mailbox.GroupIndex]Port) error {
	for {
		changed, err := g.Wait(ctx)
		if err != nil {
			return err
		}
		for _, i := range changed {
			p, ok := ports[i]
			if !ok {
				continue
			}
			if f, ok := p.Mailbox.TryRead(); ok {
				c.publishLogged(p, f)
			}
		}
	}
}

func (c *ClientMQTT) publishLogged(p Port, f mailbox.Frame) {
	if err := c.Publish(p, f); err != nil {
		c.log.With(logger.Fields{"output": p.Name}).Errorf("frame not published: %v", err)
		return
	}
	c.log.With(logger.Fields{"output": p.Name, "channels": f.Len()}).Debug("frame published")
}

// pahoLogger routes paho's internal log lines into logrus.
type pahoLogger struct {
	printf func(format string, args ...interface{})
}

func (l pahoLogger) Println(v ...interface{}) {
	l.printf("%s", strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l pahoLogger) Printf(format string, v ...interface{}) {
	l.printf(format, v...)
}
