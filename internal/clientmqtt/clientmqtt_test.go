package clientmqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"artnode/internal/artnet"
	"artnode/internal/logger"
	"artnode/internal/mailbox"
)

type published struct {
	topic string
	msg   Message
}

type recorder struct {
	mu   sync.Mutex
	msgs []published
	got  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{got: make(chan struct{}, 16)}
}

func (r *recorder) send(topic string, payload []byte) error {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return err
	}
	r.mu.Lock()
	r.msgs = append(r.msgs, published{topic, m})
	r.mu.Unlock()
	r.got <- struct{}{}
	return nil
}

func (r *recorder) wait(t *testing.T, n int) []published {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.got:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d messages", i, n)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.msgs...)
}

func newTestClient(prefix string) (*ClientMQTT, *recorder) {
	c := NewClient(logger.NewDiscard(), MQTTConf{TopicPrefix: prefix})
	r := newRecorder()
	c.send = r.send
	return c, r
}

func TestTopic(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"artnode", "artnode/stage"},
		{"lights/", "lights/stage"},
		{"", "stage"},
	}

	for _, tt := range tests {
		c, _ := newTestClient(tt.prefix)
		if got := c.Topic("stage"); got != tt.want {
			t.Errorf("Topic() with prefix %q = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestNewMessage(t *testing.T) {
	p := Port{Name: "stage", Universe: artnet.NewAddress(0, 1, 2)}
	m := NewMessage(p, mailbox.Frame{Data: []byte{10, 0, 255}})

	if m.Output != "stage" || m.Universe != "0.1.2" {
		t.Errorf("Message = %+v, want output stage universe 0.1.2", m)
	}
	want := Payload{{0, 10}, {1, 0}, {2, 255}}
	if len(m.Channels) != len(want) {
		t.Fatalf("len(Channels) = %d, want %d", len(m.Channels), len(want))
	}
	for i := range want {
		if m.Channels[i] != want[i] {
			t.Errorf("Channels[%d] = %+v, want %+v", i, m.Channels[i], want[i])
		}
	}
}

func TestConsume(t *testing.T) {
	c, r := newTestClient("artnode")
	p := Port{Name: "front", Universe: artnet.NewAddress(0, 0, 1), Mailbox: mailbox.New()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Consume(ctx, p)
	}()

	p.Mailbox.Write(mailbox.Frame{Data: []byte{1, 2}})
	msgs := r.wait(t, 1)

	if msgs[0].topic != "artnode/front" {
		t.Errorf("topic = %q, want artnode/front", msgs[0].topic)
	}
	if len(msgs[0].msg.Channels) != 2 || msgs[0].msg.Channels[1].Value != 2 {
		t.Errorf("Channels = %+v, want two channels ending in 2", msgs[0].msg.Channels)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Consume() = %v, want context.Canceled", err)
	}
}

func TestConsumeGroup(t *testing.T) {
	c, r := newTestClient("artnode")
	g := mailbox.NewGroup()
	ports := map[mailbox.GroupIndex]Port{
		0: {Name: "left", Universe: artnet.NewAddress(0, 0, 0), Mailbox: mailbox.New()},
		3: {Name: "right", Universe: artnet.NewAddress(0, 0, 3), Mailbox: mailbox.New()},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.ConsumeGroup(ctx, g, ports)

	ports[3].Mailbox.Write(mailbox.Frame{Data: []byte{3}})
	g.Signal(3)
	ports[0].Mailbox.Write(mailbox.Frame{Data: []byte{0}})
	g.Signal(0)

	msgs := r.wait(t, 2)
	topics := map[string]bool{}
	for _, m := range msgs {
		topics[m.topic] = true
	}
	if !topics["artnode/left"] || !topics["artnode/right"] {
		t.Errorf("published topics = %v, want left and right", topics)
	}
}

func TestPublish_NotConnected(t *testing.T) {
	c := NewClient(logger.NewDiscard(), MQTTConf{})
	err := c.Publish(Port{Name: "x"}, mailbox.Frame{})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() before Start = %v, want ErrNotConnected", err)
	}
}
