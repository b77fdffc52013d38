package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	mqtt.Token
	done bool
	err  error
}

func (t *fakeToken) Wait() bool                     { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	token        *fakeToken
	published    []published
	disconnected bool
}

func (f *fakePublisher) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	f.published = append(f.published, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return f.token
}

func (f *fakePublisher) Disconnect(uint) {
	f.disconnected = true
}

func TestMQTTNotifier_Publishes(t *testing.T) {
	pub := &fakePublisher{token: &fakeToken{done: true}}
	n := newMQTTNotifier(pub, "proctorvision/violations")

	if err := n.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("Notify() error: %v", err)
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.published))
	}
	msg := pub.published[0]
	if msg.topic != "proctorvision/violations" {
		t.Errorf("topic = %q", msg.topic)
	}
	if msg.qos != 1 {
		t.Errorf("qos = %d, want 1", msg.qos)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got["session_id"] != "sess-1" {
		t.Errorf("session_id = %v", got["session_id"])
	}
	if got["head_status"] != "Looking Forward" {
		t.Errorf("head_status = %v", got["head_status"])
	}
	if gadgets, ok := got["gadgets"].([]interface{}); !ok || len(gadgets) != 1 || gadgets[0] != "Mobile Phone" {
		t.Errorf("gadgets = %v", got["gadgets"])
	}
}

func TestMQTTNotifier_Errors(t *testing.T) {
	tests := []struct {
		name  string
		token *fakeToken
	}{
		{"timeout", &fakeToken{done: false}},
		{"broker error", &fakeToken{done: true, err: errors.New("not authorized")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newMQTTNotifier(&fakePublisher{token: tt.token}, "t")
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			if err := n.Notify(ctx, testEvent()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMQTTNotifier_Close(t *testing.T) {
	pub := &fakePublisher{token: &fakeToken{done: true}}
	n := newMQTTNotifier(pub, "t")
	n.Close()
	if !pub.disconnected {
		t.Error("Close should disconnect the client")
	}
	if n.Topic() != "t" {
		t.Errorf("Topic() = %q", n.Topic())
	}
}
