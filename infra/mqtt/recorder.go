package mqtt

import (
	"errors"
	"sync"

	"github.com/easycab-sim/central/core/bus"
)

var errPublishFailed = errors.New("publish failed")

// Recorder is an in-memory bus.Client used in tests. Published payloads
// are kept per topic and can be delivered to subscribed handlers.
type Recorder struct {
	mu       sync.Mutex
	messages map[string][]any
	handlers map[string]bus.Handler
	failing  bool
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		messages: make(map[string][]any),
		handlers: make(map[string]bus.Handler),
	}
}

// Fail makes every subsequent Publish return an error.
func (r *Recorder) Fail(fail bool) {
	r.mu.Lock()
	r.failing = fail
	r.mu.Unlock()
}

func (r *Recorder) Publish(topic string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errPublishFailed
	}
	r.messages[topic] = append(r.messages[topic], payload)
	return nil
}

func (r *Recorder) Subscribe(topic string, h bus.Handler) error {
	r.mu.Lock()
	r.handlers[topic] = h
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() {}

// Deliver feeds a raw payload to the handler subscribed on the topic.
func (r *Recorder) Deliver(topic string, payload []byte) {
	r.mu.Lock()
	h := r.handlers[topic]
	r.mu.Unlock()
	if h != nil {
		h(payload)
	}
}

// Messages returns the payloads published on the topic so far.
func (r *Recorder) Messages(topic string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]any, len(r.messages[topic]))
	copy(out, r.messages[topic])
	return out
}
