// Package bus defines the transport-neutral contract between the
// coordinator and the message broker. The infra/mqtt package provides
// the Paho-backed implementation; tests use in-memory fakes.
package bus

// Topic names shared with the taxi agents and the customer generator.
// All customer-facing responses use TopicResponses; the trip-completion
// messages go there too.
const (
	TopicRequests     = "taxi_requests"
	TopicUpdates      = "taxi_updates"
	TopicInstructions = "taxi_instructions"
	TopicResponses    = "taxi_responses"
	TopicMap          = "map_updates"
)

// Handler processes one raw message payload. Handlers are invoked in
// delivery order for their topic.
type Handler func(payload []byte)

// Publisher sends a JSON-encodable payload to a topic.
type Publisher interface {
	Publish(topic string, payload any) error
}

// Subscriber registers a handler for a topic. The subscription survives
// reconnects to the broker.
type Subscriber interface {
	Subscribe(topic string, h Handler) error
}

// Client is the full broker connection held by the coordinator.
type Client interface {
	Publisher
	Subscriber
	Close()
}
