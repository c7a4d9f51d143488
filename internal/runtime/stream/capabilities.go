package stream

import "github.com/drblury/toolbus/internal/runtime/config"

// Capabilities describes what a stream system guarantees for published
// envelopes.
type Capabilities struct {
	Name string

	// Durable systems keep envelopes when no consumer is attached.
	Durable bool
	// Ordered systems keep publish order per subject.
	Ordered bool
	// Deduplicates reports whether the envelope id suppresses repeated
	// publishes of the same envelope.
	Deduplicates bool
}

var (
	JetStreamCapabilities = Capabilities{Name: config.StreamJetStream, Durable: true, Ordered: true, Deduplicates: true}
	KafkaCapabilities     = Capabilities{Name: config.StreamKafka, Durable: true, Ordered: true}
	RabbitMQCapabilities  = Capabilities{Name: config.StreamRabbitMQ, Durable: true}
	ChannelCapabilities   = Capabilities{Name: config.StreamChannel, Ordered: true}
)
