package stream

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/drblury/toolbus/internal/runtime/config"
)

// Factories are package variables so tests can replace the network facing
// constructors.
var (
	JetStreamPublisherFactory = func(cfg nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return nats.NewPublisher(cfg, logger)
	}
	KafkaPublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return kafka.NewPublisher(cfg, logger)
	}
	AmqpConnectionFactory = func(cfg amqp.ConnectionConfig, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, error) {
		return amqp.NewConnection(cfg, logger)
	}
	AmqpPublisherFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Publisher, error) {
		return amqp.NewPublisherWithConnection(cfg, logger, conn)
	}
	GoChannelFactory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) message.Publisher {
		return gochannel.NewGoChannel(cfg, logger)
	}
)

func registerBuiltins(r *Registry) {
	r.RegisterWithCapabilities(config.StreamJetStream, jetStreamPublisher, JetStreamCapabilities)
	r.RegisterWithCapabilities(config.StreamKafka, kafkaPublisher, KafkaCapabilities)
	r.RegisterWithCapabilities(config.StreamRabbitMQ, rabbitMQPublisher, RabbitMQCapabilities)
	r.RegisterWithCapabilities(config.StreamChannel, channelPublisher, ChannelCapabilities)
}

// jetStreamPublisher publishes into streams that already exist; subjects are
// never auto provisioned. The envelope id doubles as the JetStream message id.
func jetStreamPublisher(_ context.Context, conf *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	js := nats.JetStreamConfig{
		AutoProvision: false,
		TrackMsgId:    true,
	}
	if name := conf.GetJetStreamName(); name != "" {
		js.PublishOptions = []natsgo.PubOpt{natsgo.ExpectStream(name)}
	}

	return JetStreamPublisherFactory(
		nats.PublisherConfig{
			URL:         conf.GetNATSURL(),
			NatsOptions: []natsgo.Option{natsgo.Name(conf.GetClientName() + "-stream")},
			Marshaler:   &nats.NATSMarshaler{},
			JetStream:   js,
		},
		logger,
	)
}

func kafkaPublisher(_ context.Context, conf *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return KafkaPublisherFactory(
		kafka.PublisherConfig{
			Brokers:   conf.GetKafkaBrokers(),
			Marshaler: kafka.DefaultMarshaler{},
		},
		logger,
	)
}

func rabbitMQPublisher(_ context.Context, conf *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	amqpConfig := amqp.NewDurablePubSubConfig(
		conf.GetRabbitMQURL(),
		amqp.GenerateQueueNameTopicNameWithSuffix("-"+conf.GetClientName()),
	)
	conn, err := AmqpConnectionFactory(amqp.ConnectionConfig{
		AmqpURI:   conf.GetRabbitMQURL(),
		Reconnect: amqp.DefaultReconnectConfig(),
	}, logger)
	if err != nil {
		return nil, err
	}
	return AmqpPublisherFactory(amqpConfig, logger, conn)
}

func channelPublisher(_ context.Context, _ *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return GoChannelFactory(gochannel.Config{Persistent: true}, logger), nil
}
