package output

import (
	"fmt"

	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/chrisdamba/orderly/internal/models"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const confluentFlushTimeoutMs = 1000

// ConfluentProducer publishes to Confluent Cloud.
type ConfluentProducer struct {
	producer *kafka.Producer
	done     chan struct{}
}

func NewConfluentConfigMap(cfg *models.Config) kafka.ConfigMap {
	return kafka.ConfigMap{
		"bootstrap.servers":       cfg.KafkaBrokerList,
		"security.protocol":       cfg.KafkaSecurityProtocol,
		"sasl.mechanisms":         cfg.KafkaSaslMechanism,
		"sasl.username":           cfg.KafkaSaslUsername,
		"sasl.password":           cfg.KafkaSaslPassword,
		"session.timeout.ms":      cfg.SessionTimeoutMs,
		"linger.ms":               10,
		"batch.num.messages":      100,
		"compression.type":        "snappy",
		"message.timeout.ms":      30000,
		"enable.idempotence":      true,
		"acks":                    "all",
		"retry.backoff.ms":        100,
		"socket.keepalive.enable": true,
	}
}

func NewConfluentProducer(configMap kafka.ConfigMap) (*ConfluentProducer, error) {
	producer, err := kafka.NewProducer(&configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create Confluent Kafka producer: %w", err)
	}

	c := &ConfluentProducer{producer: producer, done: make(chan struct{})}
	go c.deliveryReports()

	logging.Info().Msg("confluent kafka producer created")
	return c, nil
}

func (c *ConfluentProducer) deliveryReports() {
	defer close(c.done)
	for e := range c.producer.Events() {
		ev, ok := e.(*kafka.Message)
		if !ok {
			continue
		}
		if ev.TopicPartition.Error != nil {
			logging.Warn().Err(ev.TopicPartition.Error).Str("partition", ev.TopicPartition.String()).Msg("failed to deliver message")
			continue
		}
		logging.Debug().Str("partition", ev.TopicPartition.String()).Msg("message delivered")
	}
}

func (c *ConfluentProducer) WriteMessage(topic string, msg []byte) error {
	if c.producer == nil {
		return fmt.Errorf("confluent: %w", errProducerClosed)
	}

	err := c.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          msg,
	}, nil)
	if err != nil {
		return fmt.Errorf("produce to topic %s: %w", topic, err)
	}
	if remaining := c.producer.Flush(confluentFlushTimeoutMs); remaining > 0 {
		return fmt.Errorf("produce to topic %s: %d messages still queued after flush", topic, remaining)
	}
	return nil
}

func (c *ConfluentProducer) Close() error {
	if c.producer == nil {
		return nil
	}
	c.producer.Flush(confluentFlushTimeoutMs)
	c.producer.Close()
	<-c.done
	c.producer = nil
	return nil
}
