package output

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/chrisdamba/orderly/internal/models"
)

var errProducerClosed = errors.New("producer is not initialized")

// SaramaProducer publishes to a self-hosted Kafka cluster.
type SaramaProducer struct {
	producer sarama.SyncProducer
}

func NewSaramaConfig(cfg *models.Config) *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // required by SyncProducer
	saramaConfig.Net.DialTimeout = 10 * time.Second
	saramaConfig.Net.ReadTimeout = 10 * time.Second
	saramaConfig.Net.WriteTimeout = 10 * time.Second

	if cfg.SessionTimeoutMs > 0 {
		saramaConfig.Consumer.Group.Session.Timeout = time.Duration(cfg.SessionTimeoutMs) * time.Millisecond
	}
	return saramaConfig
}

func NewSaramaProducer(cfg *models.Config) (*SaramaProducer, error) {
	brokerList := strings.Split(cfg.KafkaBrokerList, ",")
	producer, err := sarama.NewSyncProducer(brokerList, NewSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	logging.Info().Strs("brokers", brokerList).Msg("sarama producer created")
	return NewSaramaProducerFrom(producer), nil
}

func NewSaramaProducerFrom(producer sarama.SyncProducer) *SaramaProducer {
	return &SaramaProducer{producer: producer}
}

func (s *SaramaProducer) WriteMessage(topic string, msg []byte) error {
	if s.producer == nil {
		return fmt.Errorf("sarama: %w", errProducerClosed)
	}

	_, _, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		return fmt.Errorf("send to topic %s: %w", topic, err)
	}
	return nil
}

func (s *SaramaProducer) Close() error {
	if s.producer == nil {
		return nil
	}
	err := s.producer.Close()
	s.producer = nil
	return err
}
