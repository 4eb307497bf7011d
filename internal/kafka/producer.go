package kafka

import (
	"context"
	"fmt"
	"sort"

	"github.com/IBM/sarama"
)

// saramaProducer implements KafkaProducer on top of a sarama.SyncProducer:
// each Send waits for the acknowledgment of all in-sync replicas.
type saramaProducer struct {
	producer sarama.SyncProducer
}

// newSaramaConfig returns the producer configuration shared by the pool:
// RequiredAcks=WaitForAll and up to 3 retries for transient failures.
func newSaramaConfig(config ProducerConfig) *sarama.Config {
	saramaConfig := sarama.NewConfig()
	if config.ClientID != "" {
		saramaConfig.ClientID = config.ClientID
	}
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	return saramaConfig
}

// newSaramaProducer connects a new producer to the cluster. Each producer
// maintains its own connections to the brokers.
func newSaramaProducer(config ProducerConfig) (KafkaProducer, error) {
	producer, err := sarama.NewSyncProducer(config.BrokerList, newSaramaConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	return &saramaProducer{producer: producer}, nil
}

// Send sends a message to its topic. Headers are written in key order.
func (p *saramaProducer) Send(ctx context.Context, msg Message) error {
	saramaMsg := &sarama.ProducerMessage{
		Topic: msg.Topic,
		Value: sarama.ByteEncoder(msg.Payload),
	}

	if len(msg.Headers) > 0 {
		keys := make([]string, 0, len(msg.Headers))
		for k := range msg.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		headers := make([]sarama.RecordHeader, 0, len(keys))
		for _, k := range keys {
			headers = append(headers, sarama.RecordHeader{
				Key:   []byte(k),
				Value: []byte(msg.Headers[k]),
			})
		}
		saramaMsg.Headers = headers
	}

	// SendMessage does not take a context, so wait for it in a goroutine
	done := make(chan error, 1)
	go func() {
		_, _, err := p.producer.SendMessage(saramaMsg)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the Sarama producer, releasing all associated resources.
func (p *saramaProducer) Close() error {
	return p.producer.Close()
}
