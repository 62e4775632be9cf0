package kafka

import (
	"encoding/json"
	"strings"

	ftkafka "github.com/Financial-Times/kafka-client-go/kafka"
	transactionidutils "github.com/Financial-Times/transactionid-utils-go"
	"github.com/Shopify/sarama"
	log "github.com/sirupsen/logrus"
)

const dispatchMessageType = "mock-dispatch"

// DispatchEvent describes one request answered (or refused) by the mock server.
type DispatchEvent struct {
	Endpoint   string `json:"endpoint"`
	Method     string `json:"method"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error,omitempty"`
}

// NewDispatchMessage wraps the event in an FTMessage carrying the transaction ID of the dispatched request.
func NewDispatchMessage(event DispatchEvent, transactionID string) (ftkafka.FTMessage, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return ftkafka.FTMessage{}, err
	}
	return ftkafka.NewFTMessage(map[string]string{
		transactionidutils.TransactionIDHeader: transactionID,
		"Content-Type":                         "application/json",
		"Message-Type":                         dispatchMessageType,
	}, string(body)), nil
}

func newProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 10
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	return config
}

// NewPublisher returns a producer sending dispatch events to topic.
func NewPublisher(brokers string, topic string) (ftkafka.Producer, error) {
	producer, err := ftkafka.NewProducer(strings.TrimSpace(brokers), topic, newProducerConfig())
	if err != nil {
		log.WithError(err).WithField("method", "NewPublisher").Error("Error creating the producer")
		return nil, err
	}
	return producer, nil
}
