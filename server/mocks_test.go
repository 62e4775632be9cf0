package server

import (
	"sync"

	ftkafka "github.com/Financial-Times/kafka-client-go/kafka"
)

type mockPublisher struct {
	mu       sync.Mutex
	messages []ftkafka.FTMessage
	err      error
}

func (p *mockPublisher) SendMessage(message ftkafka.FTMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.messages = append(p.messages, message)
	return p.err
}

func (p *mockPublisher) ConnectivityCheck() error {
	return nil
}

func (p *mockPublisher) Shutdown() {
}

func (p *mockPublisher) sent() []ftkafka.FTMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ftkafka.FTMessage(nil), p.messages...)
}
