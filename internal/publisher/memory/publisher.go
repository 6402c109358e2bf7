// Package memory keeps run summaries in process. It backs runs without a
// Pub/Sub project configured, where the summary is only logged.
package memory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/supermovie/internal/crawler"
)

// Publisher records every published payload and logs run summaries.
type Publisher struct {
	logger *zap.Logger

	mu       sync.RWMutex
	messages []PublishedMessage
}

// PublishedMessage captures one publish call.
type PublishedMessage struct {
	ID      string
	Topic   string
	Payload any
}

// New returns a memory Publisher. A nil logger discards log output.
func New(logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{logger: logger}
}

// Publish records the message under a sequential ID.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	id := fmt.Sprintf("memory-%d", len(p.messages)+1)
	p.messages = append(p.messages, PublishedMessage{ID: id, Topic: topic, Payload: payload})
	p.mu.Unlock()

	fields := []zap.Field{zap.String("topic", topic), zap.String("message_id", id)}
	if summary, ok := payload.(crawler.RunSummary); ok {
		fields = append(fields,
			zap.String("run_id", summary.RunID),
			zap.String("status", string(summary.Status)),
			zap.Int("movies", summary.Movies),
			zap.Int("casts", summary.Casts))
		if summary.Error != "" {
			fields = append(fields, zap.String("error", summary.Error))
		}
	}
	p.logger.Info("run summary recorded", fields...)
	return id, nil
}

// Messages returns the recorded publishes.
func (p *Publisher) Messages() []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PublishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}
