package events

import (
	"github.com/api-sage/core-ledger/internal/domain"
	"github.com/api-sage/core-ledger/internal/logger"
)

// LogPublisher writes every domain event to the structured log. It is the
// default publisher when no downstream consumer is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(event domain.DomainEvent) {
	logger.Info("domain event published", logger.Fields{
		"eventId":    event.EventID(),
		"eventType":  event.EventType(),
		"occurredAt": event.OccurredAt(),
		"event":      logger.SanitizePayload(event),
	})
}
