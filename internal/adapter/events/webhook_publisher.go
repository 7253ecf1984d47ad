package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/api-sage/core-ledger/internal/domain"
	"github.com/api-sage/core-ledger/internal/logger"
)

// WebhookPublisher posts events as JSON to a configured consumer endpoint.
// Delivery is fire-and-forget: the core only hands the event off, a slow or
// failing consumer never blocks an accounting operation.
type WebhookPublisher struct {
	url    string
	client *http.Client
}

func NewWebhookPublisher(url string) *WebhookPublisher {
	return &WebhookPublisher{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *WebhookPublisher) Publish(event domain.DomainEvent) {
	go func() {
		if err := p.send(event); err != nil {
			logger.Error("webhook publisher delivery failed", err, logger.Fields{
				"eventId":   event.EventID(),
				"eventType": event.EventType(),
			})
		}
	}()
}

func (p *WebhookPublisher) send(event domain.DomainEvent) error {
	payload := map[string]any{
		"eventId":    event.EventID(),
		"eventType":  event.EventType(),
		"occurredAt": event.OccurredAt().Format(time.RFC3339),
		"data":       logger.SanitizePayload(event),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, p.url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("event consumer returned status %d", resp.StatusCode)
}
