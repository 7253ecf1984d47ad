package events_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/api-sage/core-ledger/internal/adapter/events"
	"github.com/api-sage/core-ledger/internal/domain"
)

func sampleEvent(t *testing.T) domain.DomainEvent {
	t.Helper()

	amount, err := domain.NewMoneyFromString("40.00", "GBP")
	if err != nil {
		t.Fatalf("money: %v", err)
	}
	return domain.NewTransferCompletedEvent("acc-1", "acc-2", "TXN0011AABBCCDD", amount, "J Smith")
}

func TestWebhookPublisherDeliversEventEnvelope(t *testing.T) {
	received := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- body
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	publisher := events.NewWebhookPublisher(server.URL)
	publisher.Publish(sampleEvent(t))

	select {
	case body := <-received:
		var envelope map[string]any
		if err := json.Unmarshal(body, &envelope); err != nil {
			t.Fatalf("envelope: %v", err)
		}
		if envelope["eventType"] != "TRANSFER_COMPLETED" {
			t.Fatalf("eventType: got %v", envelope["eventType"])
		}
		if envelope["eventId"] == "" || envelope["occurredAt"] == "" {
			t.Fatalf("incomplete envelope: %v", envelope)
		}
		data, ok := envelope["data"].(map[string]any)
		if !ok {
			t.Fatalf("envelope data: %v", envelope["data"])
		}
		amount, ok := data["Amount"].(map[string]any)
		if !ok {
			t.Fatalf("amount missing from event data: %v", data)
		}
		if amount["amount"] != "40.00" || amount["currency"] != "GBP" {
			t.Fatalf("amount lost in delivery: %v", amount)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("event was never delivered")
	}
}

func TestWebhookPublisherDoesNotBlockOnFailingConsumer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	publisher := events.NewWebhookPublisher(server.URL)

	start := time.Now()
	publisher.Publish(sampleEvent(t))
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("publish blocked for %s", elapsed)
	}
}

func TestLogPublisherAcceptsEvents(t *testing.T) {
	publisher := events.NewLogPublisher()
	publisher.Publish(sampleEvent(t))
}
