// Package events publishes incident lifecycle notifications to a broker so
// that dispatch dashboards can follow open and finalized occurrences.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TypeIncidentCreated   = "incident.created"
	TypeIncidentFinalized = "incident.finalized"
)

// Event is the JSON message body.
type Event struct {
	ID             uuid.UUID `json:"id"`
	Type           string    `json:"type"`
	IncidentID     uuid.UUID `json:"ocorrencia_id"`
	RegistryNumber string    `json:"num_reg_central"`
	VehicleTag     string    `json:"vtr_sigla,omitempty"`
	FinalStatus    string    `json:"status_final,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func New(eventType string, incidentID uuid.UUID, registry string) Event {
	return Event{
		ID:             uuid.New(),
		Type:           eventType,
		IncidentID:     incidentID,
		RegistryNumber: registry,
		OccurredAt:     time.Now().UTC(),
	}
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
