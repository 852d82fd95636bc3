package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/agency/backend/internal/domain/shared"
)

// envelopeVersion is bumped when the envelope layout changes
const envelopeVersion = 1

// maskedPayloadKeys are replaced in activity output; passports identify a
// traveller across agencies
var maskedPayloadKeys = []string{"passport_number", "email", "phone"}

// Envelope is the serialized form of a domain event
type Envelope struct {
	Version int             `json:"v"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EventSerializer converts client, ledger and company events to and from
// versioned JSON envelopes
type EventSerializer struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewEventSerializer creates a serializer with no registered events
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{types: make(map[string]reflect.Type)}
}

// Register binds an event type name to the concrete struct behind it.
// The name must be the value EventType returns on published instances.
func (s *EventSerializer) Register(eventType string, prototype shared.DomainEvent) {
	t := reflect.TypeOf(prototype)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s.mu.Lock()
	s.types[eventType] = t
	s.mu.Unlock()
}

// Serialize wraps the event payload in an envelope
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event.EventType(), err)
	}
	return json.Marshal(Envelope{Version: envelopeVersion, Type: event.EventType(), Payload: payload})
}

// Deserialize rebuilds the typed event named by the envelope
func (s *EventSerializer) Deserialize(data []byte) (shared.DomainEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version %d", env.Version)
	}

	s.mu.RLock()
	t, ok := s.types[env.Type]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", env.Type)
	}

	target := reflect.New(t).Interface()
	if err := json.Unmarshal(env.Payload, target); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s payload: %w", env.Type, err)
	}
	event, ok := target.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("registered type for %s is not a domain event", env.Type)
	}
	return event, nil
}

// MaskedPayload returns the event payload with contact and passport fields
// reduced to their last characters
func (s *EventSerializer) MaskedPayload(event shared.DomainEvent) ([]byte, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event.EventType(), err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for _, key := range maskedPayloadKeys {
		if v, ok := fields[key].(string); ok && v != "" {
			fields[key] = maskTail(v)
		}
	}
	return json.Marshal(fields)
}

// IsRegistered reports whether the event type can be deserialized
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.types[eventType]
	return ok
}

// RegisteredTypes lists registered event types in name order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	s.mu.RUnlock()
	slices.Sort(names)
	return names
}

func maskTail(v string) string {
	const visible = 3
	runes := []rune(v)
	if len(runes) <= visible {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-visible) + string(runes[len(runes)-visible:])
}
