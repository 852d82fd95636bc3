package event

import (
	"github.com/agency/backend/internal/domain/client"
	"github.com/agency/backend/internal/domain/identity"
)

// RegisterAllEvents registers every domain event type with the serializer
func RegisterAllEvents(serializer *EventSerializer) {
	// Client registry and archive events
	serializer.Register(client.EventTypeClientCreated, &client.ClientCreatedEvent{})
	serializer.Register(client.EventTypeClientUpdated, &client.ClientUpdatedEvent{})
	serializer.Register(client.EventTypeClientStatusChanged, &client.ClientStatusChangedEvent{})
	serializer.Register(client.EventTypeClientArchived, &client.ClientArchivedEvent{})
	serializer.Register(client.EventTypeClientRestored, &client.ClientRestoredEvent{})
	serializer.Register(client.EventTypeClientDeleted, &client.ClientDeletedEvent{})

	// Ledger events
	serializer.Register(client.EventTypeClientBalanceChanged, &client.ClientBalanceChangedEvent{})

	// Company events
	serializer.Register(identity.EventTypeCompanyCreated, &identity.CompanyCreatedEvent{})
	serializer.Register(identity.EventTypeSubscriptionStatusChanged, &identity.SubscriptionStatusChangedEvent{})
}
