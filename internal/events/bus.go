// Package events defines the domain events exchanged between the booking,
// notification and scheduler modules. The bus implementation lives in
// platform/events; this package re-exports it so domain code has a single
// import for both events and bus.
package events

import (
	platformevents "tourbooking_backend/platform/events"
	"tourbooking_backend/platform/logger"
)

// InMemoryBus dispatches events to subscribers inside this process.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates the process-local event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
