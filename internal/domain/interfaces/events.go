package interfaces

import (
	"context"
	"price-chain-service/internal/domain/entities"
)

// EventSink receives audit events after they have been committed.
type EventSink interface {
	Publish(ctx context.Context, event *entities.AuditEvent) error
}
