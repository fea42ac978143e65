package ports

import (
	"context"

	"github.com/pelyams/inventory_items_service/internal/domain"
)

type Notifier interface {
	Publish(ctx context.Context, event domain.Event) error
}
