package ports

import (
	"context"

	"github.com/pelyams/inventory_items_service/internal/domain"
)

type InventoryService interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	CreateItem(ctx context.Context, item domain.ItemInput) (*domain.Item, error)
	UpdateItem(ctx context.Context, id string, item domain.ItemInput) (*domain.Item, error)
	DeleteItem(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
