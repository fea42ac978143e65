package ports

import (
	"context"

	"github.com/pelyams/inventory_items_service/internal/domain"
)

type Repository interface {
	ValidID(id string) bool
	GetAllItems(ctx context.Context) ([]domain.Item, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	StoreItem(ctx context.Context, item domain.ItemInput) (string, error)
	UpdateItemById(ctx context.Context, id string, item domain.ItemInput) (int64, error)
	DeleteItemById(ctx context.Context, id string) (int64, error)
	Ping(ctx context.Context) error
}
