package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pelyams/inventory_items_service/internal/domain"
	"github.com/pelyams/inventory_items_service/internal/ports"
)

const (
	DefaultCacheTTL = 300 * time.Second

	allItemsKey = "items:all"
)

func itemKey(id string) string {
	return "items:" + id
}

// InventoryService serves items from the store with a cache-aside read path.
// Writes go validate -> persist -> invalidate -> publish. cache and notifier
// are optional: a nil value disables them, and their failures never reach
// the caller.
type InventoryService struct {
	db       ports.Repository
	cache    ports.Cache
	notifier ports.Notifier
	ttl      time.Duration
	log      *zap.Logger
	tracer   trace.Tracer
}

func NewInventoryService(db ports.Repository, cache ports.Cache, notifier ports.Notifier, ttl time.Duration, log *zap.Logger) *InventoryService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &InventoryService{
		db:       db,
		cache:    cache,
		notifier: notifier,
		ttl:      ttl,
		log:      log,
		tracer:   otel.Tracer("github.com/pelyams/inventory_items_service/internal/service"),
	}
}

func (s *InventoryService) ListItems(ctx context.Context) ([]domain.Item, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ListItems")
	defer span.End()

	var items []domain.Item
	if s.readCache(ctx, allItemsKey, &items) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return items, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	items, err := s.db.GetAllItems(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	if items == nil {
		items = []domain.Item{}
	}
	s.writeCache(ctx, allItemsKey, items)
	return items, nil
}

func (s *InventoryService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.GetItem", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	if !s.db.ValidID(id) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidIdentifier, id)
	}

	key := itemKey(id)
	var cached domain.Item
	if s.readCache(ctx, key, &cached) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &cached, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	item, err := s.db.GetItem(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	s.writeCache(ctx, key, item)
	return item, nil
}

func (s *InventoryService) CreateItem(ctx context.Context, in domain.ItemInput) (*domain.Item, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.CreateItem")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	id, err := s.db.StoreItem(ctx, in)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("item.id", id))

	item := in.ToItem(id)
	s.invalidate(ctx, allItemsKey, itemKey(id))
	s.publish(ctx, domain.ItemCreated(item))
	return &item, nil
}

func (s *InventoryService) UpdateItem(ctx context.Context, id string, in domain.ItemInput) (*domain.Item, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.UpdateItem", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	if !s.db.ValidID(id) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidIdentifier, id)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	matched, err := s.db.UpdateItemById(ctx, id, in)
	if err != nil {
		return nil, fail(span, err)
	}
	if matched == 0 {
		return nil, fmt.Errorf("%w: no item with id %s", domain.ErrNotFound, id)
	}

	item := in.ToItem(id)
	s.invalidate(ctx, allItemsKey, itemKey(id))
	s.publish(ctx, domain.ItemUpdated(item))
	return &item, nil
}

func (s *InventoryService) DeleteItem(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.DeleteItem", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	if !s.db.ValidID(id) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidIdentifier, id)
	}

	deleted, err := s.db.DeleteItemById(ctx, id)
	if err != nil {
		return fail(span, err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: no item with id %s", domain.ErrNotFound, id)
	}

	s.invalidate(ctx, allItemsKey, itemKey(id))
	s.publish(ctx, domain.ItemDeleted(id))
	return nil
}

func (s *InventoryService) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *InventoryService) readCache(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.suppress(ctx, "cache read", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.suppress(ctx, "cache read", fmt.Errorf("%w: undecodable value at %s: %s", domain.ErrCache, key, err.Error()))
		return false
	}
	return true
}

func (s *InventoryService) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.suppress(ctx, "cache write", fmt.Errorf("%w: failed to encode %s: %s", domain.ErrCache, key, err.Error()))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.suppress(ctx, "cache write", err)
	}
}

func (s *InventoryService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.suppress(ctx, "cache invalidation", err)
	}
}

func (s *InventoryService) publish(ctx context.Context, event domain.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.suppress(ctx, "publish "+string(event.Type), err)
	}
}

// suppress is the single place where cache and notification failures are
// dropped. The caller carries on as if the dependency were disabled.
func (s *InventoryService) suppress(ctx context.Context, op string, err error) {
	s.log.Warn("suppressed failure", zap.String("op", op), zap.Error(err))
	trace.SpanFromContext(ctx).RecordError(err)
	domain.RecordError(ctx, err)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	if !errors.Is(err, domain.ErrNotFound) {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
