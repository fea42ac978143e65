package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/pelyams/inventory_items_service/internal/domain"
)

const itemsSchema = `CREATE TABLE IF NOT EXISTS items (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	unit_price DOUBLE PRECISION NOT NULL CHECK (unit_price >= 0),
	quantity   BIGINT NOT NULL CHECK (quantity >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type PostgresRepository struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, itemsSchema); err != nil {
		return fmt.Errorf("%w: failed to create items table. %s", domain.ErrDependency, err.Error())
	}
	return nil
}

// ValidID accepts only the canonical lowercase UUID form.
func (r *PostgresRepository) ValidID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.String() == id
}

func (r *PostgresRepository) GetAllItems(ctx context.Context) ([]domain.Item, error) {
	query, args, err := r.sq.Select("id", "name", "unit_price", "quantity").
		From("items").
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build query. %s", domain.ErrDependency, err.Error())
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get all items. %s", domain.ErrDependency, err.Error())
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("%w: failed to convert row into go type. %s", domain.ErrDependency, err.Error())
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error while iterating over rows. %s", domain.ErrDependency, err.Error())
	}
	return items, nil
}

func (r *PostgresRepository) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	query, args, err := r.sq.Select("id", "name", "unit_price", "quantity").
		From("items").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build query. %s", domain.ErrDependency, err.Error())
	}
	var item domain.Item
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&item.ID, &item.Name, &item.UnitPrice, &item.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: failed to find item %s in DB", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: failed to get item %s. %s", domain.ErrDependency, id, err.Error())
	}
	return &item, nil
}

func (r *PostgresRepository) StoreItem(ctx context.Context, in domain.ItemInput) (string, error) {
	id := uuid.NewString()
	query, args, err := r.sq.Insert("items").
		Columns("id", "name", "unit_price", "quantity").
		Values(id, in.Name, *in.UnitPrice, *in.Quantity).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("%w: failed to build query. %s", domain.ErrDependency, err.Error())
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("%w: failed to store item. %s", domain.ErrDependency, err.Error())
	}
	return id, nil
}

func (r *PostgresRepository) UpdateItemById(ctx context.Context, id string, in domain.ItemInput) (int64, error) {
	query, args, err := r.sq.Update("items").
		Set("name", in.Name).
		Set("unit_price", *in.UnitPrice).
		Set("quantity", *in.Quantity).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to build query. %s", domain.ErrDependency, err.Error())
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to update item %s. %s", domain.ErrDependency, id, err.Error())
	}
	matched, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read affected rows. %s", domain.ErrDependency, err.Error())
	}
	return matched, nil
}

func (r *PostgresRepository) DeleteItemById(ctx context.Context, id string) (int64, error) {
	query, args, err := r.sq.Delete("items").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to build query. %s", domain.ErrDependency, err.Error())
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to delete item %s. %s", domain.ErrDependency, id, err.Error())
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read affected rows. %s", domain.ErrDependency, err.Error())
	}
	return deleted, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: postgres ping failed. %s", domain.ErrDependency, err.Error())
	}
	return nil
}
