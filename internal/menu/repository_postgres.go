package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/bill"
)

// DBTX is the subset of pgx used by the repository; *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository stores menu items in the menu_items table.
type PGRepository struct {
	DB DBTX
}

const listItemsSQL = `SELECT id::text, name, price::text, category, tax_exempt
FROM menu_items
ORDER BY position, name`

const getItemSQL = `SELECT id::text, name, price::text, category, tax_exempt
FROM menu_items
WHERE id = $1::uuid`

const upsertItemSQL = `INSERT INTO menu_items (id, name, price, category, tax_exempt, position)
VALUES ($1::uuid, $2, $3::numeric, $4, $5, (SELECT COALESCE(MAX(position), 0) + 1 FROM menu_items))
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    price = EXCLUDED.price,
    category = EXCLUDED.category,
    tax_exempt = EXCLUDED.tax_exempt,
    updated_at = now()`

// ListItems implements Repository.
func (r PGRepository) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := r.DB.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu items: %w", err)
	}
	return items, nil
}

// GetItem implements Repository.
func (r PGRepository) GetItem(ctx context.Context, id uuid.UUID) (Item, error) {
	it, err := scanItem(r.DB.QueryRow(ctx, getItemSQL, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return it, err
}

// UpsertItem implements Repository.
func (r PGRepository) UpsertItem(ctx context.Context, item Item) error {
	_, err := r.DB.Exec(ctx, upsertItemSQL, item.ID.String(), item.Name, item.Price.String(), string(item.Category), item.TaxExempt)
	if err != nil {
		return fmt.Errorf("upsert menu item: %w", err)
	}
	return nil
}

func scanItem(row pgx.Row) (Item, error) {
	var (
		id, name, price, category string
		exempt                    bool
	)
	if err := row.Scan(&id, &name, &price, &category, &exempt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, err
		}
		return Item{}, fmt.Errorf("scan menu item: %w", err)
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return Item{}, fmt.Errorf("parse menu item id: %w", err)
	}
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return Item{}, fmt.Errorf("parse menu item price: %w", err)
	}
	cat, err := bill.ParseCategory(category)
	if err != nil {
		return Item{}, err
	}
	return Item{ID: parsedID, Name: name, Price: amount, Category: cat, TaxExempt: exempt}, nil
}
