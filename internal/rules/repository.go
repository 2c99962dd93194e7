package rules

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/bill"
)

// Repository persists rule definitions and the applied discount order.
type Repository interface {
	ListTaxes(ctx context.Context) ([]bill.TaxRule, error)
	// ListDiscounts returns the catalogue and, separately, the applied ids in order.
	ListDiscounts(ctx context.Context) ([]bill.DiscountRule, []uuid.UUID, error)
	SaveTax(ctx context.Context, position int, tax bill.TaxRule) error
	SaveDiscount(ctx context.Context, position int, discount bill.DiscountRule) error
	DeleteTax(ctx context.Context, id uuid.UUID) error
	DeleteDiscount(ctx context.Context, id uuid.UUID) error
	// SetApplied marks exactly ids as enabled, in order, and disables every other discount.
	SetApplied(ctx context.Context, ids []uuid.UUID) error
}

// Load builds a Registry from persisted rules.
func Load(ctx context.Context, repo Repository) (*Registry, error) {
	taxes, err := repo.ListTaxes(ctx)
	if err != nil {
		return nil, err
	}
	discounts, applied, err := repo.ListDiscounts(ctx)
	if err != nil {
		return nil, err
	}
	reg := NewRegistry()
	for _, t := range taxes {
		if err := reg.AddTax(t); err != nil {
			return nil, err
		}
	}
	for _, d := range discounts {
		d.Enabled = false
		if err := reg.AddDiscount(d); err != nil {
			return nil, err
		}
	}
	for _, id := range applied {
		if err := reg.SetDiscountEnabled(id, true); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Seed stores the rules of reg.
func Seed(ctx context.Context, repo Repository, reg *Registry) error {
	for i, t := range reg.Taxes() {
		if err := repo.SaveTax(ctx, i, t); err != nil {
			return err
		}
	}
	for i, d := range reg.Discounts() {
		if err := repo.SaveDiscount(ctx, i, d); err != nil {
			return err
		}
	}
	return repo.SetApplied(ctx, reg.AppliedIDs())
}

// DBTX is satisfied by *pgxpool.Pool.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGRepository stores rules in the tax_rules and discount_rules tables.
type PGRepository struct {
	DB DBTX
}

const listTaxesSQL = `SELECT id::text, name, rate::text, enabled, categories
FROM tax_rules
ORDER BY position, created_at`

const listDiscountsSQL = `SELECT id::text, name, kind, value::text, enabled, applied_position
FROM discount_rules
ORDER BY position, created_at`

const saveTaxSQL = `INSERT INTO tax_rules (id, name, rate, enabled, categories, position)
VALUES ($1::uuid, $2, $3::numeric, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    rate = EXCLUDED.rate,
    enabled = EXCLUDED.enabled,
    categories = EXCLUDED.categories,
    updated_at = now()`

const saveDiscountSQL = `INSERT INTO discount_rules (id, name, kind, value, enabled, position)
VALUES ($1::uuid, $2, $3, $4::numeric, $5, $6)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    kind = EXCLUDED.kind,
    value = EXCLUDED.value,
    updated_at = now()`

// ListTaxes implements Repository.
func (r PGRepository) ListTaxes(ctx context.Context) ([]bill.TaxRule, error) {
	rows, err := r.DB.Query(ctx, listTaxesSQL)
	if err != nil {
		return nil, fmt.Errorf("query tax rules: %w", err)
	}
	defer rows.Close()

	var taxes []bill.TaxRule
	for rows.Next() {
		var (
			id, name, rate string
			enabled        bool
			categories     []string
		)
		if err := rows.Scan(&id, &name, &rate, &enabled, &categories); err != nil {
			return nil, fmt.Errorf("scan tax rule: %w", err)
		}
		t := bill.TaxRule{Name: name, Enabled: enabled}
		if t.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse tax id: %w", err)
		}
		if t.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("parse tax rate: %w", err)
		}
		for _, raw := range categories {
			c, err := bill.ParseCategory(raw)
			if err != nil {
				return nil, err
			}
			t.Categories = append(t.Categories, c)
		}
		taxes = append(taxes, t)
	}
	return taxes, rows.Err()
}

// ListDiscounts implements Repository.
func (r PGRepository) ListDiscounts(ctx context.Context) ([]bill.DiscountRule, []uuid.UUID, error) {
	rows, err := r.DB.Query(ctx, listDiscountsSQL)
	if err != nil {
		return nil, nil, fmt.Errorf("query discount rules: %w", err)
	}
	defer rows.Close()

	type appliedAt struct {
		id  uuid.UUID
		pos int32
	}
	var (
		discounts []bill.DiscountRule
		applied   []appliedAt
	)
	for rows.Next() {
		var (
			id, name, kind, value string
			enabled               bool
			position              *int32
		)
		if err := rows.Scan(&id, &name, &kind, &value, &enabled, &position); err != nil {
			return nil, nil, fmt.Errorf("scan discount rule: %w", err)
		}
		d := bill.DiscountRule{Name: name, Enabled: enabled}
		if d.ID, err = uuid.Parse(id); err != nil {
			return nil, nil, fmt.Errorf("parse discount id: %w", err)
		}
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return nil, nil, fmt.Errorf("parse discount value: %w", err)
		}
		d.Kind = bill.DiscountKind{Type: bill.DiscountType(kind), Value: amount}
		discounts = append(discounts, d)
		if enabled && position != nil {
			applied = append(applied, appliedAt{id: d.ID, pos: *position})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	sort.SliceStable(applied, func(i, j int) bool { return applied[i].pos < applied[j].pos })
	ids := make([]uuid.UUID, len(applied))
	for i, a := range applied {
		ids[i] = a.id
	}
	return discounts, ids, nil
}

// SaveTax implements Repository.
func (r PGRepository) SaveTax(ctx context.Context, position int, tax bill.TaxRule) error {
	categories := make([]string, len(tax.Categories))
	for i, c := range tax.Categories {
		categories[i] = string(c)
	}
	if _, err := r.DB.Exec(ctx, saveTaxSQL, tax.ID.String(), tax.Name, tax.Rate.String(), tax.Enabled, categories, position); err != nil {
		return fmt.Errorf("save tax rule: %w", err)
	}
	return nil
}

// SaveDiscount implements Repository. The enabled state is owned by SetApplied.
func (r PGRepository) SaveDiscount(ctx context.Context, position int, discount bill.DiscountRule) error {
	_, err := r.DB.Exec(ctx, saveDiscountSQL, discount.ID.String(), discount.Name, string(discount.Kind.Type), discount.Kind.Value.String(), discount.Enabled, position)
	if err != nil {
		return fmt.Errorf("save discount rule: %w", err)
	}
	return nil
}

// DeleteTax implements Repository.
func (r PGRepository) DeleteTax(ctx context.Context, id uuid.UUID) error {
	return r.delete(ctx, `DELETE FROM tax_rules WHERE id = $1::uuid`, id)
}

// DeleteDiscount implements Repository.
func (r PGRepository) DeleteDiscount(ctx context.Context, id uuid.UUID) error {
	return r.delete(ctx, `DELETE FROM discount_rules WHERE id = $1::uuid`, id)
}

func (r PGRepository) delete(ctx context.Context, sql string, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, sql, id.String())
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return nil
}

// SetApplied implements Repository.
func (r PGRepository) SetApplied(ctx context.Context, ids []uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE discount_rules SET enabled = false, applied_position = NULL, updated_at = now()`); err != nil {
			return fmt.Errorf("reset applied discounts: %w", err)
		}
		for i, id := range ids {
			tag, err := tx.Exec(ctx, `UPDATE discount_rules SET enabled = true, applied_position = $2 WHERE id = $1::uuid`, id.String(), i)
			if err != nil {
				return fmt.Errorf("apply discount: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
			}
		}
		return nil
	})
}

var _ Repository = PGRepository{}

// IsNotFound reports whether err is a missing rule, from the registry or the database.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound) || errors.Is(err, pgx.ErrNoRows)
}
