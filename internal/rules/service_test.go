package rules

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/bill"
	"github.com/noah-isme/backend-pos/internal/common"
)

type memoryRepo struct {
	taxes     map[uuid.UUID]bill.TaxRule
	discounts map[uuid.UUID]bill.DiscountRule
	order     []uuid.UUID
	applied   []uuid.UUID
	fail      error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{taxes: map[uuid.UUID]bill.TaxRule{}, discounts: map[uuid.UUID]bill.DiscountRule{}}
}

func (m *memoryRepo) ListTaxes(context.Context) ([]bill.TaxRule, error) {
	var out []bill.TaxRule
	for _, id := range m.order {
		if t, ok := m.taxes[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListDiscounts(context.Context) ([]bill.DiscountRule, []uuid.UUID, error) {
	var out []bill.DiscountRule
	for _, id := range m.order {
		if d, ok := m.discounts[id]; ok {
			out = append(out, d)
		}
	}
	return out, append([]uuid.UUID{}, m.applied...), nil
}

func (m *memoryRepo) SaveTax(_ context.Context, _ int, tax bill.TaxRule) error {
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.taxes[tax.ID]; !ok {
		m.order = append(m.order, tax.ID)
	}
	m.taxes[tax.ID] = tax
	return nil
}

func (m *memoryRepo) SaveDiscount(_ context.Context, _ int, d bill.DiscountRule) error {
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.discounts[d.ID]; !ok {
		m.order = append(m.order, d.ID)
	}
	m.discounts[d.ID] = d
	return nil
}

func (m *memoryRepo) DeleteTax(_ context.Context, id uuid.UUID) error {
	delete(m.taxes, id)
	return nil
}

func (m *memoryRepo) DeleteDiscount(_ context.Context, id uuid.UUID) error {
	delete(m.discounts, id)
	return nil
}

func (m *memoryRepo) SetApplied(_ context.Context, ids []uuid.UUID) error {
	if m.fail != nil {
		return m.fail
	}
	m.applied = append([]uuid.UUID{}, ids...)
	return nil
}

func TestSeedAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	reg := DefaultRegistry()
	require.NoError(t, reg.SetDiscountEnabled(HappyHourID, true))
	require.NoError(t, reg.SetDiscountEnabled(CouponID, true))
	require.NoError(t, Seed(ctx, repo, reg))

	loaded, err := Load(ctx, repo)
	require.NoError(t, err)
	require.Len(t, loaded.Taxes(), 3)
	require.Len(t, loaded.Discounts(), 3)
	require.Equal(t, []string{"Happy Hour", "Coupon"}, appliedNames(loaded))
}

func TestServiceWritesThrough(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(ServiceConfig{Registry: DefaultRegistry(), Repo: repo, Logger: zerolog.Nop()})

	tax, err := svc.CreateTax(ctx, "City Levy", decimal.RequireFromString("1.5"), nil, true)
	require.NoError(t, err)
	require.Contains(t, repo.taxes, tax.ID)
	require.Len(t, svc.Taxes(), 4)

	toggled, err := svc.ToggleTax(ctx, tax.ID)
	require.NoError(t, err)
	require.False(t, toggled.Enabled)
	require.False(t, repo.taxes[tax.ID].Enabled)

	d, err := svc.ToggleDiscount(ctx, CouponID)
	require.NoError(t, err)
	require.True(t, d.Enabled)
	require.Equal(t, []uuid.UUID{CouponID}, repo.applied)

	_, err = svc.ToggleDiscount(ctx, FlatTenID)
	require.NoError(t, err)
	applied, err := svc.ReorderApplied(ctx, []uuid.UUID{FlatTenID, CouponID})
	require.NoError(t, err)
	require.Equal(t, "Flat 10%", applied[0].Name)
	require.Equal(t, []uuid.UUID{FlatTenID, CouponID}, repo.applied)

	require.NoError(t, svc.DeleteTax(ctx, tax.ID))
	require.NotContains(t, repo.taxes, tax.ID)
}

func TestServiceKeepsRegistryOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.fail = errors.New("db down")
	svc := NewService(ServiceConfig{Registry: DefaultRegistry(), Repo: repo, Logger: zerolog.Nop()})

	_, err := svc.ToggleTax(ctx, ServiceTaxID)
	require.Error(t, err)
	tax, err := svc.registry.Tax(ServiceTaxID)
	require.NoError(t, err)
	require.True(t, tax.Enabled)

	_, err = svc.ToggleDiscount(ctx, CouponID)
	require.Error(t, err)
	require.Empty(t, svc.Applied())
}

func TestServiceErrorMapping(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ServiceConfig{Registry: DefaultRegistry(), Logger: zerolog.Nop()})

	_, err := svc.ToggleTax(ctx, uuid.New())
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)

	_, err = svc.CreateDiscount(ctx, "Half", bill.DiscountPercentage, decimal.NewFromInt(150))
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	require.Equal(t, "INVALID_RULE", appErr.Code)

	_, err = svc.ReorderApplied(ctx, []uuid.UUID{CouponID})
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestServiceLogsStaffOnMutation(t *testing.T) {
	var buf bytes.Buffer
	svc := NewService(ServiceConfig{Registry: DefaultRegistry(), Logger: zerolog.New(&buf)})

	ctx := common.WithStaffID(context.Background(), "mgr-1")
	_, err := svc.ToggleDiscount(ctx, CouponID)
	require.NoError(t, err)

	require.Contains(t, buf.String(), `"staff_id":"mgr-1"`)
	require.Contains(t, buf.String(), `"discount toggled"`)
}
