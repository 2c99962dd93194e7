package rules

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/bill"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
)

// Service manages rules in the registry, writing changes through to the repository
// when one is configured. The registry is only changed after the write succeeds.
type Service struct {
	registry *Registry
	repo     Repository
	logger   zerolog.Logger
	writeMu  sync.Mutex
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Registry *Registry
	Repo     Repository
	Logger   zerolog.Logger
}

// NewService constructs a Service. A nil registry starts empty.
func NewService(cfg ServiceConfig) *Service {
	reg := cfg.Registry
	if reg == nil {
		reg = NewRegistry()
	}
	return &Service{registry: reg, repo: cfg.Repo, logger: cfg.Logger}
}

// Snapshot returns the rules a calculation should use right now.
func (s *Service) Snapshot() Snapshot {
	return s.registry.Snapshot()
}

// Taxes lists every tax rule.
func (s *Service) Taxes() []bill.TaxRule { return s.registry.Taxes() }

// Discounts lists the discount catalogue.
func (s *Service) Discounts() []bill.DiscountRule { return s.registry.Discounts() }

// Applied lists the applied discounts in order.
func (s *Service) Applied() []bill.DiscountRule { return s.registry.Applied() }

// CreateTax validates and registers a new tax rule.
func (s *Service) CreateTax(ctx context.Context, name string, rate decimal.Decimal, categories []bill.Category, enabled bool) (bill.TaxRule, error) {
	tax, err := NewTax(name, rate, categories)
	if err != nil {
		return bill.TaxRule{}, toAppError(err)
	}
	tax.Enabled = enabled

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.repo != nil {
		if err := s.repo.SaveTax(ctx, len(s.registry.Taxes()), tax); err != nil {
			return bill.TaxRule{}, err
		}
	}
	if err := s.registry.AddTax(tax); err != nil {
		return bill.TaxRule{}, toAppError(err)
	}
	s.audit(ctx).Str("tax_id", tax.ID.String()).Str("name", tax.Name).Msg("tax rule created")
	return tax, nil
}

// CreateDiscount validates and registers a new, disabled discount.
func (s *Service) CreateDiscount(ctx context.Context, name string, kind bill.DiscountType, value decimal.Decimal) (bill.DiscountRule, error) {
	discount, err := NewDiscount(name, kind, value)
	if err != nil {
		return bill.DiscountRule{}, toAppError(err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.repo != nil {
		if err := s.repo.SaveDiscount(ctx, len(s.registry.Discounts()), discount); err != nil {
			return bill.DiscountRule{}, err
		}
	}
	if err := s.registry.AddDiscount(discount); err != nil {
		return bill.DiscountRule{}, toAppError(err)
	}
	s.audit(ctx).Str("discount_id", discount.ID.String()).Str("name", discount.Name).Msg("discount rule created")
	return discount, nil
}

// DeleteTax removes a tax rule.
func (s *Service) DeleteTax(ctx context.Context, id uuid.UUID) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.registry.Tax(id); err != nil {
		return toAppError(err)
	}
	if s.repo != nil {
		if err := s.repo.DeleteTax(ctx, id); err != nil && !IsNotFound(err) {
			return err
		}
	}
	if err := s.registry.RemoveTax(id); err != nil {
		return toAppError(err)
	}
	s.audit(ctx).Str("tax_id", id.String()).Msg("tax rule deleted")
	return nil
}

// DeleteDiscount removes a discount from the catalogue and the applied list.
func (s *Service) DeleteDiscount(ctx context.Context, id uuid.UUID) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.registry.Discount(id); err != nil {
		return toAppError(err)
	}
	if s.repo != nil {
		if err := s.repo.DeleteDiscount(ctx, id); err != nil && !IsNotFound(err) {
			return err
		}
	}
	if err := s.registry.RemoveDiscount(id); err != nil {
		return toAppError(err)
	}
	s.audit(ctx).Str("discount_id", id.String()).Msg("discount rule deleted")
	return nil
}

// ToggleTax flips a tax rule and returns it.
func (s *Service) ToggleTax(ctx context.Context, id uuid.UUID) (bill.TaxRule, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	tax, err := s.registry.Tax(id)
	if err != nil {
		return bill.TaxRule{}, toAppError(err)
	}
	tax.Enabled = !tax.Enabled
	if s.repo != nil {
		if err := s.repo.SaveTax(ctx, s.taxPosition(id), tax); err != nil {
			return bill.TaxRule{}, err
		}
	}
	if err := s.registry.SetTaxEnabled(id, tax.Enabled); err != nil {
		return bill.TaxRule{}, toAppError(err)
	}
	obs.CountRuleToggle("tax", tax.Enabled)
	s.audit(ctx).Str("tax_id", id.String()).Bool("enabled", tax.Enabled).Msg("tax rule toggled")
	return tax, nil
}

// ToggleDiscount flips a discount and returns it. Enabling applies it last.
func (s *Service) ToggleDiscount(ctx context.Context, id uuid.UUID) (bill.DiscountRule, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	discount, err := s.registry.Discount(id)
	if err != nil {
		return bill.DiscountRule{}, toAppError(err)
	}
	discount.Enabled = !discount.Enabled
	if s.repo != nil {
		if err := s.repo.SetApplied(ctx, nextApplied(s.registry.AppliedIDs(), id, discount.Enabled)); err != nil {
			return bill.DiscountRule{}, err
		}
	}
	if err := s.registry.SetDiscountEnabled(id, discount.Enabled); err != nil {
		return bill.DiscountRule{}, toAppError(err)
	}
	obs.CountRuleToggle("discount", discount.Enabled)
	s.audit(ctx).Str("discount_id", id.String()).Bool("enabled", discount.Enabled).Msg("discount toggled")
	return discount, nil
}

// ReorderApplied sets the order applied discounts are evaluated in.
func (s *Service) ReorderApplied(ctx context.Context, ids []uuid.UUID) ([]bill.DiscountRule, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := checkPermutation(s.registry.AppliedIDs(), ids); err != nil {
		return nil, toAppError(err)
	}
	if s.repo != nil {
		if err := s.repo.SetApplied(ctx, ids); err != nil {
			return nil, err
		}
	}
	if err := s.registry.ReorderApplied(ids); err != nil {
		return nil, toAppError(err)
	}
	s.audit(ctx).Int("applied", len(ids)).Msg("applied discounts reordered")
	return s.registry.Applied(), nil
}

func (s *Service) taxPosition(id uuid.UUID) int {
	for i, t := range s.registry.Taxes() {
		if t.ID == id {
			return i
		}
	}
	return 0
}

func nextApplied(current []uuid.UUID, id uuid.UUID, enable bool) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(current)+1)
	for _, applied := range current {
		if applied != id {
			out = append(out, applied)
		}
	}
	if enable {
		out = append(out, id)
	}
	return out
}

func toAppError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrRuleNotFound):
		return common.NotFound("rule not found", err)
	case errors.Is(err, ErrInvalidRule):
		return common.NewAppError("INVALID_RULE", err.Error(), http.StatusBadRequest, err)
	case errors.Is(err, ErrDuplicateRule):
		return common.NewAppError("CONFLICT", err.Error(), http.StatusConflict, err)
	default:
		return err
	}
}

// audit starts an info event tagged with the staff member behind the request.
func (s *Service) audit(ctx context.Context) *zerolog.Event {
	evt := s.logger.Info()
	if id, ok := common.StaffID(ctx); ok {
		evt = evt.Str("staff_id", id)
	}
	return evt
}
