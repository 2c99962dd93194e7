package rules

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pos/internal/bill"
)

// Snapshot is a consistent copy of the rules a calculation should use: every tax in
// registry order and the applied discounts in the order they were applied.
type Snapshot struct {
	Taxes     []bill.TaxRule
	Discounts []bill.DiscountRule
}

// Registry holds the configured taxes, the discount catalogue and the ordered list of
// applied discounts. A discount is enabled exactly when it is in the applied list.
type Registry struct {
	mu        sync.RWMutex
	taxes     []bill.TaxRule
	discounts []bill.DiscountRule
	applied   []uuid.UUID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddTax appends a tax rule.
func (r *Registry) AddTax(t bill.TaxRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taxIndex(t.ID) >= 0 {
		return fmt.Errorf("%w: tax %s", ErrDuplicateRule, t.ID)
	}
	r.taxes = append(r.taxes, cloneTax(t))
	return nil
}

// AddDiscount appends a discount to the catalogue. An enabled discount is applied last.
func (r *Registry) AddDiscount(d bill.DiscountRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.discountIndex(d.ID) >= 0 {
		return fmt.Errorf("%w: discount %s", ErrDuplicateRule, d.ID)
	}
	r.discounts = append(r.discounts, d)
	if d.Enabled {
		r.applied = append(r.applied, d.ID)
	}
	return nil
}

// RemoveTax deletes a tax rule.
func (r *Registry) RemoveTax(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.taxIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: tax %s", ErrRuleNotFound, id)
	}
	r.taxes = append(r.taxes[:idx], r.taxes[idx+1:]...)
	return nil
}

// RemoveDiscount deletes a discount from the catalogue and the applied list.
func (r *Registry) RemoveDiscount(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.discountIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: discount %s", ErrRuleNotFound, id)
	}
	r.discounts = append(r.discounts[:idx], r.discounts[idx+1:]...)
	r.unapply(id)
	return nil
}

// Taxes returns a copy of every tax rule in registry order.
func (r *Registry) Taxes() []bill.TaxRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyTaxes()
}

// Discounts returns a copy of the discount catalogue in registry order.
func (r *Registry) Discounts() []bill.DiscountRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]bill.DiscountRule{}, r.discounts...)
}

// Applied returns the applied discounts in application order.
func (r *Registry) Applied() []bill.DiscountRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyApplied()
}

// AppliedIDs returns the ids of the applied discounts in application order.
func (r *Registry) AppliedIDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]uuid.UUID{}, r.applied...)
}

// Tax returns the tax rule with id.
func (r *Registry) Tax(id uuid.UUID) (bill.TaxRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := r.taxIndex(id)
	if idx < 0 {
		return bill.TaxRule{}, fmt.Errorf("%w: tax %s", ErrRuleNotFound, id)
	}
	return cloneTax(r.taxes[idx]), nil
}

// Discount returns the discount rule with id.
func (r *Registry) Discount(id uuid.UUID) (bill.DiscountRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := r.discountIndex(id)
	if idx < 0 {
		return bill.DiscountRule{}, fmt.Errorf("%w: discount %s", ErrRuleNotFound, id)
	}
	return r.discounts[idx], nil
}

// ToggleTax flips a tax rule and returns its new state.
func (r *Registry) ToggleTax(id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.taxIndex(id)
	if idx < 0 {
		return false, fmt.Errorf("%w: tax %s", ErrRuleNotFound, id)
	}
	r.taxes[idx].Enabled = !r.taxes[idx].Enabled
	return r.taxes[idx].Enabled, nil
}

// SetTaxEnabled sets a tax rule's state.
func (r *Registry) SetTaxEnabled(id uuid.UUID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.taxIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: tax %s", ErrRuleNotFound, id)
	}
	r.taxes[idx].Enabled = enabled
	return nil
}

// ToggleDiscount flips a discount and returns its new state. Enabling applies it
// after the currently applied discounts; disabling removes it from the applied list.
func (r *Registry) ToggleDiscount(id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.discountIndex(id)
	if idx < 0 {
		return false, fmt.Errorf("%w: discount %s", ErrRuleNotFound, id)
	}
	enabled := !r.discounts[idx].Enabled
	r.setDiscount(idx, enabled)
	return enabled, nil
}

// SetDiscountEnabled sets a discount's state. Enabling an applied discount keeps its position.
func (r *Registry) SetDiscountEnabled(id uuid.UUID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.discountIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: discount %s", ErrRuleNotFound, id)
	}
	if r.discounts[idx].Enabled == enabled {
		return nil
	}
	r.setDiscount(idx, enabled)
	return nil
}

// ReorderApplied replaces the application order. ids must be a permutation of the
// currently applied discounts.
func (r *Registry) ReorderApplied(ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := checkPermutation(r.applied, ids); err != nil {
		return err
	}
	r.applied = append([]uuid.UUID{}, ids...)
	return nil
}

// Snapshot copies the taxes and applied discounts under a single read lock.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{Taxes: r.copyTaxes(), Discounts: r.copyApplied()}
}

func (r *Registry) setDiscount(idx int, enabled bool) {
	r.discounts[idx].Enabled = enabled
	if enabled {
		r.applied = append(r.applied, r.discounts[idx].ID)
		return
	}
	r.unapply(r.discounts[idx].ID)
}

func (r *Registry) unapply(id uuid.UUID) {
	for i, applied := range r.applied {
		if applied == id {
			r.applied = append(r.applied[:i], r.applied[i+1:]...)
			return
		}
	}
}

func (r *Registry) copyTaxes() []bill.TaxRule {
	out := make([]bill.TaxRule, len(r.taxes))
	for i, t := range r.taxes {
		out[i] = cloneTax(t)
	}
	return out
}

func (r *Registry) copyApplied() []bill.DiscountRule {
	out := make([]bill.DiscountRule, 0, len(r.applied))
	for _, id := range r.applied {
		if idx := r.discountIndex(id); idx >= 0 {
			out = append(out, r.discounts[idx])
		}
	}
	return out
}

func (r *Registry) taxIndex(id uuid.UUID) int {
	for i, t := range r.taxes {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) discountIndex(id uuid.UUID) int {
	for i, d := range r.discounts {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func checkPermutation(current, ids []uuid.UUID) error {
	if len(ids) != len(current) {
		return fmt.Errorf("%w: expected %d applied discounts, got %d", ErrInvalidRule, len(current), len(ids))
	}
	remaining := make(map[uuid.UUID]int, len(current))
	for _, id := range current {
		remaining[id]++
	}
	for _, id := range ids {
		if remaining[id] == 0 {
			return fmt.Errorf("%w: discount %s is not applied or listed twice", ErrInvalidRule, id)
		}
		remaining[id]--
	}
	return nil
}
