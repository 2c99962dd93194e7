package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/bill"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/menu"
	"github.com/noah-isme/backend-pos/internal/obs"
)

// MenuLookup resolves menu items added to an order.
type MenuLookup interface {
	Item(ctx context.Context, id uuid.UUID) (menu.Item, error)
}

// Service manages open orders. Concurrent edits to one order are last-writer-wins.
type Service struct {
	store  Store
	menu   MenuLookup
	logger zerolog.Logger
	now    func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store  Store
	Menu   MenuLookup
	Logger zerolog.Logger
	Now    func() time.Time
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("order store is required")
	}
	if cfg.Menu == nil {
		return nil, errors.New("menu lookup is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{store: cfg.Store, menu: cfg.Menu, logger: cfg.Logger, now: now}, nil
}

// Create opens an empty order.
func (s *Service) Create(ctx context.Context) (Order, error) {
	ts := s.now().UTC()
	o := Order{ID: uuid.New(), Lines: []Line{}, CreatedAt: ts, UpdatedAt: ts}
	if err := s.store.Save(ctx, o); err != nil {
		return Order{}, err
	}
	obs.CountOrderMutation("create")
	s.logger.Debug().Str("order_id", o.ID.String()).Msg("order created")
	return o, nil
}

// Get loads an order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return Order{}, toAppError(err, id)
	}
	return o, nil
}

// Items loads an order and returns its billable items.
func (s *Service) Items(ctx context.Context, id uuid.UUID) ([]bill.Item, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.Items(), nil
}

// AddItem appends a line for the menu item to the order.
func (s *Service) AddItem(ctx context.Context, orderID, itemID uuid.UUID) (Order, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	it, err := s.menu.Item(ctx, itemID)
	if err != nil {
		return Order{}, err
	}
	o.Lines = append(o.Lines, Line{
		ID:        uuid.New(),
		ItemID:    it.ID,
		Name:      it.Name,
		Price:     it.Price,
		Category:  it.Category,
		TaxExempt: it.TaxExempt,
	})
	return s.save(ctx, o, "add_item")
}

// RemoveLine drops one line from the order.
func (s *Service) RemoveLine(ctx context.Context, orderID, lineID uuid.UUID) (Order, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	idx := o.lineIndex(lineID)
	if idx < 0 {
		return Order{}, toAppError(ErrLineNotFound, lineID)
	}
	o.Lines = append(o.Lines[:idx], o.Lines[idx+1:]...)
	return s.save(ctx, o, "remove_line")
}

// ToggleTaxExempt flips the exemption flag of a single line.
func (s *Service) ToggleTaxExempt(ctx context.Context, orderID, lineID uuid.UUID) (Order, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	idx := o.lineIndex(lineID)
	if idx < 0 {
		return Order{}, toAppError(ErrLineNotFound, lineID)
	}
	o.Lines[idx].TaxExempt = !o.Lines[idx].TaxExempt
	return s.save(ctx, o, "toggle_tax_exempt")
}

// Delete closes an order.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return toAppError(err, id)
	}
	obs.CountOrderMutation("delete")
	return nil
}

func (s *Service) save(ctx context.Context, o Order, op string) (Order, error) {
	o.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, o); err != nil {
		return Order{}, err
	}
	obs.CountOrderMutation(op)
	s.logger.Debug().Str("order_id", o.ID.String()).Str("op", op).Int("lines", len(o.Lines)).Msg("order updated")
	return o, nil
}

func toAppError(err error, id uuid.UUID) error {
	details := map[string]any{"id": id.String()}
	switch {
	case errors.Is(err, ErrNotFound):
		return common.NotFound("order not found", err).WithDetails(details)
	case errors.Is(err, ErrLineNotFound):
		return common.NotFound("order line not found", err).WithDetails(details)
	default:
		return err
	}
}
