package billing

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backend-pos/internal/bill"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/rules"
)

// Sources label where the items of a calculation came from.
const (
	SourceQuote = "quote"
	SourceOrder = "order"
)

// ItemResolver turns menu item ids into billable items.
type ItemResolver interface {
	Resolve(ctx context.Context, ids []uuid.UUID) ([]bill.Item, error)
}

// OrderItems loads the billable items of an open order.
type OrderItems interface {
	Items(ctx context.Context, id uuid.UUID) ([]bill.Item, error)
}

// RuleSource provides the rules in force.
type RuleSource interface {
	Snapshot() rules.Snapshot
}

// Service prices item lists and orders.
type Service struct {
	menu   ItemResolver
	orders OrderItems
	rules  RuleSource
	logger zerolog.Logger
	tracer trace.Tracer
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Menu   ItemResolver
	Orders OrderItems
	Rules  RuleSource
	Logger zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Rules == nil {
		return nil, errors.New("rule source is required")
	}
	return &Service{
		menu:   cfg.Menu,
		orders: cfg.Orders,
		rules:  cfg.Rules,
		logger: cfg.Logger,
		tracer: obs.Tracer("billing"),
	}, nil
}

// Quote prices the items described by req. Menu ids are resolved first, then ad-hoc
// items follow in request order. Rules not supplied inline come from the registry.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (bill.Bill, error) {
	var items []bill.Item
	if len(req.ItemIDs) > 0 {
		if s.menu == nil {
			return bill.Bill{}, common.NewAppError("UNAVAILABLE", "menu lookups are not configured", http.StatusServiceUnavailable, nil)
		}
		resolved, err := s.menu.Resolve(ctx, req.ItemIDs)
		if err != nil {
			return bill.Bill{}, err
		}
		items = append(items, resolved...)
	}
	adHoc, err := req.billItems()
	if err != nil {
		return bill.Bill{}, err
	}
	items = append(items, adHoc...)

	snapshot := s.rules.Snapshot()
	taxes, discounts := snapshot.Taxes, snapshot.Discounts
	if req.Taxes != nil {
		if taxes, err = req.taxRules(); err != nil {
			return bill.Bill{}, err
		}
	}
	if req.Discounts != nil {
		if discounts, err = req.discountRules(); err != nil {
			return bill.Bill{}, err
		}
	}
	return s.calculate(ctx, SourceQuote, items, taxes, discounts), nil
}

// QuoteOrder prices an open order with the rules in force.
func (s *Service) QuoteOrder(ctx context.Context, orderID uuid.UUID) (bill.Bill, error) {
	if s.orders == nil {
		return bill.Bill{}, common.NewAppError("UNAVAILABLE", "orders are not configured", http.StatusServiceUnavailable, nil)
	}
	items, err := s.orders.Items(ctx, orderID)
	if err != nil {
		return bill.Bill{}, err
	}
	snapshot := s.rules.Snapshot()
	return s.calculate(ctx, SourceOrder, items, snapshot.Taxes, snapshot.Discounts), nil
}

func (s *Service) calculate(ctx context.Context, source string, items []bill.Item, taxes []bill.TaxRule, discounts []bill.DiscountRule) bill.Bill {
	_, span := s.tracer.Start(ctx, "bill.calculate", trace.WithAttributes(
		attribute.String("bill.source", source),
		attribute.Int("bill.items", len(items)),
		attribute.Int("bill.taxes", len(taxes)),
		attribute.Int("bill.discounts", len(discounts)),
	))
	defer span.End()

	start := time.Now()
	b := bill.Calculate(items, taxes, discounts)
	elapsed := time.Since(start)
	obs.ObserveBill(source, elapsed)

	span.SetAttributes(attribute.String("bill.grand_total", b.GrandTotal.String()))
	s.logger.Debug().
		Str("source", source).
		Int("items", len(items)).
		Str("subtotal", b.Subtotal.String()).
		Str("grand_total", b.GrandTotal.String()).
		Dur("elapsed", elapsed).
		Msg("bill calculated")
	return b
}
