package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/bill"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
)

const sectionsCacheKey = "menu:sections"

// Service serves the menu, caching the grouped listing in Redis when configured.
type Service struct {
	repo   Repository
	cache  *Cache
	logger zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Repo   Repository
	Cache  *Cache
	Logger zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("menu repository is required")
	}
	return &Service{repo: cfg.Repo, cache: cfg.Cache, logger: cfg.Logger}, nil
}

// Sections returns the menu grouped by category.
func (s *Service) Sections(ctx context.Context) ([]Section, error) {
	var cached []Section
	hit, err := s.cache.GetJSON(ctx, sectionsCacheKey, &cached)
	switch {
	case err != nil:
		obs.CountMenuCache("error")
		s.logger.Warn().Err(err).Msg("menu cache read failed")
	case hit:
		obs.CountMenuCache("hit")
		return cached, nil
	default:
		obs.CountMenuCache("miss")
	}

	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	sections := GroupSections(items)
	if err := s.cache.SetJSON(ctx, sectionsCacheKey, sections); err != nil {
		s.logger.Warn().Err(err).Msg("menu cache write failed")
	}
	return sections, nil
}

// Item returns a single menu item.
func (s *Service) Item(ctx context.Context, id uuid.UUID) (Item, error) {
	it, err := s.repo.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return Item{}, common.NotFound("menu item not found", err).WithDetails(map[string]any{"id": id.String()})
		}
		return Item{}, err
	}
	return it, nil
}

// Resolve looks up each id and returns the matching bill items. Order and
// duplicates in ids are preserved.
func (s *Service) Resolve(ctx context.Context, ids []uuid.UUID) ([]bill.Item, error) {
	out := make([]bill.Item, 0, len(ids))
	known := make(map[uuid.UUID]Item, len(ids))
	for _, id := range ids {
		it, ok := known[id]
		if !ok {
			var err error
			it, err = s.Item(ctx, id)
			if err != nil {
				return nil, err
			}
			known[id] = it
		}
		out = append(out, it.BillItem())
	}
	return out, nil
}

// UpsertItem validates and stores an item, then drops the cached listing.
func (s *Service) UpsertItem(ctx context.Context, item Item) (Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return Item{}, common.BadRequest("name is required", nil)
	}
	if item.Price.IsNegative() {
		return Item{}, common.BadRequest("price must not be negative", nil)
	}
	if !item.Category.Valid() {
		return Item{}, common.BadRequest("unknown category", nil).WithDetails(map[string]any{"category": item.Category})
	}
	if item.ID == uuid.Nil {
		item.ID = ItemID(item.Name)
	}
	if err := s.repo.UpsertItem(ctx, item); err != nil {
		return Item{}, err
	}
	if err := s.cache.Delete(ctx, sectionsCacheKey); err != nil {
		s.logger.Warn().Err(err).Msg("menu cache invalidation failed")
	}
	return item, nil
}
