package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned for unknown or expired orders.
	ErrNotFound = errors.New("order not found")
	// ErrLineNotFound is returned for unknown order lines.
	ErrLineNotFound = errors.New("order line not found")
)

// Store persists open orders.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (Order, error)
	Save(ctx context.Context, o Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RedisStore keeps each order as a JSON document that expires after TTL of inactivity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func orderKey(id uuid.UUID) string {
	return "order:" + id.String()
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	data, err := s.client.Get(ctx, orderKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	var o Order
	if err := json.Unmarshal(data, &o); err != nil {
		return Order{}, fmt.Errorf("decode order: %w", err)
	}
	return o, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, o Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	if err := s.client.Set(ctx, orderKey(o.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.client.Del(ctx, orderKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MemoryStore keeps orders in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]Order
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[uuid.UUID]Order)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return clone(o), nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = clone(o)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func clone(o Order) Order {
	o.Lines = append([]Line{}, o.Lines...)
	return o
}
