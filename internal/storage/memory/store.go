// Package memory provides a single-instance, in-process reservation store.
// It implements the same repository contract as the Postgres backend, with a
// store-wide mutex standing in for the database transaction: WithTx holds the
// lock across the callback, so an append's re-check and write cannot
// interleave with another append.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/B24023/yoyakusys/internal/domain"
)

type lockKey struct{}

type Store struct {
	mu           sync.Mutex
	resources    map[string]domain.Resource
	reservations map[string][]domain.Reservation
}

func NewStore() *Store {
	return &Store{
		resources:    make(map[string]domain.Resource),
		reservations: make(map[string][]domain.Reservation),
	}
}

// WithTx runs fn holding the store mutex. Nested repository calls detect the
// held lock through the context and do not re-acquire it.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if lockHeld(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, lockKey{}, true))
}

func (s *Store) GetResourceForUpdate(ctx context.Context, resourceID string) (domain.Resource, error) {
	s.lock(ctx)
	defer s.unlock(ctx)

	res, ok := s.resources[resourceID]
	if !ok {
		return domain.Resource{}, domain.ErrResourceNotFound
	}
	return res, nil
}

func (s *Store) ListResources(ctx context.Context) ([]domain.Resource, error) {
	s.lock(ctx)
	defer s.unlock(ctx)

	out := make([]domain.Resource, 0, len(s.resources))
	for _, res := range s.resources {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListByResource returns reservations in insertion order.
func (s *Store) ListByResource(ctx context.Context, resourceID string) ([]domain.Reservation, error) {
	s.lock(ctx)
	defer s.unlock(ctx)

	stored := s.reservations[resourceID]
	out := make([]domain.Reservation, len(stored))
	copy(out, stored)
	return out, nil
}

// CreateReservation re-checks overlap before writing, mirroring the exclusion
// constraint of the Postgres schema.
func (s *Store) CreateReservation(ctx context.Context, res domain.Reservation) error {
	s.lock(ctx)
	defer s.unlock(ctx)

	if !res.End.After(res.Start) {
		return domain.ErrInvalidInterval
	}
	if _, ok := s.resources[res.ResourceID]; !ok {
		return domain.ErrResourceNotFound
	}
	for _, existing := range s.reservations[res.ResourceID] {
		if domain.Overlaps(res.Start, res.End, existing.Start, existing.End) {
			return domain.ErrConflict
		}
	}
	s.reservations[res.ResourceID] = append(s.reservations[res.ResourceID], res)
	return nil
}

func (s *Store) UpsertResource(ctx context.Context, res domain.Resource) error {
	s.lock(ctx)
	defer s.unlock(ctx)

	s.resources[res.ID] = res
	return nil
}

func (s *Store) lock(ctx context.Context) {
	if !lockHeld(ctx) {
		s.mu.Lock()
	}
}

func (s *Store) unlock(ctx context.Context) {
	if !lockHeld(ctx) {
		s.mu.Unlock()
	}
}

func lockHeld(ctx context.Context) bool {
	held, _ := ctx.Value(lockKey{}).(bool)
	return held
}
