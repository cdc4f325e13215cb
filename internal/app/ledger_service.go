package app

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/B24023/yoyakusys/internal/clock"
	"github.com/B24023/yoyakusys/internal/domain"
)

// ReservationRepository is the storage collaborator behind the ledger.
// WithTx must provide mutual exclusion for appends on the same resource:
// every repository call made inside the callback observes and mutates one
// consistent snapshot.
type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetResourceForUpdate(ctx context.Context, resourceID string) (domain.Resource, error)
	ListResources(ctx context.Context) ([]domain.Resource, error)
	ListByResource(ctx context.Context, resourceID string) ([]domain.Reservation, error)
	CreateReservation(ctx context.Context, res domain.Reservation) error
	UpsertResource(ctx context.Context, res domain.Resource) error
}

// ConflictResult is the outcome of an admission check. A nil Conflict means
// the candidate interval is free.
type ConflictResult struct {
	Conflict *domain.Reservation
}

func (r ConflictResult) IsBooked() bool {
	return r.Conflict != nil
}

// LedgerService is the unit of consistency between checking a candidate
// interval and committing it. It owns the authoritative reservation set;
// callers never write reservations except through Append.
type LedgerService struct {
	repo  ReservationRepository
	clock clock.Clock
}

func NewLedgerService(repo ReservationRepository, clk clock.Clock) *LedgerService {
	return &LedgerService{
		repo:  repo,
		clock: clk,
	}
}

// Load returns all committed reservations for the resource, reflecting the
// most recently committed state at the time of the call.
func (s *LedgerService) Load(ctx context.Context, resourceID string) ([]domain.Reservation, error) {
	return s.repo.ListByResource(ctx, resourceID)
}

// Resources lists the bookable resources known to the ledger.
func (s *LedgerService) Resources(ctx context.Context) ([]domain.Resource, error) {
	return s.repo.ListResources(ctx)
}

// Check is an advisory admission preview against the current committed set.
// A conflict is a normal outcome reported in the result, never an error; the
// error slot carries storage failures only, which must not be read as "free".
func (s *LedgerService) Check(ctx context.Context, req domain.ReservationRequest) (ConflictResult, error) {
	if !req.Valid() {
		return ConflictResult{}, domain.ErrInvalidInterval
	}
	existing, err := s.repo.ListByResource(ctx, req.ResourceID)
	if err != nil {
		return ConflictResult{}, err
	}
	return ConflictResult{Conflict: domain.FindConflict(existing, req)}, nil
}

// Append commits the candidate as an immutable reservation. The conflict scan
// is re-run inside the repository transaction with the resource row locked,
// so a concurrent commit that landed after the caller's Check is caught here
// and no overlapping pair can ever be persisted.
func (s *LedgerService) Append(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error) {
	if !req.Valid() {
		return domain.Reservation{}, domain.ErrInvalidInterval
	}

	now := s.clock.Now()
	var result domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetResourceForUpdate(txCtx, req.ResourceID); err != nil {
			return err
		}

		existing, err := s.repo.ListByResource(txCtx, req.ResourceID)
		if err != nil {
			return err
		}
		if blocker := domain.FindConflict(existing, req); blocker != nil {
			return &domain.ConflictError{Existing: *blocker}
		}

		res := domain.Reservation{
			ID:         uuid.NewString(),
			ResourceID: req.ResourceID,
			Start:      req.Start,
			End:        req.End,
			CreatedAt:  now,
		}
		if err := s.repo.CreateReservation(txCtx, res); err != nil {
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, s.describeConflict(ctx, req, err)
	}
	return result, nil
}

// SeedResources makes the configured resource list known to the ledger.
// Safe to run on every startup.
func (s *LedgerService) SeedResources(ctx context.Context, resources []domain.Resource) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		for _, res := range resources {
			if err := s.repo.UpsertResource(txCtx, res); err != nil {
				return err
			}
		}
		return nil
	})
}

// describeConflict upgrades a bare ErrConflict from the storage backstop
// (the exclusion constraint firing for a write that bypassed the resource
// lock) into a ConflictError naming the winning reservation. The lookup runs
// outside the failed transaction.
func (s *LedgerService) describeConflict(ctx context.Context, req domain.ReservationRequest, err error) error {
	var ce *domain.ConflictError
	if errors.As(err, &ce) || !errors.Is(err, domain.ErrConflict) {
		return err
	}
	existing, lerr := s.repo.ListByResource(ctx, req.ResourceID)
	if lerr != nil {
		return err
	}
	if blocker := domain.FindConflict(existing, req); blocker != nil {
		return &domain.ConflictError{Existing: *blocker}
	}
	return err
}
