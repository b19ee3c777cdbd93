package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bike-resale-api/internal/domain"
	"github.com/bike-resale-api/internal/metrics"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// QueryService is the read side over listings. Every paginated result is
// newest first.
type QueryService interface {
	ListPage(ctx context.Context, page, limit int) (*domain.BikePage, error)
	FilterPage(ctx context.Context, f domain.ListingFilter, page, limit int) (*domain.BikePage, error)
	ListOwnerListings(ctx context.Context, ownerID string) ([]domain.Bike, error)
	GetSingle(ctx context.Context, bikeID string) (*domain.BikeWithSeller, error)
}

type bikeReader interface {
	Get(ctx context.Context, bikeID string) (*domain.Bike, error)
	Query(ctx context.Context, f domain.ListingFilter) ([]domain.Bike, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Bike, error)
}

type userReader interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type pageCache interface {
	Generation(ctx context.Context) (int64, error)
	GetPage(ctx context.Context, gen int64, filterKey string, page, limit int) (*domain.BikePage, bool, error)
	SetPage(ctx context.Context, gen int64, filterKey string, page, limit int, p *domain.BikePage) error
}

type QueryDeps struct {
	BikeRepo bikeReader
	UserRepo userReader
	Cache    pageCache // optional
	Metrics  metrics.Recorder
}

type queryService struct {
	bikes   bikeReader
	users   userReader
	cache   pageCache
	metrics metrics.Recorder
}

func NewQueryService(deps QueryDeps) QueryService {
	s := &queryService{bikes: deps.BikeRepo, users: deps.UserRepo, cache: deps.Cache, metrics: deps.Metrics}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	return s
}

func (s *queryService) ListPage(ctx context.Context, page, limit int) (*domain.BikePage, error) {
	return s.FilterPage(ctx, domain.ListingFilter{}, page, limit)
}

func (s *queryService) FilterPage(ctx context.Context, f domain.ListingFilter, page, limit int) (*domain.BikePage, error) {
	if page < 1 || limit < 1 {
		return nil, fmt.Errorf("page and limit must be positive integers: %w", domain.ErrValidation)
	}
	key := f.Key()
	cache := s.cache
	var gen int64
	if cache != nil {
		var err error
		if gen, err = cache.Generation(ctx); err != nil {
			slog.Warn("listing cache generation read failed", "err", err)
			cache = nil
		}
	}
	if cache != nil {
		p, hit, err := cache.GetPage(ctx, gen, key, page, limit)
		if err != nil {
			slog.Warn("listing cache read failed", "err", err)
		} else {
			s.metrics.RecordCacheLookup(hit)
			if hit {
				return p, nil
			}
		}
	}

	all, err := s.bikes.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	p := Paginate(all, page, limit)

	// Stored under the generation read before the query, never a later one.
	if cache != nil {
		if err := cache.SetPage(ctx, gen, key, page, limit, p); err != nil {
			slog.Warn("listing cache write failed", "err", err)
		}
	}
	return p, nil
}

func (s *queryService) ListOwnerListings(ctx context.Context, ownerID string) ([]domain.Bike, error) {
	bikes, err := s.bikes.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if bikes == nil {
		bikes = []domain.Bike{}
	}
	return bikes, nil
}

// GetSingle joins the owner's public profile. A dangling owner reference
// yields a nil profile, not an error.
func (s *queryService) GetSingle(ctx context.Context, bikeID string) (*domain.BikeWithSeller, error) {
	b, err := s.bikes.Get(ctx, bikeID)
	if err != nil {
		return nil, err
	}
	out := &domain.BikeWithSeller{Bike: *b}
	owner, err := s.users.Get(ctx, b.ListedBy)
	switch {
	case err == nil:
		out.ListedBy = owner.Public()
	case errors.Is(err, domain.ErrNotFound):
		slog.Warn("listing owner missing", "bike_id", bikeID, "owner_id", b.ListedBy)
	default:
		return nil, err
	}
	return out, nil
}

// Paginate slices a newest-first result set. A page past the end is empty
// but still reports the totals.
func Paginate(all []domain.Bike, page, limit int) *domain.BikePage {
	total := len(all)
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	p := &domain.BikePage{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		Bikes:      []domain.Bike{},
	}
	if page > totalPages {
		return p
	}
	start := (page - 1) * limit
	end := total
	if limit < total-start {
		end = start + limit
	}
	p.Bikes = all[start:end]
	return p
}
