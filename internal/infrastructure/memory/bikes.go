package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bike-resale-api/internal/domain"
)

type BikeRepo struct {
	mu    sync.RWMutex
	bikes map[string]domain.Bike
}

func NewBikeRepo() *BikeRepo {
	return &BikeRepo{bikes: map[string]domain.Bike{}}
}

func (r *BikeRepo) Put(_ context.Context, b *domain.Bike) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.Kind = domain.BikeKind
	r.bikes[b.BikeID] = clone(*b)
	return nil
}

func (r *BikeRepo) Get(_ context.Context, bikeID string) (*domain.Bike, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bikes[bikeID]
	if !ok {
		return nil, fmt.Errorf("bike %s: %w", bikeID, domain.ErrNotFound)
	}
	b = clone(b)
	return &b, nil
}

// Query returns every listing matching f, newest first.
func (r *BikeRepo) Query(_ context.Context, f domain.ListingFilter) ([]domain.Bike, error) {
	return r.selectSorted(f.Matches), nil
}

func (r *BikeRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Bike, error) {
	return r.selectSorted(func(b *domain.Bike) bool { return b.ListedBy == ownerID }), nil
}

func (r *BikeRepo) Update(_ context.Context, bikeID string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bikes[bikeID]
	if !ok {
		return fmt.Errorf("bike %s: %w", bikeID, domain.ErrNotFound)
	}
	for k, v := range updates {
		if err := setBikeField(&b, k, v); err != nil {
			return err
		}
	}
	b.UpdatedAt = time.Now().UTC()
	r.bikes[bikeID] = clone(b)
	return nil
}

func (r *BikeRepo) Delete(_ context.Context, bikeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bikes[bikeID]; !ok {
		return fmt.Errorf("bike %s: %w", bikeID, domain.ErrNotFound)
	}
	delete(r.bikes, bikeID)
	return nil
}

func (r *BikeRepo) selectSorted(keep func(*domain.Bike) bool) []domain.Bike {
	r.mu.RLock()
	out := []domain.Bike{}
	for _, b := range r.bikes {
		if keep(&b) {
			out = append(out, clone(b))
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].BikeID > out[j].BikeID
	})
	return out
}

func clone(b domain.Bike) domain.Bike {
	b.BillBookImages = append([]string(nil), b.BillBookImages...)
	b.BikeImages = append([]string(nil), b.BikeImages...)
	return b
}

func setBikeField(b *domain.Bike, attr string, v interface{}) error {
	switch attr {
	case "bill_book_images":
		return assign(&b.BillBookImages, attr, v)
	case "bike_images":
		return assign(&b.BikeImages, attr, v)
	case "brand":
		return assign(&b.Brand, attr, v)
	case "bike_name":
		return assign(&b.BikeName, attr, v)
	case "year_of_purchase":
		return assign(&b.YearOfPurchase, attr, v)
	case "cc":
		return assign(&b.CC, attr, v)
	case "kms_driven":
		return assign(&b.KmsDriven, attr, v)
	case "owner":
		return assign(&b.Owner, attr, v)
	case "servicing":
		return assign(&b.Servicing, attr, v)
	case "engine_condition":
		return assign(&b.EngineCondition, attr, v)
	case "physical_condition":
		return assign(&b.PhysicalCondition, attr, v)
	case "tyre_condition":
		return assign(&b.TyreCondition, attr, v)
	case "price":
		return assign(&b.Price, attr, v)
	case "description":
		return assign(&b.Description, attr, v)
	case "district":
		return assign(&b.District, attr, v)
	case "updated_at":
		return nil
	}
	return fmt.Errorf("unknown bike attribute %q", attr)
}
