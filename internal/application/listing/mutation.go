package listing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bike-resale-api/internal/application/image"
	"github.com/bike-resale-api/internal/domain"
	"github.com/bike-resale-api/internal/metrics"
	"github.com/bike-resale-api/internal/pkg/id"
	"github.com/bike-resale-api/internal/pkg/validate"
)

// CreateInput is a new listing with its images. Both image slots need 1 to
// domain.MaxImagesPerSlot entries.
type CreateInput struct {
	Fields         domain.BikeFields
	BillBookImages []image.Upload
	BikeImages     []image.Upload
}

// UpdateInput carries a partial update. An empty image slot leaves the
// stored images untouched.
type UpdateInput struct {
	BikeID         string
	Patch          domain.BikePatch
	BillBookImages []image.Upload
	BikeImages     []image.Upload
}

type MutationService interface {
	Create(ctx context.Context, ownerID string, in CreateInput) (*domain.Bike, error)
	Update(ctx context.Context, callerID string, in UpdateInput) (*domain.Bike, error)
	Delete(ctx context.Context, callerID, bikeID string) error
}

type bikeStore interface {
	Get(ctx context.Context, bikeID string) (*domain.Bike, error)
	Put(ctx context.Context, b *domain.Bike) error
	Update(ctx context.Context, bikeID string, updates map[string]interface{}) error
	Delete(ctx context.Context, bikeID string) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type eventPublisher interface {
	Publish(ctx context.Context, ev domain.ListingEvent) error
}

type MutationDeps struct {
	BikeRepo bikeStore
	Images   image.Service
	Cache    cacheInvalidator // optional
	Events   eventPublisher   // optional
	Metrics  metrics.Recorder
}

type mutationService struct {
	bikes   bikeStore
	images  image.Service
	cache   cacheInvalidator
	events  eventPublisher
	metrics metrics.Recorder
}

func NewMutationService(deps MutationDeps) MutationService {
	s := &mutationService{
		bikes:   deps.BikeRepo,
		images:  deps.Images,
		cache:   deps.Cache,
		events:  deps.Events,
		metrics: deps.Metrics,
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	return s
}

func (s *mutationService) Create(ctx context.Context, ownerID string, in CreateInput) (*domain.Bike, error) {
	if err := checkSlot("bill book", len(in.BillBookImages), true); err != nil {
		return nil, err
	}
	if err := checkSlot("bike", len(in.BikeImages), true); err != nil {
		return nil, err
	}
	if err := validate.Struct(in.Fields); err != nil {
		return nil, err
	}

	billURLs, err := s.images.StoreAll(ctx, image.FolderBikes, in.BillBookImages)
	if err != nil {
		return nil, err
	}
	bikeURLs, err := s.images.StoreAll(ctx, image.FolderBikes, in.BikeImages)
	if err != nil {
		s.cleanup(ctx, "create rollback", billURLs)
		return nil, err
	}

	f := in.Fields
	now := time.Now().UTC()
	b := &domain.Bike{
		BikeID:            id.New(),
		Kind:              domain.BikeKind,
		BillBookImages:    billURLs,
		BikeImages:        bikeURLs,
		Brand:             f.Brand,
		BikeName:          f.BikeName,
		YearOfPurchase:    f.YearOfPurchase,
		CC:                f.CC,
		KmsDriven:         f.KmsDriven,
		Owner:             f.Owner,
		Servicing:         f.Servicing,
		EngineCondition:   f.EngineCondition,
		PhysicalCondition: f.PhysicalCondition,
		TyreCondition:     f.TyreCondition,
		Price:             f.Price,
		Description:       f.Description,
		District:          f.District,
		ListedBy:          ownerID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.bikes.Put(ctx, b); err != nil {
		s.cleanup(ctx, "create rollback", append(billURLs, bikeURLs...))
		return nil, err
	}
	s.afterWrite(ctx, domain.EventListingCreated, b)
	return b, nil
}

func (s *mutationService) Update(ctx context.Context, callerID string, in UpdateInput) (*domain.Bike, error) {
	b, err := s.owned(ctx, callerID, in.BikeID)
	if err != nil {
		return nil, err
	}
	if err := checkSlot("bill book", len(in.BillBookImages), false); err != nil {
		return nil, err
	}
	if err := checkSlot("bike", len(in.BikeImages), false); err != nil {
		return nil, err
	}
	if err := validate.Struct(in.Patch); err != nil {
		return nil, err
	}

	updates := patchUpdates(in.Patch)
	var replaced []string
	if len(in.BillBookImages) > 0 {
		urls, err := s.images.StoreAll(ctx, image.FolderBikes, in.BillBookImages)
		if err != nil {
			return nil, err
		}
		updates["bill_book_images"] = urls
		replaced = append(replaced, b.BillBookImages...)
	}
	if len(in.BikeImages) > 0 {
		urls, err := s.images.StoreAll(ctx, image.FolderBikes, in.BikeImages)
		if err != nil {
			if u, ok := updates["bill_book_images"].([]string); ok {
				s.cleanup(ctx, "update rollback", u)
			}
			return nil, err
		}
		updates["bike_images"] = urls
		replaced = append(replaced, b.BikeImages...)
	}
	if len(updates) == 0 {
		return b, nil
	}

	if err := s.bikes.Update(ctx, b.BikeID, updates); err != nil {
		return nil, err
	}
	s.cleanup(ctx, "replaced images", replaced)

	updated, err := s.bikes.Get(ctx, b.BikeID)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, domain.EventListingUpdated, updated)
	return updated, nil
}

func (s *mutationService) Delete(ctx context.Context, callerID, bikeID string) error {
	b, err := s.owned(ctx, callerID, bikeID)
	if err != nil {
		return err
	}
	s.cleanup(ctx, "deleted listing", append(append([]string{}, b.BillBookImages...), b.BikeImages...))
	if err := s.bikes.Delete(ctx, bikeID); err != nil {
		return err
	}
	s.afterWrite(ctx, domain.EventListingDeleted, b)
	return nil
}

// owned loads a listing and checks that callerID owns it. An empty id
// resolves to no listing.
func (s *mutationService) owned(ctx context.Context, callerID, bikeID string) (*domain.Bike, error) {
	if bikeID == "" {
		return nil, fmt.Errorf("listing id missing: %w", domain.ErrNotFound)
	}
	b, err := s.bikes.Get(ctx, bikeID)
	if err != nil {
		return nil, err
	}
	if b.ListedBy != callerID {
		return nil, fmt.Errorf("listing %s belongs to another user: %w", bikeID, domain.ErrForbidden)
	}
	return b, nil
}

// cleanup removes images best-effort; the result is only logged.
func (s *mutationService) cleanup(ctx context.Context, reason string, urls []string) {
	if len(urls) == 0 {
		return
	}
	res := s.images.Remove(ctx, image.FolderBikes, urls)
	if len(res.Failed) > 0 {
		slog.Warn("image cleanup incomplete", "reason", reason, "cleanup", res)
		return
	}
	slog.Debug("image cleanup", "reason", reason, "cleanup", res)
}

// afterWrite runs the non-fatal side effects of a successful mutation.
func (s *mutationService) afterWrite(ctx context.Context, eventType string, b *domain.Bike) {
	s.metrics.RecordListingMutation(eventType)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			slog.Warn("listing cache invalidation failed", "err", err)
		}
	}
	if s.events != nil {
		ev := domain.ListingEvent{
			Type:    eventType,
			BikeID:  b.BikeID,
			OwnerID: b.ListedBy,
			At:      time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.events.Publish(ctx, ev); err != nil {
			slog.Warn("listing event publish failed", "type", eventType, "bike_id", b.BikeID, "err", err)
		}
	}
}

func checkSlot(name string, n int, required bool) error {
	if n > domain.MaxImagesPerSlot {
		return fmt.Errorf("maximum %d %s images allowed: %w", domain.MaxImagesPerSlot, name, domain.ErrValidation)
	}
	if required && n == 0 {
		return fmt.Errorf("at least one %s image is required: %w", name, domain.ErrValidation)
	}
	return nil
}

// patchUpdates maps the present patch fields to attribute updates.
func patchUpdates(p domain.BikePatch) map[string]interface{} {
	u := map[string]interface{}{}
	setStr := func(attr string, v *string) {
		if v != nil {
			u[attr] = *v
		}
	}
	setInt := func(attr string, v *int) {
		if v != nil {
			u[attr] = *v
		}
	}
	setStr("brand", p.Brand)
	setStr("bike_name", p.BikeName)
	setInt("year_of_purchase", p.YearOfPurchase)
	setInt("cc", p.CC)
	setInt("kms_driven", p.KmsDriven)
	setStr("owner", p.Owner)
	setStr("servicing", p.Servicing)
	setStr("engine_condition", p.EngineCondition)
	setStr("physical_condition", p.PhysicalCondition)
	setStr("tyre_condition", p.TyreCondition)
	setInt("price", p.Price)
	setStr("description", p.Description)
	setStr("district", p.District)
	return u
}
