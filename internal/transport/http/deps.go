package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/bike-resale-api/internal/domain"
	jwtinfra "github.com/bike-resale-api/internal/infrastructure/jwt"
	"github.com/bike-resale-api/internal/metrics"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	// GetByEmail goes through the email-index GSI on DynamoDB.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// BikeRepository is the minimal interface the router requires from a listing store.
type BikeRepository interface {
	Put(ctx context.Context, b *domain.Bike) error
	Get(ctx context.Context, bikeID string) (*domain.Bike, error)
	// Query returns every listing matching f, newest first.
	Query(ctx context.Context, f domain.ListingFilter) ([]domain.Bike, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Bike, error)
	Update(ctx context.Context, bikeID string, updates map[string]interface{}) error
	Delete(ctx context.Context, bikeID string) error
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Mailer delivers outbound email, directly or through the job queue.
type Mailer interface {
	Send(ctx context.Context, e domain.Email) error
}

// ListingCache caches listing pages.
type ListingCache interface {
	Generation(ctx context.Context) (int64, error)
	GetPage(ctx context.Context, gen int64, filterKey string, page, limit int) (*domain.BikePage, bool, error)
	SetPage(ctx context.Context, gen int64, filterKey string, page, limit int, p *domain.BikePage) error
	Invalidate(ctx context.Context) error
}

// EventPublisher announces listing mutations.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.ListingEvent) error
}

// Deps holds all infrastructure dependencies for the router. ListingCache,
// Events and MetricsHandler are optional.
type Deps struct {
	UserRepo       UserRepository
	BikeRepo       BikeRepository
	ImageStore     ObjectStore
	Mailer         Mailer
	JWTProvider    *jwtinfra.Provider
	ListingCache   ListingCache
	Events         EventPublisher
	Metrics        metrics.Recorder
	MetricsHandler http.Handler
	Logger         *slog.Logger
}
