package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/bike-resale-api/internal/application/auth"
	"github.com/bike-resale-api/internal/application/contact"
	"github.com/bike-resale-api/internal/application/image"
	"github.com/bike-resale-api/internal/application/listing"
	"github.com/bike-resale-api/internal/application/user"
	"github.com/bike-resale-api/internal/config"
	"github.com/bike-resale-api/internal/metrics"
	"github.com/bike-resale-api/internal/transport/http/handler"
	appmiddleware "github.com/bike-resale-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := deps.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(appmiddleware.Logging(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.SecurityHeaders)
	r.Use(appmiddleware.Metrics(rec))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	imageSvc := image.NewService(image.ServiceDeps{Store: deps.ImageStore, MaxBytes: cfg.MaxUploadBytes, Metrics: rec})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:    deps.UserRepo,
		Mailer:      deps.Mailer,
		JWTProvider: deps.JWTProvider,
		Metrics:     rec,
		BcryptCost:  cfg.BcryptCost,
	})
	userSvc := user.NewService(user.ServiceDeps{UserRepo: deps.UserRepo, Images: imageSvc, BcryptCost: cfg.BcryptCost})
	querySvc := listing.NewQueryService(listing.QueryDeps{
		BikeRepo: deps.BikeRepo,
		UserRepo: deps.UserRepo,
		Cache:    deps.ListingCache,
		Metrics:  rec,
	})
	mutationSvc := listing.NewMutationService(listing.MutationDeps{
		BikeRepo: deps.BikeRepo,
		Images:   imageSvc,
		Cache:    deps.ListingCache,
		Events:   deps.Events,
		Metrics:  rec,
	})
	contactSvc := contact.NewService(contact.ServiceDeps{BikeRepo: deps.BikeRepo, UserRepo: deps.UserRepo, Mailer: deps.Mailer})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(userSvc, cfg.MaxUploadBytes)
	listingH := handler.NewListingHandler(querySvc, mutationSvc, cfg.MaxUploadBytes)
	contactH := handler.NewContactHandler(contactSvc)

	r.Get("/", healthH.Welcome)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/register", authH.Register)
			r.Post("/register/verify/{id}", authH.VerifyRegistration)
			r.Post("/login", authH.Login)
			r.Post("/forgot-password", authH.ForgotPassword)
			r.Post("/verify/otp", authH.ResetPassword)
		})

		r.Route("/bike", func(r chi.Router) {
			r.Get("/resale-bikes", listingH.List)
			r.Get("/resale-bikes/{bikeId}", listingH.Get)
			r.Post("/resale-bikes/filters", listingH.Filter)

			r.Group(func(r chi.Router) {
				r.Use(authMw)
				r.Post("/list-bike", listingH.Create)
				r.Post("/list-bike/edit", listingH.Update)
				r.Get("/show-my-listings", listingH.MyListings)
				r.Delete("/bike-delete", listingH.Delete)
			})
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(authMw)
			r.Get("/profile", userH.Profile)
			r.Post("/change-password", userH.ChangePassword)
			r.Post("/profile/upload-avatar", userH.UploadAvatar)
		})

		r.With(authMw).Post("/email", contactH.Send)
	})

	return r
}
