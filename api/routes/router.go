package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storebuddy/storebuddy-backend/api/controllers"
	"github.com/storebuddy/storebuddy-backend/api/middleware"
	authsvc "github.com/storebuddy/storebuddy-backend/internal/auth"
	checkoutsvc "github.com/storebuddy/storebuddy-backend/internal/checkout"
	"github.com/storebuddy/storebuddy-backend/internal/classifier"
	productsvc "github.com/storebuddy/storebuddy-backend/internal/products"
	salesvc "github.com/storebuddy/storebuddy-backend/internal/sales"
	"github.com/storebuddy/storebuddy-backend/internal/session"
	"github.com/storebuddy/storebuddy-backend/pkg/config"
	"github.com/storebuddy/storebuddy-backend/pkg/db"
	"github.com/storebuddy/storebuddy-backend/pkg/logger"
	pkgredis "github.com/storebuddy/storebuddy-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DBPinger        db.Pinger
	Redis           *pkgredis.Client
	Sessions        *session.Manager
	AuthService     authsvc.Service
	RegisterService authsvc.RegisterService
	ProductService  productsvc.Service
	SalesService    salesvc.Service
	CheckoutService checkoutsvc.Service
	Classifier      *classifier.Adapter
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	// A nil *redis.Client must stay a nil interface so the middlewares
	// can detect it and pass through.
	var idemStore pkgredis.IdempotencyStore
	var redisPinger pkgredis.Pinger
	var rateStore interface {
		IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	}
	if p.Redis != nil {
		idemStore = p.Redis
		redisPinger = p.Redis
		rateStore = p.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DBPinger, redisPinger, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).
			Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, rateStore, logg), middleware.Idempotency(idemStore, logg)).
			Post("/register", controllers.AuthRegister(p.RegisterService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Post("/auth/logout", controllers.AuthLogout(p.Sessions, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(p.ProductService, logg))
			r.Post("/", controllers.ProductsCreate(p.ProductService, logg))
			r.Get("/{productID}", controllers.ProductsGet(p.ProductService, logg))
			r.Patch("/{productID}", controllers.ProductsUpdate(p.ProductService, logg))
			r.Delete("/{productID}", controllers.ProductsDelete(p.ProductService, logg))
		})

		r.Get("/catalog", controllers.CatalogSearch(p.Sessions, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(p.Sessions, logg))
			r.Post("/", controllers.CartAdd(p.Sessions, logg))
			r.Delete("/", controllers.CartClear(p.Sessions, logg))
			r.Patch("/{productID}", controllers.CartChangeQuantity(p.Sessions, logg))
			r.Delete("/{productID}", controllers.CartRemove(p.Sessions, logg))
		})

		r.Post("/scan", controllers.ScanAdd(p.Classifier, p.Sessions, logg))
		r.Post("/checkout", controllers.CheckoutExecute(p.CheckoutService, p.Sessions, logg))

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.SalesListByDate(p.SalesService, logg))
			r.Get("/{saleID}", controllers.SalesGet(p.SalesService, logg))
			r.Delete("/{saleID}", controllers.SalesDelete(p.SalesService, logg))
		})
	})

	return r
}
