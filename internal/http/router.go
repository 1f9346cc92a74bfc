package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_cart/storefront-service/internal/metrics"
)

type RouterConfig struct {
	Carts     CartService
	Wishlists WishlistService
	Catalog   CatalogService
	Users     UserService
	Verifier  IdentityVerifier

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *log.Entry

	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = log.WithField("component", "http")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware(cfg.Metrics))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	auth := AuthMiddleware(cfg.Verifier)
	cart := NewCartHandler(cfg.Carts)
	wishlist := NewWishlistHandler(cfg.Wishlists)
	products := NewProductHandler(cfg.Catalog)
	users := NewUserHandler(cfg.Users)

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Use(auth)
			r.Post("/add-to-cart", cart.AddItem)
			r.Delete("/remove-from-cart/{productId}", cart.RemoveItem)
			r.Get("/get-cart", cart.GetCart)
			r.Delete("/clear-cart", cart.ClearCart)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(auth)
			r.Post("/add-to-wishlist", wishlist.AddProduct)
			r.Delete("/remove-from-wishlist/{productId}", wishlist.RemoveProduct)
			r.Get("/get-wishlist", wishlist.GetWishlist)
			r.Delete("/clear-wishlist", wishlist.ClearWishlist)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.List)
			r.Get("/{id}", products.Get)

			r.Group(func(r chi.Router) {
				r.Use(auth, AdminOnly)
				r.Post("/", products.Create)
				r.Put("/{id}", products.Update)
				r.Delete("/{id}", products.Delete)
				r.Post("/{id}/images", products.UploadImage)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", users.Register)
			r.Post("/login", users.Login)
			r.With(auth).Get("/current-user", users.CurrentUser)
		})
	})

	return otelhttp.NewHandler(r, "storefront-service")
}
