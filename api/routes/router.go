package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/phytopro-backend/api/controllers"
	admincontrollers "github.com/angelmondragon/phytopro-backend/api/controllers/admin"
	cartcontrollers "github.com/angelmondragon/phytopro-backend/api/controllers/cart"
	checkoutcontrollers "github.com/angelmondragon/phytopro-backend/api/controllers/checkout"
	ordercontrollers "github.com/angelmondragon/phytopro-backend/api/controllers/orders"
	reviewcontrollers "github.com/angelmondragon/phytopro-backend/api/controllers/reviews"
	webhookcontrollers "github.com/angelmondragon/phytopro-backend/api/controllers/webhooks"
	"github.com/angelmondragon/phytopro-backend/api/middleware"
	"github.com/angelmondragon/phytopro-backend/internal/auth"
	"github.com/angelmondragon/phytopro-backend/internal/cart"
	"github.com/angelmondragon/phytopro-backend/internal/catalog"
	"github.com/angelmondragon/phytopro-backend/internal/checkout"
	"github.com/angelmondragon/phytopro-backend/internal/orders"
	"github.com/angelmondragon/phytopro-backend/internal/reviews"
	"github.com/angelmondragon/phytopro-backend/internal/stats"
	"github.com/angelmondragon/phytopro-backend/pkg/config"
	"github.com/angelmondragon/phytopro-backend/pkg/logger"
	"github.com/angelmondragon/phytopro-backend/pkg/redis"
)

// WebhookHandler processes a raw payment-provider delivery.
type WebhookHandler interface {
	Handle(ctx context.Context, payload []byte, signature string) error
}

// Deps carries everything the HTTP surface needs. Nil Redis-backed fields
// disable rate limiting and idempotency replay.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	Pingers          map[string]controllers.Pinger
	Gatherer         prometheus.Gatherer
	RateLimiter      middleware.WindowLimiter
	IdempotencyStore redis.IdempotencyStore

	Auth     auth.Service
	Catalog  catalog.Service
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service
	Reviews  reviews.Service
	Stats    stats.Service
	Webhook  WebhookHandler
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.Origins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Pingers))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	requireAuth := middleware.Auth(d.Auth, cfg.Session.CookieName, logg)
	cookies := cfg.Session

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(middleware.RegisterPolicy(cfg.AuthRateLimit), d.RateLimiter, logg)).
				Post("/register", controllers.AuthRegister(d.Auth, cookies, logg))
			r.With(middleware.AuthRateLimit(middleware.LoginPolicy(cfg.AuthRateLimit), d.RateLimiter, logg)).
				Post("/login", controllers.AuthLogin(d.Auth, cookies, logg))
			r.Post("/session", controllers.AuthSession(d.Auth, cookies, logg))
			r.Post("/logout", controllers.AuthLogout(d.Auth, cookies, logg))
			r.With(requireAuth).Get("/me", controllers.AuthMe(logg))
		})

		r.Get("/products", controllers.ProductList(d.Catalog, logg))
		r.Get("/products/featured", controllers.ProductFeatured(d.Catalog, logg))
		r.Get("/products/{slug}", controllers.ProductBySlug(d.Catalog, logg))
		r.Get("/categories", controllers.CategoryList(d.Catalog, logg))
		r.Get("/reviews/{productId}", reviewcontrollers.ListByProduct(d.Reviews, logg))
		r.Get("/shipping/calculate", checkoutcontrollers.ShippingQuote(d.Checkout, logg))
		r.Post("/contact", controllers.Contact(logg))
		r.Post("/webhook/stripe", webhookcontrollers.StripeWebhook(d.Webhook, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.Get(d.Cart, logg))
				r.Post("/add", cartcontrollers.Add(d.Cart, logg))
				r.Put("/update/{itemId}", cartcontrollers.Update(d.Cart, logg))
				r.Delete("/remove/{itemId}", cartcontrollers.Remove(d.Cart, logg))
			})
			r.Route("/checkout", func(r chi.Router) {
				r.With(middleware.Idempotency(d.IdempotencyStore, cfg.Eventing.HTTPIdempotencyTTL, logg)).
					Post("/create-order", checkoutcontrollers.CreateOrder(d.Checkout, logg))
				r.Get("/status/{sessionId}", checkoutcontrollers.Status(d.Checkout, logg))
			})
			r.Get("/orders", ordercontrollers.List(d.Orders, logg))
			r.Get("/orders/{orderId}", ordercontrollers.Get(d.Orders, logg))
			r.Post("/reviews", reviewcontrollers.Create(d.Reviews, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth, middleware.RequireAdmin(logg))

			r.Get("/products", admincontrollers.ListProducts(d.Catalog, logg))
			r.Post("/products", admincontrollers.CreateProduct(d.Catalog, logg))
			r.Put("/products/{productId}", admincontrollers.UpdateProduct(d.Catalog, logg))
			r.Delete("/products/{productId}", admincontrollers.DeleteProduct(d.Catalog, logg))
			r.Get("/stats", admincontrollers.Stats(d.Stats, logg))
			r.Get("/orders", ordercontrollers.AdminList(d.Orders, logg))
			r.Patch("/orders/{orderId}/status", ordercontrollers.AdminChangeStatus(d.Orders, logg))
		})
	})

	return r
}
