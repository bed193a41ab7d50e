package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/karibu-app/karibu-backend/api/controllers"
	"github.com/karibu-app/karibu-backend/api/middleware"
	authsvc "github.com/karibu-app/karibu-backend/internal/auth"
	cartsvc "github.com/karibu-app/karibu-backend/internal/cart"
	catalogsvc "github.com/karibu-app/karibu-backend/internal/catalog"
	ordersvc "github.com/karibu-app/karibu-backend/internal/orders"
	partnersvc "github.com/karibu-app/karibu-backend/internal/partners"
	promosvc "github.com/karibu-app/karibu-backend/internal/promos"
	restaurantsvc "github.com/karibu-app/karibu-backend/internal/restaurants"
	"github.com/karibu-app/karibu-backend/internal/tracking"
	"github.com/karibu-app/karibu-backend/pkg/auth/session"
	"github.com/karibu-app/karibu-backend/pkg/config"
	"github.com/karibu-app/karibu-backend/pkg/db"
	"github.com/karibu-app/karibu-backend/pkg/enums"
	"github.com/karibu-app/karibu-backend/pkg/logger"
	"github.com/karibu-app/karibu-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Sessions    session.AccessSessionChecker
	Auth        authsvc.Service
	Restaurants restaurantsvc.Service
	Catalog     catalogsvc.Service
	Promos      promosvc.Service
	Partners    partnersvc.Service
	Orders      ordersvc.Service
	Carts       *cartsvc.Manager
	Streamer    *tracking.Streamer
	Metrics     http.Handler
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadyDeps(deps.DB, deps.Redis)))
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
		})

		r.Post("/partners/apply", controllers.PartnerApply(deps.Partners, logg))

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", controllers.ListRestaurants(deps.Restaurants, logg))
			r.Get("/{slug}", controllers.GetRestaurantBySlug(deps.Restaurants, logg))
			r.Get("/{slug}/menu", controllers.Menu(deps.Restaurants, deps.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.CartOwner(logg))
			r.Get("/", controllers.CartFetch(deps.Carts, logg))
			r.Delete("/", controllers.CartClear(deps.Carts, logg))
			r.Post("/items", controllers.CartAddItem(deps.Carts, deps.Catalog, logg))
			r.Put("/items/{productId}", controllers.CartSetQuantity(deps.Carts, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Carts, logg))
			r.Put("/delivery", controllers.CartSetDelivery(deps.Carts, deps.Restaurants, logg))
			r.Post("/promo", controllers.CartApplyPromo(deps.Carts, deps.Promos, logg))
			r.Delete("/promo", controllers.CartClearPromo(deps.Carts, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg))
				r.Use(middleware.CartOwner(logg))
				r.Post("/", controllers.SubmitOrder(deps.Orders, deps.Carts, logg))
			})

			// Order ids are unguessable, so live tracking stays open to
			// guests who just placed an order.
			r.Get("/{orderId}/events", controllers.TrackOrder(deps.Streamer, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
				r.Get("/", controllers.ListMyOrders(deps.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
			})
		})

		r.Route("/owner", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RequireRole(string(enums.UserRoleRestaurantAdmin), logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.OwnerListProducts(deps.Catalog, logg))
				r.Post("/", controllers.OwnerCreateProduct(deps.Catalog, logg))
				r.Patch("/{productId}", controllers.OwnerUpdateProduct(deps.Catalog, logg))
				r.Delete("/{productId}", controllers.OwnerDeleteProduct(deps.Catalog, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OwnerListOrders(deps.Orders, logg))
				r.Patch("/{orderId}/status", controllers.OwnerUpdateOrderStatus(deps.Orders, logg))
			})
			r.Route("/promos", func(r chi.Router) {
				r.Get("/", controllers.OwnerListPromos(deps.Promos, logg))
				r.Post("/", controllers.OwnerCreatePromo(deps.Promos, logg))
				r.Delete("/{promoId}", controllers.OwnerDeletePromo(deps.Promos, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RequireRole(string(enums.UserRoleSuperAdmin), logg))

			r.Route("/restaurants", func(r chi.Router) {
				r.Get("/", controllers.AdminListRestaurants(deps.Restaurants, logg))
				r.Post("/", controllers.AdminCreateRestaurant(deps.Restaurants, logg))
				r.Patch("/{restaurantId}", controllers.AdminUpdateRestaurant(deps.Restaurants, logg))
				r.Patch("/{restaurantId}/active", controllers.AdminSetRestaurantActive(deps.Restaurants, logg))
				r.Delete("/{restaurantId}", controllers.AdminDeleteRestaurant(deps.Restaurants, logg))
			})
			r.Route("/partner-requests", func(r chi.Router) {
				r.Get("/", controllers.AdminListPartnerRequests(deps.Partners, logg))
				r.Post("/{requestId}/approve", controllers.AdminApprovePartnerRequest(deps.Partners, logg))
				r.Post("/{requestId}/reject", controllers.AdminRejectPartnerRequest(deps.Partners, logg))
			})
		})
	})

	return r
}
