package server

import (
	"net/http"

	"github.com/diewo77/go-bistro/auth"
	"github.com/diewo77/go-bistro/gate"
	"github.com/diewo77/go-bistro/internal/handlers"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/metrics"
	"github.com/diewo77/go-bistro/internal/middleware"
	"github.com/diewo77/go-bistro/internal/policy"
	"github.com/diewo77/go-bistro/static"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

type routes struct {
	log         *logger.Logger
	gate        *policy.AuthGate
	httpMetrics *metrics.HTTPMetrics
	gatherer    prometheus.Gatherer
	health      *health

	auth      *handlers.AuthHandler
	dishes    *handlers.DishHandler
	inventory *handlers.InventoryHandler
	orders    *handlers.OrderHandler
	finance   *handlers.FinanceHandler
	dashboard *handlers.DashboardHandler
	staff     *handlers.StaffHandler
	vendors   *handlers.VendorHandler
	customers *handlers.CustomerHandler
	profiles  *handlers.AdminProfileHandler
	users     *handlers.AdminUserProfileHandler
}

// can guards a route with login plus resource:action.
func (rt routes) can(resource string, action gate.Action) func(http.Handler) http.Handler {
	check := rt.gate.RequirePermission(resource, action)
	return func(next http.Handler) http.Handler {
		return auth.RequireAuth(check(next))
	}
}

func (rt routes) router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(rt.log),
		middleware.RequestID(rt.log),
		middleware.Logging(rt.log),
		middleware.Metrics(rt.httpMetrics),
		auth.Middleware,
		middleware.Preferences,
	)

	r.Get("/health", rt.health.live)
	r.Get("/healthz", rt.health.ready)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(rt.gatherer))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static.FS))))

	rt.pageRoutes(r)
	r.Route("/api", rt.apiRoutes)
	r.Route("/admin", rt.adminRoutes)
	return r
}

func (rt routes) pageRoutes(r chi.Router) {
	ah := rt.auth
	r.Get("/", landing)
	r.Get("/login", ah.Login)
	r.Post("/login", ah.Login)
	r.Get("/signup", ah.Signup)
	r.Post("/signup", ah.Signup)
	r.Get("/logout", ah.Logout)
	r.Post("/logout", ah.Logout)

	r.With(rt.can(policy.ResourceDish, gate.ActionList)).Get("/menu", rt.dishes.MenuPage)
	r.With(rt.can(policy.ResourceDish, gate.ActionList)).Get("/products", rt.dishes.ProductsPage)
	r.With(rt.can(policy.ResourceItem, gate.ActionList)).Get("/items", rt.inventory.ItemsPage)
	r.With(rt.can(policy.ResourceInventory, gate.ActionList)).Get("/inventory", rt.inventory.InventoryPage)
	r.With(rt.can(policy.ResourceOrder, gate.ActionList)).Get("/orders", rt.orders.Page)
	r.With(rt.can(policy.ResourceFinance, gate.ActionView)).Get("/finance", rt.finance.Page)
	r.With(rt.can(policy.ResourceDashboard, gate.ActionView)).Get("/dashboard", rt.dashboard.Page)
	r.With(rt.can(policy.ResourceStaff, gate.ActionList)).Get("/staff", rt.staff.Page)
	r.With(rt.can(policy.ResourceVendor, gate.ActionList)).Get("/vendors", rt.vendors.Page)
	r.With(rt.can(policy.ResourceCustomer, gate.ActionList)).Get("/customers", rt.customers.Page)
	r.With(rt.can(policy.ResourceFeedback, gate.ActionList)).Get("/feedback", rt.customers.FeedbackPage)
}

func (rt routes) apiRoutes(r chi.Router) {
	r.Post("/auth/token", rt.auth.Token)

	r.Route("/dishes", func(r chi.Router) {
		dh := rt.dishes
		r.With(rt.can(policy.ResourceDish, gate.ActionList)).Get("/", dh.Menu)
		r.With(rt.can(policy.ResourceDish, gate.ActionList)).Get("/categories", dh.Categories)
		r.With(rt.can(policy.ResourceDish, gate.ActionView)).Get("/{id}", dh.Get)
	})

	r.Route("/products", func(r chi.Router) {
		dh := rt.dishes
		r.With(rt.can(policy.ResourceDish, gate.ActionList)).Get("/", dh.List)
		r.With(rt.can(policy.ResourceDish, gate.ActionList)).Get("/categories", dh.ProductCategories)
		r.With(rt.can(policy.ResourceDish, gate.ActionList)).Get("/bestsellers", dh.Bestsellers)
		r.With(rt.can(policy.ResourceDish, gate.ActionList)).Get("/category-stats", dh.CategoryStats)
		r.With(rt.can(policy.ResourceDish, gate.ActionExport)).Get("/export", dh.Export)
		r.With(rt.can(policy.ResourceDish, gate.ActionCreate)).Post("/", dh.Create)
		r.With(rt.can(policy.ResourceDish, gate.ActionView)).Get("/{id}", dh.Get)
		r.With(rt.can(policy.ResourceDish, gate.ActionUpdate)).Put("/{id}", dh.Update)
		r.With(rt.can(policy.ResourceDish, gate.ActionDelete)).Delete("/{id}", dh.Delete)
	})

	r.Route("/items", func(r chi.Router) {
		ih := rt.inventory
		r.With(rt.can(policy.ResourceItem, gate.ActionList)).Get("/", ih.ListItems)
		r.With(rt.can(policy.ResourceItem, gate.ActionList)).Get("/categories", ih.ItemCategories)
		r.With(rt.can(policy.ResourceItem, gate.ActionCreate)).Post("/", ih.CreateItem)
		r.With(rt.can(policy.ResourceItem, gate.ActionUpdate)).Put("/{id}", ih.UpdateItem)
	})

	r.Route("/inventory", func(r chi.Router) {
		ih := rt.inventory
		r.With(rt.can(policy.ResourceInventory, gate.ActionList)).Get("/", ih.List)
		r.With(rt.can(policy.ResourceInventory, gate.ActionList)).Get("/low-stock", ih.LowStock)
		r.With(rt.can(policy.ResourceInventory, gate.ActionList)).Get("/vendors", ih.Vendors)
		r.With(rt.can(policy.ResourceInventory, gate.ActionCreate)).Post("/", ih.Create)
		r.With(rt.can(policy.ResourceInventory, gate.ActionUpdate)).Post("/stock-in", ih.StockIn)
		r.With(rt.can(policy.ResourceInventory, gate.ActionUpdate)).Put("/{id}", ih.Update)
	})
	r.With(rt.can(policy.ResourceInventory, gate.ActionList)).Get("/buy-list", rt.inventory.BuyList)

	r.Route("/orders", func(r chi.Router) {
		oh := rt.orders
		r.With(rt.can(policy.ResourceOrder, gate.ActionList)).Get("/", oh.List)
		r.With(rt.can(policy.ResourceOrder, gate.ActionCreate)).Post("/", oh.Create)
		r.With(rt.can(policy.ResourceOrder, gate.ActionView)).Get("/{id}", oh.Get)
		r.With(rt.can(policy.ResourceOrder, gate.ActionUpdate)).Put("/{id}/status", oh.UpdateStatus)
		r.With(rt.can(policy.ResourceOrder, gate.ActionPay)).Put("/{id}/mark-paid", oh.MarkPaid)
	})

	r.Route("/finance", func(r chi.Router) {
		fh := rt.finance
		r.With(rt.can(policy.ResourceFinance, gate.ActionList)).Get("/receivables", fh.Receivables)
		r.With(rt.can(policy.ResourceFinance, gate.ActionList)).Get("/payables", fh.Payables)
		r.With(rt.can(policy.ResourceFinance, gate.ActionUpdate)).Put("/receivables/{id}", fh.SetReceivableStatus)
		r.With(rt.can(policy.ResourceFinance, gate.ActionUpdate)).Put("/payables/{id}", fh.SetPayableStatus)
		r.With(rt.can(policy.ResourceFinance, gate.ActionCreate)).Post("/receivables/generate", fh.GenerateReceivables)
		r.With(rt.can(policy.ResourceFinance, gate.ActionCreate)).Post("/payables/generate", fh.GeneratePayables)
		r.With(rt.can(policy.ResourceFinance, gate.ActionView)).Get("/summary", fh.Summary)
		r.With(rt.can(policy.ResourceFinance, gate.ActionView)).Get("/senior-report", fh.SeniorReport)
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(rt.can(policy.ResourceDashboard, gate.ActionView))
		dh := rt.dashboard
		r.Get("/sales-summary", dh.SalesSummary())
		r.Get("/top-products", dh.TopProducts())
		r.Get("/sales-distribution", dh.SalesDistribution())
	})
	r.Route("/sales", func(r chi.Router) {
		r.Use(rt.can(policy.ResourceDashboard, gate.ActionView))
		dh := rt.dashboard
		r.Get("/top-dishes", dh.TopDishes())
		r.Get("/trend", dh.Trend())
		r.Get("/by-channel", dh.ByChannel())
		r.Get("/peak-hours", dh.PeakHours())
	})

	r.Route("/staff", func(r chi.Router) {
		sh := rt.staff
		r.With(rt.can(policy.ResourceStaff, gate.ActionList)).Get("/", sh.List)
		r.With(rt.can(policy.ResourceStaff, gate.ActionList)).Get("/positions", sh.Positions)
		r.With(rt.can(policy.ResourceStaff, gate.ActionList)).Get("/performance", sh.Performance)
		r.With(rt.can(policy.ResourceStaff, gate.ActionList)).Get("/departments", sh.Departments)
		r.With(rt.can(policy.ResourceStaff, gate.ActionCreate)).Post("/", sh.Create)
		r.With(rt.can(policy.ResourceStaff, gate.ActionView)).Get("/{id}", sh.Get)
		r.With(rt.can(policy.ResourceStaff, gate.ActionUpdate)).Put("/{id}", sh.Update)
		r.With(rt.can(policy.ResourceStaff, gate.ActionDelete)).Delete("/{id}", sh.Delete)
	})

	r.Route("/vendors", func(r chi.Router) {
		vh := rt.vendors
		r.With(rt.can(policy.ResourceVendor, gate.ActionList)).Get("/", vh.List)
		r.With(rt.can(policy.ResourceVendor, gate.ActionCreate)).Post("/", vh.Create)
		r.With(rt.can(policy.ResourceVendor, gate.ActionView)).Get("/{id}", vh.Get)
		r.With(rt.can(policy.ResourceVendor, gate.ActionUpdate)).Put("/{id}", vh.Update)
		r.With(rt.can(policy.ResourceVendor, gate.ActionDelete)).Delete("/{id}", vh.Delete)
		r.With(rt.can(policy.ResourceFinance, gate.ActionCreate)).Post("/{id}/payables", vh.CreatePayable)
	})
	r.Route("/delivery-platforms", func(r chi.Router) {
		vh := rt.vendors
		r.With(rt.can(policy.ResourceVendor, gate.ActionList)).Get("/", vh.ListPlatforms)
		r.With(rt.can(policy.ResourceVendor, gate.ActionCreate)).Post("/", vh.CreatePlatform)
		r.With(rt.can(policy.ResourceVendor, gate.ActionView)).Get("/{id}", vh.GetPlatform)
		r.With(rt.can(policy.ResourceVendor, gate.ActionUpdate)).Put("/{id}", vh.UpdatePlatform)
		r.With(rt.can(policy.ResourceVendor, gate.ActionDelete)).Delete("/{id}", vh.DeletePlatform)
	})
	r.Route("/maintenance-providers", func(r chi.Router) {
		vh := rt.vendors
		r.With(rt.can(policy.ResourceVendor, gate.ActionList)).Get("/", vh.ListProviders)
		r.With(rt.can(policy.ResourceVendor, gate.ActionCreate)).Post("/", vh.CreateProvider)
		r.With(rt.can(policy.ResourceVendor, gate.ActionView)).Get("/{id}", vh.GetProvider)
		r.With(rt.can(policy.ResourceVendor, gate.ActionUpdate)).Put("/{id}", vh.UpdateProvider)
		r.With(rt.can(policy.ResourceVendor, gate.ActionDelete)).Delete("/{id}", vh.DeleteProvider)
	})
	r.Route("/purchases", func(r chi.Router) {
		vh := rt.vendors
		r.With(rt.can(policy.ResourcePurchase, gate.ActionList)).Get("/", vh.ListPurchases)
		r.With(rt.can(policy.ResourcePurchase, gate.ActionCreate)).Post("/", vh.CreatePurchase)
		r.With(rt.can(policy.ResourcePurchase, gate.ActionView)).Get("/{id}", vh.GetPurchase)
		r.With(rt.can(policy.ResourcePurchase, gate.ActionUpdate)).Put("/{id}/receive", vh.ReceivePurchase)
	})

	r.Route("/customers", func(r chi.Router) {
		ch := rt.customers
		r.With(rt.can(policy.ResourceCustomer, gate.ActionList)).Get("/", ch.List)
		r.With(rt.can(policy.ResourceCustomer, gate.ActionList)).Get("/segments", ch.Segments)
		r.With(rt.can(policy.ResourceCustomer, gate.ActionList)).Get("/inactive", ch.Inactive)
		r.With(rt.can(policy.ResourceCustomer, gate.ActionCreate)).Post("/", ch.Create)
		r.With(rt.can(policy.ResourceCustomer, gate.ActionView)).Get("/{id}", ch.Get)
		r.With(rt.can(policy.ResourceCustomer, gate.ActionUpdate)).Put("/{id}", ch.Update)
		r.With(rt.can(policy.ResourceCustomer, gate.ActionDelete)).Delete("/{id}", ch.Delete)
	})
	r.Route("/feedback", func(r chi.Router) {
		ch := rt.customers
		r.With(rt.can(policy.ResourceFeedback, gate.ActionList)).Get("/", ch.ListFeedback)
		r.With(rt.can(policy.ResourceFeedback, gate.ActionView)).Get("/summary", ch.FeedbackSummary)
		r.With(rt.can(policy.ResourceFeedback, gate.ActionCreate)).Post("/", ch.CreateFeedback)
		r.With(rt.can(policy.ResourceFeedback, gate.ActionUpdate)).Put("/{id}/status", ch.SetFeedbackStatus)
	})

	r.With(rt.can(policy.ResourceProfile, gate.ActionList)).Get("/permissions", rt.profiles.ListPermissions)
}

// adminRoutes manage profiles and user assignment; superadmins only.
func (rt routes) adminRoutes(r chi.Router) {
	r.Use(auth.RequireAuth, rt.gate.RequireAdmin())
	ph := rt.profiles
	r.Get("/profiles", ph.List)
	r.Get("/profiles/new", ph.New)
	r.Post("/profiles", ph.Create)
	r.Get("/profiles/{id}/edit", ph.Edit)
	r.Post("/profiles/{id}", ph.Update)
	r.Post("/profiles/{id}/delete", ph.Delete)
	r.Get("/profiles/{id}/permissions", ph.EditPermissions)
	r.Post("/profiles/{id}/permissions", ph.SavePermissions)

	r.Get("/users", rt.users.List)
	r.Post("/users/{id}/profile", rt.users.AssignProfile)
}
