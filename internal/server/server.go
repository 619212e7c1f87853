// Package server assembles services, handlers and the chi router into the
// application's root http.Handler.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/go-bistro/auth"
	"github.com/diewo77/go-bistro/gate"
	"github.com/diewo77/go-bistro/i18n"
	"github.com/diewo77/go-bistro/internal/cache"
	"github.com/diewo77/go-bistro/internal/events"
	"github.com/diewo77/go-bistro/internal/handlers"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/metrics"
	"github.com/diewo77/go-bistro/internal/policy"
	"github.com/diewo77/go-bistro/internal/services"
	"github.com/diewo77/go-bistro/static"
	"github.com/diewo77/go-bistro/view"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// DefaultProfileTTL is how long a resolved permission profile is reused.
const DefaultProfileTTL = 5 * time.Minute

// Options are the infrastructure pieces the application runs on. Only DB is
// required; the rest fall back to in-process defaults.
type Options struct {
	DB         *gorm.DB
	Log        *logger.Logger
	Store      cache.Store
	Publisher  events.Publisher
	Registry   *prometheus.Registry
	Tokens     *auth.Tokens
	SummaryTTL time.Duration
	ProfileTTL time.Duration
	// Clock pins the service clock; nil means wall time.
	Clock services.Clock
	// ReadyChecks run on /healthz in addition to the database ping.
	ReadyChecks map[string]func(context.Context) error
}

// App is the wired application.
type App struct {
	Handler  http.Handler
	Gate     *policy.AuthGate
	Accounts *services.AccountService
	Business *metrics.BusinessMetrics
}

type clockSetter interface {
	SetClock(services.Clock)
}

// New wires every module and returns the root handler.
func New(opts Options) *App {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Store == nil {
		opts.Store = cache.NewMemory()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NewLogPublisher(opts.Log)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.ProfileTTL == 0 {
		opts.ProfileTTL = DefaultProfileTTL
	}
	logg := opts.Log

	httpMetrics := metrics.NewHTTPMetrics(opts.Registry)
	business := metrics.NewBusinessMetrics(opts.Registry)
	notify := services.NewNotifier(opts.Publisher, business, logg)

	dishes := services.NewDishService(opts.DB, logg)
	items := services.NewItemService(opts.DB, logg)
	inventory := services.NewInventoryService(opts.DB, logg, notify)
	orders := services.NewOrderService(opts.DB, logg, notify)
	finance := services.NewFinanceService(opts.DB, logg, opts.Store, opts.SummaryTTL)
	dashboard := services.NewDashboardService(opts.DB, logg, opts.Store, opts.SummaryTTL)
	staff := services.NewStaffService(opts.DB, logg)
	vendors := services.NewVendorService(opts.DB, logg)
	purchases := services.NewPurchaseService(opts.DB, logg, notify)
	customers := services.NewCustomerService(opts.DB, logg)
	feedback := services.NewFeedbackService(opts.DB, logg)
	accounts := services.NewAccountService(opts.DB, logg, opts.Tokens, opts.Store)

	if opts.Clock != nil {
		for _, s := range []clockSetter{dishes, items, inventory, orders, finance, dashboard, staff, vendors, purchases, customers, feedback, accounts} {
			s.SetClock(opts.Clock)
		}
	}

	authGate := policy.NewAuthGate(opts.DB, opts.ProfileTTL, logg)
	auth.SetUserVerifier(accounts.Exists)
	if opts.Tokens != nil {
		auth.SetTokens(opts.Tokens)
	}
	view.SetAssetFS(static.FS)
	view.SetLangResolver(func(r *http.Request) string { return i18n.LangFromContext(r.Context()) })
	view.SetThemeResolver(func(r *http.Request) string { return view.ThemeFromContext(r.Context()) })
	view.SetCanProfileResolver(func(r *http.Request, resource, action string) bool {
		return authGate.CanProfile(r.Context(), gate.Action(action), resource)
	})
	view.SetIsAdminResolver(func(r *http.Request) bool {
		return authGate.IsAdmin(r.Context())
	})

	rt := routes{
		log:         logg,
		gate:        authGate,
		httpMetrics: httpMetrics,
		gatherer:    opts.Registry,
		health:      newHealth(opts.DB, opts.Store, opts.ReadyChecks),

		auth:      handlers.NewAuthHandler(accounts, logg),
		dishes:    handlers.NewDishHandler(dishes, logg),
		inventory: handlers.NewInventoryHandler(items, inventory, logg),
		orders:    handlers.NewOrderHandler(orders, logg),
		finance:   handlers.NewFinanceHandler(finance, logg),
		dashboard: handlers.NewDashboardHandler(dashboard, orders, logg),
		staff:     handlers.NewStaffHandler(staff, logg),
		vendors:   handlers.NewVendorHandler(vendors, purchases, logg),
		customers: handlers.NewCustomerHandler(customers, feedback, logg),
		profiles:  handlers.NewAdminProfileHandler(opts.DB, authGate, logg),
		users:     handlers.NewAdminUserProfileHandler(opts.DB, authGate, logg),
	}

	return &App{
		Handler:  rt.router(),
		Gate:     authGate,
		Accounts: accounts,
		Business: business,
	}
}
