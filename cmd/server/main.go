package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/aldoetobex/storefront-web/internal/auth"
	"github.com/aldoetobex/storefront-web/internal/banners"
	"github.com/aldoetobex/storefront-web/internal/categories"
	"github.com/aldoetobex/storefront-web/internal/checkout"
	"github.com/aldoetobex/storefront-web/internal/config"
	"github.com/aldoetobex/storefront-web/internal/customers"
	"github.com/aldoetobex/storefront-web/internal/inertia"
	"github.com/aldoetobex/storefront-web/internal/metrics"
	"github.com/aldoetobex/storefront-web/internal/profile"
	"github.com/aldoetobex/storefront-web/internal/storage"
	"github.com/aldoetobex/storefront-web/pkg/database"
	"github.com/aldoetobex/storefront-web/pkg/models"
)

// bannerPlacement is the slot shown at the top of storefront pages.
const bannerPlacement = "home-top"

func main() {
	cfg := config.Load()
	log := cfg.NewLogger()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	db, err := database.Open(cfg.DatabaseURL, cfg.Dev())
	if err != nil {
		log.WithError(err).Fatal("database init failed")
	}
	if err := auth.EnsureAdmin(db, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		log.WithError(err).Fatal("admin seed failed")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, authH := buildApp(cfg, db, log, reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		t := time.NewTicker(10 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				authH.PruneLimiter(time.Hour)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithField("port", cfg.Port).Info("page host listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("listen")
	}
}

func buildApp(cfg config.Config, db *gorm.DB, log *logrus.Logger, reg *prometheus.Registry) (*fiber.App, *auth.Handler) {
	m := metrics.New(reg)

	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		ErrorHandler: auth.ErrorHandler(log),
		BodyLimit:    8 * 1024 * 1024, // banner uploads
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Output: log.WriterLevel(logrus.InfoLevel),
		Format: "${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(m.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })
	app.Get("/metrics", m.Handler())

	store := session.New(session.Config{
		Expiration:     24 * time.Hour,
		CookieHTTPOnly: true,
		CookieSecure:   !cfg.Dev(),
		CookieSameSite: fiber.CookieSameSiteLaxMode,
	})

	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:X-CSRF-TOKEN",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   !cfg.Dev(),
		Expiration:     2 * time.Hour,
		ContextKey:     inertia.CSRFContextKey,
	}))

	pages := inertia.New(inertia.Config{
		Version: cfg.AssetVersion,
		Title:   "Storefront",
		Store:   store,
		Log:     log,
		Metrics: m,
	})
	app.Use(pages.Middleware())
	app.Use(auth.LoadUser(db, cfg.JWTSecret))

	var objects storage.ObjectStore
	if sb := storage.NewSupabase(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket); sb.Configured() {
		objects = sb
	} else {
		log.Warn("SUPABASE_URL/SUPABASE_SERVICE_KEY not set; banners and avatars disabled")
	}

	authH := auth.NewHandler(db, cfg.JWTSecret, pages, log, cfg.ResetRatePerMin, !cfg.Dev())
	bannerH := banners.NewHandler(db, objects, pages, log)
	catH := categories.NewHandler(db, pages, log)
	custH := customers.NewHandler(db, pages, log)
	profH := profile.NewHandler(objects, pages, log)
	coH := checkout.NewHandler(db, pages, log)

	pages.Share(auth.ShareUser)
	pages.Share(bannerH.Share(bannerPlacement))

	signedIn := auth.RequireAuth(cfg.LoginPath)
	adminOnly := auth.RequireRole(models.RoleAdmin)

	app.Get("/", func(c *fiber.Ctx) error {
		return pages.Render(c, "Home", fiber.Map{})
	}).Name("home")

	// Auth
	app.Get("/login", authH.LoginPage).Name("login")
	app.Post("/login", authH.Login).Name("login.store")
	app.Post("/logout", authH.Logout).Name("logout")
	app.Get("/forgot-password", authH.ForgotPasswordPage).Name("password.request")
	app.Post("/forgot-password", authH.ForgotPassword).Name("password.email")

	// Signed-in
	app.Get("/profile", signedIn, profH.Show).Name("profile.show")
	app.Get("/checkout/:id", signedIn, coH.Show).Name("checkout.show")
	app.Post("/checkout/:id/advance", signedIn, coH.Advance).Name("checkout.advance")

	// Admin
	app.Get("/admin/categories", signedIn, adminOnly, catH.Index).Name("admin.categories.index")
	app.Get("/admin/categories/create", signedIn, adminOnly, catH.Create).Name("admin.categories.create")
	app.Post("/admin/categories", signedIn, adminOnly, catH.Store).Name("admin.categories.store")
	app.Get("/admin/categories/:id/edit", signedIn, adminOnly, catH.Edit).Name("admin.categories.edit")
	app.Put("/admin/categories/:id", signedIn, adminOnly, catH.Update).Name("admin.categories.update")

	app.Get("/admin/customers", signedIn, adminOnly, custH.Index).Name("admin.customers.index")
	app.Get("/admin/customers/:id/edit", signedIn, adminOnly, custH.Edit).Name("admin.customers.edit")
	app.Put("/admin/customers/:id", signedIn, adminOnly, custH.Update).Name("admin.customers.update")

	app.Post("/admin/banners", signedIn, adminOnly, bannerH.Store).Name("admin.banners.store")

	pages.SetRoutes(inertia.RoutesFromApp(app, cfg.StorefrontURL))
	return app, authH
}
