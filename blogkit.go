// Package blogkit is a personal blogging engine built with Go, Echo and templ.
// It serves posts written in markdown from SQLite and a local posts
// directory, with a password-gated editor, media uploads, RSS, a sitemap and
// a static export.
//
// Pages are rendered by the templ components supplied in ViewFuncs, so a site
// owns all of its markup while blogkit handles routing, storage and rendering.
package blogkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/eringen/blogkit/assets"
	"github.com/eringen/blogkit/markdown"
)

// ViewFuncs holds the templ components blogkit calls when rendering pages.
type ViewFuncs struct {
	Home           func(HomePage) templ.Component
	Section        func(SectionPage) templ.Component
	Post           func(PostPage) templ.Component
	AdminLogin     func(LoginPage) templ.Component
	AdminDashboard func(AdminPage) templ.Component
	AdminEditor    func(EditorPage) templ.Component
	NotFound       func(ErrorPage) templ.Component
	ServerError    func(ErrorPage) templ.Component
}

func (v ViewFuncs) validate() error {
	var errs []error
	for _, f := range []struct {
		name    string
		missing bool
	}{
		{"Home", v.Home == nil},
		{"Section", v.Section == nil},
		{"Post", v.Post == nil},
		{"AdminLogin", v.AdminLogin == nil},
		{"AdminDashboard", v.AdminDashboard == nil},
		{"AdminEditor", v.AdminEditor == nil},
		{"NotFound", v.NotFound == nil},
		{"ServerError", v.ServerError == nil},
	} {
		if f.missing {
			errs = append(errs, fmt.Errorf("view %s is not set", f.name))
		}
	}
	return errors.Join(errs...)
}

// App is the central blogkit application. It wires together the content
// store, cache, asset store, renderer, handlers and middleware.
// Subscribers is nil when the content store keeps no subscriber table; the
// subscribe endpoint and form are then left out.
type App struct {
	Config      Config
	Echo        *echo.Echo
	Store       ContentStore
	Subscribers SubscriberStore
	Cache       *PostCache
	Assets      assets.Store
	Renderer    *markdown.Renderer
	Views       ViewFuncs
	Logger      *slog.Logger

	guard        *Guard
	loginLimiter *LoginLimiter
	viewMarker   ViewMarker
	customRoutes []func(*App)
	closers      []io.Closer
	ready        bool
}

// New creates an App with the given configuration and view functions.
// Call Init (or Start) before serving requests.
func New(cfg Config, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  views,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
	if a.Renderer == nil {
		a.Renderer = markdown.New(markdown.WithLogger(a.Logger))
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	return a
}

// Init opens every backend named in the configuration that was not injected
// through an Option, then registers middleware and routes. It is safe to
// call more than once.
func (a *App) Init(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if err := errors.Join(a.Config.Validate(), a.Views.validate()); err != nil {
		return fmt.Errorf("blogkit: invalid configuration: %w", err)
	}

	if a.Store == nil {
		store, err := NewStore(a.Config.Database.Path)
		if err != nil {
			return fmt.Errorf("blogkit: init store: %w", err)
		}
		a.Store = store
		a.closers = append(a.closers, store)
	}
	if a.Subscribers == nil {
		a.Subscribers, _ = a.Store.(SubscriberStore)
	}

	if a.Assets == nil {
		store, err := a.newAssetStore(ctx)
		if err != nil {
			return fmt.Errorf("blogkit: init assets: %w", err)
		}
		a.Assets = store
	}

	if a.viewMarker == nil {
		a.viewMarker = a.newViewMarker(ctx)
	}

	a.Cache = NewPostCache(a.Store, a.Config.Posts.LocalDir, a.Config.Cache.TTL, a.Logger)
	a.guard = NewGuard(a.Config.Admin.ConfirmWindow)
	a.loginLimiter = NewLoginLimiter(a.Config.Admin.LoginAttempts, a.Config.Admin.LoginWindow)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

func (a *App) newAssetStore(ctx context.Context) (assets.Store, error) {
	cfg := a.Config.Assets
	if cfg.Backend == "minio" {
		return assets.NewMinioStore(ctx, assets.MinioOptions{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
			PublicURL: cfg.Minio.PublicURL,
			MaxWidth:  cfg.MaxWidth,
		})
	}
	return assets.NewFSStore(cfg.Dir, uploadsURL, cfg.MaxWidth), nil
}

// newViewMarker prefers Redis when configured and reachable, falling back to
// the visitor's session cookie.
func (a *App) newViewMarker(ctx context.Context) ViewMarker {
	cfg := a.Config.Views
	if cfg.RedisAddr == "" {
		return NewSessionMarker()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		a.Logger.Warn("blogkit: redis unreachable, counting views per session cookie", "addr", cfg.RedisAddr, "err", err)
		client.Close()
		return NewSessionMarker()
	}
	a.closers = append(a.closers, client)
	return NewRedisMarker(client, cfg.TTL, a.Config.Server.CookieSecure)
}

// Start initializes the app and serves HTTP until the server is shut down.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}
	a.Logger.Info("blogkit: listening", "addr", a.Config.Server.Addr, "url", a.Config.Site.URL)
	if err := a.Echo.Start(a.Config.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close releases the resources Init opened. Injected stores are left to
// their owners.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// chrome returns the data shared by every public page.
func (a *App) chrome(active string) Chrome {
	return Chrome{
		Site:       a.Config.Site,
		Categories: a.Config.Categories,
		Active:     active,
		Year:       time.Now().Year(),
		Subscribe:  a.Subscribers != nil,
	}
}

const (
	// uploadsURL is where the filesystem asset store is served.
	uploadsURL = "/public/uploads"
	// bundledURL serves the scripts shipped with blogkit.
	bundledURL = "/public/blogkit/"
	// searchIndexURL serves the post index that search.js filters on
	// exported sites.
	searchIndexURL = "/search.json"
)

func (a *App) setupRoutes() {
	e := a.Echo

	bundled, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET(bundledURL+"*", echo.WrapHandler(http.StripPrefix(bundledURL, http.FileServer(http.FS(bundled)))))
	if a.Config.Assets.Backend != "minio" {
		e.Static(uploadsURL, a.Config.Assets.Dir)
	}
	e.Static("/public", a.Config.Server.StaticDir)

	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/healthz", a.handleHealth)
	e.GET(searchIndexURL, a.handleSearchIndex)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/", a.handleHome)
	e.GET("/section/:category/", a.handleSection)
	e.GET("/blog/:slug/", a.handlePost)
	e.POST("/api/views/:slug/", a.handleViews)
	if a.Subscribers != nil {
		e.POST("/api/subscribe/", a.handleSubscribe)
	}

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)

	admin := e.Group("/admin", a.requireAdmin)
	admin.GET("/new/", a.handleAdminNew)
	admin.GET("/post/:slug/", a.handleAdminPost)
	admin.POST("/save/", a.handleAdminSave)
	admin.DELETE("/post/:slug/", a.handleAdminDelete)
	admin.POST("/posts/delete-all/", a.handleAdminDeleteAll)
	admin.POST("/posts/delete-selected/", a.handleAdminDeleteSelected)
	admin.POST("/preview/", a.handleAdminPreview)
	admin.GET("/categories/", a.handleAdminCategories)
	admin.POST("/assets/upload/", a.handleAssetUpload, middleware.BodyLimit(uploadBodyLimit))
	admin.DELETE("/assets/:kind/:name/", a.handleAssetDelete)
}
