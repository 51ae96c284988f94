package blogkit

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/eringen/blogkit/assets"
	"github.com/eringen/blogkit/markdown"
)

// Config holds all configuration for a blogkit site.
type Config struct {
	Site       SiteConfig     `mapstructure:"site"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Admin      AdminConfig    `mapstructure:"admin"`
	Cache      CacheConfig    `mapstructure:"cache"`
	Assets     AssetsConfig   `mapstructure:"assets"`
	Views      ViewsConfig    `mapstructure:"views"`
	Feed       FeedConfig     `mapstructure:"feed"`
	Posts      PostsConfig    `mapstructure:"posts"`
	Categories []Category     `mapstructure:"categories"`
}

type SiteConfig struct {
	Name        string `mapstructure:"name"`
	URL         string `mapstructure:"url"` // canonical base URL
	Description string `mapstructure:"description"`
	Author      string `mapstructure:"author"`
	Language    string `mapstructure:"language"`
}

type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
	StaticDir    string `mapstructure:"static_dir"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type AdminConfig struct {
	Password      string        `mapstructure:"password"`
	SessionSecret string        `mapstructure:"session_secret"`
	LoginAttempts int           `mapstructure:"login_attempts"`
	LoginWindow   time.Duration `mapstructure:"login_window"`
	ConfirmWindow time.Duration `mapstructure:"confirm_window"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type AssetsConfig struct {
	Backend  string      `mapstructure:"backend"` // "fs" or "minio"
	Dir      string      `mapstructure:"dir"`
	MaxWidth int         `mapstructure:"max_width"`
	Minio    MinioConfig `mapstructure:"minio"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"`
}

// ViewsConfig selects how first views are detected. With RedisAddr empty the
// marker lives in the visitor's session cookie.
type ViewsConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type FeedConfig struct {
	Limit int `mapstructure:"limit"`
}

type PostsConfig struct {
	LocalDir string `mapstructure:"local_dir"`
}

const (
	defaultName          = "Blog"
	defaultURL           = "http://localhost:3000"
	defaultLanguage      = "en"
	defaultAddr          = ":3000"
	defaultStaticDir     = "public"
	defaultDatabasePath  = "data/blog.db"
	defaultLoginAttempts = 5
	defaultLoginWindow   = time.Minute
	defaultConfirmWindow = 3 * time.Second
	defaultCacheTTL      = 5 * time.Minute
	defaultAssetsBackend = "fs"
	defaultAssetsDir     = "public/uploads"
	defaultViewsTTL      = 24 * time.Hour
	defaultFeedLimit     = 50
	defaultLocalDir      = "posts"
)

// DefaultCategories are the sections shown in navigation when none are configured.
var DefaultCategories = []Category{
	{Name: "Classic", Description: "Timeless pieces worth rereading."},
	{Name: "Trend", Description: "What is moving right now."},
	{Name: "Guide", Description: "Step-by-step walkthroughs."},
	{Name: "News", Description: "Announcements and short updates."},
}

func (c *Config) setDefaults() {
	if c.Site.Name == "" {
		c.Site.Name = defaultName
	}
	if c.Site.URL == "" {
		c.Site.URL = defaultURL
	}
	c.Site.URL = strings.TrimRight(c.Site.URL, "/")
	if c.Site.Language == "" {
		c.Site.Language = defaultLanguage
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = defaultStaticDir
	}
	if c.Database.Path == "" {
		c.Database.Path = defaultDatabasePath
	}
	if c.Admin.LoginAttempts == 0 {
		c.Admin.LoginAttempts = defaultLoginAttempts
	}
	if c.Admin.LoginWindow == 0 {
		c.Admin.LoginWindow = defaultLoginWindow
	}
	if c.Admin.ConfirmWindow == 0 {
		c.Admin.ConfirmWindow = defaultConfirmWindow
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = defaultCacheTTL
	}
	if c.Assets.Backend == "" {
		c.Assets.Backend = defaultAssetsBackend
	}
	if c.Assets.Dir == "" {
		c.Assets.Dir = defaultAssetsDir
	}
	if c.Assets.MaxWidth == 0 {
		c.Assets.MaxWidth = assets.DefaultMaxWidth
	}
	if c.Views.TTL == 0 {
		c.Views.TTL = defaultViewsTTL
	}
	if c.Feed.Limit == 0 {
		c.Feed.Limit = defaultFeedLimit
	}
	if len(c.Categories) == 0 {
		c.Categories = append([]Category(nil), DefaultCategories...)
	}
}

// Validate reports every missing or inconsistent setting.
func (c Config) Validate() error {
	var errs []error
	if c.Admin.Password == "" {
		errs = append(errs, errors.New("admin.password is required"))
	}
	if c.Admin.SessionSecret == "" {
		errs = append(errs, errors.New("admin.session_secret is required"))
	}
	if c.Feed.Limit < 0 {
		errs = append(errs, errors.New("feed.limit must not be negative"))
	}
	switch c.Assets.Backend {
	case "fs", "":
	case "minio":
		m := c.Assets.Minio
		if m.Endpoint == "" || m.Bucket == "" || m.AccessKey == "" || m.SecretKey == "" {
			errs = append(errs, errors.New("assets.minio needs endpoint, bucket, access_key and secret_key"))
		}
	default:
		errs = append(errs, fmt.Errorf("assets.backend %q is not one of fs, minio", c.Assets.Backend))
	}
	return errors.Join(errs...)
}

// ConfigOption documents one configuration key.
type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// ConfigOptions returns every configuration key with its default and meaning.
func ConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "site.name", Default: defaultName, Comment: "Site name used in titles and feeds"},
		{Key: "site.url", Default: defaultURL, Comment: "Canonical base URL"},
		{Key: "site.description", Default: "", Comment: "Site description for RSS and meta tags"},
		{Key: "site.author", Default: "", Comment: "Author name for JSON-LD"},
		{Key: "site.language", Default: defaultLanguage, Comment: "Feed and html lang"},

		{Key: "server.addr", Default: defaultAddr, Comment: "HTTP listen address"},
		{Key: "server.cookie_secure", Default: false, Comment: "Mark cookies Secure (set behind HTTPS)"},
		{Key: "server.static_dir", Default: defaultStaticDir, Comment: "Directory served under /public"},

		{Key: "database.path", Default: defaultDatabasePath, Comment: "SQLite database file"},

		{Key: "admin.password", Default: "", Comment: "Required: shared admin password"},
		{Key: "admin.session_secret", Default: "", Comment: "Required: cookie signing secret"},
		{Key: "admin.login_attempts", Default: defaultLoginAttempts, Comment: "Failed logins allowed per IP per window"},
		{Key: "admin.login_window", Default: defaultLoginWindow, Comment: "Login rate limit window"},
		{Key: "admin.confirm_window", Default: defaultConfirmWindow, Comment: "Time allowed between the two clicks of a delete"},

		{Key: "cache.ttl", Default: defaultCacheTTL, Comment: "Post list cache lifetime"},

		{Key: "assets.backend", Default: defaultAssetsBackend, Comment: "Media storage: fs or minio"},
		{Key: "assets.dir", Default: defaultAssetsDir, Comment: "Upload directory for the fs backend"},
		{Key: "assets.max_width", Default: assets.DefaultMaxWidth, Comment: "Images wider than this are downscaled"},
		{Key: "assets.minio.endpoint", Default: "", Comment: "MinIO/S3 endpoint host:port"},
		{Key: "assets.minio.access_key", Default: "", Comment: "MinIO access key"},
		{Key: "assets.minio.secret_key", Default: "", Comment: "MinIO secret key"},
		{Key: "assets.minio.bucket", Default: "", Comment: "Bucket holding uploads"},
		{Key: "assets.minio.use_ssl", Default: true, Comment: "Use TLS to reach the endpoint"},
		{Key: "assets.minio.public_url", Default: "", Comment: "Public base URL of the bucket host"},

		{Key: "views.redis_addr", Default: "", Comment: "Redis address for shared view markers; empty uses the session cookie"},
		{Key: "views.redis_password", Default: "", Comment: "Redis password"},
		{Key: "views.redis_db", Default: 0, Comment: "Redis database number"},
		{Key: "views.ttl", Default: defaultViewsTTL, Comment: "How long a visitor's view is remembered"},

		{Key: "feed.limit", Default: defaultFeedLimit, Comment: "Posts listed in feed.xml"},
		{Key: "posts.local_dir", Default: defaultLocalDir, Comment: "Directory of markdown posts with YAML front matter"},
		{Key: "categories", Default: DefaultCategories, Comment: "Navigation sections: list of {name, description}"},
	}
}

func applyDefaults(v *viper.Viper) {
	for _, o := range ConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// LoadConfig resolves configuration with precedence defaults < file < env.
// Environment variables use the BLOGKIT_ prefix with dots replaced by
// underscores, e.g. BLOGKIT_ADMIN_PASSWORD.
func LoadConfig(v *viper.Viper) (Config, error) {
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("blogkit")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/blogkit")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("blogkit: read config: %w", err)
		}
	}

	v.SetEnvPrefix("blogkit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("blogkit: decode config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.Server.StaticDir = dir
	}
}

// WithLogger sets the structured logger used by the app and its middleware.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithContentStore injects the post store instead of opening the SQLite
// database named in the configuration. The caller keeps ownership.
func WithContentStore(s ContentStore) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithSubscriberStore injects where newsletter sign-ups go. Without it the
// content store is used when it implements SubscriberStore.
func WithSubscriberStore(s SubscriberStore) Option {
	return func(a *App) {
		a.Subscribers = s
	}
}

// WithAssetStore injects the media store instead of building one from config.
func WithAssetStore(s assets.Store) Option {
	return func(a *App) {
		a.Assets = s
	}
}

// WithViewMarker replaces the first-view detector.
func WithViewMarker(m ViewMarker) Option {
	return func(a *App) {
		a.viewMarker = m
	}
}

// WithRenderer replaces the markdown renderer.
func WithRenderer(r *markdown.Renderer) Option {
	return func(a *App) {
		a.Renderer = r
	}
}
