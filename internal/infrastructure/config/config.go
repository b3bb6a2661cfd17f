package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=4000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth       AuthConfig
	Mongo      MongoConfig
	Redis      RedisConfig
	Recaptcha  RecaptchaConfig
	Cloudinary CloudinaryConfig
	HTTP       HTTPConfig
	Dispatcher DispatcherConfig
}

type AuthConfig struct {
	TokenSecret string        `env:"TOKEN_SECRET, required"`
	TokenTTL    time.Duration `env:"TOKEN_TTL,    default=168h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=choriweb"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,        default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,          default=0"`
	CacheTTL time.Duration `env:"CATALOG_CACHE_TTL, default=5m"`
}

type RecaptchaConfig struct {
	// The default is Google's public test key, which accepts every response.
	SecretKey string        `env:"RECAPTCHA_SECRET_KEY, default=6LeIxAcTAAAAAGG-vFI1TnRWxMZNFuojJ4WifJWe"`
	VerifyURL string        `env:"RECAPTCHA_VERIFY_URL, default=https://www.google.com/recaptcha/api/siteverify"`
	Timeout   time.Duration `env:"RECAPTCHA_TIMEOUT,    default=5s"`
}

type CloudinaryConfig struct {
	CloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `env:"CLOUDINARY_API_KEY"`
	APISecret string `env:"CLOUDINARY_API_SECRET"`
	Folder    string `env:"CLOUDINARY_FOLDER, default=choriweb_productos"`
}

type HTTPConfig struct {
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS, default=http://localhost:5173,http://localhost:3000,https://choriweb-frontend.vercel.app"`
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT,     default=10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW,    default=15m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,     default=10s"`
	// TrustedProxies lists the CIDRs allowed to set X-Forwarded-For. Empty
	// means the TCP peer address identifies the client.
	TrustedProxies  []string      `env:"TRUSTED_PROXIES"`
}

type DispatcherConfig struct {
	Workers int `env:"DISPATCHER_WORKERS, default=8"`
}

// IsProduction reports whether cookies must be Secure with SameSite=None.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// CloudinaryEnabled reports whether product images can be uploaded.
func (c *Config) CloudinaryEnabled() bool {
	return c.Cloudinary.CloudName != "" && c.Cloudinary.APIKey != "" && c.Cloudinary.APISecret != ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from an arbitrary lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}
