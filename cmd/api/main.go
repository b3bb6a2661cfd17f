package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	_ "github.com/choriweb/shop-api/docs"
	"github.com/choriweb/shop-api/internal/api"
	"github.com/choriweb/shop-api/internal/api/handler"
	"github.com/choriweb/shop-api/internal/core/ports"
	"github.com/choriweb/shop-api/internal/core/service"
	"github.com/choriweb/shop-api/internal/infrastructure/captcha"
	"github.com/choriweb/shop-api/internal/infrastructure/cdn"
	"github.com/choriweb/shop-api/internal/infrastructure/config"
	mongodb "github.com/choriweb/shop-api/internal/infrastructure/db/mongo"
	redisdb "github.com/choriweb/shop-api/internal/infrastructure/db/redis"
	"github.com/choriweb/shop-api/internal/infrastructure/http/handlers"
	"github.com/choriweb/shop-api/internal/infrastructure/queue"
	"github.com/choriweb/shop-api/pkg/logger"
)

// @title                       Choriweb Shop API
// @version                     1.0
// @description                 Catalog, cart, orders and session authentication for the Choriweb store.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "shop-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	// --- Repositories ---
	users := mongodb.NewUserRepository(db)
	categories := mongodb.NewCategoryRepository(db)
	products := mongodb.NewProductRepository(db)
	carts := mongodb.NewCartRepository(db)
	orders := mongodb.NewOrderRepository(db)

	// The dispatcher stops after the HTTP server so events from in-flight
	// requests are still written, and before mongo disconnects.
	dispatcher := queue.NewDispatcher(cfg.Dispatcher.Workers, mongodb.NewOrderEventRepository(db), log)
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	dispatcher.Start(dispatchCtx)
	defer func() {
		stopDispatch()
		dispatcher.Wait()
	}()

	// --- Services ---
	tokens, err := service.NewTokenCodec(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	recaptcha := captcha.NewRecaptcha(cfg.Recaptcha.SecretKey, cfg.Recaptcha.VerifyURL, cfg.Recaptcha.Timeout)
	authService := service.NewAuthService(users, tokens, recaptcha, cfg.Recaptcha.Timeout, log)

	var uploader ports.ImageUploader
	if cfg.CloudinaryEnabled() {
		uploader = cdn.NewCloudinary(cdn.Config{
			CloudName: cfg.Cloudinary.CloudName,
			APIKey:    cfg.Cloudinary.APIKey,
			APISecret: cfg.Cloudinary.APISecret,
			Folder:    cfg.Cloudinary.Folder,
		})
	} else {
		log.Warn().Msg("cloudinary not configured, product image uploads are disabled")
	}
	cache := redisdb.NewCatalogCache(rdb, cfg.Redis.CacheTTL)
	catalogService := service.NewCatalogService(categories, products, cache, uploader, log)
	cartService := service.NewCartService(carts, products, log)
	orderService := service.NewOrderService(orders, products, users, dispatcher, log)

	e := api.NewRouter(api.Deps{
		Log:            log,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Cookie:         handler.CookieConfig{Secure: cfg.IsProduction(), TTL: tokens.TTL()},
		Tokens:         tokens,
		Users:          users,
		Auth:           authService,
		Catalog:        catalogService,
		Carts:          cartService,
		Orders:         orderService,
		LoginLimiter:   redisdb.NewRateLimitStore(rdb, "login", cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow, log),
		Checks: map[string]handlers.Checker{
			"mongodb": handlers.MongoCheck(db),
			"redis":   handlers.RedisCheck(rdb),
		},
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
