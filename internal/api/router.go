package api

import (
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/choriweb/shop-api/internal/api/handler"
	"github.com/choriweb/shop-api/internal/api/middleware"
	"github.com/choriweb/shop-api/internal/core/ports"
	ops "github.com/choriweb/shop-api/internal/infrastructure/http"
	"github.com/choriweb/shop-api/internal/infrastructure/http/handlers"
)

// Deps holds everything the router needs. LoginLimiter and MetricsRegisterer
// may be nil.
type Deps struct {
	Log            zerolog.Logger
	AllowedOrigins []string
	TrustedProxies []string
	Cookie         handler.CookieConfig

	Tokens  ports.TokenCodec
	Users   ports.UserRepository
	Auth    ports.AuthService
	Catalog ports.CatalogService
	Carts   ports.CartService
	Orders  ports.OrderService

	LoginLimiter      echomiddleware.RateLimiterStore
	MetricsRegisterer prometheus.Registerer
	Checks            map[string]handlers.Checker
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.IPExtractor = ipExtractor(d.TrustedProxies, d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     d.AllowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "shop",
		Registerer: d.MetricsRegisterer,
	}))

	ops.RegisterOperational(e, d.Checks)

	authn := middleware.Authenticate(d.Tokens)
	admin := middleware.RequireAdmin(d.Users)

	// --- Auth ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Cookie)
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	if d.LoginLimiter != nil {
		auth.POST("/login", authHandler.Login, middleware.RateLimit(d.LoginLimiter))
	} else {
		auth.POST("/login", authHandler.Login)
	}
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/profile", authHandler.Profile, authn)

	// --- Categories ---
	categoryHandler := handler.NewCategoryHandler(d.Catalog)
	categories := e.Group("/api/categorias")
	categories.GET("", categoryHandler.List)
	categories.GET("/:id", categoryHandler.Get)
	categories.POST("", categoryHandler.Create, authn, admin)
	categories.PUT("/:id", categoryHandler.Update, authn, admin)
	categories.DELETE("/:id", categoryHandler.Delete, authn, admin)

	// --- Products ---
	productHandler := handler.NewProductHandler(d.Catalog)
	products := e.Group("/api/productos")
	products.GET("", productHandler.List)
	products.GET("/getallproducts", productHandler.ListAvailable, authn)
	products.GET("/:id", productHandler.Get)
	products.POST("", productHandler.Create, authn, admin)
	products.PUT("/:id", productHandler.Update, authn, admin)
	products.DELETE("/:id", productHandler.Delete, authn, admin)

	// --- Cart ---
	cartHandler := handler.NewCartHandler(d.Carts)
	cart := e.Group("/api/carrito", authn)
	cart.GET("", cartHandler.Get)
	cart.POST("/agregar", cartHandler.Add)
	cart.DELETE("/items/:productId", cartHandler.Remove)
	cart.DELETE("/limpiar", cartHandler.Clear)

	// --- Orders ---
	orderHandler := handler.NewOrderHandler(d.Orders)
	orders := e.Group("/api/pedidos", authn)
	orders.POST("", orderHandler.Create)
	orders.GET("/mis-pedidos", orderHandler.ListMine)
	orders.GET("", orderHandler.ListAll, admin)
	orders.PUT("/:id/estado", orderHandler.UpdateStatus, admin)
	orders.PUT("/:id/pago", orderHandler.UpdatePayment, admin)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("remote_ip", v.RemoteIP).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// ipExtractor reads the client IP from the TCP peer unless trusted proxy
// ranges are configured, in which case X-Forwarded-For is honoured only for
// hops inside those ranges.
func ipExtractor(cidrs []string, log zerolog.Logger) echo.IPExtractor {
	var opts []echo.TrustOption
	for _, c := range cidrs {
		_, ipNet, err := net.ParseCIDR(c)
		if err != nil {
			log.Warn().Err(err).Str("cidr", c).Msg("ignoring invalid trusted proxy range")
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	if len(opts) == 0 {
		return echo.ExtractIPDirect()
	}
	opts = append(opts,
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	)
	return echo.ExtractIPFromXFFHeader(opts...)
}
