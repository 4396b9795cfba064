package http

import (
	"time"

	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/auth"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/cache"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/config"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/domain/user"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/http/handlers"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/http/middlewares"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "user-management-system"

// UsersStore is everything the user-facing handlers need from persistence.
type UsersStore interface {
	handlers.UsersStore
	handlers.UserWriter
}

// TokenRevocationStore joins the write side (logout) and the read side
// (auth middleware) of token revocation.
type TokenRevocationStore interface {
	handlers.TokenRevoker
	middlewares.TokenRevocations
}

type Deps struct {
	Cfg   config.Config
	Store UsersStore

	// Revocations may be nil; logout then degrades to client-side discard.
	Revocations TokenRevocationStore

	// Prom and Gatherer may be nil; the /metrics route is then not mounted.
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// Ready is consulted by /readyz.
	Ready func() error
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" && d.Cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware(serviceName))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	// health + metrics

	health := handlers.NewHealthHandler(d.Cfg.Env, d.Ready)
	r.GET("/health", health.Health)
	r.GET("/readyz", health.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// wire up auth + user handlers

	jwtManager := auth.NewManager(d.Cfg.JWTSecret, d.Cfg.AccessTTL())
	authMw := middlewares.NewAuthMiddleware(jwtManager, d.Revocations)

	loader := handlers.NewUserLoader(d.Store, cache.NewUsers(5*time.Second))
	authHandler := handlers.NewAuthHandler(loader, d.Store, jwtManager, d.Revocations)
	usersHandler := handlers.NewUsersHandler(d.Store, loader)

	// brute-force protection on the credential endpoints, fair-use cap elsewhere

	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)
	apiLimiter := middlewares.NewRateLimiter(120, time.Minute)

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/signup", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.SignUp)
		authRoutes.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
		authRoutes.GET("/me", authMw.RequireAuth(), authHandler.Me)
		authRoutes.POST("/logout", authMw.RequireAuth(), authHandler.Logout)
	}

	usersRoutes := r.Group("/users", authMw.RequireAuth(), apiLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))
	{
		usersRoutes.GET("", authMw.RequireRole(user.RoleAdmin), usersHandler.List)
		usersRoutes.GET("/profile", usersHandler.GetProfile)
		usersRoutes.PUT("/profile", usersHandler.UpdateProfile)
		usersRoutes.PUT("/password", usersHandler.ChangePassword)
		usersRoutes.PATCH("/:id/activate", authMw.RequireRole(user.RoleAdmin), usersHandler.Activate)
		usersRoutes.PATCH("/:id/deactivate", authMw.RequireRole(user.RoleAdmin), usersHandler.Deactivate)
	}

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})

	return r
}
