package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"majoe-store/internal/cache"
	"majoe-store/internal/config"
	"majoe-store/internal/database"
	custommiddleware "majoe-store/internal/middleware"
	"majoe-store/internal/repository"
	"majoe-store/internal/service"
	"majoe-store/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config   *config.Config
	logger   *zap.Logger
	db       database.Service
	redis    *redis.Client
	products service.ProductService
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	// Create router
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack(logger) {
		router.Use(mw)
	}
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))

	// Initialize repositories
	productRepo := repository.NewProductRepository(db.DB(), cfg.Database.QueryTimeout, cfg.Database.ImportTimeout)
	cartStore := cache.NewRedisCartStore(redisClient, cfg.Cart.SessionTTL)

	// Initialize services
	productService := service.NewProductService(productRepo)
	cartService := service.NewCartService(cartStore, productRepo)
	authService := service.NewAuthService(
		service.AdminCredentials{Username: cfg.Admin.Username, PasswordHash: cfg.Admin.PasswordHash},
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessExpiry)*time.Minute,
	)

	// Create auth and rate limit middleware
	authMiddleware := custommiddleware.AuthMiddleware(authService, logger)
	requireAdmin := custommiddleware.RequireAdmin(logger)
	adminOnly := func(next http.Handler) http.Handler {
		return authMiddleware(requireAdmin(next))
	}
	loginLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.LoginRequests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "ratelimit:login",
	}, logger)
	importLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.ImportRequests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "ratelimit:import",
	}, logger)

	s := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:   cfg,
		logger:   logger,
		db:       db,
		redis:    redisClient,
		products: productService,
	}

	// Health check endpoint
	router.Get("/health", s.health)

	// Register routes
	transport.NewProductHandler(productService, logger).RegisterRoutes(router, adminOnly)
	transport.NewAdminHandler(productService, logger).RegisterRoutes(router, adminOnly, importLimit)
	transport.NewAuthHandler(authService, logger).RegisterRoutes(router, loginLimit)
	transport.NewCartHandler(cartService, cfg.Cart.SessionTTL, logger).RegisterRoutes(router)

	return s
}

// Seed loads records into the catalog when it holds no products
func (s *Server) Seed(ctx context.Context, records []map[string]any) error {
	n, err := s.products.SeedIfEmpty(ctx, records)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("Catalog seeded", zap.Int("products", n))
	} else {
		s.logger.Info("Catalog already populated, seed skipped")
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok", "database": "up", "redis": "up"}

	if dbHealth := s.db.Health(ctx); dbHealth["status"] != "up" {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = "down"
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		s.logger.Warn("Redis health check failed", zap.Error(err))
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["redis"] = "down"
	}

	custommiddleware.RespondWithJSON(w, status, body)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
