package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	_ "github.com/sbilibin2017/bookworm/docs"
	"github.com/sbilibin2017/bookworm/internal/config"
	"github.com/sbilibin2017/bookworm/internal/facades"
	"github.com/sbilibin2017/bookworm/internal/handlers"
	"github.com/sbilibin2017/bookworm/internal/jobs"
	"github.com/sbilibin2017/bookworm/internal/jwt"
	"github.com/sbilibin2017/bookworm/internal/logger"
	"github.com/sbilibin2017/bookworm/internal/metrics"
	"github.com/sbilibin2017/bookworm/internal/middlewares"
	"github.com/sbilibin2017/bookworm/internal/migrations"
	"github.com/sbilibin2017/bookworm/internal/repositories"
	"github.com/sbilibin2017/bookworm/internal/services"
	"github.com/sbilibin2017/bookworm/internal/validation"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title bookworm API
// @version 1.0.0
// @description Social book recommendations: share a book with a cover, a caption and a rating, browse everyone's picks.
// @host localhost:3000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Build version: %s\nBuild date: %s\nBuild commit: %s\n", buildVersion, buildDate, buildCommit)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// routes bundles the handlers mounted by newRouter.
type routes struct {
	register   http.HandlerFunc
	login      http.HandlerFunc
	createBook http.HandlerFunc
	listBooks  http.HandlerFunc
	userBooks  http.HandlerFunc
	deleteBook http.HandlerFunc
	auth       func(http.Handler) http.Handler
}

// newRouter builds the HTTP surface: public auth endpoints behind a per-IP
// rate limit, the protected book endpoints, metrics and swagger.
func newRouter(cfg *config.Config, rt routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middlewares.RequestIDHeader},
		ExposedHeaders: []string{middlewares.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.RequestSize(cfg.MaxRequestBodySize))

		r.Route("/auth", func(r chi.Router) {
			r.Use(httprate.LimitByIP(cfg.AuthRateLimitRPM, time.Minute))
			r.Post("/register", rt.register)
			r.Post("/login", rt.login)
		})

		r.Route("/books", func(r chi.Router) {
			r.Use(rt.auth)
			r.Post("/", rt.createBook)
			r.Get("/", rt.listBooks)
			r.Get("/user", rt.userBooks)
			r.Delete("/{id}", rt.deleteBook)
		})
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	return r
}

// newKafkaWriter returns nil when no brokers are configured.
func newKafkaWriter(cfg *config.Config) *kafka.Writer {
	if !cfg.KafkaEnabled() {
		return nil
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Log.Errorw("failed to deliver book events", "count", len(messages), "error", err)
			}
		},
	}
}

// run initializes the logger, database, Redis, image store, Kafka and HTTP server.
// It sets up routes, applies middleware, and handles graceful shutdown.
func run(ctx context.Context, cfg *config.Config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	// Connect to PostgreSQL
	logger.Log.Infow("Connecting to PostgreSQL", "host", cfg.PostgresHost, "port", cfg.PostgresPort, "db", cfg.PostgresDB)
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PostgresMaxOpenConns)
	db.SetMaxIdleConns(cfg.PostgresMaxIdleConns)

	if err := migrations.Up(cfg.PostgresDSN()); err != nil {
		return err
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis connection error: %w", err)
	}
	defer rdb.Close()

	// Image store
	if !cfg.CloudinaryEnabled() {
		return errors.New("cloudinary credentials are not configured")
	}
	images, err := facades.NewCloudinaryImageFacade(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return fmt.Errorf("cloudinary client error: %w", err)
	}

	// Kafka
	var kafkaWriter services.KafkaWriter
	if w := newKafkaWriter(cfg); w != nil {
		kafkaWriter = w
		defer w.Close()
	} else {
		logger.Log.Info("Kafka brokers not configured, book events disabled")
	}

	// Initialize JWT service
	tokens := jwt.New(cfg.JWTSecretKey, cfg.JWTExp)
	validator := validation.New()

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db)
	userWriteRepo := repositories.NewUserWriteRepository(db)
	userCacheRepo := repositories.NewUserCacheRepository(rdb, cfg.UserCacheTTL)
	bookReadRepo := repositories.NewBookReadRepository(db)
	bookWriteRepo := repositories.NewBookWriteRepository(db)

	// Initialize services
	authService := services.NewAuthService(userReadRepo, userWriteRepo, userCacheRepo, tokens, validator)
	bookService := services.NewBookService(bookReadRepo, bookWriteRepo, images, kafkaWriter, validator)

	// Setup router
	r := newRouter(cfg, routes{
		register:   handlers.NewRegisterHandler(authService),
		login:      handlers.NewLoginHandler(authService),
		createBook: handlers.NewCreateBookHandler(bookService),
		listBooks:  handlers.NewListBooksHandler(bookService),
		userBooks:  handlers.NewUserBooksHandler(bookService),
		deleteBook: handlers.NewDeleteBookHandler(bookService),
		auth:       middlewares.AuthMiddleware(tokens, authService),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Keep-alive
	if cfg.KeepAliveURL != "" {
		keepAlive, err := jobs.NewKeepAlive(cfg.KeepAliveURL, cfg.KeepAliveSchedule)
		if err != nil {
			return err
		}
		keepAlive.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			keepAlive.Stop(stopCtx)
		}()
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
