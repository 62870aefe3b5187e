package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/carnetdigital/carnet-api/internal/api"
	"github.com/carnetdigital/carnet-api/internal/auth"
	"github.com/carnetdigital/carnet-api/internal/config"
	"github.com/carnetdigital/carnet-api/internal/database"
	"github.com/carnetdigital/carnet-api/internal/storage"
	"github.com/carnetdigital/carnet-api/internal/token"
	"github.com/carnetdigital/carnet-api/internal/users"
	"github.com/redis/go-redis/v9"
)

const version = "0.0.1"

func main() {
	configPath := flag.String("config", "app.yml", "Path to configuration file")
	flag.Parse()

	log.Printf("Starting Carnet API v%s with config: %s", version, *configPath)

	// Deferred cleanup in run has to fire on the error path too, so the
	// fatal exit happens out here
	if err := run(*configPath); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.IsInsecureSecret() {
		log.Println("WARNING: running with the built-in JWT secret; override jwt.secret before going to production")
	}

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	userStore := users.NewSQLStore(db, cfg.Database.Type)
	tokenStore := token.NewSQLStore(db, cfg.Database.Type)

	hasher := auth.NewBcryptHasher()
	userSvc := users.NewService(userStore, hasher)
	tokenSvc := token.NewService(tokenStore, userStore)

	var issuer auth.TokenIssuer
	var authenticator auth.Authenticator
	switch cfg.Auth.Strategy {
	case "opaque":
		log.Println("Using the DB-backed opaque token strategy")
		issuer = auth.NewOpaqueIssuer(tokenSvc, userSvc)
		authenticator = auth.NewOpaqueAuthenticator(tokenSvc, userSvc)
	default:
		manager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
		issuer = auth.NewJWTIssuer(manager, userSvc)
		authenticator = auth.NewJWTAuthenticator(manager)
	}

	var limiter *auth.LoginLimiter
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		limiter = auth.NewLoginLimiter(client, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)
		log.Printf("Login rate limiting enabled: %d attempts per %s", cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)
	}

	coordinator := auth.NewCoordinator(userSvc, hasher, issuer, limiter)

	var reporter token.Reporter
	var archive api.ReportArchive
	if cfg.S3.Enabled {
		s3Client, err := storage.NewS3Client(
			cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.Bucket,
			cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey,
		)
		if err != nil {
			return err
		}
		reporter = s3Client
		archive = s3Client
	}

	if cfg.Cleanup.Enabled {
		cleaner := token.NewCleaner(tokenSvc, cfg.Cleanup.Hour, reporter)
		cleaner.Start()
		defer cleaner.Stop()
	}

	app := api.NewApi(cfg, userSvc, tokenSvc, coordinator, authenticator, archive)

	errCh := make(chan error, 1)
	go func() { errCh <- app.Serve() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("Received %s, shutting down", sig)
		return nil
	}
}
