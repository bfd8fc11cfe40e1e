package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivia-builder-service/internal/app"
	"trivia-builder-service/internal/auth"
	"trivia-builder-service/internal/config"
	"trivia-builder-service/internal/infra/memory"
	pgstore "trivia-builder-service/internal/infra/postgres"
	redisinfra "trivia-builder-service/internal/infra/redis"
	transport "trivia-builder-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the builder server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	sessionTTL := config.TTLDuration(cfg.Builder.SessionTTL, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	cacheTTL := config.TTLDuration(cfg.Cache.TTL, 10*time.Minute)

	var sets app.SetRepository
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		sets = pgstore.NewSetStore(pool)
		if redisClient != nil {
			sets = redisinfra.NewSetCache(redisClient, sets, cacheTTL)
		} else {
			sets = memory.NewSetCache(sets, cacheTTL)
		}
	} else {
		log.Printf("postgres not configured, sets are kept in memory")
		sets = memory.NewSetStore()
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}
	service := app.NewBuilderService(sets, sessions, auth.ContextIdentity{})

	var verifier *auth.TokenVerifier
	if secret := jwtSecret(cfg.Auth.JWTSecret); secret != "" {
		verifier = auth.NewTokenVerifier(secret)
	} else {
		log.Printf("no jwt secret configured, trusting userId query param")
	}

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(service, transport.NewAuthenticator(verifier)),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia builder on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
