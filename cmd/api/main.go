package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/flightdesk-api/internal/application/aircraft"
	"github.com/flightdesk-api/internal/application/auth"
	"github.com/flightdesk-api/internal/application/authz"
	"github.com/flightdesk-api/internal/application/base"
	"github.com/flightdesk-api/internal/application/identity"
	"github.com/flightdesk-api/internal/application/user"
	"github.com/flightdesk-api/internal/config"
	"github.com/flightdesk-api/internal/domain"
	"github.com/flightdesk-api/internal/infrastructure/dynamo"
	"github.com/flightdesk-api/internal/infrastructure/google"
	jwtinfra "github.com/flightdesk-api/internal/infrastructure/jwt"
	"github.com/flightdesk-api/internal/infrastructure/memory"
	"github.com/flightdesk-api/internal/infrastructure/postgres"
	redisinfra "github.com/flightdesk-api/internal/infrastructure/redis"
	s3infra "github.com/flightdesk-api/internal/infrastructure/s3"
	"github.com/flightdesk-api/internal/infrastructure/seed"
	"github.com/flightdesk-api/internal/infrastructure/smtp"
	"github.com/flightdesk-api/internal/infrastructure/sns"
	"github.com/flightdesk-api/internal/observability"
	transporthttp "github.com/flightdesk-api/internal/transport/http"
	"github.com/flightdesk-api/internal/transport/http/handler"
	"github.com/joho/godotenv"
)

const sweepInterval = time.Minute

// identityBackend is what both the resolver and the user service need.
type identityBackend interface {
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	Get(ctx context.Context, userID string) (*domain.Identity, error)
	Create(ctx context.Context, ident *domain.Identity) error
	Update(ctx context.Context, ident *domain.Identity) error
	List(ctx context.Context, limit int32, cursor string) ([]domain.Identity, string, error)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("aws config: %w", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	checks := map[string]handler.Check{}

	tokens, err := newTokenStore(ctx, cfg, dynamoClient, checks)
	if err != nil {
		return err
	}
	identities, err := newIdentityBackend(ctx, cfg, dynamoClient, checks)
	if err != nil {
		return err
	}

	seedTable, err := seed.Load(cfg.SeedIdentities)
	if err != nil {
		return fmt.Errorf("seed identities: %w", err)
	}
	if seedTable.Len() > 0 {
		slog.Info("seed identities loaded", "count", seedTable.Len())
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	metrics := observability.NewMetrics()
	gate := authz.Gate{BypassAuth: cfg.AuthBypass}
	if cfg.AuthBypass {
		slog.Warn("AUTH_BYPASS is enabled: every authenticated request passes the role/permission gate")
	}

	resolver := identity.NewResolver(identity.ServiceDeps{Seed: seedTable, Store: identities})
	authDeps := auth.ServiceDeps{
		Tokens:      tokens,
		Resolver:    resolver,
		Signer:      jwtProvider,
		Metrics:     metrics,
		BaseURL:     cfg.MagicLinkBaseURL,
		ExposeToken: cfg.MagicLinkExposeToken,
	}
	switch cfg.MagicLinkChannel {
	case "email":
		authDeps.Sender = smtp.NewLinkSender(smtp.NewMailer(cfg))
	case "sns":
		authDeps.Sender = sns.NewLinkSender(sns.NewClient(awsCfg, cfg), cfg.MagicLinkTopicARN)
	default:
		slog.Warn("magic link delivery disabled", "channel", cfg.MagicLinkChannel)
	}
	if cfg.GoogleClientID != "" {
		authDeps.Google = google.NewVerifier(cfg.GoogleClientID)
	}

	baseRepo := dynamo.NewBaseRepo(dynamoClient, cfg.DynamoTables.Bases)
	objects := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg), cfg.S3BucketName)

	deps := &transporthttp.Deps{
		Auth:  auth.NewService(authDeps),
		Users: user.NewService(user.ServiceDeps{IdentityRepo: identities, Gate: gate}),
		Bases: base.NewService(baseRepo),
		Aircraft: aircraft.NewService(aircraft.ServiceDeps{
			AircraftRepo: dynamo.NewAircraftRepo(dynamoClient, cfg.DynamoTables.Aircraft),
			BaseRepo:     baseRepo,
			Objects:      objects,
		}),
		Verifier:   jwtProvider,
		Identities: resolver,
		Gate:       gate,
		Metrics:    metrics,
		Checks:     checks,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv,
			"token_backend", cfg.TokenBackend, "identity_backend", cfg.IdentityBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func newTokenStore(ctx context.Context, cfg *config.Config, dynamoClient dynamo.API, checks map[string]handler.Check) (domain.TokenStore, error) {
	switch cfg.TokenBackend {
	case config.BackendRedis:
		client, err := redisinfra.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return redisinfra.NewTokenStore(client, cfg.MagicLinkTTL), nil
	case config.BackendDynamo:
		return dynamo.NewTokenRepo(dynamoClient, cfg.DynamoTables.Tokens, cfg.MagicLinkTTL), nil
	default:
		store := memory.NewTokenStore(cfg.MagicLinkTTL)
		go store.RunSweeper(ctx, sweepInterval)
		return store, nil
	}
}

func newIdentityBackend(ctx context.Context, cfg *config.Config, dynamoClient dynamo.API, checks map[string]handler.Check) (identityBackend, error) {
	switch cfg.IdentityBackend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		go closeOnDone(ctx, db)
		repo := postgres.NewIdentityRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		checks["postgres"] = db.PingContext
		return repo, nil
	case config.BackendMemory:
		return memory.NewIdentityStore(), nil
	default:
		return dynamo.NewIdentityRepo(dynamoClient, cfg.DynamoTables.Users), nil
	}
}

func closeOnDone(ctx context.Context, db *sql.DB) {
	<-ctx.Done()
	_ = db.Close()
}

func setupLogger(cfg *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") || cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
