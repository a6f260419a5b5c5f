// Command cms-proxy exposes the CMS client over HTTP with normalized output,
// server-side caching and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/cms-client/pkg/auth"
	"github.com/Sternrassler/cms-client/pkg/cache"
	"github.com/Sternrassler/cms-client/pkg/client"
	"github.com/Sternrassler/cms-client/pkg/logging"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Config is read from the environment.
type Config struct {
	CMS  CMSConfig
	Auth AuthConfig

	RedisURL       string        `env:"REDIS_URL"`
	Port           string        `env:"PORT" env-default:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" env-default:"30s"`
	LogLevel       string        `env:"LOG_LEVEL" env-default:"info"`
	LogPretty      bool          `env:"LOG_PRETTY" env-default:"false"`
}

type CMSConfig struct {
	BaseURL     string `env:"CMS_BASE_URL" env-required:"true"`
	FileBaseURL string `env:"CMS_FILE_BASE_URL"`
	Tenant      string `env:"CMS_TENANT"`
	APIKey      string `env:"CMS_API_KEY"`
	UserAgent   string `env:"CMS_USER_AGENT"`
}

// AuthConfig selects the token provider. Client credentials win over a
// static token; with neither set requests go out unauthenticated.
type AuthConfig struct {
	TokenURL     string   `env:"CMS_TOKEN_URL"`
	ClientID     string   `env:"CMS_CLIENT_ID"`
	ClientSecret string   `env:"CMS_CLIENT_SECRET"`
	Scopes       []string `env:"CMS_SCOPES" env-separator:","`
	StaticToken  string   `env:"CMS_TOKEN"`
}

func main() {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "cms-proxy: %v\n", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cms-proxy: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(logging.Config{Level: level, Pretty: cfg.LogPretty, Output: os.Stderr})
	logger := logging.NewLogger(logging.ComponentProxy)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func run(cfg Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to Redis: %w", err)
		}
		logger.Info().Str("redis", cfg.RedisURL).Msg("Connected to Redis")
	}

	cmsClient, err := newClient(cfg, redisClient)
	if err != nil {
		return err
	}
	defer cmsClient.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newServer(cmsClient, redisClient, cfg.RequestTimeout, logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("base_url", cmsClient.Config().BaseURL).
			Bool("cache", redisClient != nil).
			Msg("Starting CMS proxy")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newClient(cfg Config, redisClient *redis.Client) (*client.Client, error) {
	tokens, err := auth.FromConfig(auth.ClientCredentialsConfig{
		TokenURL:     cfg.Auth.TokenURL,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		Scopes:       cfg.Auth.Scopes,
	}, cfg.Auth.StaticToken)
	if err != nil {
		return nil, err
	}

	clientCfg := client.DefaultConfig(cfg.CMS.BaseURL)
	clientCfg.FileBaseURL = cfg.CMS.FileBaseURL
	clientCfg.Tenant = cfg.CMS.Tenant
	clientCfg.APIKey = cfg.CMS.APIKey
	clientCfg.Auth = tokens
	clientCfg.Redis = redisClient
	if cfg.CMS.UserAgent != "" {
		clientCfg.UserAgent = cfg.CMS.UserAgent
	}

	return client.New(clientCfg)
}
