package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/socialadify/adify-console/config"
	"github.com/socialadify/adify-console/internal/adapters/apiclient"
	"github.com/socialadify/adify-console/internal/observability/statsd"
	"github.com/socialadify/adify-console/internal/ports"
	"github.com/socialadify/adify-console/internal/service"
)

// ConsoleDeps are the inputs for wiring the session core.
type ConsoleDeps struct {
	Config *config.AppConfig
	// KV overrides the configured storage backend; the caller then owns its lifecycle.
	KV ports.KeyValueStore
	// HTTPClient is optional and handed to the gateway.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Console is the wired session core shared by the web console and the CLI.
type Console struct {
	Gateway *apiclient.Gateway
	Tokens  *service.TokenStore
	Session *service.SessionStore
	Metrics *statsd.Client

	storage *Storage
	logger  *slog.Logger
}

// NewConsole opens storage and builds the gateway, token store and session store.
// Close releases everything it opened.
func NewConsole(ctx context.Context, deps ConsoleDeps) (*Console, error) {
	if deps.Config == nil {
		return nil, errors.New("console requires an AppConfig")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metricsClient := buildMetrics(logger, cfg.Observability)

	gateway, err := apiclient.NewGateway(apiclient.Options{
		Config: apiclient.Config{
			BaseURL:   cfg.API.BaseURL,
			Endpoints: endpointsFrom(cfg.API),
			Timeout:   cfg.API.Timeout,
			UserAgent: cfg.API.UserAgent,
			Logger:    logger,
			Metrics:   metricsClient,
		},
		HTTPClient: deps.HTTPClient,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("build gateway: %w", err), metricsClient.Close())
	}

	c := &Console{Gateway: gateway, Metrics: metricsClient, logger: logger}
	kv := deps.KV
	if kv == nil {
		st, openErr := OpenStorage(ctx, StorageConfig{Storage: cfg.Storage, Redis: cfg.Redis, Logger: logger})
		if openErr != nil {
			return nil, errors.Join(fmt.Errorf("open storage: %w", openErr), metricsClient.Close())
		}
		c.storage = st
		kv = st.KV
	}

	namespace := cfg.Storage.Namespace
	if namespace == "" {
		namespace = gateway.Origin()
	}
	c.Tokens = service.NewTokenStore(service.TokenStoreOptions{
		KV:     kv,
		Config: service.TokenStoreConfig{Namespace: namespace, LoginPath: cfg.Nav.LoginPath},
		Logger: logger,
	})
	c.Session = service.NewSessionStore(service.SessionStoreOptions{
		Gateway: gateway,
		Tokens:  c.Tokens,
		Config: service.SessionConfig{
			LoginPath:  cfg.Nav.LoginPath,
			HomePath:   cfg.Nav.HomePath,
			SignupPath: cfg.Nav.SignupPath,
			Logger:     logger,
			Metrics:    metricsClient,
		},
	})
	return c, nil
}

// Close releases storage and the metrics connection.
func (c *Console) Close() error {
	if c == nil {
		return nil
	}
	return errors.Join(c.storage.Close(), c.Metrics.Close())
}

// HTTPHandler builds the console router over the session core.
func (c *Console) HTTPHandler(cfg *config.AppConfig, templates fs.FS) (http.Handler, error) {
	return buildHTTPHandler(httpHandlerConfig{
		Config:    cfg,
		Console:   c,
		Templates: templates,
		Logger:    c.logger,
	})
}

func endpointsFrom(api config.APIConfig) apiclient.Endpoints {
	return apiclient.Endpoints{
		Login:    api.LoginPath,
		Signup:   api.SignupPath,
		Me:       api.MePath,
		Profile:  api.ProfilePath,
		Password: api.PasswordPath,
		Delete:   api.DeletePath,
		Forgot:   api.ForgotPath,
		Reset:    api.ResetPath,
	}
}

// buildMetrics never fails: without a reachable agent metrics are dropped.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityConfig) *statsd.Client {
	if !cfg.Metrics.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  cfg.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}
