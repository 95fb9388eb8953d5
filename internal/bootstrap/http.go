package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/socialadify/adify-console/config"
	httpx "github.com/socialadify/adify-console/internal/http"
)

type httpHandlerConfig struct {
	Config    *config.AppConfig
	Console   *Console
	Templates fs.FS
	Logger    *slog.Logger
}

func buildHTTPHandler(cfg httpHandlerConfig) (http.Handler, error) {
	if cfg.Config == nil || cfg.Console == nil {
		return nil, errors.New("http handler requires config and console")
	}
	return httpx.NewRouter(httpx.RouterServices{
		Session:    cfg.Console.Session,
		Tokens:     cfg.Console.Tokens,
		TemplateFS: cfg.Templates,
		Paths: httpx.NavPaths{
			Login:  cfg.Config.Nav.LoginPath,
			Home:   cfg.Config.Nav.HomePath,
			Signup: cfg.Config.Nav.SignupPath,
		},
		CookieDomain: cfg.Config.HTTP.CookieDomain,
		Logger:       cfg.Logger,
	})
}

// NewHTTPServer returns a server for handler on addr with the console's timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on all interfaces.
	if addr == "" {
		addr = "127.0.0.1:3000"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ServeHTTP listens on server.Addr and serves until ctx is cancelled, then
// shuts down gracefully. ready, when non-nil, receives the bound address.
func ServeHTTP(ctx context.Context, server *http.Server, logger *slog.Logger, ready func(net.Addr)) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", server.Addr)
	if err != nil {
		return err
	}
	logger.Info("starting HTTP server", "addr", ln.Addr().String())
	if ready != nil {
		ready(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		if serveErr := server.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return ShutdownHTTPServer(server, logger)
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
