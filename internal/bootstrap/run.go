package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/socialadify/adify-console/config"
)

const shutdownWaitTimeout = 10 * time.Second

// RunOptions configures Run.
type RunOptions struct {
	Config    *config.AppConfig
	Templates fs.FS
	Logger    *slog.Logger
	// Console is optional; when nil Run builds and closes its own.
	Console *Console
	// Ready is called with the listening address once the server accepts connections.
	Ready func(net.Addr)
}

// Run serves the console and restores the stored session in parallel.
// Requests that arrive before hydration finishes get the loading placeholder.
// Run returns when ctx is cancelled or the server fails.
func Run(ctx context.Context, opts RunOptions) (err error) {
	if opts.Config == nil {
		return errors.New("run requires an AppConfig")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	console := opts.Console
	if console == nil {
		console, err = NewConsole(ctx, ConsoleDeps{Config: opts.Config, Logger: logger})
		if err != nil {
			return err
		}
		defer func() {
			if cerr := console.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close console: %w", cerr))
			}
		}()
	}

	handler, err := console.HTTPHandler(opts.Config, opts.Templates)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	server := NewHTTPServer(opts.Config.HTTP.Addr, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ServeHTTP(gctx, server, logger, opts.Ready)
	})
	g.Go(func() error {
		if hydrateErr := console.Session.Hydrate(gctx); hydrateErr != nil && !errors.Is(hydrateErr, context.Canceled) {
			return fmt.Errorf("hydrate session: %w", hydrateErr)
		}
		snap := console.Session.Snapshot()
		logger.InfoContext(gctx, "session ready", "state", snap.State, "authenticated", snap.IsAuthenticated())
		return nil
	})
	return g.Wait()
}
