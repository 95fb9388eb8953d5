package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/socialadify/adify-console/config"
	"github.com/socialadify/adify-console/internal/bootstrap"
)

type commandFn func(cmdCtx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

// commandContext carries what every command needs. Console is opened lazily so
// usage errors never touch storage.
type commandContext struct {
	Ctx     context.Context
	Logger  *slog.Logger
	Config  config.AppConfig
	Out     io.Writer
	Prompts prompter

	console *bootstrap.Console
}

// session returns the wired console, restoring the stored session on first use.
func (c *commandContext) session() (*bootstrap.Console, error) {
	if c.console != nil {
		return c.console, nil
	}
	con, err := bootstrap.NewConsole(c.Ctx, bootstrap.ConsoleDeps{Config: &c.Config, Logger: c.Logger})
	if err != nil {
		return nil, err
	}
	if err := con.Session.Hydrate(c.Ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("restore session: %w", err), con.Close())
	}
	c.console = con
	return con, nil
}

func (c *commandContext) close() error {
	if c.console == nil {
		return nil
	}
	return c.console.Close()
}

func main() {
	logger := bootstrap.InitLogger(slog.LevelWarn)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	if cfg.IsDev {
		logger = bootstrap.InitLogger(cfg.SlogLevel())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	cmdCtx := &commandContext{
		Ctx:     ctx,
		Logger:  logger,
		Config:  cfg,
		Out:     os.Stdout,
		Prompts: newTerminalPrompter(os.Stdin, os.Stderr),
	}
	runErr := cmd.run(cmdCtx, os.Args[2:])
	if closeErr := cmdCtx.close(); closeErr != nil {
		logger.Warn("close console failed", "error", closeErr)
	}
	stop()
	if runErr != nil {
		if werr := writef(os.Stderr, "%s: %s\n", cmdName, userMessage(runErr)); werr != nil {
			logger.Error("print error failed", "error", werr)
		}
		logger.Debug("command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Log in and store the session for the console",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Forget the stored session",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the logged-in account",
			run:         runWhoami,
		},
		"signup": {
			name:        "signup",
			description: "Create an account",
			run:         runSignup,
		},
		"passwd": {
			name:        "passwd",
			description: "Change the account password (logs out)",
			run:         runPasswd,
		},
		"refresh": {
			name:        "refresh",
			description: "Re-fetch the account from the API",
			run:         runRefresh,
		},
		"status": {
			name:        "status",
			description: "Print the session snapshot as JSON",
			run:         runStatus,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: adifyctl <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-10s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

// readLine reads one line without the trailing newline.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}
