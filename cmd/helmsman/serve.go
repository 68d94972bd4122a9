package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/helmlabs/helmsman/internal/browser"
	"github.com/helmlabs/helmsman/internal/config"
	"github.com/helmlabs/helmsman/internal/logging"
	mcpserver "github.com/helmlabs/helmsman/internal/mcp"
	"github.com/helmlabs/helmsman/internal/recorder"
	"github.com/helmlabs/helmsman/internal/tools"
)

const serverVersion = "1.0.0"

// ServeCmd creates the serve command (tool server only)
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the browser tool server",
		Long: `Start the MCP server that exposes the browser tools.

With the stdio transport (the default) the server speaks MCP on
stdin/stdout, which is how a client that spawned it as a subprocess talks
to it. With the http transport it serves the streamable MCP endpoint at
/mcp instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyServeFlags(cmd, Cfg)
			return runServe(*Cfg)
		},
	}

	f := cmd.Flags()
	f.String("browser", "", "browser to drive: chromium, firefox, webkit, chrome, msedge")
	f.Bool("headless", false, "run the browser without a visible window")
	f.Int("timeout", 0, "default element wait in seconds")
	f.Bool("advanced-tools", false, "expose the advanced tool tier from the start")
	f.Bool("undetected", false, "launch with automation markers hidden and paced actions")
	f.String("transport", "", "transport to serve on: stdio or http")
	f.String("http-addr", "", "listen address for the http transport")

	return cmd
}

// applyServeFlags overrides config values with explicitly set flags.
func applyServeFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("browser") {
		c.Server.Browser, _ = f.GetString("browser")
	}
	if f.Changed("headless") {
		c.Server.Headless, _ = f.GetBool("headless")
	}
	if f.Changed("timeout") {
		c.Server.TimeoutSeconds, _ = f.GetInt("timeout")
	}
	if f.Changed("advanced-tools") {
		c.Server.AdvancedTools, _ = f.GetBool("advanced-tools")
	}
	if f.Changed("undetected") {
		c.Server.Undetected, _ = f.GetBool("undetected")
	}
	if f.Changed("transport") {
		c.Server.Transport, _ = f.GetString("transport")
	}
	if f.Changed("http-addr") {
		c.Server.HTTPAddr, _ = f.GetString("http-addr")
	}
}

func runServe(c config.Config) error {
	// Stdout belongs to the stdio transport, so logs go to a file plus
	// stderr.
	if err := logging.SetFile(c.Logging.Dir, "server.log", c.Logging.Quiet); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	session := browser.New(browser.Options{
		Kind:         c.Server.Browser,
		Headless:     c.Server.Headless,
		Timeout:      time.Duration(c.Server.TimeoutSeconds) * time.Second,
		Undetected:   c.Server.Undetected,
		PaceOffset:   time.Duration(c.Server.PaceOffset * float64(time.Second)),
		PaceVariance: time.Duration(c.Server.PaceVariance * float64(time.Second)),
	})
	defer func() {
		if session.Running() {
			if err := session.Quit(); err != nil {
				logging.Errorf("Error closing browser: %v", err)
			}
		}
	}()

	rec := recorder.New(c.Server.RecordingsDir, nil)
	registry := tools.NewSet(tools.Deps{
		Session:        session,
		Recorder:       rec,
		ScreenshotsDir: c.Server.ScreenshotsDir,
	})
	if c.Server.AdvancedTools {
		registry.EnableAdvanced()
	}
	srv := mcpserver.NewServer(registry, serverVersion)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Infof("Received signal: %v, shutting down", sig)
		cancel()
	}()

	switch c.Server.Transport {
	case "stdio":
		logging.Info("Serving MCP over stdio")
		return srv.RunStdio(ctx)
	case "http":
		return serveHTTP(ctx, c.Server.HTTPAddr, srv)
	default:
		return fmt.Errorf("unknown transport: %s (must be stdio or http)", c.Server.Transport)
	}
}

func serveHTTP(ctx context.Context, addr string, srv *mcpserver.Server) error {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Handle("/mcp", srv.Handler())
	router.Handle("/mcp/*", srv.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	httpServer := &http.Server{Addr: addr, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		httpServer.Shutdown(shutdownCtx)
	}()

	logging.Infof("Serving MCP at http://%s/mcp", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
