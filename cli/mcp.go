// ABOUTME: MCP server subcommand
// ABOUTME: Serves CRM tools on stdio with an outbox retry loop and optional prometheus endpoint
package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/harperreed/crmdesk/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MCPCommand starts the MCP server on stdio and blocks until the client
// disconnects or ctx is cancelled.
func MCPCommand(ctx context.Context, app *App, version string, args []string) error {
	fs := newFlagSet("mcp")
	metricsAddr := fs.String("metrics-addr", "", "Serve prometheus metrics on this address (e.g. :9090)")
	retry := fs.Duration("retry-interval", 30*time.Second, "How often undelivered activity events are retried")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app.Logger.Info("starting MCP server", zap.String("backend", app.Config.Backend))
	server := handlers.NewServer(app.Service, app.Metrics, version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Service.Outbox().Run(gctx, *retry)
		return nil
	})

	if *metricsAddr != "" && app.Telemetry != nil {
		srv := &http.Server{
			Addr:              *metricsAddr,
			Handler:           app.Telemetry.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			app.Logger.Info("serving metrics", zap.String("addr", *metricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		// The stdio session ending stops the retry loop and metrics server.
		defer cancel()
		return server.Run(gctx, &mcp.StdioTransport{})
	})
	return g.Wait()
}
