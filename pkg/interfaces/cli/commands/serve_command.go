package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/balance/pkg/infrastructure/metrics"
	"github.com/vsinha/balance/pkg/interfaces/mcp"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(rt *runtime, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the optimize_inventory tool over MCP stdio",
		Long: `Serve runs a Model Context Protocol server on stdin/stdout exposing the
optimize_inventory tool. With --metrics-addr, solve metrics are also served
in Prometheus format at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())
			if err := rt.events.Subscribe(metrics.HandledEvents(), exporter); err != nil {
				return fmt.Errorf("failed to subscribe metrics exporter: %w", err)
			}

			server := mcp.NewServer(rt.service, rt.logger, version)
			runCtx, stop := context.WithCancel(cmd.Context())
			defer stop()
			g, ctx := errgroup.WithContext(runCtx)

			if addr := rt.cfg.Metrics.Addr; addr != "" {
				httpServer := newMetricsServer(addr, exporter)
				g.Go(func() error {
					rt.logger.Info("serving metrics", zap.String("addr", addr))
					if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return fmt.Errorf("metrics server failed: %w", err)
					}
					return nil
				})
				g.Go(func() error {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					return httpServer.Shutdown(shutdownCtx)
				})
			}

			g.Go(func() error {
				// The metrics endpoint lives only as long as the MCP session
				defer stop()
				err := server.Run(ctx)
				if errors.Is(ctx.Err(), context.Canceled) {
					return nil
				}
				return err
			})
			return g.Wait()
		},
	}
	cmd.Flags().String("metrics-addr", "", "address for the Prometheus /metrics endpoint (disabled when empty)")
	mustBind(rt.v, "metrics.addr", cmd.Flags().Lookup("metrics-addr"))
	return cmd
}

func newMetricsServer(addr string, exporter *metrics.PrometheusExporter) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", exporter.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
