package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/aidmatch/internal/api"
	"github.com/ppiankov/aidmatch/internal/metrics"
)

var (
	serveHost      string
	servePort      int
	serveProviders string
	serveRegistry  string
	serveReload    time.Duration
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the verification and matching API over HTTP",
	Long: `Serve exposes every operation over HTTP with Prometheus metrics at /metrics.
The provider list and identity registry are loaded at startup and, with
--reload, re-read periodically. Unchanged files are served from cache.

Example:
  aidmatch serve --providers providers.yaml --registry registry.yaml
  aidmatch serve --port 9090 --reload 1m`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (default: server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default: server.port)")
	serveCmd.Flags().StringVar(&serveProviders, "providers", "", "provider list (default: server.providers_file)")
	serveCmd.Flags().StringVar(&serveRegistry, "registry", "", "identity registry (default: server.registry_file)")
	serveCmd.Flags().DurationVar(&serveReload, "reload", 0, "snapshot reload interval (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	a, err := newApp(m)
	if err != nil {
		return err
	}
	if serveHost != "" {
		a.config.Server.Host = serveHost
	}
	if servePort > 0 {
		a.config.Server.Port = servePort
	}
	if err := a.loadSnapshot(ctx, serveProviders, serveRegistry); err != nil {
		return err
	}

	server := api.NewServer(api.Options{
		Config:   a.config,
		Pipeline: a.pipeline,
		Logger:   a.logger,
		Metrics:  m,
		Gatherer: reg,
		Version:  Version,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx)
	})
	if serveReload > 0 {
		g.Go(func() error {
			a.reloadLoop(ctx, serveReload)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// reloadLoop re-reads the snapshot files until ctx ends. A failed reload
// keeps the previous snapshot.
func (a *app) reloadLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.loadSnapshot(ctx, serveProviders, serveRegistry); err != nil {
				a.logger.WithError(err).Warn("Snapshot reload failed, keeping previous snapshot")
				continue
			}
			a.logger.Debug("Snapshot reloaded")
		}
	}
}
