package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/nbrun/internal/observability"
	"github.com/3leaps/nbrun/internal/server"
	"github.com/3leaps/nbrun/internal/server/handlers"
	"github.com/3leaps/nbrun/pkg/runner"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the HTTP API server.

The server exposes the execution pipeline over REST:
  POST   /v1/executions          submit a notebook execution
  GET    /v1/executions          list jobs
  GET    /v1/executions/{name}   job status
  DELETE /v1/executions/{name}   stop a job

plus /health, /health/live, /health/ready, and /version.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Bind host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Bind port (default from config)")
}

// identityHealthChecker verifies the ambient AWS identity is still
// resolvable. A failure means submissions would fail too.
type identityHealthChecker struct {
	resolver runner.IdentityResolver
}

func (c identityHealthChecker) CheckHealth(ctx context.Context) error {
	_, err := c.resolver.Resolve(ctx)
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := newRunner(ctx)
	if err != nil {
		return err
	}

	hm := handlers.InitHealthManager(versionInfo.Version)
	hm.RegisterChecker("identity", identityHealthChecker{resolver: r.Resolver()})

	host := serveHost
	if host == "" {
		host = runtimeConfig.Server.Host
	}
	port := servePort
	if port == 0 {
		port = runtimeConfig.Server.Port
	}

	srv := server.New(host, port, r)
	observability.ServerLogger.Info("Starting API server",
		zap.String("host", host), zap.Int("port", port),
		zap.String("version", versionInfo.Version))

	if err := srv.Run(ctx, runtimeConfig.Server); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Server failed", err)
	}
	return nil
}
