package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/cli/config"
	httpctrl "github.com/secmon-lab/portalos/pkg/controller/http"
	"github.com/secmon-lab/portalos/pkg/service/worker"
	"github.com/secmon-lab/portalos/pkg/usecase"
	"github.com/secmon-lab/portalos/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// viewerSweepInterval is how often idle tab hosts are evicted
const viewerSweepInterval = 10 * time.Minute

func cmdServe(version string) *cli.Command {
	var addr string
	var probeInterval time.Duration
	var portalCfg config.Portal
	var repoCfg config.Repository
	var dirCfg config.Directory
	var sessionCfg config.Session

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("PORTALOS_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "probe-interval",
			Usage:       "Interval of the directory and view reachability check. 0 disables it",
			Value:       10 * time.Minute,
			Sources:     cli.EnvVars("PORTALOS_PROBE_INTERVAL"),
			Destination: &probeInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, portalCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, dirCfg.Flags()...)
	flags = append(flags, sessionCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			portal, err := portalCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load portal configuration")
			}
			catalog, err := portal.ViewCatalog()
			if err != nil {
				return goerr.Wrap(err, "failed to build view catalog")
			}

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			dir, err := dirCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure directory client")
			}

			cookieKey, err := sessionCfg.CookieKey()
			if err != nil {
				return err
			}

			ucOpts := []usecase.Option{
				usecase.WithSessionTTL(sessionCfg.TokenTTL()),
				usecase.WithViewerIdleTTL(sessionCfg.ViewerTTL()),
				usecase.WithViewerLimit(sessionCfg.MaxViewers()),
			}

			if sessionCfg.IsNoAuthMode() {
				identity, err := sessionCfg.NoAuthIdentity()
				if err != nil {
					return err
				}
				ucOpts = append(ucOpts, usecase.WithAuth(usecase.NewNoAuthnUseCase(*identity)))
				logging.Default().Warn("Running in no-auth mode (development only)",
					"username", identity.Username,
					"role", identity.Role,
				)
			}

			uc := usecase.New(repo, dir, catalog, ucOpts...)

			sweepCtx, stopSweep := context.WithCancel(ctx)
			defer stopSweep()
			go uc.View.RunSweeper(sweepCtx, viewerSweepInterval)

			httpOpts := []httpctrl.Options{
				httpctrl.WithCookieKey(cookieKey),
				httpctrl.WithSecureCookie(sessionCfg.SecureCookie()),
				httpctrl.WithLanding(portal.Title, portal.Notice),
				httpctrl.WithVersion(version),
			}

			var probeWorker *worker.UpstreamProbeWorker
			if probeInterval > 0 {
				probeWorker = worker.NewUpstreamProbeWorker(
					&http.Client{Timeout: 30 * time.Second},
					usecase.ProbeTargets(dir.Endpoint(), catalog),
					probeInterval,
				)
				probeWorker.Start(ctx)
				defer probeWorker.Stop()
				httpOpts = append(httpOpts, httpctrl.WithUpstreamStatus(probeWorker.Last))
			}

			httpHandler, err := httpctrl.New(uc, httpOpts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server",
					"addr", addr,
					"repository", repoCfg,
					"directory", dirCfg,
					"session", sessionCfg,
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)
				stopSweep()
				if probeWorker != nil {
					probeWorker.Stop()
				}

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
