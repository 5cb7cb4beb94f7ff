package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/cli/config"
	"github.com/secmon-lab/portalos/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdCheck() *cli.Command {
	var timeout time.Duration
	var portalCfg config.Portal
	var dirCfg config.Directory

	flags := []cli.Flag{
		&cli.DurationFlag{
			Name:        "probe-timeout",
			Usage:       "Timeout of each probe request",
			Value:       10 * time.Second,
			Sources:     cli.EnvVars("PORTALOS_PROBE_TIMEOUT"),
			Destination: &timeout,
		},
	}
	flags = append(flags, portalCfg.Flags()...)
	flags = append(flags, dirCfg.Flags()...)

	return &cli.Command{
		Name:  "check",
		Usage: "Check that the directory and every view answer",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			portal, err := portalCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load portal configuration")
			}
			catalog, err := portal.ViewCatalog()
			if err != nil {
				return goerr.Wrap(err, "failed to build view catalog")
			}
			dir, err := dirCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure directory client")
			}

			client := &http.Client{Timeout: timeout}
			results := usecase.Probe(ctx, client, usecase.ProbeTargets(dir.Endpoint(), catalog))

			ok := color.New(color.FgGreen, color.Bold).SprintFunc()
			ng := color.New(color.FgRed, color.Bold).SprintFunc()
			dim := color.New(color.Faint).SprintFunc()

			var failed int
			for _, r := range results {
				if r.OK() {
					fmt.Fprintf(color.Output, "%s %-16s %d %s\n", ok("OK"), r.Target.Name, r.Status, dim(r.Latency.Round(time.Millisecond)))
					continue
				}
				failed++
				detail := fmt.Sprintf("status %d", r.Status)
				if r.Err != nil {
					detail = r.Err.Error()
				}
				fmt.Fprintf(color.Output, "%s %-16s %s\n", ng("NG"), r.Target.Name, detail)
				fmt.Fprintf(color.Output, "   %s\n", dim(r.Target.URL))
			}

			if failed > 0 {
				return goerr.New("some upstreams are unreachable", goerr.V("failed", failed), goerr.V("total", len(results)))
			}
			return nil
		},
	}
}
