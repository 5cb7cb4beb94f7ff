package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/service/directory"
	"github.com/urfave/cli/v3"
)

// Directory holds CLI flags for the remote user directory
type Directory struct {
	endpoint string
	timeout  time.Duration
}

// Flags returns CLI flags for directory configuration
func (x *Directory) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "directory-endpoint",
			Usage:       "URL of the user directory script service",
			Value:       directory.DefaultEndpoint,
			Category:    "Directory",
			Sources:     cli.EnvVars("PORTALOS_DIRECTORY_ENDPOINT"),
			Destination: &x.endpoint,
		},
		&cli.DurationFlag{
			Name:        "directory-timeout",
			Usage:       "Timeout of one request to the directory service",
			Value:       30 * time.Second,
			Category:    "Directory",
			Sources:     cli.EnvVars("PORTALOS_DIRECTORY_TIMEOUT"),
			Destination: &x.timeout,
		},
	}
}

func (x Directory) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("endpoint", x.endpoint),
		slog.Duration("timeout", x.timeout),
	)
}

// Configure builds the directory client
func (x *Directory) Configure() (*directory.Client, error) {
	client, err := directory.New(x.endpoint, directory.WithTimeout(x.timeout))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create directory client")
	}
	return client, nil
}
