package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/service/directory"
	"github.com/urfave/cli/v3"
)

// cmdHash prints the digest the directory stores for a password. It is
// meant for seeding the user sheet by hand.
func cmdHash() *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "Print the password digest stored by the directory",
		ArgsUsage: "[password]",
		Action: func(ctx context.Context, c *cli.Command) error {
			password := c.Args().First()
			if password == "" {
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return goerr.Wrap(err, "failed to read password from stdin")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return goerr.New("password is empty")
			}

			_, err := fmt.Fprintln(c.Root().Writer, directory.HashPassword(password))
			return err
		},
	}
}
