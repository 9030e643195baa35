// Command trackctl is the trackshare operator tool: schema migrations,
// password hashes for seeding accounts and session tokens for local testing.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	runner := NewRunner(RunnerOpts{})

	app := &cli.Command{
		Name:     "trackctl",
		Usage:    "Operate a trackshare deployment",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "trackctl: %v\n", err)
		os.Exit(1)
	}
}
