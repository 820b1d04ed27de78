// Command authflow drives a login session through two cooperating machines.
//
// Session moves anonymous → authenticating → authenticated → expired and asks
// Token for credentials; Token fetches them from an oauth2.TokenSource inside
// an action and reports back through the Manager. Session is described by an
// embedded YAML definition, Token is wired in Go.
//
//	authflow run --subject ada
//	authflow run --inspect-addr 127.0.0.1:9090
//	authflow validate machines/session.toml
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// Version is set during build using ldflags
var Version = "dev"

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "authflow",
		Version: Version,
		Usage:   "Run and inspect the authflow state machines",
		Commands: []*cli.Command{
			runCmd(),
			validateCmd(),
			versionCmd(),
		},
	}
}
