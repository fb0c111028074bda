package main

import (
	"os"

	"github.com/jgesser/mobilecloud-15/internal/cli"
	"github.com/jgesser/mobilecloud-15/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	app := cli.NewApp(Version + " (" + Commit + ")")

	// No command runs the server.
	args := os.Args
	if len(args) < 2 {
		args = append(args, "serve")
	}
	entrypoint.Exit(app.Run(args))
}
