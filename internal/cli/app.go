// Package cli holds the command tree of the video sync client.
package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/jgesser/mobilecloud-15/internal/config"
	"github.com/jgesser/mobilecloud-15/internal/entrypoint"
)

const (
	CatalogURLFlag = "catalog-url"
	CachePathFlag  = "cache-path"
	LogLevelFlag   = "log-level"
)

// NewApp returns the command tree. Environment variables are read by the
// config package; the global flags only override them.
func NewApp(version string) *cli.App {
	app := cli.NewApp()
	app.Name = "videosync"
	app.Usage = "Keeps a local mirror of a video catalog and moves payloads to and from it"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  CatalogURLFlag,
			Usage: "base URL of the video catalog service (default $CATALOG_URL)",
		},
		cli.StringFlag{
			Name:  CachePathFlag,
			Usage: "path of the local cache database (default $CACHE_PATH)",
		},
		cli.StringFlag{
			Name:  LogLevelFlag,
			Usage: "log level (default $LOG_LEVEL)",
		},
	}
	app.Before = func(c *cli.Context) error {
		entrypoint.ConfigureLogging(loadConfig(c).Global.LogLevel)
		return nil
	}
	app.Commands = []cli.Command{
		makeServeCMD(version),
		makeCatalogStubCMD(),
		makeRefreshCMD(),
		makeShowCMD(),
		makeRateCMD(),
		makeUploadCMD(),
		makeDownloadCMD(),
	}
	return app
}

func loadConfig(c *cli.Context) *config.Config {
	cfg := config.NewConfig()
	if c.GlobalIsSet(CatalogURLFlag) {
		cfg.Catalog.URL = c.GlobalString(CatalogURLFlag)
	}
	if c.GlobalIsSet(CachePathFlag) {
		cfg.Cache.Path = c.GlobalString(CachePathFlag)
	}
	if c.GlobalIsSet(LogLevelFlag) {
		cfg.Global.LogLevel = c.GlobalString(LogLevelFlag)
	}
	return cfg
}

// withApp opens the sync core for a one-shot command. The context is
// cancelled on SIGINT or SIGTERM.
func withApp(c *cli.Context, fn func(ctx context.Context, app *entrypoint.App) error) error {
	app, err := entrypoint.NewApp(loadConfig(c))
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return fn(ctx, app)
}
