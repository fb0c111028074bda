package cli

import (
	"github.com/urfave/cli"

	"github.com/jgesser/mobilecloud-15/internal/entrypoint"
)

func makeServeCMD(version string) cli.Command {
	return cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serves the local API with background transfers and scheduled refresh",
		Action: func(c *cli.Context) error {
			return entrypoint.Run(loadConfig(c), version)
		},
	}
}

func makeCatalogStubCMD() cli.Command {
	stubCMD := cli.Command{
		Name:   "catalog-stub",
		Usage:  "Serves an in-memory video catalog for local development",
		Action: catalogStub,
	}
	stubCMD.Flags = append(stubCMD.Flags,
		cli.IntFlag{
			Name:  "port",
			Usage: "port to listen on (default $STUB_PORT)",
		},
	)
	return stubCMD
}

func catalogStub(c *cli.Context) error {
	cfg := loadConfig(c)
	if c.IsSet("port") {
		cfg.Stub.Port = int32(c.Int("port"))
	}
	return entrypoint.RunStub(cfg)
}
