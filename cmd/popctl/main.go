package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

// Version is set with -ldflags at build time.
var Version = "0.1.0"

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[popctl] %v\n", err)
	os.Exit(1)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "popctl"
	app.Version = Version
	app.Usage = "inspect, validate and store VeriBlock proof-of-proof publications"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "network",
			Usage: "mainnet, testnet or regtest",
		},
		cli.StringFlag{
			Name:  "datadir",
			Usage: "directory holding one store per network",
		},
		cli.StringFlag{
			Name:  "loglevel",
			Usage: "trace, debug, info, warn, error, critical or off",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "JSON config file; flags override its values",
		},
	}
	app.Commands = []cli.Command{
		blockHashCommand,
		decodeCommand,
		validateCommand,
		storeCommand,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}
