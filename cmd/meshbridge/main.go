package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/chazu/meshbridge/pkg/bridge"
)

// Version of the meshbridge tool.
const Version = "0.1.0"

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:    "kernel",
		Aliases: []string{"k"},
		Usage:   "geometry `backend`: sweep, sdfx or manifold",
		Value:   bridge.DefaultKernel,
		EnvVars: []string{bridge.EnvKernel},
	},
	&cli.BoolFlag{
		Name:    "handlecheck",
		Usage:   "track live handles and panic on misuse",
		EnvVars: []string{bridge.EnvCheck},
	},
	&cli.StringFlag{
		Name:        "loglvl",
		Usage:       "set logging `level` to debug, info, warn or error",
		DefaultText: "disabled",
		EnvVars:     []string{bridge.EnvLogLevel},
	},
}

var commands = []*cli.Command{
	cubeCommand(),
	baselineCommand(),
	runCommand(),
}

func main() {
	run(newApp())
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "meshbridge",
		Usage:     "drive the meshbridge handle API from the command line",
		UsageText: "meshbridge [global options] command [command options] [arguments...]",
		Version:   Version,
		Flags:     flags,
		Commands:  commands,
		Before:    configure,
		After: func(*cli.Context) error {
			_ = bridge.Logger().Sync()
			return nil
		},
	}
}

func run(app *cli.App) {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configure applies the global flags the same way the shared library
// applies its environment.
func configure(c *cli.Context) error {
	return bridge.Configure(bridge.Config{
		Kernel:       c.String("kernel"),
		CheckHandles: c.Bool("handlecheck"),
		LogLevel:     c.String("loglvl"),
	})
}
