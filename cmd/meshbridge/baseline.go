package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/chazu/meshbridge/pkg/bridge"
)

// defaultSizes seeds a new baseline file.
var defaultSizes = []float64{0.5, 1, 2, 10}

func baselineCommand() *cli.Command {
	return &cli.Command{
		Name:      "baseline",
		Usage:     "compare cube tessellation counts against a recorded baseline",
		ArgsUsage: "PATH",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "record the current counts to PATH instead of comparing",
			},
		},
		Action: baseline,
	}
}

func baseline(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("baseline: missing PATH", 2)
	}
	kernel := bridge.CurrentKernel().Name()

	recorded, err := bridge.LoadBaseline(path)
	if err != nil && !(c.Bool("write") && errors.Is(err, fs.ErrNotExist)) {
		return err
	}

	sizes := recorded.Sizes(kernel)
	if len(sizes) == 0 {
		if !c.Bool("write") {
			return cli.Exit(fmt.Sprintf("baseline: %s has no %s cases", path, kernel), 1)
		}
		sizes = defaultSizes
	}
	got := bridge.RecordBaseline(sizes)

	if c.Bool("write") {
		// Keep the cases recorded for other kernels.
		for _, bc := range recorded.Cases {
			if bc.Kernel != kernel {
				got.Cases = append(got.Cases, bc)
			}
		}
		if err := bridge.WriteBaseline(path, got); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "wrote %d %s cases to %s\n", len(sizes), kernel, path)
		return nil
	}

	if diff := recorded.Diff(got); len(diff) > 0 {
		return cli.Exit("baseline mismatch:\n  "+strings.Join(diff, "\n  "), 1)
	}
	fmt.Fprintf(c.App.Writer, "%d %s cases match %s\n", len(sizes), kernel, path)
	return nil
}
