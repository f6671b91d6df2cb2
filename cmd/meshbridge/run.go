package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/chazu/meshbridge/pkg/bridge"
	"github.com/chazu/meshbridge/pkg/engine"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "evaluate a lifetime script against the handle API",
		ArgsUsage: "SCRIPT",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "allow-leaks",
				Usage: "exit zero even if the script leaves handles live",
			},
		},
		Action: runScript,
	}
}

func runScript(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("run: missing SCRIPT", 2)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	res, evalErrs, err := engine.NewEngine().Evaluate(string(src))
	if err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	if len(evalErrs) > 0 {
		msgs := lo.Map(evalErrs, func(e engine.EvalError, _ int) string {
			return fmt.Sprintf("%s: %s", path, e.Error())
		})
		return cli.Exit(strings.Join(msgs, "\n"), 1)
	}

	fmt.Fprintln(c.App.Writer, res.Value)
	for _, leak := range res.Leaked {
		bridge.Logger().Warn("script leaked handle",
			zap.String("script", path),
			zap.Stringer("handle", leak))
		fmt.Fprintf(c.App.ErrWriter, "leaked %s\n", leak)
	}
	if len(res.Leaked) > 0 && !c.Bool("allow-leaks") {
		return cli.Exit(fmt.Sprintf("%s leaked %d handle(s)", path, len(res.Leaked)), 1)
	}
	return nil
}
