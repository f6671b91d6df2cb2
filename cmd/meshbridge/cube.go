package main

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/chazu/meshbridge/pkg/bridge"
)

func cubeCommand() *cli.Command {
	return &cli.Command{
		Name:  "cube",
		Usage: "tessellate a cube and print its counts",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:    "size",
				Aliases: []string{"s"},
				Usage:   "edge `length`",
				Value:   1,
			},
			&cli.BoolFlag{
				Name:  "dump",
				Usage: "print the flattened position and index buffers",
			},
		},
		Action: cube,
	}
}

func cube(c *cli.Context) error {
	size := c.Float64("size")
	m := bridge.CreateCube(size)
	if m == bridge.Null {
		return cli.Exit(fmt.Sprintf("%s kernel rejected size %g", bridge.CurrentKernel().Name(), size), 1)
	}
	defer bridge.FreeMesh(m)

	nv, nf := bridge.VertexCount(m), bridge.FaceCount(m)
	fmt.Fprintf(c.App.Writer, "kernel=%s size=%g vertices=%d faces=%d\n",
		bridge.CurrentKernel().Name(), size, nv, nf)

	if !c.Bool("dump") {
		return nil
	}

	pos := bridge.ExportPositions(m)
	defer bridge.FreePositions(pos)
	faces := bridge.ExportFaces(m)
	defer bridge.FreeFaces(faces)

	for i, v := range lo.Chunk(bridge.Positions(pos, 3*int(nv)), 3) {
		fmt.Fprintf(c.App.Writer, "v %d %g %g %g\n", i, v[0], v[1], v[2])
	}
	for i, f := range lo.Chunk(bridge.Indices(faces, 3*int(nf)), 3) {
		fmt.Fprintf(c.App.Writer, "f %d %d %d %d\n", i, f[0], f[1], f[2])
	}
	return nil
}
