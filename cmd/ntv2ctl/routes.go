package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/ntv2go/ntv2/router"
	"github.com/ntv2go/ntv2/xpt"
)

var routesCommand = cli.Command{
	Name:      "routes",
	Usage:     "list or change crosspoint connections",
	ArgsUsage: "[input output]",
	Description: "With no arguments, lists every connected input. " +
		"With two arguments (input and output crosspoint names), connects " +
		"input to output; pass XptBlack as the output to disconnect.",
	Flags: []cli.Flag{
		cli.BoolFlag{Name: "canonical-tsi", Usage: "apply the canonical TSI route set instead of a single connection"},
		cli.BoolFlag{Name: "clear", Usage: "disconnect every input"},
		cli.BoolFlag{Name: "no-validate", Usage: "skip route-ROM legality validation when connecting"},
	},
	Action: runRoutes,
}

func runRoutes(c *cli.Context) error {
	gw, model, err := openGateway(c)
	if err != nil {
		return err
	}
	r := router.New(gw, model)

	switch {
	case c.Bool("clear"):
		return r.ClearRouting()
	case c.Bool("canonical-tsi"):
		n, err := r.ApplySignalRoute(router.CanonicalTSIRoute(), true)
		if err != nil {
			return err
		}
		fmt.Printf("applied %d connections\n", n)
		return nil
	case c.NArg() == 2:
		in, out, err := parseRoute(c.Args().Get(0), c.Args().Get(1))
		if err != nil {
			return err
		}
		return r.Connect(in, out, !c.Bool("no-validate"))
	case c.NArg() == 0:
		return printRoutes(r)
	default:
		return fmt.Errorf("routes takes 0 or 2 arguments, got %d", c.NArg())
	}
}

func printRoutes(r *router.Router) error {
	conns, err := r.GetConnections()
	if err != nil {
		return err
	}
	for _, in := range xpt.AllInputs() {
		out, ok := conns[in]
		if !ok {
			continue
		}
		fmt.Printf("%-20s <- %s\n", in.String(), out.String())
	}
	return nil
}

func parseRoute(inName, outName string) (xpt.InputXpt, xpt.OutputXpt, error) {
	in, ok := inputByName(inName)
	if !ok {
		return 0, 0, fmt.Errorf("unknown input crosspoint %q", inName)
	}
	out, ok := outputByName(outName)
	if !ok {
		return 0, 0, fmt.Errorf("unknown output crosspoint %q", outName)
	}
	return in, out, nil
}

func inputByName(name string) (xpt.InputXpt, bool) {
	for _, in := range xpt.AllInputs() {
		if in.String() == name {
			return in, true
		}
	}
	return 0, false
}

func outputByName(name string) (xpt.OutputXpt, bool) {
	if name == "XptBlack" {
		return xpt.XptBlack, true
	}
	for _, out := range xpt.AllOutputs() {
		if out.String() == name {
			return out, true
		}
	}
	return 0, false
}
