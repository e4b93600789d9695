// Command ntv2ctl is the operator-facing tool for a card: inspect and
// change crosspoint routing, run the SDRAM auditor against a
// channel/audio configuration read from a YAML file, and watch AutoCirculate status
// live. Its command set and single-binary-many-subcommands shape follow
// the driver debug tools this stack's device drivers ship alongside
// themselves, built on the same urfave/cli the rest of this retrieval
// pack's CLI entrypoint uses.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/ntv2go/ntv2/devicemodel"
	"github.com/ntv2go/ntv2/gateway"
)

func main() {
	app := cli.NewApp()
	app.Name = "ntv2ctl"
	app.Usage = "inspect and control a capture/playback card"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "device",
			Usage: "path to the device node (e.g. /dev/ntv2card0); omit to use --simulate",
		},
		cli.BoolFlag{
			Name:  "simulate",
			Usage: "drive an in-memory Simulated gateway instead of opening a real device",
		},
		cli.StringFlag{
			Name:  "model",
			Usage: "device model to assume under --simulate: legacy-hd or stacked-hd",
			Value: "stacked-hd",
		},
	}
	app.Commands = []cli.Command{
		routesCommand,
		auditCommand,
		statusCommand,
		monitorCommand,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("ntv2ctl", "error", err)
		os.Exit(1)
	}
}

// openGateway resolves --device/--simulate/--model into a live Gateway
// plus the devicemodel.Model every subcommand needs for capability and
// register-layout lookups.
func openGateway(c *cli.Context) (gateway.Gateway, devicemodel.Model, error) {
	id, err := parseModelID(c.String("model"))
	if err != nil {
		return nil, devicemodel.Model{}, err
	}
	model := devicemodel.For(id)

	if path := c.String("device"); path != "" {
		gw, err := gateway.OpenDevice(path)
		if err != nil {
			return nil, devicemodel.Model{}, fmt.Errorf("open device %s: %w", path, err)
		}
		return gw, model, nil
	}
	if !c.Bool("simulate") {
		return nil, devicemodel.Model{}, fmt.Errorf("specify --device or --simulate")
	}
	return gateway.NewSimulated(model, simulatedFrameCount), model, nil
}

// simulatedFrameCount is enough 8MB SDRAM quanta for ntv2ctl's own
// demonstrations (routing, audit, AutoCirculate) without needing a
// command-line knob for it.
const simulatedFrameCount = 64

func parseModelID(name string) (devicemodel.ID, error) {
	switch name {
	case "legacy-hd":
		return devicemodel.IDLegacyHD, nil
	case "stacked-hd":
		return devicemodel.IDStackedHD, nil
	default:
		return 0, fmt.Errorf("unknown --model %q (want legacy-hd or stacked-hd)", name)
	}
}
