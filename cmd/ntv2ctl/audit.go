package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"

	"github.com/ntv2go/ntv2/auditor"
)

// auditConfig is the on-disk shape of an --config file: there's no
// register decode anywhere in this stack that reconstructs a channel's
// full enabled/capturing/frame-range state from raw hardware, so audit
// takes the configuration under test as input the same way deviceid.go
// takes its callsign-prefix table from a yaml file rather than deriving
// it at runtime.
type auditConfig struct {
	NumQuanta    int                        `yaml:"numQuanta"`
	AudioSystems []auditor.AudioSystemState `yaml:"audioSystems"`
	Channels     []auditor.ChannelState     `yaml:"channels"`
}

var auditCommand = cli.Command{
	Name:      "audit",
	Usage:     "run the SDRAM auditor against a channel/audio configuration",
	ArgsUsage: "--config <file.yaml>",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "yaml file describing numQuanta, audioSystems, channels (required)"},
		cli.BoolFlag{Name: "conflicts-only", Usage: "print only regions with two or more owners"},
	},
	Action: runAudit,
}

func runAudit(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		return fmt.Errorf("--config is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var cfg auditConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	regions := auditor.Audit(auditor.Input{
		NumQuanta:    cfg.NumQuanta,
		AudioSystems: cfg.AudioSystems,
		Channels:     cfg.Channels,
	})

	conflictsOnly := c.Bool("conflicts-only")
	conflicts := 0
	for _, r := range regions {
		if r.Conflict() {
			conflicts++
		}
		if conflictsOnly && !r.Conflict() {
			continue
		}
		printRegion(r)
	}
	if conflicts > 0 {
		fmt.Printf("%d conflicting region(s)\n", conflicts)
	}
	return nil
}

func printRegion(r auditor.Region) {
	tags := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		tags = append(tags, string(t))
	}
	sort.Strings(tags)

	status := "free"
	if r.Conflict() {
		status = "CONFLICT"
	} else if len(tags) == 1 {
		status = tags[0]
	}
	fmt.Printf("quanta [%d,%d) %s\n", r.Start, r.Start+r.Length, status)
}
