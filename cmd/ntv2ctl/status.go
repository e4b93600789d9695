package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/ntv2go/ntv2/devicemodel"
	"github.com/ntv2go/ntv2/gateway"
)

var statusCommand = cli.Command{
	Name:  "status",
	Usage: "print AutoCirculate status for every channel once and exit",
	Flags: []cli.Flag{
		cli.IntFlag{Name: "channel", Value: -1, Usage: "print only this channel ordinal (default: every channel the model supports)"},
	},
	Action: runStatus,
}

func runStatus(c *cli.Context) error {
	gw, model, err := openGateway(c)
	if err != nil {
		return err
	}

	channels := channelRange(c, model)
	for _, ch := range channels {
		st, err := gw.AutoCirculateGetStatus(ch)
		if err != nil {
			fmt.Printf("channel %d: %v\n", ch, err)
			continue
		}
		printStatusLine(ch, st)
	}
	return nil
}

func channelRange(c *cli.Context, model devicemodel.Model) []int {
	if ch := c.Int("channel"); ch >= 0 {
		return []int{ch}
	}
	n := int(model.GetNumSupported(devicemodel.CountVideoChannels))
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func printStatusLine(ch int, st gateway.AutoCirculateStatus) {
	fmt.Printf("ch%-2d %-12s frames[%d,%d] active=%-4d buffer=%-3d processed=%-8d dropped=%-6d\n",
		ch, st.State, st.StartFrame, st.EndFrame, st.ActiveFrame, st.BufferLevel, st.FramesProcessed, st.FramesDropped)
}
