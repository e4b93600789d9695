package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/ntv2go/ntv2/autocirculate"
	"github.com/ntv2go/ntv2/devicemodel"
	"github.com/ntv2go/ntv2/gateway"
	"github.com/ntv2go/ntv2/metrics"
)

var monitorCommand = cli.Command{
	Name:  "monitor",
	Usage: "watch AutoCirculate status for every channel, refreshing live",
	Flags: []cli.Flag{
		cli.DurationFlag{Name: "interval", Value: 500 * time.Millisecond, Usage: "refresh period"},
		cli.StringFlag{Name: "listen", Usage: "also serve Prometheus metrics at this address (e.g. :9090)"},
	},
	Action: runMonitor,
}

func runMonitor(c *cli.Context) error {
	gw, model, err := openGateway(c)
	if err != nil {
		return err
	}
	interval := c.Duration("interval")
	rec := metrics.New()

	if addr := c.String("listen"); addr != "" {
		go func() {
			if err := http.ListenAndServe(addr, rec.Handler()); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return monitorPlain(gw, model, rec, interval)
	}
	return monitorDashboard(gw, model, rec, interval)
}

// monitorPlain is what a piped/redirected stdout gets: a repeating
// plain-text table instead of the tcell dashboard, the same fork
// term.IsTerminal exists for.
func monitorPlain(gw gateway.Gateway, model devicemodel.Model, rec *metrics.Recorder, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			for _, ch := range channelRangeN(model) {
				st, err := gw.AutoCirculateGetStatus(ch)
				if err != nil {
					continue
				}
				recordHardwareStatus(rec, ch, st)
				printStatusLine(ch, st)
			}
			fmt.Println("---")
		}
	}
}

func channelRangeN(model devicemodel.Model) []int {
	n := int(model.GetNumSupported(devicemodel.CountVideoChannels))
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// recordHardwareStatus feeds a raw gateway status snapshot into the
// Recorder's gauges. cmd/ntv2ctl only ever has the hardware-mirrored
// FramesProcessed/FramesDropped, not an in-process Engine's own
// ring-driven tally (see ntv2/autocirculate's GetStatus) — a separately
// invoked CLI has no Engine of its own to ask.
func recordHardwareStatus(rec *metrics.Recorder, ch int, st gateway.AutoCirculateStatus) {
	rec.Record(ch, statusFromHardware(st))
}

// dashboard is the tcell-backed live view: Init the screen, spawn a
// signal-handling goroutine that restores the terminal on
// SIGINT/SIGTERM, then alternate between drawing a frame and blocking
// for either a poll key or the next tick.
type dashboard struct {
	screen tcell.Screen
	gw     gateway.Gateway
	model  devicemodel.Model
	rec    *metrics.Recorder
}

func monitorDashboard(gw gateway.Gateway, model devicemodel.Model, rec *metrics.Recorder, interval time.Duration) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("tcell.NewScreen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen.Init: %w", err)
	}
	d := &dashboard{screen: screen, gw: gw, model: model, rec: rec}
	defer d.screen.Fini()

	d.handleSignals()

	events := make(chan tcell.Event, 4)
	go func() {
		for {
			events <- d.screen.PollEvent()
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.draw()
	for {
		select {
		case ev := <-events:
			switch e := ev.(type) {
			case *tcell.EventKey:
				if e.Key() == tcell.KeyCtrlC || e.Rune() == 'q' {
					return nil
				}
			case *tcell.EventResize:
				d.screen.Sync()
			}
		case <-ticker.C:
			d.draw()
		}
	}
}

func (d *dashboard) handleSignals() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		<-sig
		d.screen.Fini()
		os.Exit(0)
	}()
}

func (d *dashboard) draw() {
	d.screen.Clear()
	style := tcell.StyleDefault
	headerStyle := style.Bold(true)

	d.drawText(0, 0, headerStyle, "ch  state        frames      buffer  processed  dropped")

	row := 1
	for _, ch := range channelRangeN(d.model) {
		st, err := d.gw.AutoCirculateGetStatus(ch)
		if err != nil {
			d.drawText(0, row, style, fmt.Sprintf("ch%-2d error: %v", ch, err))
			row++
			continue
		}
		d.rec.Record(ch, statusFromHardware(st))

		line := fmt.Sprintf("ch%-2d %-12s [%4d,%4d] %7d %10d %8d",
			ch, st.State, st.StartFrame, st.EndFrame, st.BufferLevel, st.FramesProcessed, st.FramesDropped)
		d.drawText(0, row, style, line)
		row++
	}
	d.drawText(0, row+1, style, "q or Ctrl-C to quit")
	d.screen.Show()
}

// statusFromHardware adapts a gateway's raw AutoCirculateStatus into
// the autocirculate.Status shape Recorder.Record expects. cmd/ntv2ctl
// never owns an Engine, so FramesProcessed/FramesDropped/BufferLevel
// here are the gateway's own hardware-mirrored counters, not an
// Engine's ring-driven tally; RingCapacity has no hardware analogue and
// is left zero.
func statusFromHardware(st gateway.AutoCirculateStatus) autocirculate.Status {
	return autocirculate.Status{
		State:           autocirculateState(st.State),
		StartFrame:      st.StartFrame,
		EndFrame:        st.EndFrame,
		FramesProcessed: uint64(st.FramesProcessed),
		FramesDropped:   uint64(st.FramesDropped),
		BufferLevel:     int(st.BufferLevel),
	}
}

func autocirculateState(s gateway.AutoCirculateState) autocirculate.State {
	switch s {
	case gateway.ACStateStopped, gateway.ACStateStopping:
		return autocirculate.StateStopped
	case gateway.ACStateInitializing:
		return autocirculate.StateInitialized
	case gateway.ACStateStarting:
		return autocirculate.StateStarting
	case gateway.ACStateRunning:
		return autocirculate.StateRunning
	case gateway.ACStatePaused:
		return autocirculate.StatePaused
	default:
		return autocirculate.StateStopped
	}
}

func (d *dashboard) drawText(x, y int, style tcell.Style, s string) {
	for i, r := range s {
		d.screen.SetContent(x+i, y, r, nil, style)
	}
}
