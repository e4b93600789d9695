// Package metrics exposes every running channel's AutoCirculate status
// as Prometheus gauges, written directly against client_golang's own
// idiomatic registration pattern rather than against any particular
// existing monitoring surface.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ntv2go/ntv2/autocirculate"
)

// Recorder owns one Prometheus registry's worth of per-channel
// AutoCirculate gauges. The zero value is not usable;
// construct with New.
type Recorder struct {
	registry *prometheus.Registry

	framesProcessed *prometheus.GaugeVec
	framesDropped   *prometheus.GaugeVec
	bufferLevel     *prometheus.GaugeVec
	ringCapacity    *prometheus.GaugeVec
	state           *prometheus.GaugeVec
}

// New builds a Recorder with its own registry (not the global
// DefaultRegisterer), so multiple Recorders — e.g. one per test — never
// collide on metric names.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		framesProcessed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ntv2",
			Subsystem: "autocirculate",
			Name:      "frames_processed",
			Help:      "Frames successfully handed between hardware and a channel's Frame Ring.",
		}, []string{"channel"}),
		framesDropped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ntv2",
			Subsystem: "autocirculate",
			Name:      "frames_dropped",
			Help:      "Frames lost because a channel's Frame Ring had no room (capture) or nothing queued (playout).",
		}, []string{"channel"}),
		bufferLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ntv2",
			Subsystem: "autocirculate",
			Name:      "buffer_level",
			Help:      "Slots currently published and awaiting consumption in a channel's Frame Ring.",
		}, []string{"channel"}),
		ringCapacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ntv2",
			Subsystem: "autocirculate",
			Name:      "ring_capacity",
			Help:      "Fixed slot count of a channel's Frame Ring.",
		}, []string{"channel"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ntv2",
			Subsystem: "autocirculate",
			Name:      "state",
			Help:      "Current AutoCirculate lifecycle state, as an autocirculate.State ordinal.",
		}, []string{"channel"}),
	}
	r.registry.MustRegister(r.framesProcessed, r.framesDropped, r.bufferLevel, r.ringCapacity, r.state)
	return r
}

// Record snapshots one channel's current status into this Recorder's
// gauges. Callers poll GetStatus and call Record on whatever cadence
// suits them (cmd/ntv2ctl's monitor loop calls it once per refresh
// tick); Recorder does no polling of its own.
func (r *Recorder) Record(channel int, st autocirculate.Status) {
	label := prometheus.Labels{"channel": channelLabel(channel)}
	r.framesProcessed.With(label).Set(float64(st.FramesProcessed))
	r.framesDropped.With(label).Set(float64(st.FramesDropped))
	r.bufferLevel.With(label).Set(float64(st.BufferLevel))
	r.ringCapacity.With(label).Set(float64(st.RingCapacity))
	r.state.With(label).Set(float64(st.State))
}

// Forget removes a channel's series entirely, for when a channel is
// torn down and its last-known numbers shouldn't linger on a /metrics
// scrape.
func (r *Recorder) Forget(channel int) {
	label := prometheus.Labels{"channel": channelLabel(channel)}
	r.framesProcessed.Delete(label)
	r.framesDropped.Delete(label)
	r.bufferLevel.Delete(label)
	r.ringCapacity.Delete(label)
	r.state.Delete(label)
}

// Handler returns the http.Handler cmd/ntv2ctl mounts at /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func channelLabel(channel int) string {
	return strconv.Itoa(channel)
}
