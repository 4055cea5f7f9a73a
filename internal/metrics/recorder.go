// Package metrics exports sequencer activity as Prometheus metrics.
package metrics

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/ledstack/internal/events"
)

const namespace = "ledstack"

// Modes are pre-registered so every series exists from the first scrape.
var modes = []string{"stack-left", "stack-right"}

// Recorder turns bus events into metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	frames        *prometheus.CounterVec
	presses       *prometheus.CounterVec
	cycles        *prometheus.CounterVec
	interruptions *prometheus.CounterVec
	lockedAtPress prometheus.Histogram
	pattern       prometheus.Gauge
	mode          *prometheus.GaugeVec

	mu     sync.Mutex
	unsubs []func()
	logger *slog.Logger
}

// NewRecorder creates a recorder with Go runtime and process collectors
// registered alongside the sequencer metrics.
func NewRecorder(logger *slog.Logger) *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sequence",
			Name:      "frames_total",
			Help:      "Frames rendered to the LED strip",
		}, []string{"mode"}),
		presses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "button",
			Name:      "presses_total",
			Help:      "Debounced button presses, by the mode that was running",
		}, []string{"mode"}),
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sequence",
			Name:      "cycles_completed_total",
			Help:      "Sequences that filled the strip",
		}, []string{"mode"}),
		interruptions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sequence",
			Name:      "interruptions_total",
			Help:      "Sequences abandoned on a button press",
		}, []string{"mode"}),
		lockedAtPress: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sequence",
			Name:      "locked_at_interrupt",
			Help:      "LEDs already stacked when a press interrupted a sequence",
			Buckets:   prometheus.LinearBuckets(0, 1, 8),
		}),
		pattern: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "led",
			Name:      "pattern",
			Help:      "Last pattern rendered, bit i is LED i",
		}),
		mode: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sequence",
			Name:      "mode",
			Help:      "1 for the active mode, 0 otherwise",
		}, []string{"mode"}),
		logger: logger,
	}

	for _, m := range modes {
		r.frames.WithLabelValues(m)
		r.presses.WithLabelValues(m)
		r.cycles.WithLabelValues(m)
		r.interruptions.WithLabelValues(m)
		r.mode.WithLabelValues(m)
	}
	return r
}

// SetMode marks mode as the active one.
func (r *Recorder) SetMode(mode string) {
	for _, m := range modes {
		v := 0.0
		if m == mode {
			v = 1
		}
		r.mode.WithLabelValues(m).Set(v)
	}
}

// Subscribe starts recording events from bus until Close.
func (r *Recorder) Subscribe(bus *events.Bus) {
	unsubs := []func(){
		bus.Subscribe(func(e events.FrameRenderedEvent) {
			r.frames.WithLabelValues(e.Mode).Inc()
			r.pattern.Set(float64(e.Pattern))
		}),
		bus.Subscribe(func(e events.ButtonPressedEvent) {
			r.presses.WithLabelValues(e.Mode).Inc()
		}),
		bus.Subscribe(func(e events.CycleCompletedEvent) {
			r.cycles.WithLabelValues(e.Mode).Inc()
		}),
		bus.Subscribe(func(e events.SequenceInterruptedEvent) {
			r.interruptions.WithLabelValues(e.Mode).Inc()
			r.lockedAtPress.Observe(float64(e.NumLocked))
		}),
		bus.Subscribe(func(e events.ModeChangedEvent) {
			r.SetMode(e.To)
		}),
	}

	r.mu.Lock()
	r.unsubs = append(r.unsubs, unsubs...)
	r.mu.Unlock()
	r.logger.Debug("Metrics recorder subscribed to events")
}

// Close stops recording.
func (r *Recorder) Close() {
	r.mu.Lock()
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(r.logger.Handler(), slog.LevelError),
	})
}
