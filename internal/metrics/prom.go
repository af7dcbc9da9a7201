package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// PromRecorder exports dashboard counters through Prometheus.
type PromRecorder struct {
	countdownTicks prometheus.Counter
	samples        *prometheus.CounterVec
	sampleFailures *prometheus.CounterVec
	toggles        *prometheus.CounterVec
	tips           *prometheus.CounterVec
	views          *prometheus.GaugeVec
}

// NewPromRecorder registers the collectors on reg. A nil reg defaults to the
// global registerer. Collectors already registered are reused.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PromRecorder{
		countdownTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "powersense_countdown_ticks_total",
			Help: "Countdown evaluations pushed to schedule views",
		}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powersense_samples_generated_total",
			Help: "Usage samples appended to a rolling buffer",
		}, []string{"source"}),
		sampleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powersense_sample_failures_total",
			Help: "Ticks skipped because the sample source failed",
		}, []string{"source"}),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powersense_toggles_total",
			Help: "Device and rule toggle requests",
		}, []string{"kind", "found"}),
		tips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "powersense_tips_total",
			Help: "Tip requests by outcome",
		}, []string{"outcome"}),
		views: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "powersense_live_views",
			Help: "Open live view subscriptions",
		}, []string{"view"}),
	}

	var err error
	if r.countdownTicks, err = register(reg, r.countdownTicks); err != nil {
		return nil, err
	}
	if r.samples, err = register(reg, r.samples); err != nil {
		return nil, err
	}
	if r.sampleFailures, err = register(reg, r.sampleFailures); err != nil {
		return nil, err
	}
	if r.toggles, err = register(reg, r.toggles); err != nil {
		return nil, err
	}
	if r.tips, err = register(reg, r.tips); err != nil {
		return nil, err
	}
	if r.views, err = register(reg, r.views); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PromRecorder) CountdownTick() { r.countdownTicks.Inc() }

func (r *PromRecorder) SampleGenerated(source string) { r.samples.WithLabelValues(source).Inc() }

func (r *PromRecorder) SampleFailed(source string) { r.sampleFailures.WithLabelValues(source).Inc() }

func (r *PromRecorder) ToggleApplied(kind string, found bool) {
	r.toggles.WithLabelValues(kind, strconv.FormatBool(found)).Inc()
}

func (r *PromRecorder) TipsServed(outcome string) { r.tips.WithLabelValues(outcome).Inc() }

func (r *PromRecorder) ViewOpened(view string) { r.views.WithLabelValues(view).Inc() }

func (r *PromRecorder) ViewClosed(view string) { r.views.WithLabelValues(view).Dec() }
