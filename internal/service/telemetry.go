package service

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"powersense/internal/logger"
	"powersense/internal/metrics"
	"powersense/internal/models"
	"powersense/internal/repository"
	"powersense/internal/ticker"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ----------- Usage feed constants -----------
const (
	DefaultBufferCapacity = 30
	DefaultSampleInterval = 3 * time.Second

	baseWatts      = 500.0
	swingWatts     = 400.0
	noiseWatts     = 200.0
	periodMillis   = 300000.0
	sampleLayout   = "04:05"
	feedSourceName = "feed"
)

var errInvalidCapacity = errors.New("buffer capacity must be positive")

// Source produces one usage sample for an instant.
type Source interface {
	Sample(at time.Time) (models.Sample, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(at time.Time) (models.Sample, error)

func (f SourceFunc) Sample(at time.Time) (models.Sample, error) { return f(at) }

// SineSource simulates household load as a slow sine wave plus uniform noise.
type SineSource struct {
	noise func() float64 // uniform in [0,1)
	loc   *time.Location
}

// NewSineSource uses the global random source when noise is nil.
func NewSineSource(noise func() float64, loc *time.Location) *SineSource {
	if noise == nil {
		noise = rand.Float64
	}
	if loc == nil {
		loc = time.Local
	}
	return &SineSource{noise: noise, loc: loc}
}

// Sample returns floor(500 + 400*sin(ms/300000) + noise*200) watts labelled MM:SS.
func (s *SineSource) Sample(at time.Time) (models.Sample, error) {
	ms := float64(at.UnixMilli())
	watts := math.Floor(baseWatts + math.Sin(ms/periodMillis)*swingWatts + s.noise()*noiseWatts)
	return models.Sample{Label: at.In(s.loc).Format(sampleLayout), Value: watts}, nil
}

// Seed fills a buffer with capacity samples taken at now-(capacity-i)*interval.
func Seed(capacity int, interval time.Duration, src Source, now time.Time) ([]models.Sample, error) {
	if capacity <= 0 {
		return nil, errInvalidCapacity
	}
	out := make([]models.Sample, 0, capacity)
	for i := 0; i < capacity; i++ {
		at := now.Add(-time.Duration(capacity-i) * interval)
		s, err := src.Sample(at)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Advance takes one sample at now, drops the oldest sample once the buffer is
// full and appends the new one. buf is never modified. If the source fails, buf
// is returned unchanged together with the error.
func Advance(buf []models.Sample, capacity int, src Source, now time.Time) ([]models.Sample, error) {
	if capacity <= 0 {
		return buf, errInvalidCapacity
	}
	s, err := src.Sample(now)
	if err != nil {
		return buf, err
	}
	start := 0
	if len(buf) >= capacity {
		start = len(buf) - capacity + 1
	}
	out := make([]models.Sample, 0, capacity)
	out = append(out, buf[start:]...)
	return append(out, s), nil
}

// Stats summarizes the sample values. An empty window yields zero stats.
func Stats(samples []models.Sample) models.UsageStats {
	if len(samples) == 0 {
		return models.UsageStats{}
	}
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}
	st := models.UsageStats{
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		Mean: stat.Mean(values, nil),
	}
	if len(values) > 1 {
		st.StdDev = stat.StdDev(values, nil)
	}
	return st
}

// UsageSnapshot is a copy of the feed buffer.
type UsageSnapshot struct {
	Capacity int               `json:"capacity"`
	Samples  []models.Sample   `json:"samples"`
	Stats    models.UsageStats `json:"stats"`
}

// TelemetryService keeps the process-wide rolling usage buffer.
type TelemetryService struct {
	mu       sync.RWMutex
	samples  []models.Sample
	capacity int
	interval time.Duration

	source Source
	sink   repository.SampleSink
	rec    metrics.Recorder
	log    *logger.Logger
}

// NewTelemetryService returns an unseeded feed. Run seeds it on start.
func NewTelemetryService(capacity int, interval time.Duration, src Source, sink repository.SampleSink, rec metrics.Recorder, log *logger.Logger) *TelemetryService {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	if sink == nil {
		sink = repository.NopSink{}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &TelemetryService{
		capacity: capacity,
		interval: interval,
		source:   src,
		sink:     sink,
		rec:      rec,
		log:      log,
	}
}

// Prime seeds the buffer with synthetic history ending at now.
func (s *TelemetryService) Prime(now time.Time) error {
	seeded, err := Seed(s.capacity, s.interval, s.source, now)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.samples = seeded
	s.mu.Unlock()
	return nil
}

// Run seeds the buffer and advances it every tick until ctx is canceled.
func (s *TelemetryService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = s.interval
	}
	if err := s.Prime(time.Now()); err != nil && s.log != nil {
		s.log.Warnw("telemetry_seed_failed", "err", err)
	}

	h := ticker.Start(ctx, ticker.Task{Name: "usage-feed", Interval: tick, Run: s.Tick})
	<-ctx.Done()
	h.Stop()
}

// Tick advances the buffer once. A failing source skips the tick.
func (s *TelemetryService) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	next, err := Advance(s.samples, s.capacity, s.source, now)
	if err != nil {
		s.mu.Unlock()
		s.rec.SampleFailed(feedSourceName)
		if s.log != nil {
			s.log.Warnw("telemetry_sample_failed", "err", err)
		}
		return
	}
	s.samples = next
	latest := next[len(next)-1]
	s.mu.Unlock()

	s.rec.SampleGenerated(feedSourceName)
	if err := s.sink.Write(ctx, now, latest); err != nil && s.log != nil {
		s.log.Warnw("telemetry_sink_write_failed", "err", err)
	}
}

// Snapshot returns a copy of the current buffer with stats.
func (s *TelemetryService) Snapshot() UsageSnapshot {
	s.mu.RLock()
	cp := make([]models.Sample, len(s.samples))
	copy(cp, s.samples)
	s.mu.RUnlock()
	return UsageSnapshot{Capacity: s.capacity, Samples: cp, Stats: Stats(cp)}
}

// Capacity is the fixed buffer length.
func (s *TelemetryService) Capacity() int { return s.capacity }

// Interval is the spacing between samples.
func (s *TelemetryService) Interval() time.Duration { return s.interval }

// Source is the sample generator shared with live views.
func (s *TelemetryService) Source() Source { return s.source }
