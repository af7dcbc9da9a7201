package service

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"powersense/internal/models"
)

// ---- Test doubles ----

// countingSource returns value n on its n-th call.
type countingSource struct {
	n    int
	fail bool
}

func (c *countingSource) Sample(at time.Time) (models.Sample, error) {
	if c.fail {
		return models.Sample{}, errors.New("sensor offline")
	}
	c.n++
	return models.Sample{Label: at.UTC().Format(sampleLayout), Value: float64(c.n)}, nil
}

type sinkStub struct {
	writes []models.Sample
	err    error
}

func (s *sinkStub) Write(ctx context.Context, at time.Time, sample models.Sample) error {
	s.writes = append(s.writes, sample)
	return s.err
}
func (s *sinkStub) Close() error { return nil }

type recorderStub struct {
	mu                sync.Mutex
	generated, failed int
	toggles           map[bool]int
	tips              []string
}

func (r *recorderStub) CountdownTick()         {}
func (r *recorderStub) SampleGenerated(string) { r.generated++ }
func (r *recorderStub) SampleFailed(string)    { r.failed++ }
func (r *recorderStub) ToggleApplied(kind string, found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.toggles == nil {
		r.toggles = map[bool]int{}
	}
	r.toggles[found]++
}
func (r *recorderStub) TipsServed(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tips = append(r.tips, outcome)
}
func (r *recorderStub) ViewOpened(string) {}
func (r *recorderStub) ViewClosed(string) {}

// ---- Tests ----

func TestSeed_FillsCapacityWithEquallySpacedPastSamples(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	got, err := Seed(30, 3*time.Second, &countingSource{}, now)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(got) != 30 {
		t.Fatalf("len=%d, want 30", len(got))
	}
	// oldest first: now-90s .. now-3s
	if got[0].Label != "58:30" || got[29].Label != "59:57" {
		t.Fatalf("labels: first %q last %q", got[0].Label, got[29].Label)
	}
	if got[0].Value != 1 || got[29].Value != 30 {
		t.Fatalf("order not preserved: %v .. %v", got[0].Value, got[29].Value)
	}

	if _, err := Seed(0, time.Second, &countingSource{}, now); err == nil {
		t.Fatalf("expected error for zero capacity")
	}
	if _, err := Seed(3, time.Second, &countingSource{fail: true}, now); err == nil {
		t.Fatalf("expected source error to propagate")
	}
}

func TestAdvance_KeepsLengthAndDropsOnlyOldest(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &countingSource{}
	buf, _ := Seed(30, 3*time.Second, src, now)
	orig := append([]models.Sample(nil), buf...)

	for i := 0; i < 50; i++ {
		next, err := Advance(buf, 30, src, now.Add(time.Duration(i)*3*time.Second))
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
		if len(next) != len(buf) || len(next) != 30 {
			t.Fatalf("tick %d: len=%d", i, len(next))
		}
		if !reflect.DeepEqual(next[:29], buf[1:]) {
			t.Fatalf("tick %d: window did not slide by one", i)
		}
		if next[29].Value != float64(31+i) {
			t.Fatalf("tick %d: newest=%v", i, next[29].Value)
		}
		buf = next
	}
	// first seeded buffer must not have been mutated by later ticks
	seededAgain, _ := Seed(30, 3*time.Second, &countingSource{}, now)
	if !reflect.DeepEqual(orig, seededAgain) {
		t.Fatalf("input buffer was mutated")
	}
}

func TestAdvance_GrowsUntilFullAndSkipsOnFailure(t *testing.T) {
	now := time.Now()
	src := &countingSource{}
	var buf []models.Sample
	for i := 0; i < 5; i++ {
		buf, _ = Advance(buf, 3, src, now)
	}
	if len(buf) != 3 || buf[0].Value != 3 || buf[2].Value != 5 {
		t.Fatalf("unexpected buffer: %+v", buf)
	}

	src.fail = true
	next, err := Advance(buf, 3, src, now)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !reflect.DeepEqual(next, buf) {
		t.Fatalf("failed tick must leave buffer unchanged")
	}
}

func TestSineSource_StaysInRangeAndIsFloored(t *testing.T) {
	lo := NewSineSource(func() float64 { return 0 }, time.UTC)
	hi := NewSineSource(func() float64 { return 0.999999 }, time.UTC)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 500; i++ {
		at := start.Add(time.Duration(i) * 7 * time.Second)
		a, _ := lo.Sample(at)
		b, _ := hi.Sample(at)
		if a.Value < 100 || b.Value >= 1100 {
			t.Fatalf("out of range at %v: %v %v", at, a.Value, b.Value)
		}
		if a.Value != math.Floor(a.Value) {
			t.Fatalf("not whole watts: %v", a.Value)
		}
		if b.Value < a.Value {
			t.Fatalf("noise must only add load")
		}
	}

	s, _ := lo.Sample(time.UnixMilli(0).UTC())
	if s.Value != 500 || s.Label != "00:00" {
		t.Fatalf("epoch sample: %+v", s)
	}
}

func TestStats(t *testing.T) {
	if got := Stats(nil); got != (models.UsageStats{}) {
		t.Fatalf("empty stats: %+v", got)
	}
	one := Stats([]models.Sample{{Value: 42}})
	if one.Min != 42 || one.Max != 42 || one.Mean != 42 || one.StdDev != 0 {
		t.Fatalf("single sample stats: %+v", one)
	}
	got := Stats([]models.Sample{{Value: 2}, {Value: 4}, {Value: 4}, {Value: 4}, {Value: 5}, {Value: 5}, {Value: 7}, {Value: 9}})
	if got.Min != 2 || got.Max != 9 || got.Mean != 5 {
		t.Fatalf("stats: %+v", got)
	}
	if math.Abs(got.StdDev-2.138) > 0.001 {
		t.Fatalf("std dev: %v", got.StdDev)
	}
}

func TestTelemetryService_TickSnapshotAndSink(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	sink := &sinkStub{}
	rec := &recorderStub{}
	svc := NewTelemetryService(5, time.Second, src, sink, rec, nil)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := svc.Prime(now); err != nil {
		t.Fatalf("Prime: %v", err)
	}
	svc.Tick(ctx, now)
	svc.Tick(ctx, now.Add(time.Second))

	snap := svc.Snapshot()
	if snap.Capacity != 5 || len(snap.Samples) != 5 {
		t.Fatalf("snapshot: %+v", snap)
	}
	if snap.Samples[4].Value != 7 || snap.Samples[0].Value != 3 {
		t.Fatalf("unexpected window: %+v", snap.Samples)
	}
	if len(sink.writes) != 2 || sink.writes[1].Value != 7 {
		t.Fatalf("sink writes: %+v", sink.writes)
	}
	if rec.generated != 2 {
		t.Fatalf("generated=%d", rec.generated)
	}

	// snapshot is a copy
	snap.Samples[0].Value = -1
	if svc.Snapshot().Samples[0].Value == -1 {
		t.Fatalf("snapshot aliases internal buffer")
	}

	src.fail = true
	svc.Tick(ctx, now.Add(2*time.Second))
	if rec.failed != 1 || svc.Snapshot().Samples[4].Value != 7 {
		t.Fatalf("failed tick should be skipped")
	}
}

func TestTelemetryService_RunStopsOnCancel(t *testing.T) {
	svc := NewTelemetryService(4, time.Millisecond, &countingSource{}, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if len(svc.Snapshot().Samples) != 4 {
		t.Fatalf("expected primed buffer of 4")
	}
}
