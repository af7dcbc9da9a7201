package repository

import (
	"context"
	"net/http"
	"strings"
	"time"

	"powersense/internal/models"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	usageMeasurement = "power_usage"
	influxTimeout    = 5 * time.Second
)

// NopSink drops every sample.
type NopSink struct{}

func (NopSink) Write(context.Context, time.Time, models.Sample) error { return nil }
func (NopSink) Close() error                                          { return nil }

// InfluxSink writes usage samples to InfluxDB v2 through the blocking write API.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	source   string
}

// NewInfluxSink tags every point with source.
func NewInfluxSink(url, token, org, bucket, source string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: influxTimeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		source:   source,
	}
}

// NewInfluxSinkWithFallback returns a NopSink when the health check does not pass.
func NewInfluxSinkWithFallback(ctx context.Context, url, token, org, bucket, source string) (SampleSink, error) {
	sink := NewInfluxSink(url, token, org, bucket, source)
	ctx, cancel := context.WithTimeout(ctx, influxTimeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil {
		sink.client.Close()
		return NopSink{}, err
	}
	if health.Status != "pass" {
		sink.client.Close()
		return NopSink{}, &unhealthyError{status: string(health.Status)}
	}
	return sink, nil
}

type unhealthyError struct{ status string }

func (e *unhealthyError) Error() string { return "influx health status: " + e.status }

// Write stores one sample at the given instant.
func (s *InfluxSink) Write(ctx context.Context, at time.Time, sample models.Sample) error {
	return s.writeAPI.WritePoint(ctx, samplePoint(s.source, at, sample))
}

func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func samplePoint(source string, at time.Time, sample models.Sample) *write.Point {
	return write.NewPointWithMeasurement(usageMeasurement).
		AddTag("source", source).
		AddTag("label", sample.Label).
		AddField("wattage", sample.Value).
		SetTime(at)
}
