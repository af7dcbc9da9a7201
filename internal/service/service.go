package service

import (
	"context"
	"time"

	"powersense/internal/logger"
	"powersense/internal/metrics"
	"powersense/internal/models"
	"powersense/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Schedule exposes the outage slots and the countdown evaluated at an instant.
type Schedule interface {
	Slots() []models.ScheduleSlot
	View(now time.Time) CountdownView
}

// Telemetry exposes the process-wide usage feed and what live views need to
// run a buffer of their own.
// Stop Run via context cancellation in main() for graceful shutdown.
type Telemetry interface {
	Run(ctx context.Context, tick time.Duration)
	Snapshot() UsageSnapshot
	Capacity() int
	Interval() time.Duration
	Source() Source
}

// Dashboard holds per-user page, device and rule state.
type Dashboard interface {
	State(ctx context.Context, userID int) models.DashboardState
	Navigate(ctx context.Context, userID int, page models.Page) (models.DashboardState, error)
	Devices(ctx context.Context, userID int) DeviceSummary
	ToggleDevice(ctx context.Context, userID int, id string) (models.Device, error)
	Rules(ctx context.Context, userID int) []models.AutomationRule
	ToggleRule(ctx context.Context, userID int, id string) (models.AutomationRule, error)
}

// Tips generates power-saving advice for a user's devices.
type Tips interface {
	Request(ctx context.Context, userID int) ([]string, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DashboardEvent, error)
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Schedule
	Telemetry
	Dashboard
	Tips
	EventLog
	Recorder metrics.Recorder
}

// Deps are the collaborators that do not come from the repository layer.
type Deps struct {
	Auth     AuthSettings
	Slots    []models.ScheduleSlot
	Location *time.Location
	Usage    UsageSettings
	Source   Source
	Sink     repository.SampleSink
	Tips     TipGenerator
	Recorder metrics.Recorder
	Log      *logger.Logger
}

// AuthSettings configures token issuing.
type AuthSettings struct {
	SigningKey string
	TokenTTL   time.Duration
}

// UsageSettings sizes the rolling buffers.
type UsageSettings struct {
	Capacity int
	Interval time.Duration
}

// NewService wires the repository layer and deps into concrete services.
func NewService(repos *repository.Repository, d Deps) *Service {
	rec := d.Recorder
	if rec == nil {
		rec = metrics.Nop{}
	}
	src := d.Source
	if src == nil {
		src = NewSineSource(nil, d.Location)
	}
	dash := NewDashboardService(repos.EventRepo, rec, d.Log)
	return &Service{
		Authorization: NewAuthService(repos.Auth, d.Auth.SigningKey, d.Auth.TokenTTL),
		Schedule:      NewScheduleService(d.Slots, d.Location),
		Telemetry:     NewTelemetryService(d.Usage.Capacity, d.Usage.Interval, src, d.Sink, rec, d.Log),
		Dashboard:     dash,
		Tips:          NewTipsService(d.Tips, dash, rec, d.Log),
		EventLog:      NewEventLogService(repos.EventRepo),
		Recorder:      rec,
	}
}
