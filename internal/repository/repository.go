package repository

import (
	"context"
	"database/sql"
	"time"

	"powersense/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.DashboardEvent) error
	List(ctx context.Context, f EventFilter) ([]models.DashboardEvent, error)
}

// SampleSink receives every usage sample produced by the telemetry feed.
type SampleSink interface {
	Write(ctx context.Context, at time.Time, s models.Sample) error
	Close() error
}

// EventFilter narrows List. Zero values mean no bound.
type EventFilter struct {
	From   time.Time
	To     time.Time
	Type   string
	UserID int
}

type Repository struct {
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
