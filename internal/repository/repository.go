package repository

import (
	"context"
	"database/sql"
	"time"

	"thermostat_control/internal/models"
	"thermostat_control/internal/repository/db"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// StateRepo persists the single thermostat snapshot row.
type StateRepo interface {
	Save(ctx context.Context, s models.ThermostatState) error
	Load(ctx context.Context) (models.ThermostatState, error)
}

// EventRepo is the append-only transition log.
type EventRepo interface {
	Append(ctx context.Context, e models.TransitionEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.TransitionEvent, error)
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(sqlDB *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(sqlDB),
		EventRepo: NewEventSQLite(sqlDB),
		Auth:      NewUserRepository(sqlDB),
	}
}

// InitDB opens the SQLite file and bootstraps the schema.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}
