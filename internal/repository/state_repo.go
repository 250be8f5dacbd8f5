package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"thermostat_control/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

var _ StateRepo = (*StateSQLite)(nil)

const (
	thermostatStateRowID = 1

	upsertStateSQL = `
		INSERT INTO thermostat_state (id, mode, equipment, stage, current_temp, humidity, heat_to, cool_to, deadband, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode=excluded.mode,
			equipment=excluded.equipment,
			stage=excluded.stage,
			current_temp=excluded.current_temp,
			humidity=excluded.humidity,
			heat_to=excluded.heat_to,
			cool_to=excluded.cool_to,
			deadband=excluded.deadband,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, mode, equipment, stage, current_temp, humidity, heat_to, cool_to, deadband, updated_at
		FROM thermostat_state WHERE id=?
	`
)

// Save updates or inserts the thermostat_state row (id always 1).
func (r *StateSQLite) Save(ctx context.Context, state models.ThermostatState) error {
	// UpdatedAt is always persisted as UTC; set if zero.
	tsUTC := state.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	var humidity sql.NullFloat64
	if state.Humidity != nil {
		humidity = sql.NullFloat64{Float64: *state.Humidity, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, upsertStateSQL,
		thermostatStateRowID,
		state.Mode,
		state.Equipment,
		state.Stage,
		state.CurrentTemp,
		humidity,
		state.HeatTo,
		state.CoolTo,
		state.Deadband,
		tsUTC,
	)
	return err
}

// Load fetches the single thermostat_state row (id=1). Returns a zero
// value with a nil error when no snapshot has been saved yet.
func (r *StateSQLite) Load(ctx context.Context) (models.ThermostatState, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, thermostatStateRowID)

	var s models.ThermostatState
	var humidity sql.NullFloat64
	if err := row.Scan(
		&s.ID,
		&s.Mode,
		&s.Equipment,
		&s.Stage,
		&s.CurrentTemp,
		&humidity,
		&s.HeatTo,
		&s.CoolTo,
		&s.Deadband,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ThermostatState{}, nil // no state yet
		}
		return models.ThermostatState{}, err
	}

	if humidity.Valid {
		h := humidity.Float64
		s.Humidity = &h
	}
	s.UpdatedAt = s.UpdatedAt.UTC()

	return s, nil
}
