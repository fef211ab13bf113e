package station

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS tide_stations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		country TEXT,
		continent TEXT,
		timezone TEXT,
		type TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		reference_id TEXT,
		height_high REAL,
		height_low REAL,
		height_type TEXT,
		time_high REAL,
		time_low REAL
	);
	CREATE INDEX IF NOT EXISTS idx_tide_stations_coords ON tide_stations(latitude, longitude);
	CREATE TABLE IF NOT EXISTS harmonic_constituents (
		station_id TEXT NOT NULL REFERENCES tide_stations(id),
		name TEXT NOT NULL,
		amplitude REAL NOT NULL,
		phase REAL NOT NULL,
		speed REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (station_id, name)
	);
`

// SQLiteStore keeps the station database in SQLite. It is a Loader.
type SQLiteStore struct {
	db *sql.DB
}

var _ Loader = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (creating if needed) the database at path; ":memory:" works for tests.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else {
		_, _ = db.Exec("PRAGMA journal_mode=WAL")
		_, _ = db.Exec("PRAGMA synchronous=NORMAL")
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) ([]models.TideStation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, country, continent, timezone, type, latitude, longitude,
		       reference_id, height_high, height_low, height_type, time_high, time_low
		FROM tide_stations
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying stations: %w", err)
	}
	defer rows.Close()

	var stations []models.TideStation
	index := make(map[string]int)
	for rows.Next() {
		var (
			st                           models.TideStation
			country, continent, tz       sql.NullString
			referenceID, heightType      sql.NullString
			heightHigh, heightLow, tHigh sql.NullFloat64
			tLow                         sql.NullFloat64
		)
		if err := rows.Scan(&st.ID, &st.Name, &country, &continent, &tz, &st.Type, &st.Latitude, &st.Longitude,
			&referenceID, &heightHigh, &heightLow, &heightType, &tHigh, &tLow); err != nil {
			log.Warn().Err(err).Msg("Skipping unreadable station row")
			continue
		}
		st.Country = country.String
		st.Continent = continent.String
		st.Timezone = tz.String
		if referenceID.Valid && referenceID.String != "" {
			st.Offsets = &models.StationOffsets{
				Reference: referenceID.String,
				Height: models.HeightOffsets{
					High: heightHigh.Float64,
					Low:  heightLow.Float64,
					Type: models.HeightOffsetType(heightType.String),
				},
				Time: models.TimeOffsets{High: tHigh.Float64, Low: tLow.Float64},
			}
		}
		index[st.ID] = len(stations)
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading stations: %w", err)
	}

	crows, err := s.db.QueryContext(ctx, `
		SELECT station_id, name, amplitude, phase, speed
		FROM harmonic_constituents
		ORDER BY station_id, name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying constituents: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var stationID string
		var c models.HarmonicConstituent
		if err := crows.Scan(&stationID, &c.Name, &c.Amplitude, &c.Phase, &c.Speed); err != nil {
			return nil, fmt.Errorf("reading constituent: %w", err)
		}
		if i, ok := index[stationID]; ok {
			stations[i].Constituents = append(stations[i].Constituents, c)
		}
	}
	if err := crows.Err(); err != nil {
		return nil, fmt.Errorf("reading constituents: %w", err)
	}

	return stations, nil
}

// Save replaces the stored station list in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, stations []models.TideStation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM harmonic_constituents"); err != nil {
		return fmt.Errorf("clearing constituents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tide_stations"); err != nil {
		return fmt.Errorf("clearing stations: %w", err)
	}

	stationStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tide_stations (id, name, country, continent, timezone, type, latitude, longitude,
			reference_id, height_high, height_low, height_type, time_high, time_low)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing station insert: %w", err)
	}
	defer stationStmt.Close()

	constituentStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO harmonic_constituents (station_id, name, amplitude, phase, speed)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing constituent insert: %w", err)
	}
	defer constituentStmt.Close()

	for _, st := range stations {
		var (
			referenceID, heightType sql.NullString
			heightHigh, heightLow   sql.NullFloat64
			timeHigh, timeLow       sql.NullFloat64
		)
		if st.Offsets != nil {
			referenceID = sql.NullString{String: st.Offsets.Reference, Valid: true}
			heightType = sql.NullString{String: string(st.Offsets.Height.Type), Valid: true}
			heightHigh = sql.NullFloat64{Float64: st.Offsets.Height.High, Valid: true}
			heightLow = sql.NullFloat64{Float64: st.Offsets.Height.Low, Valid: true}
			timeHigh = sql.NullFloat64{Float64: st.Offsets.Time.High, Valid: true}
			timeLow = sql.NullFloat64{Float64: st.Offsets.Time.Low, Valid: true}
		}

		if _, err := stationStmt.ExecContext(ctx, st.ID, st.Name, st.Country, st.Continent, st.Timezone, string(st.Type),
			st.Latitude, st.Longitude, referenceID, heightHigh, heightLow, heightType, timeHigh, timeLow); err != nil {
			return fmt.Errorf("inserting station %s: %w", st.ID, err)
		}

		for _, c := range st.Constituents {
			if _, err := constituentStmt.ExecContext(ctx, st.ID, c.Name, c.Amplitude, c.Phase, c.Speed); err != nil {
				return fmt.Errorf("inserting constituent %s for %s: %w", c.Name, st.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing stations: %w", err)
	}

	log.Info().Int("station_count", len(stations)).Msg("Saved station database")
	return nil
}

// Provision fills an empty store from source. A store that already holds
// stations is left untouched.
func (s *SQLiteStore) Provision(ctx context.Context, source Loader) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tide_stations").Scan(&count); err != nil {
		return fmt.Errorf("counting stations: %w", err)
	}
	if count > 0 {
		return nil
	}

	stations, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading stations to provision: %w", err)
	}
	return s.Save(ctx, stations)
}
