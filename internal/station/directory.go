package station

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/singleflight"
)

const (
	MinSearchQueryLength    = 2
	DefaultSearchResults    = 20
	DefaultNearDistanceKm   = 50.0
	DefaultNearResults      = 10
	directoryLoadFlightName = "stations"
)

// Directory answers station queries over a lazily loaded station list.
//
// The first query triggers the Loader; concurrent queries share that load.
// A successful load is kept for the life of the Directory, a failed one is
// retried by the next query.
type Directory struct {
	loader Loader
	group  singleflight.Group

	mu       sync.RWMutex
	loaded   bool
	stations []models.TideStation
	byID     map[string]int
}

var _ models.StationFinder = (*Directory)(nil)

func NewDirectory(loader Loader) *Directory {
	return &Directory{loader: loader}
}

// FindNearest returns the closest station, or nil when the directory is empty.
func (d *Directory) FindNearest(ctx context.Context, lat, lon float64) (*models.StationMatch, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	stations, err := d.stationList(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting station list: %w", err)
	}

	var best *models.StationMatch
	for i := range stations {
		distance := calculateDistance(lat, lon, stations[i].Latitude, stations[i].Longitude)
		if best == nil || distance < best.DistanceKm {
			best = &models.StationMatch{Station: stations[i], DistanceKm: distance}
		}
	}

	return best, nil
}

// Near returns stations within maxDistanceKm of the point, closest first.
func (d *Directory) Near(ctx context.Context, lat, lon, maxDistanceKm float64, maxResults int) ([]models.StationMatch, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if maxDistanceKm <= 0 {
		maxDistanceKm = DefaultNearDistanceKm
	}
	if maxResults <= 0 {
		maxResults = DefaultNearResults
	}

	stations, err := d.stationList(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting station list: %w", err)
	}

	matches := make([]models.StationMatch, 0)
	for _, s := range stations {
		distance := calculateDistance(lat, lon, s.Latitude, s.Longitude)
		if distance <= maxDistanceKm {
			matches = append(matches, models.StationMatch{Station: s, DistanceKm: distance})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	return matches, nil
}

// Search fuzzy-matches the query against "name, country".
func (d *Directory) Search(ctx context.Context, query string, maxResults int) ([]models.TideStation, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSearchQueryLength {
		return []models.TideStation{}, nil
	}
	if maxResults <= 0 {
		maxResults = DefaultSearchResults
	}

	stations, err := d.stationList(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting station list: %w", err)
	}

	found := fuzzy.FindFrom(query, searchSource(stations))
	results := make([]models.TideStation, 0, min(len(found), maxResults))
	for _, match := range found {
		if len(results) == maxResults {
			break
		}
		results = append(results, stations[match.Index])
	}

	return results, nil
}

func (d *Directory) FindStation(ctx context.Context, stationID string) (*models.TideStation, error) {
	if _, err := d.stationList(ctx); err != nil {
		return nil, fmt.Errorf("getting station list: %w", err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	i, ok := d.byID[stationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStationNotFound, stationID)
	}
	station := d.stations[i]
	return &station, nil
}

func (d *Directory) stationList(ctx context.Context) ([]models.TideStation, error) {
	d.mu.RLock()
	if d.loaded {
		stations := d.stations
		d.mu.RUnlock()
		return stations, nil
	}
	d.mu.RUnlock()

	// the load outlives a cancelled caller so waiting callers still get the list
	result, err, shared := d.group.Do(directoryLoadFlightName, func() (interface{}, error) {
		d.mu.RLock()
		if d.loaded {
			stations := d.stations
			d.mu.RUnlock()
			return stations, nil
		}
		d.mu.RUnlock()

		start := time.Now()
		stations, err := d.loader.Load(context.WithoutCancel(ctx))
		if err != nil {
			log.Error().Err(err).Msg("Failed to load station directory")
			return nil, err
		}
		stations = normalize(stations)

		byID := make(map[string]int, len(stations))
		for i, s := range stations {
			byID[s.ID] = i
		}

		d.mu.Lock()
		d.stations = stations
		d.byID = byID
		d.loaded = true
		d.mu.Unlock()

		log.Info().
			Int("station_count", len(stations)).
			Dur("duration", time.Since(start)).
			Msg("Loaded station directory")
		return stations, nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading stations: %w", err)
	}
	if shared {
		log.Debug().Msg("Shared in-flight station directory load")
	}

	return result.([]models.TideStation), nil
}

// normalize drops invalid and duplicate records.
func normalize(stations []models.TideStation) []models.TideStation {
	seen := make(map[string]struct{}, len(stations))
	out := make([]models.TideStation, 0, len(stations))
	for _, s := range stations {
		if err := s.Validate(); err != nil {
			log.Warn().Err(err).Str("station_id", s.ID).Msg("Skipping invalid station record")
			continue
		}
		if _, dup := seen[s.ID]; dup {
			log.Warn().Str("station_id", s.ID).Msg("Skipping duplicate station record")
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

type searchSource []models.TideStation

func (s searchSource) String(i int) string {
	if s[i].Country == "" {
		return s[i].Name
	}
	return s[i].Name + ", " + s[i].Country
}

func (s searchSource) Len() int {
	return len(s)
}
