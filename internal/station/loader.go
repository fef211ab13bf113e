package station

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/pkg/http/client"
)

// Loader produces the raw station list for a Directory.
type Loader interface {
	Load(ctx context.Context) ([]models.TideStation, error)
}

type LoaderFunc func(ctx context.Context) ([]models.TideStation, error)

func (f LoaderFunc) Load(ctx context.Context) ([]models.TideStation, error) {
	return f(ctx)
}

// StaticLoader serves a fixed list.
type StaticLoader []models.TideStation

func (l StaticLoader) Load(_ context.Context) ([]models.TideStation, error) {
	out := make([]models.TideStation, len(l))
	copy(out, l)
	return out, nil
}

// JSONLoader reads a station database file. Reader takes precedence over Path.
type JSONLoader struct {
	Path   string
	Reader io.Reader
}

func (l *JSONLoader) Load(_ context.Context) ([]models.TideStation, error) {
	if l.Reader != nil {
		data, err := io.ReadAll(l.Reader)
		if err != nil {
			return nil, fmt.Errorf("reading station database: %w", err)
		}
		return decodeStations(data)
	}

	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("reading station database %s: %w", l.Path, err)
	}
	return decodeStations(data)
}

// HTTPLoader downloads a station database JSON document.
type HTTPLoader struct {
	Client client.Interface
	Path   string
}

func (l *HTTPLoader) Load(ctx context.Context) ([]models.TideStation, error) {
	resp, err := l.Client.Get(ctx, l.Path)
	if err != nil {
		return nil, fmt.Errorf("fetching stations: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("no response from station database")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching stations: unexpected status %d", resp.StatusCode)
	}

	return decodeStations(resp.Body)
}

// decodeStations accepts either a bare array or an object with a "stations" array.
func decodeStations(data []byte) ([]models.TideStation, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decoding stations: empty document")
	}

	if data[0] == '[' {
		var stations []models.TideStation
		if err := json.Unmarshal(data, &stations); err != nil {
			return nil, fmt.Errorf("decoding stations: %w", err)
		}
		return stations, nil
	}

	var doc struct {
		Stations []models.TideStation `json:"stations"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding stations: %w", err)
	}
	return doc.Stations, nil
}
