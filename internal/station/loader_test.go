package station

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/pkg/http/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStations(t *testing.T) {
	array, err := json.Marshal(testStations())
	require.NoError(t, err)
	wrapped, err := json.Marshal(map[string]any{"stations": testStations()})
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    string
		wantLen int
		wantErr bool
	}{
		{name: "bare array", data: string(array), wantLen: 5},
		{name: "wrapped object", data: "\n  " + string(wrapped), wantLen: 5},
		{name: "empty document", data: "  ", wantErr: true},
		{name: "malformed", data: "[{", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stations, err := decodeStations([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, stations, tt.wantLen)
		})
	}
}

func TestJSONLoader(t *testing.T) {
	data, err := json.Marshal(testStations())
	require.NoError(t, err)

	t.Run("reader", func(t *testing.T) {
		stations, err := (&JSONLoader{Reader: strings.NewReader(string(data))}).Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, testStations(), stations)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stations.json")
		require.NoError(t, os.WriteFile(path, data, 0o600))

		stations, err := (&JSONLoader{Path: path}).Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, stations, 5)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := (&JSONLoader{Path: filepath.Join(t.TempDir(), "nope.json")}).Load(context.Background())
		assert.Error(t, err)
	})
}

func TestHTTPLoader(t *testing.T) {
	data, err := json.Marshal(map[string]any{"stations": testStations()})
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/stations.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(data)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	httpClient := client.New(client.Options{BaseURL: server.URL, Timeout: 5 * time.Second})

	stations, err := (&HTTPLoader{Client: httpClient, Path: "/stations.json"}).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, stations, 5)

	_, err = (&HTTPLoader{Client: httpClient, Path: "/missing.json"}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")

	failing := &client.Client{GetFunc: func(ctx context.Context, path string) (*client.Response, error) {
		return nil, errors.New("connection refused")
	}}
	_, err = (&HTTPLoader{Client: failing, Path: "/stations.json"}).Load(context.Background())
	assert.Error(t, err)
}

type fakeSnapshot struct {
	mu       sync.Mutex
	stations []models.TideStation
	getErr   error
	saved    chan []models.TideStation
}

func (f *fakeSnapshot) GetStations(_ context.Context) ([]models.TideStation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stations, f.getErr
}

func (f *fakeSnapshot) SaveStations(_ context.Context, stations []models.TideStation) error {
	f.saved <- stations
	return nil
}

func TestCachedLoader(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot hit skips source", func(t *testing.T) {
		snapshot := &fakeSnapshot{stations: testStations()[:2], saved: make(chan []models.TideStation, 1)}
		source := LoaderFunc(func(ctx context.Context) ([]models.TideStation, error) {
			t.Fatal("source should not be called")
			return nil, nil
		})

		stations, err := (&CachedLoader{Source: source, Cache: snapshot}).Load(ctx)
		require.NoError(t, err)
		assert.Len(t, stations, 2)
	})

	for _, tc := range []struct {
		name   string
		getErr error
	}{
		{name: "snapshot miss loads source and saves"},
		{name: "snapshot error loads source and saves", getErr: errors.New("denied")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			snapshot := &fakeSnapshot{getErr: tc.getErr, saved: make(chan []models.TideStation, 1)}

			stations, err := (&CachedLoader{Source: StaticLoader(testStations()), Cache: snapshot}).Load(ctx)
			require.NoError(t, err)
			assert.Len(t, stations, 5)

			select {
			case saved := <-snapshot.saved:
				assert.Len(t, saved, 5)
			case <-time.After(time.Second):
				t.Fatal("snapshot was not saved")
			}
		})
	}

	t.Run("source failure", func(t *testing.T) {
		source := LoaderFunc(func(ctx context.Context) ([]models.TideStation, error) {
			return nil, errors.New("offline")
		})
		_, err := (&CachedLoader{Source: source}).Load(ctx)
		assert.Error(t, err)
	})
}

func TestStaticLoaderCopies(t *testing.T) {
	base := testStations()
	loader := StaticLoader(base)

	stations, err := loader.Load(context.Background())
	require.NoError(t, err)
	stations[0].Name = "changed"
	assert.Equal(t, "Whitby", base[0].Name)
}
