package refresh

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/bbernstein/tideresonance/backend-go/internal/tide"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultInterval = 60 * time.Second

	// LoadTimeout bounds one station resolution plus state computation.
	LoadTimeout = 30 * time.Second
)

var (
	ErrNoStationNearby = errors.New("no tide station found nearby")
	ErrNoLocation      = errors.New("no active location")
	ErrSuperseded      = errors.New("location changed before refresh completed")
	ErrStopped         = errors.New("refresh controller stopped")
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Snapshot is what consumers observe. State is replaced wholesale and never
// mutated after publication.
type Snapshot struct {
	State       *models.TidalState
	Status      Status
	IsLoading   bool
	Err         error
	LocationKey string
}

// ErrorMessage returns Err as text, or "" when there is none.
func (s Snapshot) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Controller keeps a TidalState current for one active location. Station
// resolution runs when the location changes; a gocron job recomputes the state
// with the resolved station every interval.
type Controller struct {
	locator  models.StationLocator
	computer tide.StateComputer
	interval time.Duration
	now      func() time.Time

	// schedMu serialises scheduler changes; job callbacks never take it.
	schedMu   sync.Mutex
	scheduler *gocron.Scheduler
	job       *gocron.Job

	inflight singleflight.Group

	mu          sync.Mutex
	stopped     bool
	generation  uint64
	location    models.GeoLocation
	station     *models.StationMatch
	snapshot    Snapshot
	subscribers map[int]chan Snapshot
	nextSubID   int
}

type Option func(*Controller)

// WithInterval sets the refresh cadence.
func WithInterval(interval time.Duration) Option {
	return func(c *Controller) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithClock replaces time.Now for computing states.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func New(locator models.StationLocator, computer tide.StateComputer, opts ...Option) *Controller {
	c := &Controller{
		locator:     locator,
		computer:    computer,
		interval:    DefaultInterval,
		now:         time.Now,
		snapshot:    Snapshot{Status: StatusIdle},
		subscribers: make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.scheduler = gocron.NewScheduler(time.UTC)
	c.scheduler.SingletonModeAll()
	return c
}

// Snapshot returns the latest published snapshot.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// SetLocation activates loc. A nil location clears the controller; the same
// location as the active one is a no-op. The returned error is the outcome of
// the initial load, which is also published in the snapshot.
func (c *Controller) SetLocation(ctx context.Context, loc *models.GeoLocation) error {
	if loc == nil {
		c.clear()
		return nil
	}
	if err := loc.Validate(); err != nil {
		return err
	}
	key := loc.Key()

	c.schedMu.Lock()
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		c.schedMu.Unlock()
		return ErrStopped
	}
	if key == c.snapshot.LocationKey {
		c.mu.Unlock()
		c.schedMu.Unlock()
		return nil
	}
	c.generation++
	gen := c.generation
	c.location = *loc
	c.station = nil
	c.publishLocked(Snapshot{Status: StatusLoading, IsLoading: true, LocationKey: key})
	c.mu.Unlock()

	err := c.rescheduleLocked(gen)
	c.schedMu.Unlock()
	if err != nil {
		return fmt.Errorf("scheduling refresh: %w", err)
	}

	log.Debug().Str("location_key", key).Msg("Location changed")
	return c.refresh(ctx, gen)
}

// Refresh recomputes the state for the active location without resolving the
// station again.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	gen, key := c.generation, c.snapshot.LocationKey
	c.mu.Unlock()

	if key == "" {
		return ErrNoLocation
	}
	return c.refresh(ctx, gen)
}

// Subscribe returns a channel that receives every new snapshot. Slow readers
// only see the latest one. Call the returned func to unsubscribe.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = ch
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(sub)
		}
	}
}

// Stop cancels the timer, discards in-flight results and closes all
// subscriptions.
func (c *Controller) Stop() {
	c.schedMu.Lock()
	defer c.schedMu.Unlock()

	c.mu.Lock()
	c.stopped = true
	c.generation++
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
	c.mu.Unlock()

	c.removeJobLocked()
	c.scheduler.Stop()
}

func (c *Controller) clear() {
	c.schedMu.Lock()
	defer c.schedMu.Unlock()

	c.mu.Lock()
	c.generation++
	c.location = models.GeoLocation{}
	c.station = nil
	if c.snapshot.Status != StatusIdle || c.snapshot.LocationKey != "" {
		c.publishLocked(Snapshot{Status: StatusIdle})
	}
	c.mu.Unlock()

	c.removeJobLocked()
}

// rescheduleLocked replaces the refresh job with one bound to gen. Callers
// hold schedMu.
func (c *Controller) rescheduleLocked(gen uint64) error {
	c.removeJobLocked()

	job, err := c.scheduler.Every(c.interval).WaitForSchedule().Do(func() {
		if err := c.refresh(context.Background(), gen); err != nil && !errors.Is(err, ErrSuperseded) {
			log.Debug().Err(err).Msg("Scheduled refresh failed")
		}
	})
	if err != nil {
		return err
	}
	c.job = job

	if !c.scheduler.IsRunning() {
		c.scheduler.StartAsync()
	}
	return nil
}

func (c *Controller) removeJobLocked() {
	if c.job != nil {
		c.scheduler.RemoveByReference(c.job)
		c.job = nil
	}
}

// refresh runs at most one load per location activation at a time; callers
// arriving while one is in flight share its result. The load keeps the
// caller's values but not its cancellation, since later callers join it.
func (c *Controller) refresh(ctx context.Context, gen uint64) error {
	_, err, _ := c.inflight.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
		defer cancel()
		return nil, c.load(loadCtx, gen)
	})
	return err
}

func (c *Controller) load(ctx context.Context, gen uint64) error {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrSuperseded
	}
	loc, match := c.location, c.station
	if c.snapshot.State == nil && !c.snapshot.IsLoading {
		// nothing shown yet for this location, so the load is visible
		c.publishLocked(Snapshot{Status: StatusLoading, IsLoading: true, LocationKey: c.snapshot.LocationKey})
	}
	c.mu.Unlock()

	if match == nil {
		found, err := c.locator.FindNearest(ctx, loc.Latitude, loc.Longitude)
		if err == nil && found == nil {
			err = ErrNoStationNearby
		}
		if err != nil {
			return c.fail(gen, nil, err)
		}
		match = found
	}

	state, err := c.computer.Compute(ctx, match.Station, match.DistanceKm, c.now())
	if err != nil {
		return c.fail(gen, match, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		log.Debug().Str("station_id", match.Station.ID).Msg("Discarding tidal state for inactive location")
		return ErrSuperseded
	}
	c.station = match
	c.publishLocked(Snapshot{
		State:       state,
		Status:      StatusReady,
		LocationKey: c.snapshot.LocationKey,
	})
	log.Debug().
		Str("location_key", c.snapshot.LocationKey).
		Str("station_id", match.Station.ID).
		Str("phase", state.CurrentPhase.String()).
		Msg("Tidal state refreshed")
	return nil
}

// fail records err for gen. A state already shown for the location stays
// visible alongside the error.
func (c *Controller) fail(gen uint64, match *models.StationMatch, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return ErrSuperseded
	}
	if match != nil {
		c.station = match
	}
	c.publishLocked(Snapshot{
		State:       c.snapshot.State,
		Status:      StatusError,
		Err:         err,
		LocationKey: c.snapshot.LocationKey,
	})
	log.Warn().Err(err).
		Str("location_key", c.snapshot.LocationKey).
		Bool("stale_state", c.snapshot.State != nil).
		Msg("Tidal state refresh failed")
	return err
}

func (c *Controller) publishLocked(snap Snapshot) {
	c.snapshot = snap
	for _, ch := range c.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the unread snapshot so the latest wins
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
