package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/issdash/issdash/internal/analytics"
	"github.com/issdash/issdash/internal/metrics"
	"github.com/issdash/issdash/internal/track"
)

// Config holds poller configuration loaded from environment variables.
type Config struct {
	RefreshInterval time.Duration // Position/metrics refresh cadence (default: 10s).
	CrewInterval    time.Duration // Crew roster refresh cadence (default: 1h).
	OrbitalPeriod   time.Duration // Nominal orbital period for analytics (default: 92.68m).
}

// Poller runs the refresh pipeline: poll feeds, push to the rolling buffer,
// aggregate metrics, publish an immutable snapshot. One synchronous pass per
// tick; nothing here is ever fatal to the process.
type Poller struct {
	position *PositionClient
	crew     *CrewClient
	ring     *track.Ring
	store    *Store
	config   Config
	logger   *slog.Logger

	// Pass-local state, touched only by the poller goroutine.
	lastCrewPoll time.Time
	crewCache    []CrewMember
}

// NewPoller creates a Poller publishing into store.
func NewPoller(position *PositionClient, crew *CrewClient, ring *track.Ring, store *Store, config Config, logger *slog.Logger) *Poller {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = 10 * time.Second
	}
	if config.CrewInterval <= 0 {
		config.CrewInterval = time.Hour
	}
	if config.OrbitalPeriod <= 0 {
		config.OrbitalPeriod = analytics.NominalOrbitalPeriod
	}
	return &Poller{
		position: position,
		crew:     crew,
		ring:     ring,
		store:    store,
		config:   config,
		logger:   logger,
	}
}

// Run performs an immediate refresh, then refreshes on the configured
// interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.Refresh(ctx)

	ticker := time.NewTicker(p.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh runs one full pass. Feed failures degrade to the last-known-good
// snapshot with the stale flag set; they never propagate.
func (p *Poller) Refresh(ctx context.Context) {
	start := time.Now()
	sample, posErr := p.position.Fetch(ctx)
	metrics.ObserveFeedPoll("position", time.Since(start))
	metrics.IncFeedPoll("position", Outcome(posErr))

	if posErr != nil {
		p.logger.Warn("position poll failed", "error", posErr, "url", p.position.URL())
		p.publishStale(posErr)
		return
	}

	if !p.ring.Push(sample) {
		// Feed served a cached tick; the buffer keeps its timestamp order.
		p.logger.Debug("duplicate position sample skipped", "sample_time", sample.Time.Format(time.RFC3339))
	}
	metrics.SetBufferSamples(p.ring.Len())

	p.refreshCrew(ctx)

	snap := &Snapshot{
		Position:    sample,
		HasPosition: true,
		Crew:        p.crewCache,
		Metrics:     analytics.Aggregate(p.ring.Snapshot(), p.config.OrbitalPeriod),
		UpdatedAt:   time.Now().UTC(),
	}
	p.store.Set(snap)
	metrics.SetSnapshotStale(false)

	p.logger.Debug("refresh pass complete",
		"lat", sample.LatDeg,
		"lon", sample.LonDeg,
		"altitude_km", sample.AltitudeKm,
		"buffer_len", p.ring.Len(),
	)
}

// refreshCrew polls the crew feed when the roster is due, keeping the cached
// roster on failure.
func (p *Poller) refreshCrew(ctx context.Context) {
	if !p.lastCrewPoll.IsZero() && time.Since(p.lastCrewPoll) < p.config.CrewInterval {
		return
	}

	start := time.Now()
	crew, err := p.crew.Fetch(ctx)
	metrics.ObserveFeedPoll("crew", time.Since(start))
	metrics.IncFeedPoll("crew", Outcome(err))

	if err != nil {
		p.logger.Warn("crew poll failed, keeping cached roster", "error", err, "cached", len(p.crewCache))
		// Back off until the next full interval even on failure.
		p.lastCrewPoll = time.Now()
		return
	}

	p.crewCache = crew
	p.lastCrewPoll = time.Now()
	p.logger.Info("crew roster updated", "count", len(crew))
}

// publishStale republishes the previous snapshot flagged stale, or an empty
// stale snapshot when nothing has ever succeeded.
func (p *Poller) publishStale(cause error) {
	prev := p.store.Get()

	snap := &Snapshot{Stale: true, LastError: cause.Error()}
	if prev != nil {
		next := *prev
		next.Stale = true
		next.LastError = cause.Error()
		snap = &next
	}
	p.store.Set(snap)
	metrics.SetSnapshotStale(true)
}
