package monitoring

import (
	"fmt"
	"time"

	"github.com/ozgunk/social-feed-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// sweepGraceAge is how old an unreferenced file must be before the sweeper
// will touch it. Young files may belong to an in-flight upload.
const sweepGraceAge = time.Hour

// AssetSweeper periodically removes image files on disk that no post
// references anymore. Removal elsewhere is best-effort, so orphans can
// accumulate; the sweeper is the backstop.
type AssetSweeper struct {
	postSvc  services.PostServiceProvider
	assetSvc services.AssetServiceProvider
	eventSvc services.EventServiceProvider
	schedule cron.Schedule
	ticker   *time.Ticker
	done     chan bool
}

// NewAssetSweeper creates a sweeper from a standard cron expression.
func NewAssetSweeper(postSvc services.PostServiceProvider, assetSvc services.AssetServiceProvider, eventSvc services.EventServiceProvider, cronExpr string) (*AssetSweeper, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", cronExpr, err)
	}
	return &AssetSweeper{
		postSvc:  postSvc,
		assetSvc: assetSvc,
		eventSvc: eventSvc,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the sweeper's ticking loop.
func (s *AssetSweeper) Run() {
	log.Info().Msg("Starting background asset sweeper...")
	s.ticker = time.NewTicker(1 * time.Minute)
	defer s.ticker.Stop()

	nextRun := s.schedule.Next(time.Now())
	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping background asset sweeper.")
			return
		case now := <-s.ticker.C:
			if now.Before(nextRun) {
				continue
			}
			s.sweep()
			nextRun = s.schedule.Next(now)
		}
	}
}

// Stop halts the sweeper.
func (s *AssetSweeper) Stop() {
	s.done <- true
}

func (s *AssetSweeper) sweep() {
	referenced, err := s.postSvc.ReferencedAssets()
	if err != nil {
		log.Error().Err(err).Msg("Sweeper: failed to collect referenced assets")
		return
	}

	removed := s.assetSvc.Sweep(referenced, sweepGraceAge)
	if removed == 0 {
		return
	}

	log.Info().Int("removed", removed).Msg("Sweeper: removed orphaned assets")
	if s.eventSvc != nil {
		msg := fmt.Sprintf("Removed %d orphaned image(s).", removed)
		if err := s.eventSvc.Record("assets.swept", "info", msg, nil); err != nil {
			log.Warn().Err(err).Msg("Sweeper: failed to record event")
		}
	}
}
