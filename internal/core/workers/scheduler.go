package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type Recalculator interface {
	RecalculateAll(ctx context.Context) (int, error)
}

// Scheduler runs the periodic recalculation. Streaks lapse at midnight
// without any write, so stored values go stale unless something recomputes them.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	worker Recalculator
}

func NewScheduler(spec string, loc *time.Location, worker Recalculator) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid recalculation schedule %q: %w", spec, err)
	}

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		spec:   spec,
		worker: worker,
	}, nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		log.Info("[CRON] progress recalculation")
		if _, err := s.worker.RecalculateAll(ctx); err != nil {
			log.WithError(err).Error("[CRON] progress recalculation failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.WithField("schedule", s.spec).Info("scheduler started")
	return nil
}

// Stop waits for a running recalculation to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		log.Info("scheduler stopped")
	case <-ctx.Done():
		log.Warn("scheduler stop timed out")
	}
}
