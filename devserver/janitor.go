package devserver

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultCleanupSchedule runs the expiry purge once an hour.
const DefaultCleanupSchedule = "@hourly"

// StartJanitor schedules the expired-file purge on a cron expression and
// returns a stop function. Expiry enforcement does not depend on the janitor
// since handlers re-derive status on every access; the purge only reclaims
// storage.
func (s *Server) StartJanitor(schedule string) (func(), error) {
	if schedule == "" {
		schedule = DefaultCleanupSchedule
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		deleted, err := s.purgeExpired()
		if err != nil {
			s.log.Error("scheduled cleanup failed", slog.String("error", err.Error()))
			return
		}
		if deleted > 0 {
			s.log.Info("scheduled cleanup", slog.Int("deleted", deleted))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling cleanup: %w", err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
