// Package retention deletes estimation sessions past their configured age.
package retention

import (
	"fmt"
	"log"
	"time"

	"github.com/jamigibbs/slack-planning-poker/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Sweeper periodically removes sessions older than MaxAge, together with
// their votes. Votes go first so a mid-sweep failure never strands votes
// whose session is already gone.
type Sweeper struct {
	db     *gorm.DB
	maxAge time.Duration
}

// SweeperOpts holds parameters for creating a Sweeper.
type SweeperOpts struct {
	DB     *gorm.DB
	MaxAge time.Duration
}

// NewSweeper creates a Sweeper.
func NewSweeper(opts SweeperOpts) (*Sweeper, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("retention: sweeper: db is required")
	}
	if opts.MaxAge <= 0 {
		return nil, fmt.Errorf("retention: sweeper: max age must be positive")
	}
	return &Sweeper{db: opts.DB, maxAge: opts.MaxAge}, nil
}

// Sweep deletes all sessions created before now-maxAge and their votes.
// Returns the number of sessions and votes removed.
func (s *Sweeper) Sweep() (sessions int64, votes int64, err error) {
	cutoff := time.Now().Add(-s.maxAge)

	var expired []models.Session
	if err := s.db.Select("id").Where("created_at < ?", cutoff).Find(&expired).Error; err != nil {
		return 0, 0, fmt.Errorf("retention: list expired sessions: %w", err)
	}
	if len(expired) == 0 {
		return 0, 0, nil
	}

	ids := make([]string, len(expired))
	for i, sess := range expired {
		ids[i] = sess.ID
	}

	res := s.db.Where("session_id IN ?", ids).Delete(&models.Vote{})
	if res.Error != nil {
		return 0, 0, fmt.Errorf("retention: delete votes: %w", res.Error)
	}
	votes = res.RowsAffected

	res = s.db.Where("id IN ?", ids).Delete(&models.Session{})
	if res.Error != nil {
		return 0, votes, fmt.Errorf("retention: delete sessions: %w", res.Error)
	}
	sessions = res.RowsAffected

	return sessions, votes, nil
}

// Schedule registers the sweep on a cron runner using a standard 5-field
// expression and returns the started runner. Stop it to halt sweeping.
func (s *Sweeper) Schedule(expr string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		sessions, votes, err := s.Sweep()
		if err != nil {
			log.Printf("retention: sweep: %v", err)
			return
		}
		if sessions > 0 {
			log.Printf("retention: swept %d sessions and %d votes", sessions, votes)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("retention: schedule %q: %w", expr, err)
	}
	c.Start()
	return c, nil
}
