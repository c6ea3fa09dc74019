// Package vote stores and aggregates estimation votes.
package vote

import (
	"errors"
	"fmt"

	"github.com/jamigibbs/slack-planning-poker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Values is the planning-poker scale offered to voters. Button rendering
// and server-side validation both derive from this slice.
var Values = []int{1, 2, 3, 5, 8}

// ValidValue reports whether v is on the planning-poker scale.
func ValidValue(v int) bool {
	for _, allowed := range Values {
		if v == allowed {
			return true
		}
	}
	return false
}

// Ledger upserts and reads votes. One row per (session, user); a repeat
// vote overwrites the previous value.
type Ledger struct {
	db *gorm.DB
}

// LedgerOpts holds parameters for creating a Ledger.
type LedgerOpts struct {
	DB *gorm.DB
}

// NewLedger creates a Ledger.
func NewLedger(opts LedgerOpts) (*Ledger, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("vote: ledger: db is required")
	}
	return &Ledger{db: opts.DB}, nil
}

// Save records a vote, overwriting any prior vote from the same user in the
// same session. Uniqueness is enforced by the composite primary key, not by
// application-level locking.
func (l *Ledger) Save(sessionID, userID string, value int, username string) error {
	v := models.Vote{
		SessionID: sessionID,
		UserID:    userID,
		Vote:      value,
		Username:  username,
	}
	err := l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vote", "username", "updated_at"}),
	}).Create(&v).Error
	if err != nil {
		return fmt.Errorf("vote: save for session %s user %s: %w", sessionID, userID, err)
	}
	return nil
}

// HasVoted reports whether the user has already voted in the session. On a
// store failure it returns (false, err): callers must check the error to
// tell "no vote" from "unknown".
func (l *Ledger) HasVoted(sessionID, userID string) (bool, error) {
	var count int64
	err := l.db.Model(&models.Vote{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("vote: has-voted for session %s user %s: %w", sessionID, userID, err)
	}
	return count > 0, nil
}

// ForSession returns the session record and all its votes. The fetch is
// two-step rather than a join; a missing session yields a nil session with
// whatever votes exist, so orphaned votes stay readable.
func (l *Ledger) ForSession(sessionID string) (*models.Session, []models.Vote, error) {
	var votes []models.Vote
	if err := l.db.Where("session_id = ?", sessionID).Find(&votes).Error; err != nil {
		return nil, nil, fmt.Errorf("vote: list for session %s: %w", sessionID, err)
	}

	var s models.Session
	err := l.db.First(&s, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, votes, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("vote: fetch session %s: %w", sessionID, err)
	}
	return &s, votes, nil
}
