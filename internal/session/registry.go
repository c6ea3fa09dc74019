// Package session creates estimation sessions and resolves the latest
// session for a channel.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jamigibbs/slack-planning-poker/internal/models"
	"gorm.io/gorm"
)

// Registry creates sessions and answers "latest session for this channel"
// using a process-local cache with a store fallback.
type Registry struct {
	db    *gorm.DB
	cache *Cache
}

// RegistryOpts holds parameters for creating a Registry.
type RegistryOpts struct {
	DB    *gorm.DB
	Cache *Cache // defaults to a fresh Cache
}

// NewRegistry creates a Registry.
func NewRegistry(opts RegistryOpts) (*Registry, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("session: registry: db is required")
	}
	cache := opts.Cache
	if cache == nil {
		cache = NewCache()
	}
	return &Registry{db: opts.DB, cache: cache}, nil
}

// newSessionID generates a time-prefixed session ID. The millisecond prefix
// keeps IDs ordered by creation; the random suffix rules out collisions
// within the same millisecond.
func newSessionID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// Create persists a new session for a channel and caches it as the channel's
// latest. The cache is only updated after a successful write.
func (r *Registry) Create(channel, issue string) (*models.Session, error) {
	now := time.Now()
	s := models.Session{
		ID:        newSessionID(now),
		Channel:   channel,
		Issue:     issue,
		CreatedAt: now,
	}
	if err := r.db.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("session: create for channel %s: %w", channel, err)
	}
	r.cache.Put(channel, s.ID)
	return &s, nil
}

// Latest returns the most recent session for a channel, or (nil, nil) when
// the channel has never had one. A cached ID whose row no longer exists
// falls through to the ordered store query and refreshes the cache.
func (r *Registry) Latest(channel string) (*models.Session, error) {
	if id, ok := r.cache.Get(channel); ok {
		var s models.Session
		err := r.db.First(&s, "id = ?", id).Error
		if err == nil {
			return &s, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session: fetch cached %s: %w", id, err)
		}
		// Stale cache entry; re-derive from the store below.
	}

	var s models.Session
	err := r.db.Where("channel = ?", channel).Order("created_at DESC").Limit(1).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: latest for channel %s: %w", channel, err)
	}
	r.cache.Put(channel, s.ID)
	return &s, nil
}
