// Package workspace maps Slack team IDs to bot credentials and records
// OAuth installations.
package workspace

import (
	"errors"
	"fmt"
	"log"

	"github.com/jamigibbs/slack-planning-poker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Resolver returns the bot token to use for outbound calls on behalf of a
// workspace. Lookups that fail for any reason fall back to the default
// token: an outbound call with a wrong credential fails upstream, which is
// preferable to failing locally with no credential at all.
type Resolver struct {
	db           *gorm.DB
	defaultToken string
}

// ResolverOpts holds parameters for creating a Resolver.
type ResolverOpts struct {
	DB           *gorm.DB
	DefaultToken string // single-workspace bot token fallback
}

// NewResolver creates a Resolver.
func NewResolver(opts ResolverOpts) (*Resolver, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("workspace: resolver: db is required")
	}
	return &Resolver{db: opts.DB, defaultToken: opts.DefaultToken}, nil
}

// Resolve returns the bot token for a team, or the default token when the
// team is unknown, the lookup fails, or teamID is empty.
func (r *Resolver) Resolve(teamID string) string {
	if teamID == "" {
		return r.defaultToken
	}
	var inst models.TeamInstallation
	err := r.db.First(&inst, "team_id = ?", teamID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("workspace: token lookup for team %s: %v", teamID, err)
		}
		return r.defaultToken
	}
	if inst.BotToken == "" {
		return r.defaultToken
	}
	return inst.BotToken
}

// SaveInstallation upserts a team's installation record, keyed on team ID.
// Reinstalls replace the stored token and scope.
func (r *Resolver) SaveInstallation(inst models.TeamInstallation) error {
	if inst.TeamID == "" {
		return fmt.Errorf("workspace: save installation: team id is required")
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "team_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"team_name", "bot_token", "scope", "installer_user_id", "app_id", "installed_at",
		}),
	}).Create(&inst).Error
	if err != nil {
		return fmt.Errorf("workspace: save installation for team %s: %w", inst.TeamID, err)
	}
	return nil
}
