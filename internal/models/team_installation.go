package models

import "time"

// TeamInstallation records an OAuth install of the app into a Slack
// workspace. Keyed by team ID; reinstalling upserts the row so the stored
// bot token always reflects the latest grant.
type TeamInstallation struct {
	TeamID          string `gorm:"primaryKey;size:32"`
	TeamName        string `gorm:"size:128"`
	BotToken        string `gorm:"size:128;not null"`
	Scope           string `gorm:"size:512"`
	InstallerUserID string `gorm:"size:32"`
	AppID           string `gorm:"size:32"`
	InstalledAt     time.Time
}
