package models

import "time"

// Session is one round of estimation for a single issue in one channel.
// Sessions are never mutated after creation; starting a new session in the
// same channel supersedes the old one without deleting it.
type Session struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Channel   string    `gorm:"size:64;not null;index"`
	Issue     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}

// Vote is one user's estimate for a session. The composite primary key
// makes a second vote from the same user an overwrite, never a second row.
type Vote struct {
	SessionID string `gorm:"primaryKey;size:64"`
	UserID    string `gorm:"primaryKey;size:64"`
	Vote      int    `gorm:"not null"`
	Username  string `gorm:"size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
