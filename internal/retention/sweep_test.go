package retention

import (
	"testing"
	"time"

	"github.com/jamigibbs/slack-planning-poker/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Session{}, &models.Vote{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func seed(t *testing.T, db *gorm.DB, id string, age time.Duration, voteUsers ...string) {
	t.Helper()
	s := models.Session{ID: id, Channel: "C1", Issue: "issue " + id, CreatedAt: time.Now().Add(-age)}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("seed session %s: %v", id, err)
	}
	for _, u := range voteUsers {
		v := models.Vote{SessionID: id, UserID: u, Vote: 3, Username: u}
		if err := db.Create(&v).Error; err != nil {
			t.Fatalf("seed vote %s/%s: %v", id, u, err)
		}
	}
}

func TestNewSweeper_Validation(t *testing.T) {
	if _, err := NewSweeper(SweeperOpts{MaxAge: time.Hour}); err == nil {
		t.Fatal("expected error for nil db")
	}
	if _, err := NewSweeper(SweeperOpts{DB: openTestDB(t)}); err == nil {
		t.Fatal("expected error for zero max age")
	}
}

func TestSweep_RemovesOldKeepsRecent(t *testing.T) {
	db := openTestDB(t)
	seed(t, db, "old", 40*24*time.Hour, "u1", "u2")
	seed(t, db, "recent", 2*24*time.Hour, "u3")

	s, err := NewSweeper(SweeperOpts{DB: db, MaxAge: 30 * 24 * time.Hour})
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	sessions, votes, err := s.Sweep()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sessions != 1 || votes != 2 {
		t.Errorf("swept (%d sessions, %d votes), want (1, 2)", sessions, votes)
	}

	var sessionCount, voteCount int64
	db.Model(&models.Session{}).Count(&sessionCount)
	db.Model(&models.Vote{}).Count(&voteCount)
	if sessionCount != 1 || voteCount != 1 {
		t.Errorf("remaining (%d sessions, %d votes), want (1, 1)", sessionCount, voteCount)
	}
	var kept models.Session
	if err := db.First(&kept, "id = ?", "recent").Error; err != nil {
		t.Errorf("recent session should survive the sweep: %v", err)
	}
}

func TestSweep_NothingExpired(t *testing.T) {
	db := openTestDB(t)
	seed(t, db, "fresh", time.Hour, "u1")

	s, _ := NewSweeper(SweeperOpts{DB: db, MaxAge: 30 * 24 * time.Hour})
	sessions, votes, err := s.Sweep()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sessions != 0 || votes != 0 {
		t.Errorf("swept (%d, %d), want (0, 0)", sessions, votes)
	}
}

func TestSweep_SessionWithoutVotes(t *testing.T) {
	db := openTestDB(t)
	seed(t, db, "old-quiet", 60*24*time.Hour)

	s, _ := NewSweeper(SweeperOpts{DB: db, MaxAge: 30 * 24 * time.Hour})
	sessions, votes, err := s.Sweep()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sessions != 1 || votes != 0 {
		t.Errorf("swept (%d, %d), want (1, 0)", sessions, votes)
	}
}

func TestSchedule_InvalidExpression(t *testing.T) {
	s, _ := NewSweeper(SweeperOpts{DB: openTestDB(t), MaxAge: time.Hour})
	if _, err := s.Schedule("not a cron expr"); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestSchedule_ValidExpression(t *testing.T) {
	s, _ := NewSweeper(SweeperOpts{DB: openTestDB(t), MaxAge: time.Hour})
	c, err := s.Schedule("0 3 * * *")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	defer c.Stop()
	if len(c.Entries()) != 1 {
		t.Errorf("cron entries = %d, want 1", len(c.Entries()))
	}
}
