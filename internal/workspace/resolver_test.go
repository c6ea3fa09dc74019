package workspace

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jamigibbs/slack-planning-poker/internal/models"
	"github.com/slack-go/slack"
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
	if err := db.AutoMigrate(&models.TeamInstallation{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(ResolverOpts{DB: openTestDB(t), DefaultToken: "xoxb-default"})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return r
}

func TestNewResolver_NilDB(t *testing.T) {
	_, err := NewResolver(ResolverOpts{})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestResolve_EmptyTeamID(t *testing.T) {
	r := newTestResolver(t)
	if got := r.Resolve(""); got != "xoxb-default" {
		t.Errorf("Resolve(\"\") = %q, want default token", got)
	}
}

func TestResolve_UnknownTeamFallsBack(t *testing.T) {
	r := newTestResolver(t)
	if got := r.Resolve("T999"); got != "xoxb-default" {
		t.Errorf("Resolve(unknown) = %q, want default token", got)
	}
}

func TestResolve_KnownTeam(t *testing.T) {
	r := newTestResolver(t)
	err := r.SaveInstallation(models.TeamInstallation{
		TeamID:      "T123",
		BotToken:    "xoxb-team",
		Scope:       "commands,chat:write",
		InstalledAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("save installation: %v", err)
	}
	if got := r.Resolve("T123"); got != "xoxb-team" {
		t.Errorf("Resolve(T123) = %q, want team token", got)
	}
}

func TestSaveInstallation_UpsertReplacesToken(t *testing.T) {
	r := newTestResolver(t)
	first := models.TeamInstallation{TeamID: "T123", BotToken: "xoxb-old", InstalledAt: time.Now()}
	if err := r.SaveInstallation(first); err != nil {
		t.Fatalf("first install: %v", err)
	}
	second := models.TeamInstallation{TeamID: "T123", BotToken: "xoxb-new", Scope: "commands", InstalledAt: time.Now()}
	if err := r.SaveInstallation(second); err != nil {
		t.Fatalf("reinstall: %v", err)
	}

	var count int64
	r.db.Model(&models.TeamInstallation{}).Count(&count)
	if count != 1 {
		t.Fatalf("installation count = %d, want 1 row per team", count)
	}
	if got := r.Resolve("T123"); got != "xoxb-new" {
		t.Errorf("Resolve after reinstall = %q, want xoxb-new", got)
	}
}

func TestSaveInstallation_MissingTeamID(t *testing.T) {
	r := newTestResolver(t)
	if err := r.SaveInstallation(models.TeamInstallation{BotToken: "xoxb-x"}); err == nil {
		t.Fatal("expected error for missing team id")
	}
}

func TestInstaller_Install(t *testing.T) {
	r := newTestResolver(t)
	inst, err := NewInstaller(InstallerOpts{
		Resolver:     r,
		ClientID:     "123.456",
		ClientSecret: "shh",
		Exchange: func(clientID, clientSecret, code, redirectURL string) (*slack.OAuthV2Response, error) {
			if code != "auth-code" {
				t.Errorf("code = %q, want auth-code", code)
			}
			resp := &slack.OAuthV2Response{
				AccessToken: "xoxb-granted",
				Scope:       "commands,chat:write",
				AppID:       "A01",
			}
			resp.Team.ID = "T777"
			resp.Team.Name = "Acme"
			resp.AuthedUser.ID = "U42"
			return resp, nil
		},
	})
	if err != nil {
		t.Fatalf("new installer: %v", err)
	}

	saved, err := inst.Install("auth-code")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if saved.TeamID != "T777" || saved.BotToken != "xoxb-granted" {
		t.Errorf("installation = %+v, want team T777 with granted token", saved)
	}
	if got := r.Resolve("T777"); got != "xoxb-granted" {
		t.Errorf("Resolve after install = %q, want xoxb-granted", got)
	}
}

func TestInstaller_ExchangeErrorVerbatim(t *testing.T) {
	r := newTestResolver(t)
	inst, err := NewInstaller(InstallerOpts{
		Resolver:     r,
		ClientID:     "123.456",
		ClientSecret: "shh",
		Exchange: func(_, _, _, _ string) (*slack.OAuthV2Response, error) {
			return nil, errors.New("invalid_code")
		},
	})
	if err != nil {
		t.Fatalf("new installer: %v", err)
	}

	_, err = inst.Install("bad")
	if err == nil {
		t.Fatal("expected error from failed exchange")
	}
	if !strings.Contains(err.Error(), "invalid_code") {
		t.Errorf("error = %q, want Slack's error string preserved", err.Error())
	}
}

func TestNewInstaller_MissingCredentials(t *testing.T) {
	r := newTestResolver(t)
	if _, err := NewInstaller(InstallerOpts{Resolver: r}); err == nil {
		t.Fatal("expected error for missing client credentials")
	}
}
