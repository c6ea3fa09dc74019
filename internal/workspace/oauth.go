package workspace

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jamigibbs/slack-planning-poker/internal/models"
	"github.com/slack-go/slack"
)

// ExchangeFunc performs the oauth.v2.access call. Swappable for tests.
type ExchangeFunc func(clientID, clientSecret, code, redirectURL string) (*slack.OAuthV2Response, error)

// defaultExchange calls Slack's oauth.v2.access endpoint.
func defaultExchange(clientID, clientSecret, code, redirectURL string) (*slack.OAuthV2Response, error) {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return slack.GetOAuthV2Response(httpClient, clientID, clientSecret, code, redirectURL)
}

// Installer runs the OAuth v2 install flow: exchanges the authorization
// code and persists the resulting workspace credential.
type Installer struct {
	resolver     *Resolver
	clientID     string
	clientSecret string
	redirectURL  string
	exchange     ExchangeFunc
}

// InstallerOpts holds parameters for creating an Installer.
type InstallerOpts struct {
	Resolver     *Resolver
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Exchange     ExchangeFunc // defaults to the real oauth.v2.access call
}

// NewInstaller creates an Installer.
func NewInstaller(opts InstallerOpts) (*Installer, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("workspace: installer: resolver is required")
	}
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("workspace: installer: client id and secret are required")
	}
	exchange := opts.Exchange
	if exchange == nil {
		exchange = defaultExchange
	}
	return &Installer{
		resolver:     opts.Resolver,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		redirectURL:  opts.RedirectURL,
		exchange:     exchange,
	}, nil
}

// Install exchanges an authorization code for a bot token and upserts the
// team installation. A non-ok platform response surfaces Slack's error
// string verbatim so the installer sees the real cause.
func (i *Installer) Install(code string) (*models.TeamInstallation, error) {
	resp, err := i.exchange(i.clientID, i.clientSecret, code, i.redirectURL)
	if err != nil {
		return nil, fmt.Errorf("workspace: oauth exchange: %w", err)
	}

	inst := models.TeamInstallation{
		TeamID:          resp.Team.ID,
		TeamName:        resp.Team.Name,
		BotToken:        resp.AccessToken,
		Scope:           resp.Scope,
		InstallerUserID: resp.AuthedUser.ID,
		AppID:           resp.AppID,
		InstalledAt:     time.Now(),
	}
	if err := i.resolver.SaveInstallation(inst); err != nil {
		return nil, err
	}
	return &inst, nil
}
