package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jamigibbs/slack-planning-poker/internal/dispatch"
	"golang.org/x/oauth2"
)

// slackEndpoint is Slack's OAuth v2 endpoint pair.
var slackEndpoint = oauth2.Endpoint{
	AuthURL:  "https://slack.com/oauth/v2/authorize",
	TokenURL: "https://slack.com/api/oauth.v2.access",
}

// registerRoutes sets up all routes on the Gin router.
func (s *Server) registerRoutes() {
	s.router.POST("/commands", s.handleCommand)
	s.router.POST("/actions", s.handleAction)

	s.router.GET("/install", s.handleInstall)
	s.router.GET("/oauth/callback", s.handleOAuthCallback)
	s.router.GET("/oauth/success", s.handleOAuthSuccess)

	s.router.GET("/admin/cleanup", s.handleCleanup)
	s.router.POST("/admin/cleanup", s.handleCleanup)
}

// handleCommand acknowledges a slash command synchronously and schedules
// the delayed resolution phase. Slack must get a 2xx before any store or
// network I/O happens.
func (s *Server) handleCommand(c *gin.Context) {
	cmd := dispatch.SlashCommand{
		Command:     c.PostForm("command"),
		Text:        c.PostForm("text"),
		UserID:      c.PostForm("user_id"),
		ChannelID:   c.PostForm("channel_id"),
		ResponseURL: c.PostForm("response_url"),
		TeamID:      c.PostForm("team_id"),
	}

	ack, resolve := s.commands.Ack(cmd)
	c.JSON(http.StatusOK, ack)

	if resolve {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("server: command resolution panic: %v", r)
				}
			}()
			s.commands.Resolve(cmd)
		}()
	}
}

// handleAction dispatches an interactive-component payload. Every failure,
// panics included, degrades to a 200 with an ephemeral message: Slack has
// no rendering for a raw error status.
func (s *Server) handleAction(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("server: action dispatch panic: %v", r)
			c.JSON(http.StatusOK, gin.H{
				"response_type": "ephemeral",
				"text":          dispatch.MsgInvalidVote,
			})
		}
	}()

	msg := s.actions.Handle(c.PostForm("payload"))
	c.JSON(http.StatusOK, msg)
}

// handleInstall redirects to Slack's authorize page.
func (s *Server) handleInstall(c *gin.Context) {
	if s.installer == nil || s.clientID == "" {
		c.HTML(http.StatusOK, "error.html", gin.H{
			"message": "This deployment is not configured for OAuth installs.",
		})
		return
	}
	cfg := oauth2.Config{
		ClientID:    s.clientID,
		Endpoint:    slackEndpoint,
		RedirectURL: s.redirect,
	}
	// Slack expects a comma-separated scope parameter rather than the
	// standard space-joined form.
	url := cfg.AuthCodeURL("", oauth2.SetAuthURLParam("scope", s.scopes))
	c.Redirect(http.StatusFound, url)
}

// handleOAuthCallback exchanges the authorization code and stores the
// workspace installation. Slack's own error string is shown verbatim.
func (s *Server) handleOAuthCallback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		c.HTML(http.StatusOK, "error.html", gin.H{"message": errParam})
		return
	}
	code := c.Query("code")
	if code == "" || s.installer == nil {
		c.HTML(http.StatusOK, "error.html", gin.H{"message": "Missing authorization code."})
		return
	}

	if _, err := s.installer.Install(code); err != nil {
		log.Printf("server: oauth install: %v", err)
		c.HTML(http.StatusOK, "error.html", gin.H{"message": err.Error()})
		return
	}
	c.Redirect(http.StatusFound, "/oauth/success")
}

// handleOAuthSuccess renders the post-install landing page.
func (s *Server) handleOAuthSuccess(c *gin.Context) {
	c.HTML(http.StatusOK, "success.html", nil)
}

// handleCleanup runs the retention sweep on demand. Gated by exact match on
// the shared admin key.
func (s *Server) handleCleanup(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		key = c.PostForm("key")
	}
	if s.adminKey == "" || key != s.adminKey {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid key"})
		return
	}
	if s.sweeper == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cleanup not configured"})
		return
	}

	sessions, votes, err := s.sweeper.Sweep()
	if err != nil {
		log.Printf("server: cleanup: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions_deleted": sessions, "votes_deleted": votes})
}
