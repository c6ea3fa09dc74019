// Package server exposes the bot's inbound HTTP surface: slash commands,
// interactive actions, the OAuth install flow, and admin cleanup.
package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jamigibbs/slack-planning-poker/internal/dispatch"
	"github.com/jamigibbs/slack-planning-poker/internal/retention"
	"github.com/jamigibbs/slack-planning-poker/internal/workspace"
)

// Server wires dispatchers and the OAuth flow onto a Gin router.
type Server struct {
	router    *gin.Engine
	commands  *dispatch.CommandDispatcher
	actions   *dispatch.ActionDispatcher
	installer *workspace.Installer
	sweeper   *retention.Sweeper
	clientID  string
	scopes    string
	redirect  string
	adminKey  string
	port      int
}

// Opts holds parameters for creating a Server.
type Opts struct {
	Commands  *dispatch.CommandDispatcher
	Actions   *dispatch.ActionDispatcher
	Installer *workspace.Installer // optional; nil disables the OAuth flow
	Sweeper   *retention.Sweeper   // optional; nil disables admin cleanup

	ClientID    string // Slack app client id, for the install link
	Scopes      string // comma-separated bot scopes
	RedirectURL string
	AdminKey    string // shared secret for /admin/cleanup; empty disables
	Port        int    // defaults to 3000
}

// New creates a Server with all routes registered.
func New(opts Opts) (*Server, error) {
	if opts.Commands == nil {
		return nil, fmt.Errorf("server: command dispatcher is required")
	}
	if opts.Actions == nil {
		return nil, fmt.Errorf("server: action dispatcher is required")
	}
	if opts.Port <= 0 {
		opts.Port = 3000
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	s := &Server{
		router:    router,
		commands:  opts.Commands,
		actions:   opts.Actions,
		installer: opts.Installer,
		sweeper:   opts.Sweeper,
		clientID:  opts.ClientID,
		scopes:    opts.Scopes,
		redirect:  opts.RedirectURL,
		adminKey:  opts.AdminKey,
		port:      opts.Port,
	}
	s.registerRoutes()
	return s, nil
}

// Router exposes the underlying Gin engine, primarily for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the HTTP server. It blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
