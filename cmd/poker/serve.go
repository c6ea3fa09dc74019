package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamigibbs/slack-planning-poker/internal/config"
	"github.com/jamigibbs/slack-planning-poker/internal/db"
	"github.com/jamigibbs/slack-planning-poker/internal/dispatch"
	"github.com/jamigibbs/slack-planning-poker/internal/retention"
	"github.com/jamigibbs/slack-planning-poker/internal/server"
	"github.com/jamigibbs/slack-planning-poker/internal/session"
	"github.com/jamigibbs/slack-planning-poker/internal/vote"
	"github.com/jamigibbs/slack-planning-poker/internal/workspace"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot's HTTP server",
		Long:  "Connects to the database, migrates the schema, starts the retention schedule, and serves Slack webhooks until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	registry, err := session.NewRegistry(session.RegistryOpts{DB: gormDB})
	if err != nil {
		return err
	}
	ledger, err := vote.NewLedger(vote.LedgerOpts{DB: gormDB})
	if err != nil {
		return err
	}
	resolver, err := workspace.NewResolver(workspace.ResolverOpts{
		DB:           gormDB,
		DefaultToken: cfg.Slack.BotToken,
	})
	if err != nil {
		return err
	}

	commands, err := dispatch.NewCommandDispatcher(dispatch.CommandDispatcherOpts{
		Registry: registry,
		Ledger:   ledger,
	})
	if err != nil {
		return err
	}
	actions, err := dispatch.NewActionDispatcher(dispatch.ActionDispatcherOpts{
		Ledger:  ledger,
		Reactor: dispatch.NewReactor(dispatch.ReactorOpts{Resolver: resolver}),
	})
	if err != nil {
		return err
	}

	var installer *workspace.Installer
	if cfg.Slack.ClientID != "" && cfg.Slack.ClientSecret != "" {
		installer, err = workspace.NewInstaller(workspace.InstallerOpts{
			Resolver:     resolver,
			ClientID:     cfg.Slack.ClientID,
			ClientSecret: cfg.Slack.ClientSecret,
			RedirectURL:  cfg.Slack.RedirectURL,
		})
		if err != nil {
			return err
		}
	}

	sweeper, err := retention.NewSweeper(retention.SweeperOpts{
		DB:     gormDB,
		MaxAge: time.Duration(cfg.Retention.MaxAgeDays) * 24 * time.Hour,
	})
	if err != nil {
		return err
	}
	cronRunner, err := sweeper.Schedule(cfg.Retention.Schedule)
	if err != nil {
		return err
	}
	defer cronRunner.Stop()

	srv, err := server.New(server.Opts{
		Commands:    commands,
		Actions:     actions,
		Installer:   installer,
		Sweeper:     sweeper,
		ClientID:    cfg.Slack.ClientID,
		Scopes:      cfg.Slack.Scopes,
		RedirectURL: cfg.Slack.RedirectURL,
		AdminKey:    cfg.Admin.Key,
		Port:        cfg.Server.Port,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "Planning poker listening on :%d\n", cfg.Server.Port)
	return srv.Start(ctx)
}
