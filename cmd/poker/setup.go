package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/jamigibbs/slack-planning-poker/internal/config"
)

func newSetupCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Interactively write a config file",
		Long:  "Prompts for Slack credentials (secrets read without echo) and writes a starter config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to write config file")
	return cmd
}

func runSetup(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists, refusing to overwrite", configPath)
	}

	botToken, err := promptSecret(out, reader, "Bot token (xoxb-..., blank for OAuth-only)")
	if err != nil {
		return err
	}
	clientID, err := promptLine(out, reader, "Client ID (blank for single workspace)")
	if err != nil {
		return err
	}
	var clientSecret string
	if clientID != "" {
		clientSecret, err = promptSecret(out, reader, "Client secret")
		if err != nil {
			return err
		}
	}
	adminKey, err := promptSecret(out, reader, "Admin cleanup key (blank to disable)")
	if err != nil {
		return err
	}

	cfg := config.Config{}
	cfg.Slack.BotToken = botToken
	cfg.Slack.ClientID = clientID
	cfg.Slack.ClientSecret = clientSecret
	cfg.Admin.Key = adminKey

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", configPath, err)
	}

	fmt.Fprintf(out, "Wrote %s — defaults apply for db, server, and retention.\n", configPath)
	return nil
}

// promptLine reads one line of input.
func promptLine(out io.Writer, reader *bufio.Reader, label string) (string, error) {
	fmt.Fprintf(out, "%s: ", label)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads a value without terminal echo when stdin is a TTY,
// falling back to a plain line read (tests, piped input).
func promptSecret(out io.Writer, reader *bufio.Reader, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprintf(out, "%s: ", label)
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}
	return promptLine(out, reader, label)
}
