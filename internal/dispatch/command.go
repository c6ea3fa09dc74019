// Package dispatch interprets inbound Slack slash commands and interactive
// actions, reconciling them against the session registry and vote ledger.
package dispatch

import (
	"fmt"
	"log"
	"strings"

	"github.com/jamigibbs/slack-planning-poker/internal/session"
	"github.com/jamigibbs/slack-planning-poker/internal/vote"
	"github.com/slack-go/slack"
)

const (
	cmdPoker  = "/poker"
	cmdReveal = "/poker-reveal"
)

// SlashCommand is the form-decoded slash command payload.
type SlashCommand struct {
	Command     string
	Text        string
	UserID      string
	ChannelID   string
	ResponseURL string
	TeamID      string
}

// CommandDispatcher handles slash commands with Slack's two-phase protocol:
// Ack produces the immediate synchronous response with zero blocking I/O,
// Resolve performs the real work and delivers the result to response_url.
type CommandDispatcher struct {
	registry  *session.Registry
	ledger    *vote.Ledger
	responder Responder
}

// CommandDispatcherOpts holds parameters for creating a CommandDispatcher.
type CommandDispatcherOpts struct {
	Registry  *session.Registry
	Ledger    *vote.Ledger
	Responder Responder // defaults to the webhook responder
}

// NewCommandDispatcher creates a CommandDispatcher.
func NewCommandDispatcher(opts CommandDispatcherOpts) (*CommandDispatcher, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("dispatch: command dispatcher: registry is required")
	}
	if opts.Ledger == nil {
		return nil, fmt.Errorf("dispatch: command dispatcher: ledger is required")
	}
	responder := opts.Responder
	if responder == nil {
		responder = NewWebhookResponder()
	}
	return &CommandDispatcher{
		registry:  opts.Registry,
		ledger:    opts.Ledger,
		responder: responder,
	}, nil
}

// Ack returns the immediate synchronous response for a command and whether
// a delayed Resolve phase should follow. It performs no store or network
// I/O: Slack times the synchronous window in single-digit seconds.
func (d *CommandDispatcher) Ack(cmd SlashCommand) (slack.Msg, bool) {
	switch cmd.Command {
	case cmdPoker, cmdReveal:
		return slack.Msg{ResponseType: slack.ResponseTypeEphemeral, Text: MsgWorking}, true
	default:
		return slack.Msg{ResponseType: slack.ResponseTypeEphemeral, Text: MsgUnknownCommand}, false
	}
}

// Resolve completes a command's real work and delivers the outcome to the
// command's response_url. Safe to run in a goroutine after Ack.
func (d *CommandDispatcher) Resolve(cmd SlashCommand) bool {
	switch cmd.Command {
	case cmdPoker:
		return d.resolveStart(cmd)
	case cmdReveal:
		return d.resolveReveal(cmd)
	default:
		return false
	}
}

// resolveStart creates a session and posts the voting message.
func (d *CommandDispatcher) resolveStart(cmd SlashCommand) bool {
	issue := strings.TrimSpace(cmd.Text)
	if issue == "" {
		return d.responder.Respond(cmd.ResponseURL, ephemeral(MsgUsage))
	}

	s, err := d.registry.Create(cmd.ChannelID, issue)
	if err != nil {
		log.Printf("dispatch: create session in %s: %v", cmd.ChannelID, err)
		return d.responder.Respond(cmd.ResponseURL, ephemeral(MsgCreateFailed))
	}

	return d.responder.Respond(cmd.ResponseURL, votePrompt(s))
}

// resolveReveal aggregates the latest session's votes and posts the result.
func (d *CommandDispatcher) resolveReveal(cmd SlashCommand) bool {
	s, err := d.registry.Latest(cmd.ChannelID)
	if err != nil {
		log.Printf("dispatch: latest session in %s: %v", cmd.ChannelID, err)
		return d.responder.Respond(cmd.ResponseURL, ephemeral(MsgRetrievalFailed))
	}
	if s == nil {
		return d.responder.Respond(cmd.ResponseURL, ephemeral(MsgNoActiveSession))
	}

	sessionRec, votes, err := d.ledger.ForSession(s.ID)
	if err != nil {
		log.Printf("dispatch: votes for session %s: %v", s.ID, err)
		return d.responder.Respond(cmd.ResponseURL, ephemeral(MsgRetrievalFailed))
	}
	if sessionRec == nil {
		sessionRec = s
	}

	return d.responder.Respond(cmd.ResponseURL, revealMessage(sessionRec, votes))
}
