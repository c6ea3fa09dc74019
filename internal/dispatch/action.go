package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jamigibbs/slack-planning-poker/internal/vote"
	"github.com/slack-go/slack"
)

// ActionDispatcher handles interactive-component payloads. Unlike slash
// commands there is no delayed phase: the payload's response channel allows
// a synchronous ephemeral reply, so Handle returns the final message.
type ActionDispatcher struct {
	ledger  *vote.Ledger
	reactor *Reactor
	// async controls whether reactions run in a goroutine. Disabled in tests
	// so assertions see the reaction attempt.
	async bool
}

// ActionDispatcherOpts holds parameters for creating an ActionDispatcher.
type ActionDispatcherOpts struct {
	Ledger      *vote.Ledger
	Reactor     *Reactor // optional; nil disables reactions
	Synchronous bool     // run reactions inline instead of a goroutine
}

// NewActionDispatcher creates an ActionDispatcher.
func NewActionDispatcher(opts ActionDispatcherOpts) (*ActionDispatcher, error) {
	if opts.Ledger == nil {
		return nil, fmt.Errorf("dispatch: action dispatcher: ledger is required")
	}
	return &ActionDispatcher{
		ledger:  opts.Ledger,
		reactor: opts.Reactor,
		async:   !opts.Synchronous,
	}, nil
}

// Handle processes the raw `payload` form field of an interactive action
// and returns the ephemeral response. It never fails: malformed input and
// store errors all degrade to a fixed user-facing message, because Slack
// has no rendering for a raw error status.
func (d *ActionDispatcher) Handle(rawPayload string) slack.Msg {
	if rawPayload == "" {
		return ephemeralMsg(MsgMissingPayload)
	}

	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(rawPayload), &cb); err != nil {
		log.Printf("dispatch: action payload parse: %v", err)
		return ephemeralMsg(MsgInvalidVote)
	}

	intent, err := parseIntent(&cb)
	if err != nil {
		if errors.Is(err, errUnsupportedAction) {
			return ephemeralMsg(MsgUnsupportedAction)
		}
		log.Printf("dispatch: vote intent: %v", err)
		return ephemeralMsg(MsgInvalidVote)
	}

	if !vote.ValidValue(intent.Vote) {
		log.Printf("dispatch: rejected out-of-scale vote %d from %s", intent.Vote, intent.UserID)
		return ephemeralMsg(MsgInvalidVote)
	}

	// Best-effort wording: the existence check and the upsert are not one
	// atomic step, so a concurrent double-submit may see "recorded" twice.
	// The row itself is still unique by primary key.
	hadVoted, err := d.ledger.HasVoted(intent.SessionID, intent.UserID)
	if err != nil {
		log.Printf("dispatch: has-voted check: %v", err)
		hadVoted = false
	}

	if err := d.ledger.Save(intent.SessionID, intent.UserID, intent.Vote, intent.UserName); err != nil {
		log.Printf("dispatch: save vote: %v", err)
		return ephemeralMsg(MsgSaveFailed)
	}

	if d.reactor != nil {
		if d.async {
			go d.reactor.AddVoteReaction(intent.TeamID, intent.ChannelID, intent.MessageTS)
		} else {
			d.reactor.AddVoteReaction(intent.TeamID, intent.ChannelID, intent.MessageTS)
		}
	}

	if hadVoted {
		return ephemeralMsg(fmt.Sprintf("Your vote has been updated to *%d*. :arrows_counterclockwise:", intent.Vote))
	}
	return ephemeralMsg(fmt.Sprintf("Your vote of *%d* has been recorded. :white_check_mark:", intent.Vote))
}

// ephemeralMsg wraps text in a user-only synchronous response.
func ephemeralMsg(text string) slack.Msg {
	return slack.Msg{
		ResponseType:    slack.ResponseTypeEphemeral,
		ReplaceOriginal: false,
		Text:            text,
	}
}
