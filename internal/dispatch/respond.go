package dispatch

import (
	"log"

	"github.com/jamigibbs/slack-planning-poker/internal/workspace"
	"github.com/slack-go/slack"
)

// Responder delivers a message to a slash command's response_url after the
// synchronous acknowledgment has already been sent.
type Responder interface {
	// Respond posts msg to responseURL. Returns false on delivery failure;
	// the failure is logged, never propagated.
	Respond(responseURL string, msg *slack.WebhookMessage) bool
}

// webhookResponder posts delayed responses over Slack's webhook endpoint.
type webhookResponder struct{}

// NewWebhookResponder returns the production Responder.
func NewWebhookResponder() Responder {
	return webhookResponder{}
}

func (webhookResponder) Respond(responseURL string, msg *slack.WebhookMessage) bool {
	if err := slack.PostWebhook(responseURL, msg); err != nil {
		log.Printf("dispatch: delayed response delivery: %v", err)
		return false
	}
	return true
}

// ReactionClient is the subset of the Slack API used to add reactions.
type ReactionClient interface {
	AddReaction(name string, item slack.ItemRef) error
}

// reactionPool is tried in order when a reaction already exists on the
// message (a user may vote more than once).
var reactionPool = []string{"white_check_mark", "ballot_box_with_check", "heavy_check_mark", "dart", "raised_hands"}

// Reactor adds emoji reactions to origin messages using the workspace's
// resolved bot token. Reactions are cosmetic: every failure is logged and
// swallowed.
type Reactor struct {
	resolver  *workspace.Resolver
	newClient func(token string) ReactionClient
}

// ReactorOpts holds parameters for creating a Reactor.
type ReactorOpts struct {
	Resolver *workspace.Resolver
	// NewClient builds a Slack client for a token. Defaults to the real API;
	// injectable for tests.
	NewClient func(token string) ReactionClient
}

// NewReactor creates a Reactor.
func NewReactor(opts ReactorOpts) *Reactor {
	newClient := opts.NewClient
	if newClient == nil {
		newClient = func(token string) ReactionClient {
			return slack.New(token)
		}
	}
	return &Reactor{resolver: opts.Resolver, newClient: newClient}
}

// AddVoteReaction marks the origin message with an emoji from the pool.
// "already_reacted" moves on to the next emoji; any other error is terminal
// for this attempt (missing scope, bot not in channel) and only logged.
func (r *Reactor) AddVoteReaction(teamID, channelID, timestamp string) {
	if channelID == "" || timestamp == "" {
		return
	}
	token := ""
	if r.resolver != nil {
		token = r.resolver.Resolve(teamID)
	}
	if token == "" {
		log.Printf("dispatch: reaction skipped: no token for team %q", teamID)
		return
	}

	client := r.newClient(token)
	item := slack.ItemRef{Channel: channelID, Timestamp: timestamp}
	for _, name := range reactionPool {
		err := client.AddReaction(name, item)
		if err == nil {
			return
		}
		if err.Error() == "already_reacted" {
			continue
		}
		log.Printf("dispatch: add reaction %q to %s@%s: %v", name, channelID, timestamp, err)
		return
	}
}
