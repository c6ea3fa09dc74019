package dispatch

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jamigibbs/slack-planning-poker/internal/models"
	"github.com/jamigibbs/slack-planning-poker/internal/vote"
	"github.com/slack-go/slack"
)

// User-facing messages. The action dispatcher and the HTTP tests both key
// off these exact strings.
const (
	MsgWorking           = "On it! One moment..."
	MsgUsage             = "Please provide an issue to estimate, e.g. `/poker Fix the login bug`."
	MsgCreateFailed      = "Sorry, the poker session could not be created. Please try again."
	MsgNoActiveSession   = "There is no active poker session in this channel. Start one with `/poker <issue>`."
	MsgRetrievalFailed   = "Sorry, the votes could not be retrieved. Please try again."
	MsgUnknownCommand    = "Unsupported command. Try `/poker <issue>` to start a session or `/poker-reveal` to show results."
	MsgMissingPayload    = "Sorry, we could not read your vote: the payload was missing."
	MsgInvalidVote       = "Invalid vote data. Please vote using the session buttons."
	MsgUnsupportedAction = "Sorry, that action is not supported."
	MsgSaveFailed        = "Sorry, your vote could not be saved. Please try again."
)

// votePrompt builds the in-channel session message: the issue under
// estimation plus one button per value on the scale.
func votePrompt(s *models.Session) *slack.WebhookMessage {
	header := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf(":spades: *Planning poker:* %s", s.Issue), false, false),
		nil, nil,
	)
	meta := slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("Session `%s` — votes stay hidden until `/poker-reveal`", s.ID), false, false),
	)

	var buttons []slack.BlockElement
	for _, v := range vote.Values {
		label := slack.NewTextBlockObject(slack.PlainTextType, strconv.Itoa(v), false, false)
		btn := slack.NewButtonBlockElement(blockActionID, buttonValue(s.ID, v), label)
		buttons = append(buttons, btn)
	}
	actions := slack.NewActionBlock("poker_session", buttons...)

	return &slack.WebhookMessage{
		ResponseType: slack.ResponseTypeInChannel,
		Text:         fmt.Sprintf("Planning poker: %s", s.Issue),
		Blocks:       &slack.Blocks{BlockSet: []slack.Block{header, meta, actions}},
	}
}

// revealMessage renders the vote distribution for a session: each cast
// value with its count and voters, highest first.
func revealMessage(s *models.Session, votes []models.Vote) *slack.WebhookMessage {
	issue := "(unknown issue)"
	if s != nil {
		issue = s.Issue
	}

	if len(votes) == 0 {
		return &slack.WebhookMessage{
			ResponseType: slack.ResponseTypeInChannel,
			Text:         fmt.Sprintf("No votes yet for *%s*.", issue),
		}
	}

	byValue := make(map[int][]string)
	for _, v := range votes {
		name := v.Username
		if name == "" {
			name = v.UserID
		}
		byValue[v.Vote] = append(byValue[v.Vote], name)
	}

	values := make([]int, 0, len(byValue))
	for v := range byValue {
		values = append(values, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))

	var b strings.Builder
	fmt.Fprintf(&b, ":spades: *Results for:* %s\n", issue)
	for _, v := range values {
		voters := byValue[v]
		sort.Strings(voters)
		noun := "votes"
		if len(voters) == 1 {
			noun = "vote"
		}
		fmt.Fprintf(&b, "*%d* — %d %s: %s\n", v, len(voters), noun, strings.Join(voters, ", "))
	}

	return &slack.WebhookMessage{
		ResponseType: slack.ResponseTypeInChannel,
		Text:         b.String(),
	}
}

// ephemeral wraps text in a user-only webhook message.
func ephemeral(text string) *slack.WebhookMessage {
	return &slack.WebhookMessage{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         text,
	}
}
