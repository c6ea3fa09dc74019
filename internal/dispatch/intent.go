package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/slack-go/slack"
)

const (
	// blockActionID is the action identifier on modern block-action buttons.
	blockActionID = "poker_vote"
	// legacyActionName is the action name on legacy attachment-action buttons.
	legacyActionName = "vote"
)

// votePayload is the JSON embedded in a vote button's value.
type votePayload struct {
	SessionID string `json:"sessionId"`
	Vote      int    `json:"vote"`
}

// VoteIntent is the normalized form of a vote action, independent of which
// payload shape carried it.
type VoteIntent struct {
	SessionID string
	Vote      int
	UserID    string
	UserName  string
	ChannelID string
	MessageTS string
	TeamID    string
}

// errUnsupportedAction marks a payload whose action identifier does not
// match the vote-button convention for its shape.
var errUnsupportedAction = fmt.Errorf("dispatch: unsupported action")

// parseIntent extracts a VoteIntent from an interaction callback. Both the
// block-action and the legacy attachment-action shapes are accepted; every
// other shape or action identifier is rejected.
func parseIntent(cb *slack.InteractionCallback) (*VoteIntent, error) {
	var rawValue string

	switch cb.Type {
	case slack.InteractionTypeBlockActions:
		actions := cb.ActionCallback.BlockActions
		if len(actions) == 0 || actions[0].ActionID != blockActionID {
			return nil, errUnsupportedAction
		}
		rawValue = actions[0].Value
	case slack.InteractionTypeInteractionMessage:
		actions := cb.ActionCallback.AttachmentActions
		if len(actions) == 0 || actions[0].Name != legacyActionName {
			return nil, errUnsupportedAction
		}
		rawValue = actions[0].Value
	default:
		return nil, errUnsupportedAction
	}

	var vp votePayload
	if err := json.Unmarshal([]byte(rawValue), &vp); err != nil {
		return nil, fmt.Errorf("dispatch: vote value payload: %w", err)
	}
	if vp.SessionID == "" {
		return nil, fmt.Errorf("dispatch: vote value payload: missing session id")
	}

	return &VoteIntent{
		SessionID: vp.SessionID,
		Vote:      vp.Vote,
		UserID:    cb.User.ID,
		UserName:  cb.User.Name,
		ChannelID: cb.Channel.ID,
		MessageTS: messageTimestamp(cb),
		TeamID:    cb.Team.ID,
	}, nil
}

// messageTimestamp finds the origin message's timestamp across the payload
// shapes: block actions carry it in the container, legacy actions on the
// callback itself or the original message.
func messageTimestamp(cb *slack.InteractionCallback) string {
	if cb.Container.MessageTs != "" {
		return cb.Container.MessageTs
	}
	if cb.MessageTs != "" {
		return cb.MessageTs
	}
	return cb.OriginalMessage.Timestamp
}

// buttonValue serializes the payload a vote button carries.
func buttonValue(sessionID string, vote int) string {
	data, _ := json.Marshal(votePayload{SessionID: sessionID, Vote: vote})
	return string(data)
}
