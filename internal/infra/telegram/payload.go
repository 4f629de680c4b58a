package telegram

import (
	"encoding/json"
	"fmt"

	"github.com/cobrrraa/predlozhka/internal/domain/enums"
)

// DecisionPayload is the closed callback-data variant carried by prompt
// controls. Telegram limits callback data to 64 bytes, which this encoding
// fits comfortably.
type DecisionPayload struct {
	PostID int64                `json:"post"`
	Action enums.DecisionAction `json:"action"`
}

func EncodeDecision(postID int64, action enums.DecisionAction) (string, error) {
	if postID <= 0 {
		return "", fmt.Errorf("invalid post id %d", postID)
	}
	if !action.Valid() {
		return "", fmt.Errorf("invalid decision action %q", action)
	}

	raw, err := json.Marshal(DecisionPayload{PostID: postID, Action: action})
	if err != nil {
		return "", fmt.Errorf("marshal decision payload: %w", err)
	}

	return string(raw), nil
}

// DecodeDecision validates inbound callback data before anything is
// dispatched on it. Unknown fields, missing ids and unknown actions are
// all rejected here.
func DecodeDecision(data string) (DecisionPayload, error) {
	var payload DecisionPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return DecisionPayload{}, fmt.Errorf("unmarshal decision payload: %w", err)
	}

	if payload.PostID <= 0 {
		return DecisionPayload{}, fmt.Errorf("decision payload has invalid post id %d", payload.PostID)
	}
	if !payload.Action.Valid() {
		return DecisionPayload{}, fmt.Errorf("decision payload has unknown action %q", payload.Action)
	}

	return payload, nil
}
