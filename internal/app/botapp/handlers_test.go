package botapp

import (
	"errors"
	"testing"

	"github.com/cobrrraa/predlozhka/internal/domain/enums"
	resolvesvc "github.com/cobrrraa/predlozhka/internal/services/resolve"
)

func TestAnswerForDecision(t *testing.T) {
	tests := []struct {
		name   string
		action enums.DecisionAction
		err    error
		want   string
	}{
		{name: "accept ok", action: enums.DecisionAccept, want: publishedAnswer},
		{name: "decline ok", action: enums.DecisionDecline, want: declinedAnswer},
		{name: "no permission", action: enums.DecisionAccept, err: resolvesvc.ErrNoPermission, want: noPermissionAnswer},
		{name: "not found", action: enums.DecisionDecline, err: resolvesvc.ErrPostNotFound, want: notFoundAnswer},
		{name: "publish failed", action: enums.DecisionAccept, err: resolvesvc.ErrPublishFailed, want: publishFailedAnswer},
		{name: "wrapped publish failure", action: enums.DecisionAccept,
			err: errors.Join(resolvesvc.ErrPublishFailed, errors.New("channel unreachable")), want: publishFailedAnswer},
		{name: "unexpected error", action: enums.DecisionAccept, err: errors.New("boom"), want: internalAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := answerForDecision(tt.action, tt.err); got != tt.want {
				t.Fatalf("unexpected answer: got %q want %q", got, tt.want)
			}
		})
	}
}

func TestCaptionOrNil(t *testing.T) {
	if captionOrNil("") != nil {
		t.Fatalf("empty caption must map to nil")
	}
	caption := captionOrNil("Hello")
	if caption == nil || *caption != "Hello" {
		t.Fatalf("unexpected caption pointer: %v", caption)
	}
}
