package submit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cobrrraa/predlozhka/internal/domain/model"
)

type adminListerStub struct {
	admins []model.User
	err    error
}

func (s adminListerStub) ListAdmins(context.Context) ([]model.User, error) {
	return s.admins, s.err
}

type postStoreStub struct {
	nextID      int64
	createErr   error
	setErr      error
	lastPrompts []model.PromptRef
	setCalls    int
}

func (s *postStoreStub) Create(_ context.Context, ownerID int64, attachmentPath string, caption *string) (model.Post, error) {
	if s.createErr != nil {
		return model.Post{}, s.createErr
	}
	s.nextID++
	return model.Post{
		PostID:         s.nextID,
		OwnerID:        ownerID,
		AttachmentPath: attachmentPath,
		Caption:        caption,
	}, nil
}

func (s *postStoreStub) SetPrompts(_ context.Context, _ int64, prompts []model.PromptRef) error {
	s.setCalls++
	s.lastPrompts = prompts
	return s.setErr
}

type messengerStub struct {
	failFor       map[int64]error
	nextMessageID int
	sent          []int64
	acceptData    string
	declineData   string
}

func (s *messengerStub) SendDecisionPrompt(_ context.Context, chatID int64, _ string, _ *string, acceptData, declineData string) (int, error) {
	if err, ok := s.failFor[chatID]; ok {
		return 0, err
	}
	s.sent = append(s.sent, chatID)
	s.acceptData = acceptData
	s.declineData = declineData
	s.nextMessageID++
	return s.nextMessageID, nil
}

func TestSubmitFansOutToAllAdmins(t *testing.T) {
	posts := &postStoreStub{}
	messenger := &messengerStub{}
	svc := NewService(adminListerStub{admins: []model.User{
		{UserID: 100, IsAdmin: true},
		{UserID: 200, IsAdmin: true},
	}}, posts, messenger, nil)

	caption := "Hello"
	post, err := svc.Submit(context.Background(), 7, "temp/a.jpg", &caption)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if len(post.Prompts) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(post.Prompts))
	}
	if len(messenger.sent) != 2 || messenger.sent[0] != 100 || messenger.sent[1] != 200 {
		t.Fatalf("unexpected fan-out recipients: %v", messenger.sent)
	}
	if !strings.Contains(messenger.acceptData, `"accept"`) {
		t.Fatalf("accept control payload missing action: %s", messenger.acceptData)
	}
	if !strings.Contains(messenger.declineData, `"decline"`) {
		t.Fatalf("decline control payload missing action: %s", messenger.declineData)
	}
	if posts.setCalls != 1 {
		t.Fatalf("expected one prompts persist, got %d", posts.setCalls)
	}
}

func TestSubmitKeepsGoingPastFailedRecipient(t *testing.T) {
	posts := &postStoreStub{}
	messenger := &messengerStub{
		failFor: map[int64]error{100: errors.New("blocked by user")},
	}
	svc := NewService(adminListerStub{admins: []model.User{
		{UserID: 100, IsAdmin: true},
		{UserID: 200, IsAdmin: true},
	}}, posts, messenger, nil)

	post, err := svc.Submit(context.Background(), 7, "temp/a.jpg", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if len(post.Prompts) != 1 {
		t.Fatalf("expected exactly the surviving prompt, got %d", len(post.Prompts))
	}
	if post.Prompts[0].AdminID != 200 {
		t.Fatalf("unexpected surviving admin: %d", post.Prompts[0].AdminID)
	}
	if len(posts.lastPrompts) != 1 || posts.lastPrompts[0].AdminID != 200 {
		t.Fatalf("persisted prompts do not match delivered subset: %v", posts.lastPrompts)
	}
}

func TestSubmitWithZeroAdminsPersistsEmptyPrompts(t *testing.T) {
	posts := &postStoreStub{}
	svc := NewService(adminListerStub{}, posts, &messengerStub{}, nil)

	post, err := svc.Submit(context.Background(), 7, "temp/a.jpg", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if len(post.Prompts) != 0 {
		t.Fatalf("expected no prompts, got %d", len(post.Prompts))
	}
	if posts.setCalls != 1 {
		t.Fatalf("expected prompts persist even when empty")
	}
	if posts.lastPrompts == nil || len(posts.lastPrompts) != 0 {
		t.Fatalf("expected empty prompt list, got %v", posts.lastPrompts)
	}
}

func TestSubmitPropagatesCreateFailure(t *testing.T) {
	posts := &postStoreStub{createErr: errors.New("store unavailable")}
	svc := NewService(adminListerStub{}, posts, &messengerStub{}, nil)

	if _, err := svc.Submit(context.Background(), 7, "temp/a.jpg", nil); err == nil {
		t.Fatalf("expected create failure to propagate")
	}
}
