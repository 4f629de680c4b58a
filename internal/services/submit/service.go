package submit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cobrrraa/predlozhka/internal/domain/enums"
	"github.com/cobrrraa/predlozhka/internal/domain/model"
	"github.com/cobrrraa/predlozhka/internal/infra/metrics"
	"github.com/cobrrraa/predlozhka/internal/infra/telegram"
)

type AdminLister interface {
	ListAdmins(ctx context.Context) ([]model.User, error)
}

type PostStore interface {
	Create(ctx context.Context, ownerID int64, attachmentPath string, caption *string) (model.Post, error)
	SetPrompts(ctx context.Context, postID int64, prompts []model.PromptRef) error
}

type Messenger interface {
	SendDecisionPrompt(ctx context.Context, chatID int64, attachmentPath string, caption *string, acceptData, declineData string) (int, error)
}

type Service struct {
	users     AdminLister
	posts     PostStore
	messenger Messenger
	logger    *zap.Logger
}

func NewService(users AdminLister, posts PostStore, messenger Messenger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		users:     users,
		posts:     posts,
		messenger: messenger,
		logger:    logger,
	}
}

// Submit persists a new post for the already-staged attachment and fans the
// prompt out to every registered moderator. A delivery failure for one
// moderator is logged and does not abort the rest; the post keeps whatever
// subset of prompt handles succeeded, possibly none.
func (s *Service) Submit(ctx context.Context, ownerID int64, attachmentPath string, caption *string) (model.Post, error) {
	if ownerID <= 0 {
		return model.Post{}, fmt.Errorf("invalid owner id")
	}
	if s.users == nil || s.posts == nil || s.messenger == nil {
		return model.Post{}, fmt.Errorf("submit service dependencies are not configured")
	}

	post, err := s.posts.Create(ctx, ownerID, attachmentPath, caption)
	if err != nil {
		return model.Post{}, fmt.Errorf("create post: %w", err)
	}

	acceptData, err := telegram.EncodeDecision(post.PostID, enums.DecisionAccept)
	if err != nil {
		return model.Post{}, err
	}
	declineData, err := telegram.EncodeDecision(post.PostID, enums.DecisionDecline)
	if err != nil {
		return model.Post{}, err
	}

	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return model.Post{}, fmt.Errorf("list admins for fan-out: %w", err)
	}

	prompts := make([]model.PromptRef, 0, len(admins))
	for _, admin := range admins {
		messageID, sendErr := s.messenger.SendDecisionPrompt(ctx, admin.UserID, post.AttachmentPath, post.Caption, acceptData, declineData)
		if sendErr != nil {
			metrics.DeliveryFailuresTotal.WithLabelValues("fanout").Inc()
			s.logger.Warn("failed to deliver prompt to admin",
				zap.Int64("post_id", post.PostID),
				zap.Int64("admin_id", admin.UserID),
				zap.Error(sendErr),
			)
			continue
		}
		prompts = append(prompts, model.PromptRef{AdminID: admin.UserID, MessageID: messageID})
	}

	if err := s.posts.SetPrompts(ctx, post.PostID, prompts); err != nil {
		return model.Post{}, fmt.Errorf("persist delivered prompts: %w", err)
	}
	post.Prompts = prompts

	metrics.SubmissionsTotal.Inc()
	s.logger.Info("post submitted",
		zap.Int64("post_id", post.PostID),
		zap.Int64("owner_id", ownerID),
		zap.Int("prompts_delivered", len(prompts)),
		zap.Int("admins_total", len(admins)),
	)

	return post, nil
}
