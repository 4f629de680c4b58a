package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cobrrraa/predlozhka/internal/domain/enums"
	"github.com/cobrrraa/predlozhka/internal/domain/model"
	"github.com/cobrrraa/predlozhka/internal/infra/metrics"
	pgrepo "github.com/cobrrraa/predlozhka/internal/repo/postgres"
)

const publishedNotice = "Ваш пост опубликован."

var (
	ErrNoPermission  = errors.New("user has no permission to resolve posts")
	ErrPostNotFound  = errors.New("post not found")
	ErrPublishFailed = errors.New("publish to target channel failed")
)

type UserStore interface {
	Find(ctx context.Context, userID int64) (model.User, error)
}

type PostStore interface {
	LockForResolve(ctx context.Context, tx pgx.Tx, postID int64) (model.Post, error)
	Delete(ctx context.Context, tx pgx.Tx, postID int64) error
}

type SettingsStore interface {
	Get(ctx context.Context) (model.Settings, error)
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type Messenger interface {
	PublishPhoto(ctx context.Context, target string, attachmentPath string, caption *string) error
	SendText(ctx context.Context, chatID int64, text string) error
	ClearControls(ctx context.Context, chatID int64, messageID int) error
}

type Cleaner interface {
	Remove(path string) error
}

// Service resolves moderator decisions. The load-then-delete sequence runs
// under a row lock, so for any post exactly one decision wins; every other
// concurrent attempt observes ErrPostNotFound.
type Service struct {
	users     UserStore
	posts     PostStore
	settings  SettingsStore
	runner    TxRunner
	messenger Messenger
	cleaner   Cleaner
	logger    *zap.Logger
}

func NewService(users UserStore, posts PostStore, settings SettingsStore, runner TxRunner, messenger Messenger, cleaner Cleaner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		users:     users,
		posts:     posts,
		settings:  settings,
		runner:    runner,
		messenger: messenger,
		cleaner:   cleaner,
		logger:    logger,
	}
}

func (s *Service) Resolve(ctx context.Context, actorID int64, postID int64, action enums.DecisionAction) error {
	if postID <= 0 {
		return fmt.Errorf("invalid post id")
	}
	if !action.Valid() {
		return fmt.Errorf("invalid decision action %q", action)
	}
	if s.users == nil || s.posts == nil || s.settings == nil || s.runner == nil || s.messenger == nil || s.cleaner == nil {
		return fmt.Errorf("resolve service dependencies are not configured")
	}

	actor, err := s.users.Find(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			s.logger.Warn("decision from unknown user", zap.Int64("actor_id", actorID), zap.Int64("post_id", postID))
			return ErrNoPermission
		}
		return fmt.Errorf("resolve acting user: %w", err)
	}
	if !actor.IsAdmin {
		s.logger.Warn("decision from non-admin user", zap.Int64("actor_id", actorID), zap.Int64("post_id", postID))
		return ErrNoPermission
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	var resolved model.Post
	err = s.runner.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		post, err := s.posts.LockForResolve(ctx, tx, postID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrPostNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		if action == enums.DecisionAccept {
			// Publish before the delete commits: a failure here rolls the
			// transaction back and leaves the post pending for a retry.
			if err := s.messenger.PublishPhoto(ctx, settings.TargetChannel, post.AttachmentPath, post.Caption); err != nil {
				s.logger.Error("publish failed, post kept pending",
					zap.Int64("post_id", post.PostID),
					zap.String("target", settings.TargetChannel),
					zap.Error(err),
				)
				return fmt.Errorf("%w: %w", ErrPublishFailed, err)
			}
		}

		if err := s.posts.Delete(ctx, tx, post.PostID); err != nil {
			return err
		}

		resolved = post
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			s.logger.Warn("decision on missing post",
				zap.Int64("actor_id", actorID),
				zap.Int64("post_id", postID),
				zap.String("action", string(action)),
			)
			metrics.DecisionsTotal.WithLabelValues(string(action), "not_found").Inc()
			return ErrPostNotFound
		}
		if errors.Is(err, ErrPublishFailed) {
			metrics.DecisionsTotal.WithLabelValues(string(action), "publish_failed").Inc()
			return err
		}
		return err
	}

	// The decision is committed. Everything below is best-effort cleanup
	// that must not undo or fail the resolution.
	if action == enums.DecisionAccept {
		if err := s.messenger.SendText(ctx, resolved.OwnerID, publishedNotice); err != nil {
			metrics.DeliveryFailuresTotal.WithLabelValues("notify").Inc()
			s.logger.Warn("failed to notify post owner", zap.Int64("owner_id", resolved.OwnerID), zap.Error(err))
		}
	}

	s.stripControls(ctx, resolved)

	if err := s.cleaner.Remove(resolved.AttachmentPath); err != nil {
		s.logger.Warn("failed to remove staged attachment",
			zap.Int64("post_id", resolved.PostID),
			zap.String("path", resolved.AttachmentPath),
			zap.Error(err),
		)
	}

	metrics.DecisionsTotal.WithLabelValues(string(action), "ok").Inc()
	s.logger.Info("post resolved",
		zap.Int64("post_id", resolved.PostID),
		zap.Int64("actor_id", actorID),
		zap.String("action", string(action)),
	)

	return nil
}

// stripControls removes the accept/decline buttons from every delivered
// prompt. One unreachable moderator must not keep the others' stale
// controls alive, so failures are logged and skipped.
func (s *Service) stripControls(ctx context.Context, post model.Post) {
	for _, prompt := range post.Prompts {
		if err := s.messenger.ClearControls(ctx, prompt.AdminID, prompt.MessageID); err != nil {
			metrics.DeliveryFailuresTotal.WithLabelValues("strip").Inc()
			s.logger.Warn("failed to strip prompt controls",
				zap.Int64("post_id", post.PostID),
				zap.Int64("admin_id", prompt.AdminID),
				zap.Int("message_id", prompt.MessageID),
				zap.Error(err),
			)
		}
	}
}
