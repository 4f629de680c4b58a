package botapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cobrrraa/predlozhka/internal/domain/enums"
	tginfra "github.com/cobrrraa/predlozhka/internal/infra/telegram"
	resolvesvc "github.com/cobrrraa/predlozhka/internal/services/resolve"
	setupsvc "github.com/cobrrraa/predlozhka/internal/services/setup"
)

const (
	welcomeText            = "Добро пожаловать! Отправьте изображение для предложения поста."
	submittedText          = "Пост отправлен администраторам."
	submitFailedText       = "Не удалось обработать изображение. Попробуйте ещё раз."
	initializedText        = "Бот инициализирован."
	alreadyInitializedText = "Бот уже инициализирован."
	initUsageText          = "Использование: /init <канал>;<id модератора>;..."
	noTargetWarningText    = "Warning! No target channel specified."

	publishedAnswer     = "✅ Пост опубликован"
	declinedAnswer      = "Пост отклонен"
	notFoundAnswer      = "Пост не найден."
	noPermissionAnswer  = "У вас нет прав для этой операции."
	publishFailedAnswer = "Не удалось опубликовать пост. Он остался в очереди."
	unknownActionAnswer = "Неизвестное действие"
	internalAnswer      = "Ошибка обработки. Попробуйте позже."
)

// Every handler swallows its own error after logging: one broken event
// must not take the update loop down.

func (a *App) handleCommand(ctx context.Context, update tginfra.CommandUpdate) error {
	var err error
	switch strings.ToLower(strings.TrimSpace(update.Command)) {
	case "start":
		err = a.handleStart(ctx, update)
	case "init":
		err = a.handleInit(ctx, update)
	default:
		return nil
	}

	if err != nil {
		a.logger.Error("command handling failed",
			zap.String("command", update.Command),
			zap.Int64("user_id", update.UserID),
			zap.Error(err),
		)
	}
	return nil
}

func (a *App) handleStart(ctx context.Context, update tginfra.CommandUpdate) error {
	if err := a.userRepo.Ensure(ctx, update.UserID); err != nil {
		return err
	}
	return a.bot.SendText(ctx, update.ChatID, welcomeText)
}

func (a *App) handleInit(ctx context.Context, update tginfra.CommandUpdate) error {
	err := a.setupService.Initialize(ctx, update.UserID, update.Args)
	switch {
	case err == nil:
		return a.bot.SendText(ctx, update.ChatID, initializedText)
	case errors.Is(err, setupsvc.ErrAlreadyInitialized):
		return a.bot.SendText(ctx, update.ChatID, alreadyInitializedText)
	case errors.Is(err, setupsvc.ErrInvalidArgs):
		return a.bot.SendText(ctx, update.ChatID, initUsageText)
	default:
		return err
	}
}

func (a *App) handlePhoto(ctx context.Context, update tginfra.PhotoUpdate) error {
	if err := a.processPhoto(ctx, update); err != nil {
		a.logger.Error("photo handling failed",
			zap.Int64("user_id", update.UserID),
			zap.Error(err),
		)
		if sendErr := a.bot.SendText(ctx, update.ChatID, submitFailedText); sendErr != nil {
			a.logger.Warn("failed to report submit failure", zap.Error(sendErr))
		}
	}
	return nil
}

func (a *App) processPhoto(ctx context.Context, update tginfra.PhotoUpdate) error {
	if err := a.userRepo.Ensure(ctx, update.UserID); err != nil {
		return err
	}

	retryAfter, allowed, err := a.limiter.AllowSubmission(ctx, update.UserID)
	if err != nil {
		// A broken limiter should not block submissions.
		a.logger.Warn("submission limiter unavailable", zap.Error(err))
	} else if !allowed {
		return a.bot.SendText(ctx, update.ChatID,
			fmt.Sprintf("Слишком много предложений. Попробуйте через %d сек.", retryAfter))
	}

	body, hint, err := a.bot.DownloadFile(ctx, update.FileID)
	if err != nil {
		return fmt.Errorf("download submission: %w", err)
	}
	defer body.Close()

	path, err := a.spool.Stage(body, hint)
	if err != nil {
		return fmt.Errorf("stage submission: %w", err)
	}

	caption := captionOrNil(update.Caption)
	if _, err := a.submitService.Submit(ctx, update.UserID, path, caption); err != nil {
		_ = a.spool.Remove(path)
		return fmt.Errorf("submit post: %w", err)
	}

	return a.bot.SendText(ctx, update.ChatID, submittedText)
}

func (a *App) handleCallback(ctx context.Context, update tginfra.CallbackUpdate) error {
	payload, err := tginfra.DecodeDecision(update.Data)
	if err != nil {
		a.logger.Warn("malformed callback payload",
			zap.Int64("user_id", update.UserID),
			zap.String("data", update.Data),
			zap.Error(err),
		)
		return a.answerCallback(ctx, update.CallbackID, unknownActionAnswer)
	}

	resolveErr := a.resolveService.Resolve(ctx, update.UserID, payload.PostID, payload.Action)
	if resolveErr != nil && !isExpectedResolveErr(resolveErr) {
		a.logger.Error("decision resolution failed",
			zap.Int64("user_id", update.UserID),
			zap.Int64("post_id", payload.PostID),
			zap.Error(resolveErr),
		)
	}

	return a.answerCallback(ctx, update.CallbackID, answerForDecision(payload.Action, resolveErr))
}

func (a *App) answerCallback(ctx context.Context, callbackID, text string) error {
	if err := a.bot.AnswerCallback(ctx, callbackID, text); err != nil {
		a.logger.Warn("failed to answer callback", zap.Error(err))
	}
	return nil
}

// answerForDecision maps a resolution outcome onto the short answer shown
// to the acting moderator.
func answerForDecision(action enums.DecisionAction, err error) string {
	switch {
	case err == nil:
		if action == enums.DecisionAccept {
			return publishedAnswer
		}
		return declinedAnswer
	case errors.Is(err, resolvesvc.ErrNoPermission):
		return noPermissionAnswer
	case errors.Is(err, resolvesvc.ErrPostNotFound):
		return notFoundAnswer
	case errors.Is(err, resolvesvc.ErrPublishFailed):
		return publishFailedAnswer
	default:
		return internalAnswer
	}
}

func isExpectedResolveErr(err error) bool {
	return errors.Is(err, resolvesvc.ErrNoPermission) ||
		errors.Is(err, resolvesvc.ErrPostNotFound) ||
		errors.Is(err, resolvesvc.ErrPublishFailed)
}

func captionOrNil(caption string) *string {
	if caption == "" {
		return nil
	}
	return &caption
}
