package setup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cobrrraa/predlozhka/internal/domain/model"
)

var (
	ErrAlreadyInitialized = errors.New("bot is already initialized")
	ErrInvalidArgs        = errors.New("invalid init arguments")
)

type SettingsStore interface {
	LockForInit(ctx context.Context, tx pgx.Tx) (model.Settings, error)
	MarkInitialized(ctx context.Context, tx pgx.Tx, targetChannel string, initializerID int64) error
}

type AdminStore interface {
	GrantAdmin(ctx context.Context, tx pgx.Tx, userID int64) error
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

// Service is the one-shot bootstrap gate. Deliberately unauthenticated:
// whoever reaches the deployment first becomes the initializer, every
// later attempt is rejected by the initialized flag.
type Service struct {
	settings SettingsStore
	users    AdminStore
	runner   TxRunner
	logger   *zap.Logger
}

func NewService(settings SettingsStore, users AdminStore, runner TxRunner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		settings: settings,
		users:    users,
		runner:   runner,
		logger:   logger,
	}
}

// Initialize parses "<target>;<id1>;<id2>;..." and, if the deployment is
// still uninitialized, records the target channel and seeds the moderator
// set in one transaction.
func (s *Service) Initialize(ctx context.Context, actorID int64, args string) error {
	if actorID <= 0 {
		return fmt.Errorf("invalid actor id")
	}
	if s.settings == nil || s.users == nil || s.runner == nil {
		return fmt.Errorf("setup service dependencies are not configured")
	}

	target, adminIDs, err := ParseArgs(args)
	if err != nil {
		return err
	}

	err = s.runner.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		settings, err := s.settings.LockForInit(ctx, tx)
		if err != nil {
			return err
		}
		if settings.Initialized {
			return ErrAlreadyInitialized
		}

		if err := s.settings.MarkInitialized(ctx, tx, target, actorID); err != nil {
			return err
		}

		for _, adminID := range adminIDs {
			if err := s.users.GrantAdmin(ctx, tx, adminID); err != nil {
				return fmt.Errorf("seed moderator %d: %w", adminID, err)
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyInitialized) {
			s.logger.Warn("repeated init attempt rejected", zap.Int64("actor_id", actorID))
			return ErrAlreadyInitialized
		}
		return err
	}

	s.logger.Info("bot initialized",
		zap.Int64("initializer_id", actorID),
		zap.String("target_channel", target),
		zap.Int("moderators", len(adminIDs)),
	)

	return nil
}

// ParseArgs splits the init command payload. The target channel is
// mandatory; the moderator list may be empty.
func ParseArgs(args string) (string, []int64, error) {
	parts := strings.Split(args, ";")

	target := strings.TrimSpace(parts[0])
	if target == "" {
		return "", nil, fmt.Errorf("%w: target channel is missing", ErrInvalidArgs)
	}

	var adminIDs []int64
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return "", nil, fmt.Errorf("%w: bad moderator id %q", ErrInvalidArgs, part)
		}
		adminIDs = append(adminIDs, id)
	}

	return target, adminIDs, nil
}
