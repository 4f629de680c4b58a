package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cobrrraa/predlozhka/internal/domain/model"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Ensure creates the user on first contact. Existing rows, including admin
// rows, are left untouched.
func (r *UserRepo) Ensure(ctx context.Context, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user_id")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO users (user_id, is_admin)
VALUES ($1, FALSE)
ON CONFLICT (user_id) DO NOTHING
`, userID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	return nil
}

func (r *UserRepo) Find(ctx context.Context, userID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user_id")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
SELECT user_id, is_admin
FROM users
WHERE user_id = $1
`, userID).Scan(&user.UserID, &user.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user: %w", err)
	}

	return user, nil
}

func (r *UserRepo) ListAdmins(ctx context.Context) ([]model.User, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT user_id, is_admin
FROM users
WHERE is_admin = TRUE
ORDER BY user_id
`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var admins []model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.UserID, &user.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan admin row: %w", err)
		}
		admins = append(admins, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admin rows: %w", err)
	}

	return admins, nil
}

// GrantAdmin upserts the user as a moderator inside the caller's
// transaction. Used only by the initialization gate.
func (r *UserRepo) GrantAdmin(ctx context.Context, tx pgx.Tx, userID int64) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user_id")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO users (user_id, is_admin)
VALUES ($1, TRUE)
ON CONFLICT (user_id) DO UPDATE SET is_admin = TRUE
`, userID); err != nil {
		return fmt.Errorf("grant admin: %w", err)
	}

	return nil
}
