package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cobrrraa/predlozhka/internal/domain/model"
)

var ErrPostNotFound = errors.New("post not found")

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

func (r *PostRepo) Create(ctx context.Context, ownerID int64, attachmentPath string, caption *string) (model.Post, error) {
	if r.pool == nil {
		return model.Post{}, fmt.Errorf("postgres pool is nil")
	}
	if ownerID <= 0 {
		return model.Post{}, fmt.Errorf("invalid owner_id")
	}
	if attachmentPath == "" {
		return model.Post{}, fmt.Errorf("attachment path is required")
	}

	var postID int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO posts (owner_id, attachment_path, caption, prompts)
VALUES ($1, $2, $3, '[]'::jsonb)
RETURNING post_id
`, ownerID, attachmentPath, caption).Scan(&postID)
	if err != nil {
		return model.Post{}, fmt.Errorf("create post: %w", err)
	}

	return model.Post{
		PostID:         postID,
		OwnerID:        ownerID,
		AttachmentPath: attachmentPath,
		Caption:        caption,
	}, nil
}

// SetPrompts stores the delivered-prompt handles recorded during fan-out.
func (r *PostRepo) SetPrompts(ctx context.Context, postID int64, prompts []model.PromptRef) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if postID <= 0 {
		return fmt.Errorf("invalid post_id")
	}

	if prompts == nil {
		prompts = []model.PromptRef{}
	}
	raw, err := json.Marshal(prompts)
	if err != nil {
		return fmt.Errorf("marshal prompts: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE posts
SET prompts = $2::jsonb
WHERE post_id = $1
`, postID, raw)
	if err != nil {
		return fmt.Errorf("set post prompts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}

	return nil
}

// LockForResolve loads the post under a row lock. A concurrent resolver
// blocks here until the winner commits its delete, then observes
// ErrPostNotFound.
func (r *PostRepo) LockForResolve(ctx context.Context, tx pgx.Tx, postID int64) (model.Post, error) {
	if tx == nil {
		return model.Post{}, fmt.Errorf("tx is nil")
	}
	if postID <= 0 {
		return model.Post{}, fmt.Errorf("invalid post_id")
	}

	var (
		post model.Post
		raw  []byte
	)
	err := tx.QueryRow(ctx, `
SELECT post_id, owner_id, attachment_path, caption, prompts
FROM posts
WHERE post_id = $1
FOR UPDATE
`, postID).Scan(&post.PostID, &post.OwnerID, &post.AttachmentPath, &post.Caption, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Post{}, ErrPostNotFound
		}
		return model.Post{}, fmt.Errorf("lock post for resolve: %w", err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &post.Prompts); err != nil {
			return model.Post{}, fmt.Errorf("unmarshal post prompts: %w", err)
		}
	}

	return post, nil
}

func (r *PostRepo) Delete(ctx context.Context, tx pgx.Tx, postID int64) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}
	if postID <= 0 {
		return fmt.Errorf("invalid post_id")
	}

	tag, err := tx.Exec(ctx, `
DELETE FROM posts
WHERE post_id = $1
`, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}

	return nil
}
