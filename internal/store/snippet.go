package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/devhub-se/apiserver/types"
)

// SnippetRepository handles persistence for code snippets.
type SnippetRepository struct {
	db *sql.DB
}

func NewSnippetRepository(db *sql.DB) *SnippetRepository {
	return &SnippetRepository{db: db}
}

// List returns snippets newest first, optionally filtered by language.
func (r *SnippetRepository) List(ctx context.Context, language string) ([]types.Snippet, error) {
	const query = `
		SELECT s.id, s.title, s.language, s.code, s.description, s.user_id, u.username, s.created_at
		FROM snippets s
		JOIN users u ON u.id = s.user_id
		WHERE $1 = '' OR s.language = $1
		ORDER BY s.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, language)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snippets []types.Snippet
	for rows.Next() {
		var snippet types.Snippet
		if err := rows.Scan(
			&snippet.ID,
			&snippet.Title,
			&snippet.Language,
			&snippet.Code,
			&snippet.Description,
			&snippet.UserID,
			&snippet.Author,
			&snippet.CreatedAt,
		); err != nil {
			return nil, err
		}
		snippets = append(snippets, snippet)
	}
	return snippets, rows.Err()
}

func (r *SnippetRepository) GetByID(ctx context.Context, id int) (types.Snippet, error) {
	const query = `
		SELECT s.id, s.title, s.language, s.code, s.description, s.user_id, u.username, s.created_at
		FROM snippets s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1`
	var snippet types.Snippet
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&snippet.ID,
		&snippet.Title,
		&snippet.Language,
		&snippet.Code,
		&snippet.Description,
		&snippet.UserID,
		&snippet.Author,
		&snippet.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Snippet{}, ErrNotFound
		}
		return types.Snippet{}, err
	}
	return snippet, nil
}

func (r *SnippetRepository) Create(ctx context.Context, snippet types.Snippet) (types.Snippet, error) {
	snippet.CreatedAt = time.Now()

	const query = `
		INSERT INTO snippets (title, language, code, description, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		snippet.Title,
		snippet.Language,
		snippet.Code,
		snippet.Description,
		snippet.UserID,
		snippet.CreatedAt,
	).Scan(&snippet.ID); err != nil {
		return types.Snippet{}, err
	}
	return snippet, nil
}

func (r *SnippetRepository) Update(ctx context.Context, snippet types.Snippet) (types.Snippet, error) {
	const query = `
		UPDATE snippets
		SET title = $1,
			language = $2,
			code = $3,
			description = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		snippet.Title,
		snippet.Language,
		snippet.Code,
		snippet.Description,
		snippet.ID,
	)
	if err != nil {
		return types.Snippet{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Snippet{}, err
	}
	if affected == 0 {
		return types.Snippet{}, ErrNotFound
	}
	return snippet, nil
}

func (r *SnippetRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM snippets WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
