package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/devhub-se/apiserver/types"
)

// NewsRepository handles persistence for news articles.
type NewsRepository struct {
	db *sql.DB
}

func NewNewsRepository(db *sql.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

func (r *NewsRepository) List(ctx context.Context) ([]types.News, error) {
	const query = `
		SELECT n.id, n.title, n.content, n.user_id, u.username, n.created_at
		FROM news n
		JOIN users u ON u.id = n.user_id
		ORDER BY n.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []types.News
	for rows.Next() {
		var article types.News
		if err := rows.Scan(
			&article.ID,
			&article.Title,
			&article.Content,
			&article.UserID,
			&article.Author,
			&article.CreatedAt,
		); err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

func (r *NewsRepository) GetByID(ctx context.Context, id int) (types.News, error) {
	const query = `
		SELECT n.id, n.title, n.content, n.user_id, u.username, n.created_at
		FROM news n
		JOIN users u ON u.id = n.user_id
		WHERE n.id = $1`
	var article types.News
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&article.ID,
		&article.Title,
		&article.Content,
		&article.UserID,
		&article.Author,
		&article.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.News{}, ErrNotFound
		}
		return types.News{}, err
	}
	return article, nil
}

func (r *NewsRepository) Create(ctx context.Context, article types.News) (types.News, error) {
	article.CreatedAt = time.Now()

	const query = `
		INSERT INTO news (title, content, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		article.Title,
		article.Content,
		article.UserID,
		article.CreatedAt,
	).Scan(&article.ID); err != nil {
		return types.News{}, err
	}
	return article, nil
}

func (r *NewsRepository) Update(ctx context.Context, article types.News) (types.News, error) {
	const query = `
		UPDATE news
		SET title = $1,
			content = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, article.Title, article.Content, article.ID)
	if err != nil {
		return types.News{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.News{}, err
	}
	if affected == 0 {
		return types.News{}, ErrNotFound
	}
	return article, nil
}

func (r *NewsRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM news WHERE id = $1`
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
