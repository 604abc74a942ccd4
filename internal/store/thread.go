package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/devhub-se/apiserver/types"
)

// ThreadRepository handles persistence for forum threads.
type ThreadRepository struct {
	db *sql.DB
}

func NewThreadRepository(db *sql.DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

func (r *ThreadRepository) ListBySubcategory(ctx context.Context, subcategoryID int) ([]types.Thread, error) {
	const query = `
		SELECT t.id, t.title, t.subcategory_id, t.user_id, u.username, t.created_at
		FROM threads t
		JOIN users u ON u.id = t.user_id
		WHERE t.subcategory_id = $1
		ORDER BY t.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, subcategoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []types.Thread
	for rows.Next() {
		var thread types.Thread
		if err := rows.Scan(
			&thread.ID,
			&thread.Title,
			&thread.SubcategoryID,
			&thread.UserID,
			&thread.Author,
			&thread.CreatedAt,
		); err != nil {
			return nil, err
		}
		threads = append(threads, thread)
	}
	return threads, rows.Err()
}

func (r *ThreadRepository) GetByID(ctx context.Context, id int) (types.Thread, error) {
	const query = `
		SELECT t.id, t.title, t.subcategory_id, t.user_id, u.username, t.created_at
		FROM threads t
		JOIN users u ON u.id = t.user_id
		WHERE t.id = $1`
	var thread types.Thread
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&thread.ID,
		&thread.Title,
		&thread.SubcategoryID,
		&thread.UserID,
		&thread.Author,
		&thread.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Thread{}, ErrNotFound
		}
		return types.Thread{}, err
	}
	return thread, nil
}

func (r *ThreadRepository) Create(ctx context.Context, thread types.Thread) (types.Thread, error) {
	thread.CreatedAt = time.Now()

	const query = `
		INSERT INTO threads (title, subcategory_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		thread.Title,
		thread.SubcategoryID,
		thread.UserID,
		thread.CreatedAt,
	).Scan(&thread.ID); err != nil {
		return types.Thread{}, err
	}
	return thread, nil
}

// Update changes the thread title. Ownership is immutable after creation,
// so user_id is never touched here.
func (r *ThreadRepository) Update(ctx context.Context, thread types.Thread) (types.Thread, error) {
	const query = `
		UPDATE threads
		SET title = $1
		WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, thread.Title, thread.ID)
	if err != nil {
		return types.Thread{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Thread{}, err
	}
	if affected == 0 {
		return types.Thread{}, ErrNotFound
	}
	return thread, nil
}

func (r *ThreadRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM threads WHERE id = $1`
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
