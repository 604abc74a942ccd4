package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/devhub-se/apiserver/types"
)

// CategoryRepository handles persistence for forum categories.
type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List(ctx context.Context) ([]types.Category, error) {
	const query = `
		SELECT id, name, description, created_at
		FROM categories
		ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []types.Category
	for rows.Next() {
		var category types.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Description, &category.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int) (types.Category, error) {
	const query = `
		SELECT id, name, description, created_at
		FROM categories
		WHERE id = $1`
	var category types.Category
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	return category, nil
}

// GetByName matches category names case-insensitively.
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (types.Category, error) {
	const query = `
		SELECT id, name, description, created_at
		FROM categories
		WHERE lower(name) = lower($1)`
	var category types.Category
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	return category, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category types.Category) (types.Category, error) {
	category.CreatedAt = time.Now()

	const query = `
		INSERT INTO categories (name, description, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		category.Name,
		category.Description,
		category.CreatedAt,
	).Scan(&category.ID); err != nil {
		return types.Category{}, err
	}
	return category, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM categories WHERE id = $1`
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

// SubcategoryRepository handles persistence for forum subcategories.
type SubcategoryRepository struct {
	db *sql.DB
}

func NewSubcategoryRepository(db *sql.DB) *SubcategoryRepository {
	return &SubcategoryRepository{db: db}
}

func (r *SubcategoryRepository) ListByCategory(ctx context.Context, categoryID int) ([]types.Subcategory, error) {
	const query = `
		SELECT id, category_id, name, created_at
		FROM subcategories
		WHERE category_id = $1
		ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subcategories []types.Subcategory
	for rows.Next() {
		var subcategory types.Subcategory
		if err := rows.Scan(&subcategory.ID, &subcategory.CategoryID, &subcategory.Name, &subcategory.CreatedAt); err != nil {
			return nil, err
		}
		subcategories = append(subcategories, subcategory)
	}
	return subcategories, rows.Err()
}

func (r *SubcategoryRepository) GetByID(ctx context.Context, id int) (types.Subcategory, error) {
	const query = `
		SELECT id, category_id, name, created_at
		FROM subcategories
		WHERE id = $1`
	var subcategory types.Subcategory
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&subcategory.ID,
		&subcategory.CategoryID,
		&subcategory.Name,
		&subcategory.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Subcategory{}, ErrNotFound
		}
		return types.Subcategory{}, err
	}
	return subcategory, nil
}

func (r *SubcategoryRepository) Create(ctx context.Context, subcategory types.Subcategory) (types.Subcategory, error) {
	subcategory.CreatedAt = time.Now()

	const query = `
		INSERT INTO subcategories (category_id, name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		subcategory.CategoryID,
		subcategory.Name,
		subcategory.CreatedAt,
	).Scan(&subcategory.ID); err != nil {
		return types.Subcategory{}, err
	}
	return subcategory, nil
}

func (r *SubcategoryRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM subcategories WHERE id = $1`
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
