package models

import (
	"context"
	"fmt"
)

func (pg *PostgresRepo) ListCategories(ctx context.Context) ([]*Category, error) {
	rows, err := pg.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*Category{}
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (pg *PostgresRepo) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	c := &Category{}
	err := pg.pool.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", id, pgError(err))
	}
	return c, nil
}

func (pg *PostgresRepo) EnsureCategory(ctx context.Context, name string) (bool, error) {
	tag, err := pg.pool.Exec(ctx, `INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return false, fmt.Errorf("failed to seed category %q: %w", name, err)
	}
	return tag.RowsAffected() == 1, nil
}
