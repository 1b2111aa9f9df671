package repository

import (
	"context"
	"database/sql"
	"fmt"

	"algo_answer_hub/internal/domain/model"
)

type CommentRepository interface {
	Insert(ctx context.Context, comment *model.Comment, userID string) error
	// ListBySolution returns comments oldest-first. Only the author id is
	// resolved here; profile embedding happens in the aggregation layer.
	ListBySolution(ctx context.Context, solutionID string) ([]model.Comment, error)
}

type pgCommentRepository struct {
	db *sql.DB
}

func NewPgCommentRepository(db *sql.DB) CommentRepository {
	return &pgCommentRepository{db: db}
}

func (r *pgCommentRepository) Insert(ctx context.Context, c *model.Comment, userID string) error {
	query := `INSERT INTO comments (id, solution_id, user_id, content)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.SolutionID, userID, c.Content).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgCommentRepository.Insert: %w", err)
	}
	return nil
}

func (r *pgCommentRepository) ListBySolution(ctx context.Context, solutionID string) ([]model.Comment, error) {
	query := `SELECT id, solution_id, user_id, content, created_at
	          FROM comments WHERE solution_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, solutionID)
	if err != nil {
		return nil, fmt.Errorf("pgCommentRepository.ListBySolution query: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		var userID string
		if err := rows.Scan(&c.ID, &c.SolutionID, &userID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgCommentRepository.ListBySolution scan: %w", err)
		}
		c.User = &model.User{ID: userID}
		comments = append(comments, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCommentRepository.ListBySolution rows.Err: %w", err)
	}
	return comments, nil
}
