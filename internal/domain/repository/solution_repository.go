package repository

import (
	"context"
	"database/sql"
	"fmt"

	"algo_answer_hub/internal/common"
	"algo_answer_hub/internal/domain/model"
)

type SolutionRepository interface {
	Insert(ctx context.Context, solution *model.Solution) error
	// ListByQuestion returns solutions newest-first, comments and author not
	// populated.
	ListByQuestion(ctx context.Context, questionID string) ([]model.Solution, error)
	// UpdateLikeCount overwrites the stored counter. The counter is derived
	// from the likes relation; bulk load recomputes it from truth.
	UpdateLikeCount(ctx context.Context, solutionID string, likes int) error
}

type pgSolutionRepository struct {
	db *sql.DB
}

func NewPgSolutionRepository(db *sql.DB) SolutionRepository {
	return &pgSolutionRepository{db: db}
}

func (r *pgSolutionRepository) Insert(ctx context.Context, s *model.Solution) error {
	query := `INSERT INTO solutions (id, question_id, user_id, title, content, code, images, likes)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		s.ID, s.QuestionID, s.UserID, s.Title, s.Content, s.Code, joinList(s.Images),
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgSolutionRepository.Insert: %w", err)
	}
	s.Likes = 0
	return nil
}

func (r *pgSolutionRepository) ListByQuestion(ctx context.Context, questionID string) ([]model.Solution, error) {
	// The counter is recomputed from the likes relation here rather than read
	// from the stored column, so every bulk load reconciles any divergence
	// left by the two-step toggle write.
	query := `SELECT s.id, s.question_id, s.user_id, s.title, s.content, s.code, s.images,
	                 (SELECT COUNT(*) FROM likes l WHERE l.solution_id = s.id) AS likes,
	                 s.created_at
	          FROM solutions s WHERE s.question_id = $1 ORDER BY s.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("pgSolutionRepository.ListByQuestion query: %w", err)
	}
	defer rows.Close()

	solutions := []model.Solution{}
	for rows.Next() {
		var s model.Solution
		var images string
		if err := rows.Scan(&s.ID, &s.QuestionID, &s.UserID, &s.Title, &s.Content, &s.Code, &images, &s.Likes, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgSolutionRepository.ListByQuestion scan: %w", err)
		}
		s.Images = splitList(images)
		s.Comments = []model.Comment{}
		solutions = append(solutions, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSolutionRepository.ListByQuestion rows.Err: %w", err)
	}
	return solutions, nil
}

func (r *pgSolutionRepository) UpdateLikeCount(ctx context.Context, solutionID string, likes int) error {
	query := `UPDATE solutions SET likes = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, likes, solutionID)
	if err != nil {
		return fmt.Errorf("pgSolutionRepository.UpdateLikeCount: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return common.ErrNotFound
	}
	return nil
}
