package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"algo_answer_hub/internal/common"

	"github.com/jackc/pgx/v5/pgconn"
)

type LikeRepository interface {
	Insert(ctx context.Context, solutionID, userID string) error
	Delete(ctx context.Context, solutionID, userID string) error
	Exists(ctx context.Context, solutionID, userID string) (bool, error)
}

type pgLikeRepository struct {
	db *sql.DB
}

func NewPgLikeRepository(db *sql.DB) LikeRepository {
	return &pgLikeRepository{db: db}
}

func (r *pgLikeRepository) Insert(ctx context.Context, solutionID, userID string) error {
	query := `INSERT INTO likes (solution_id, user_id) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, query, solutionID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // At most one like per (user, solution)
			return fmt.Errorf("solution already liked: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgLikeRepository.Insert: %w", err)
	}
	return nil
}

func (r *pgLikeRepository) Delete(ctx context.Context, solutionID, userID string) error {
	query := `DELETE FROM likes WHERE solution_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, solutionID, userID); err != nil {
		return fmt.Errorf("pgLikeRepository.Delete: %w", err)
	}
	return nil
}

func (r *pgLikeRepository) Exists(ctx context.Context, solutionID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM likes WHERE solution_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, solutionID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgLikeRepository.Exists: %w", err)
	}
	return exists, nil
}
