package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"algo_answer_hub/internal/common"
	"algo_answer_hub/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

// listSeparator delimits tags and image references inside their text
// columns. Values are trimmed on read so stray whitespace never leaks out.
const listSeparator = ","

type QuestionRepository interface {
	Insert(ctx context.Context, question *model.Question) error
	// List returns all questions newest-first, solutions not populated.
	List(ctx context.Context) ([]model.Question, error)
	FindByID(ctx context.Context, id string) (*model.Question, error)
}

type pgQuestionRepository struct {
	db *sql.DB
}

func NewPgQuestionRepository(db *sql.DB) QuestionRepository {
	return &pgQuestionRepository{db: db}
}

func (r *pgQuestionRepository) Insert(ctx context.Context, q *model.Question) error {
	query := `INSERT INTO questions (id, title, slug, description, difficulty, tags, images, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		q.ID, q.Title, q.Slug, q.Description, q.Difficulty, joinList(q.Tags), joinList(q.Images), q.CreatedByID,
	).Scan(&q.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("question with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgQuestionRepository.Insert: %w", err)
	}
	return nil
}

func (r *pgQuestionRepository) List(ctx context.Context) ([]model.Question, error) {
	query := `SELECT id, title, slug, description, difficulty, tags, images, created_by, created_at
	          FROM questions ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgQuestionRepository.List query: %w", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("pgQuestionRepository.List scan: %w", err)
		}
		questions = append(questions, *q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgQuestionRepository.List rows.Err: %w", err)
	}
	return questions, nil
}

func (r *pgQuestionRepository) FindByID(ctx context.Context, id string) (*model.Question, error) {
	query := `SELECT id, title, slug, description, difficulty, tags, images, created_by, created_at
	          FROM questions WHERE id = $1`
	q, err := scanQuestion(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgQuestionRepository.FindByID: %w", err)
	}
	return q, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (*model.Question, error) {
	q := &model.Question{}
	var tags, images string
	if err := row.Scan(&q.ID, &q.Title, &q.Slug, &q.Description, &q.Difficulty, &tags, &images, &q.CreatedByID, &q.CreatedAt); err != nil {
		return nil, err
	}
	q.Tags = splitList(tags)
	q.Images = splitList(images)
	q.Solutions = []model.Solution{}
	return q, nil
}

func joinList(values []string) string {
	return strings.Join(values, listSeparator)
}

func splitList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, listSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
