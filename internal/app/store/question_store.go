package store

import (
	"context"
	"sync"
	"time"

	"algo_answer_hub/internal/common"
	"algo_answer_hub/internal/domain/model"
	"algo_answer_hub/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// QuestionStore owns the materialized Question->Solution->Comment view for a
// single viewer. Reads never fetch; mutations persist first and patch the
// local view only after the backend accepted the write. A bulk load replaces
// the view wholesale, so a reload finishing after a concurrent local patch
// wins (last writer on the view reference).
type QuestionStore struct {
	questionRepo repository.QuestionRepository
	solutionRepo repository.SolutionRepository
	commentRepo  repository.CommentRepository
	likeRepo     repository.LikeRepository
	userRepo     repository.UserRepository
	notifier     Notifier
	logger       *zap.Logger

	// Delay before the post-addSolution consistency reload. Zero runs the
	// reload synchronously.
	reloadDelay time.Duration

	mu      sync.RWMutex
	viewer  *model.User
	view    []model.Question
	loading bool
	lastErr error
}

func NewQuestionStore(
	questionRepo repository.QuestionRepository,
	solutionRepo repository.SolutionRepository,
	commentRepo repository.CommentRepository,
	likeRepo repository.LikeRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	logger *zap.Logger,
	reloadDelay time.Duration,
) *QuestionStore {
	return &QuestionStore{
		questionRepo: questionRepo,
		solutionRepo: solutionRepo,
		commentRepo:  commentRepo,
		likeRepo:     likeRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		logger:       logger,
		reloadDelay:  reloadDelay,
		view:         []model.Question{},
	}
}

// SetViewer rebinds the identity the view is computed against and reloads so
// every liked_by_current_user flag is relative to the new viewer.
func (s *QuestionStore) SetViewer(ctx context.Context, viewer *model.User) {
	s.mu.Lock()
	s.viewer = viewer
	s.mu.Unlock()
	s.Load(ctx)
}

func (s *QuestionStore) Viewer() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewer
}

func (s *QuestionStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *QuestionStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Questions returns the current view, newest-first.
func (s *QuestionStore) Questions() []model.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Question, len(s.view))
	copy(out, s.view)
	return out
}

// Load rebuilds the whole view from the backend. Sibling fetches run
// concurrently; a failed branch degrades to empty children instead of
// aborting the load. Only a failed root fetch empties the view and records
// the error. The assembled result is published atomically.
func (s *QuestionStore) Load(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	viewer := s.viewer
	s.mu.Unlock()

	questions, err := s.questionRepo.List(ctx)
	if err != nil {
		s.logger.Error("bulk load failed at root question fetch", zap.Error(err))
		s.notifier.Error("Load Questions", "failed to load questions: "+err.Error())
		s.mu.Lock()
		s.view = []model.Question{}
		s.lastErr = err
		s.loading = false
		s.mu.Unlock()
		return
	}

	var wg sync.WaitGroup
	for i := range questions {
		wg.Add(1)
		go func(q *model.Question) {
			defer wg.Done()
			s.loadSolutions(ctx, q, viewer)
		}(&questions[i])
	}
	wg.Wait()

	s.mu.Lock()
	s.view = questions
	s.lastErr = nil
	s.loading = false
	s.mu.Unlock()
}

func (s *QuestionStore) loadSolutions(ctx context.Context, q *model.Question, viewer *model.User) {
	solutions, err := s.solutionRepo.ListByQuestion(ctx, q.ID)
	if err != nil {
		s.logger.Warn("failed to load solutions, publishing question without them",
			zap.String("question_id", q.ID), zap.Error(err))
		q.Solutions = []model.Solution{}
		return
	}

	var wg sync.WaitGroup
	for i := range solutions {
		wg.Add(1)
		go func(sol *model.Solution) {
			defer wg.Done()
			s.loadSolutionChildren(ctx, sol, viewer)
		}(&solutions[i])
	}
	wg.Wait()
	q.Solutions = solutions
}

func (s *QuestionStore) loadSolutionChildren(ctx context.Context, sol *model.Solution, viewer *model.User) {
	if author, err := s.userRepo.GetProfile(ctx, sol.UserID); err != nil {
		s.logger.Warn("failed to resolve solution author",
			zap.String("solution_id", sol.ID), zap.Error(err))
	} else {
		sol.Author = author.Public()
	}

	comments, err := s.commentRepo.ListBySolution(ctx, sol.ID)
	if err != nil {
		s.logger.Warn("failed to load comments, publishing solution without them",
			zap.String("solution_id", sol.ID), zap.Error(err))
		sol.Comments = []model.Comment{}
	} else {
		for i := range comments {
			authorID := comments[i].User.ID
			profile, err := s.userRepo.GetProfile(ctx, authorID)
			if err != nil {
				s.logger.Warn("failed to resolve comment author",
					zap.String("comment_id", comments[i].ID), zap.Error(err))
				comments[i].User = &model.User{ID: authorID, Username: "Unknown"}
				continue
			}
			comments[i].User = profile.Public()
		}
		sol.Comments = comments
	}

	sol.LikedByCurrentUser = false
	if viewer != nil {
		liked, err := s.likeRepo.Exists(ctx, sol.ID, viewer.ID)
		if err != nil {
			s.logger.Warn("failed to check like state",
				zap.String("solution_id", sol.ID), zap.Error(err))
		} else {
			sol.LikedByCurrentUser = liked
		}
	}
}

type AddQuestionRequest struct {
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description" validate:"required"`
	Difficulty  model.Difficulty `json:"difficulty" validate:"required"`
	Tags        []string         `json:"tags"`
	Images      []string         `json:"images"`
}

// AddQuestion persists a new question and prepends it to the view with an
// empty solutions list. Admin only; the permission check happens before any
// backend call.
func (s *QuestionStore) AddQuestion(ctx context.Context, req AddQuestionRequest) (*model.Question, error) {
	viewer := s.Viewer()
	if viewer == nil {
		s.notifier.Error("Add Question", "please log in to add a question")
		return nil, common.ErrUnauthorized
	}
	if !viewer.IsAdmin {
		s.notifier.Error("Add Question", "only admins can add questions")
		return nil, common.Errorf("only admins can add questions: %w", common.ErrForbidden)
	}
	if err := common.ValidateStruct(req); err != nil {
		s.notifier.Error("Add Question", "missing required fields")
		return nil, err
	}
	if !req.Difficulty.Valid() {
		s.notifier.Error("Add Question", "unknown difficulty")
		return nil, common.Errorf("unknown difficulty %q: %w", req.Difficulty, common.ErrValidation)
	}

	question := &model.Question{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Tags:        req.Tags,
		Images:      req.Images,
		CreatedByID: &viewer.ID,
		Solutions:   []model.Solution{},
	}
	if question.Tags == nil {
		question.Tags = []string{}
	}

	if err := s.questionRepo.Insert(ctx, question); err != nil {
		s.notifier.Error("Add Question", "failed to add question: "+err.Error())
		return nil, err
	}

	s.mu.Lock()
	s.view = append([]model.Question{*question}, s.view...)
	s.mu.Unlock()

	s.notifier.Success("Add Question", "your question has been added")
	return question, nil
}

type AddSolutionRequest struct {
	Title   string   `json:"title" validate:"required"`
	Content string   `json:"content" validate:"required"`
	Code    string   `json:"code" validate:"required"`
	Images  []string `json:"images"`
}

// AddSolution persists a new solution and prepends it to the matching
// question. Derived fields can drift from backend truth after the optimistic
// patch, so a full reload is scheduled shortly after as the consistency
// fallback.
func (s *QuestionStore) AddSolution(ctx context.Context, questionID string, req AddSolutionRequest) (*model.Solution, error) {
	viewer := s.Viewer()
	if viewer == nil {
		s.notifier.Error("Add Solution", "please log in to add a solution")
		return nil, common.ErrUnauthorized
	}
	if err := common.ValidateStruct(req); err != nil {
		s.notifier.Error("Add Solution", "missing required fields")
		return nil, err
	}

	solution := &model.Solution{
		ID:         uuid.NewString(),
		QuestionID: questionID,
		UserID:     viewer.ID,
		Title:      req.Title,
		Content:    req.Content,
		Code:       req.Code,
		Images:     req.Images,
		Author:     viewer.Public(),
		Comments:   []model.Comment{},
	}

	if err := s.solutionRepo.Insert(ctx, solution); err != nil {
		s.notifier.Error("Add Solution", "failed to add solution: "+err.Error())
		return nil, err
	}

	s.mu.Lock()
	for i := range s.view {
		if s.view[i].ID == questionID {
			s.view[i].Solutions = append([]model.Solution{*solution}, s.view[i].Solutions...)
			break
		}
	}
	s.mu.Unlock()

	s.notifier.Success("Add Solution", "your solution has been added")
	s.scheduleReload(ctx)
	return solution, nil
}

func (s *QuestionStore) scheduleReload(ctx context.Context) {
	if s.reloadDelay <= 0 {
		s.Load(ctx)
		return
	}
	go func() {
		time.Sleep(s.reloadDelay)
		s.Load(context.Background())
	}()
}

// AddComment persists a comment attributed to the viewer and appends it to
// the matching solution. The author is the caller, so no profile re-fetch is
// needed for display.
func (s *QuestionStore) AddComment(ctx context.Context, questionID, solutionID, content string) (*model.Comment, error) {
	viewer := s.Viewer()
	if viewer == nil {
		s.notifier.Error("Add Comment", "please log in to add comments")
		return nil, common.ErrUnauthorized
	}
	if content == "" {
		s.notifier.Error("Add Comment", "comment content is required")
		return nil, common.Errorf("comment content is required: %w", common.ErrValidation)
	}

	comment := &model.Comment{
		ID:         uuid.NewString(),
		SolutionID: solutionID,
		Content:    content,
		User:       viewer.Public(),
	}

	if err := s.commentRepo.Insert(ctx, comment, viewer.ID); err != nil {
		s.notifier.Error("Add Comment", "failed to add comment: "+err.Error())
		return nil, err
	}

	s.mu.Lock()
	for i := range s.view {
		if s.view[i].ID != questionID {
			continue
		}
		for j := range s.view[i].Solutions {
			if s.view[i].Solutions[j].ID == solutionID {
				s.view[i].Solutions[j].Comments = append(s.view[i].Solutions[j].Comments, *comment)
				break
			}
		}
		break
	}
	s.mu.Unlock()

	s.notifier.Success("Add Comment", "your comment has been added")
	return comment, nil
}

// ToggleLike flips the viewer's like on a solution. The relation write and
// the counter write are separate calls; the local patch is applied only after
// both succeed, and the next bulk load recomputes both fields from the
// relation set if the pair ever diverges.
func (s *QuestionStore) ToggleLike(ctx context.Context, questionID, solutionID string) error {
	viewer := s.Viewer()
	if viewer == nil {
		s.notifier.Error("Toggle Like", "please log in to like solutions")
		return common.ErrUnauthorized
	}

	s.mu.RLock()
	solution := findSolution(s.view, questionID, solutionID)
	var liked bool
	var likes int
	if solution != nil {
		liked = solution.LikedByCurrentUser
		likes = solution.Likes
	}
	s.mu.RUnlock()
	if solution == nil {
		s.notifier.Error("Toggle Like", "solution not found")
		return common.Errorf("solution %s not found: %w", solutionID, common.ErrNotFound)
	}

	if liked {
		if err := s.likeRepo.Delete(ctx, solutionID, viewer.ID); err != nil {
			s.notifier.Error("Toggle Like", "failed to update like: "+err.Error())
			return err
		}
		if err := s.solutionRepo.UpdateLikeCount(ctx, solutionID, likes-1); err != nil {
			s.notifier.Error("Toggle Like", "failed to update like: "+err.Error())
			return err
		}
	} else {
		if err := s.likeRepo.Insert(ctx, solutionID, viewer.ID); err != nil {
			s.notifier.Error("Toggle Like", "failed to update like: "+err.Error())
			return err
		}
		if err := s.solutionRepo.UpdateLikeCount(ctx, solutionID, likes+1); err != nil {
			s.notifier.Error("Toggle Like", "failed to update like: "+err.Error())
			return err
		}
	}

	s.mu.Lock()
	if sol := findSolution(s.view, questionID, solutionID); sol != nil {
		if sol.LikedByCurrentUser {
			sol.Likes--
		} else {
			sol.Likes++
		}
		sol.LikedByCurrentUser = !sol.LikedByCurrentUser
	}
	s.mu.Unlock()
	return nil
}

func findSolution(view []model.Question, questionID, solutionID string) *model.Solution {
	for i := range view {
		if view[i].ID != questionID {
			continue
		}
		for j := range view[i].Solutions {
			if view[i].Solutions[j].ID == solutionID {
				return &view[i].Solutions[j]
			}
		}
		return nil
	}
	return nil
}

// GetQuestionByID looks the question up in the local view only.
func (s *QuestionStore) GetQuestionByID(id string) (*model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.view {
		if s.view[i].ID == id {
			q := s.view[i]
			return &q, nil
		}
	}
	return nil, common.ErrNotFound
}
