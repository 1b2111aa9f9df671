package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"algo_answer_hub/internal/common"
	"algo_answer_hub/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// Mock repositories implementing the backend contract the store consumes.

type mockQuestionRepo struct {
	mock.Mock
}

func (m *mockQuestionRepo) Insert(ctx context.Context, q *model.Question) error {
	args := m.Called(q)
	return args.Error(0)
}

func (m *mockQuestionRepo) List(ctx context.Context) ([]model.Question, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Question), args.Error(1)
}

func (m *mockQuestionRepo) FindByID(ctx context.Context, id string) (*model.Question, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Question), args.Error(1)
}

type mockSolutionRepo struct {
	mock.Mock
}

func (m *mockSolutionRepo) Insert(ctx context.Context, s *model.Solution) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *mockSolutionRepo) ListByQuestion(ctx context.Context, questionID string) ([]model.Solution, error) {
	args := m.Called(questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Solution), args.Error(1)
}

func (m *mockSolutionRepo) UpdateLikeCount(ctx context.Context, solutionID string, likes int) error {
	args := m.Called(solutionID, likes)
	return args.Error(0)
}

type mockCommentRepo struct {
	mock.Mock
}

func (m *mockCommentRepo) Insert(ctx context.Context, c *model.Comment, userID string) error {
	args := m.Called(c, userID)
	return args.Error(0)
}

func (m *mockCommentRepo) ListBySolution(ctx context.Context, solutionID string) ([]model.Comment, error) {
	args := m.Called(solutionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Comment), args.Error(1)
}

type mockLikeRepo struct {
	mock.Mock
}

func (m *mockLikeRepo) Insert(ctx context.Context, solutionID, userID string) error {
	args := m.Called(solutionID, userID)
	return args.Error(0)
}

func (m *mockLikeRepo) Delete(ctx context.Context, solutionID, userID string) error {
	args := m.Called(solutionID, userID)
	return args.Error(0)
}

func (m *mockLikeRepo) Exists(ctx context.Context, solutionID, userID string) (bool, error) {
	args := m.Called(solutionID, userID)
	return args.Bool(0), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) GetProfile(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) CheckUsernameAvailable(ctx context.Context, username string) (bool, error) {
	args := m.Called(username)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) ConfirmEmail(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

type recordingNotifier struct {
	mock.Mock
}

func (n *recordingNotifier) Success(action, detail string) {
	n.Called(action, detail)
}

func (n *recordingNotifier) Error(action, detail string) {
	n.Called(action, detail)
}

type storeMocks struct {
	questions *mockQuestionRepo
	solutions *mockSolutionRepo
	comments  *mockCommentRepo
	likes     *mockLikeRepo
	users     *mockUserRepo
	notifier  *recordingNotifier
}

func newTestStore(t *testing.T) (*QuestionStore, *storeMocks) {
	t.Helper()
	m := &storeMocks{
		questions: new(mockQuestionRepo),
		solutions: new(mockSolutionRepo),
		comments:  new(mockCommentRepo),
		likes:     new(mockLikeRepo),
		users:     new(mockUserRepo),
		notifier:  new(recordingNotifier),
	}
	m.notifier.On("Success", mock.Anything, mock.Anything).Maybe()
	m.notifier.On("Error", mock.Anything, mock.Anything).Maybe()
	s := NewQuestionStore(m.questions, m.solutions, m.comments, m.likes, m.users, m.notifier, zap.NewNop(), 0)
	return s, m
}

var (
	alice = &model.User{ID: "user-alice", Username: "alice", IsAdmin: true}
	bob   = &model.User{ID: "user-bob", Username: "bob"}
)

func fixtureQuestions() []model.Question {
	now := time.Now()
	return []model.Question{
		{ID: "q-ladder", Title: "Word Ladder", Description: "Transform one word into another", Difficulty: model.DifficultyHard, Tags: []string{"Graph", "BFS"}, CreatedAt: now},
		{ID: "q-colors", Title: "Sort Colors", Description: "Sort an array of 0s, 1s and 2s in place", Difficulty: model.DifficultyMedium, Tags: []string{"Array", "Sorting"}, CreatedAt: now.Add(-time.Hour)},
		{ID: "q-twosum", Title: "Two Sum", Description: "Find two numbers adding up to a target", Difficulty: model.DifficultyEasy, Tags: []string{"Array", "Hash Table"}, CreatedAt: now.Add(-2 * time.Hour)},
	}
}

// stubEmptyChildren makes every question load with no solutions.
func stubEmptyChildren(m *storeMocks) {
	m.solutions.On("ListByQuestion", mock.Anything).Return([]model.Solution{}, nil)
}

func TestLoadBuildsNestedView(t *testing.T) {
	s, m := newTestStore(t)

	m.questions.On("List").Return(fixtureQuestions(), nil)
	m.solutions.On("ListByQuestion", "q-twosum").Return([]model.Solution{
		{ID: "sol-1", QuestionID: "q-twosum", UserID: bob.ID, Title: "Hash map", Likes: 2},
	}, nil)
	m.solutions.On("ListByQuestion", mock.Anything).Return([]model.Solution{}, nil)
	m.comments.On("ListBySolution", "sol-1").Return([]model.Comment{
		{ID: "c-1", SolutionID: "sol-1", Content: "nice", User: &model.User{ID: alice.ID}},
	}, nil)
	m.users.On("GetProfile", bob.ID).Return(bob, nil)
	m.users.On("GetProfile", alice.ID).Return(alice, nil)

	s.Load(context.Background())

	view := s.Questions()
	assert.NoError(t, s.Err())
	assert.False(t, s.Loading())
	assert.Len(t, view, 3)
	assert.Equal(t, "Word Ladder", view[0].Title) // Newest first, as listed

	twoSum := view[2]
	assert.Len(t, twoSum.Solutions, 1)
	sol := twoSum.Solutions[0]
	assert.Equal(t, "bob", sol.Author.Username)
	assert.Empty(t, sol.Author.Email) // Embedded authors carry no email
	assert.False(t, sol.LikedByCurrentUser)
	assert.Len(t, sol.Comments, 1)
	assert.Equal(t, "alice", sol.Comments[0].User.Username)
}

func TestLoadPartialCommentFailureDegrades(t *testing.T) {
	s, m := newTestStore(t)

	m.questions.On("List").Return([]model.Question{
		{ID: "q-1", Title: "Q", Difficulty: model.DifficultyEasy},
	}, nil)
	m.solutions.On("ListByQuestion", "q-1").Return([]model.Solution{
		{ID: "sol-ok", QuestionID: "q-1", UserID: bob.ID},
		{ID: "sol-broken", QuestionID: "q-1", UserID: bob.ID},
	}, nil)
	m.users.On("GetProfile", bob.ID).Return(bob, nil)
	m.comments.On("ListBySolution", "sol-ok").Return([]model.Comment{
		{ID: "c-1", SolutionID: "sol-ok", Content: "works", User: &model.User{ID: bob.ID}},
	}, nil)
	m.comments.On("ListBySolution", "sol-broken").Return(nil, errors.New("comments table on fire"))

	s.Load(context.Background())

	assert.NoError(t, s.Err()) // Root fetch succeeded, so no top-level error
	view := s.Questions()
	assert.Len(t, view[0].Solutions, 2)
	for _, sol := range view[0].Solutions {
		switch sol.ID {
		case "sol-ok":
			assert.Len(t, sol.Comments, 1)
		case "sol-broken":
			assert.Empty(t, sol.Comments)
		}
	}
}

func TestLoadRootFailureEmptiesView(t *testing.T) {
	s, m := newTestStore(t)

	m.questions.On("List").Return(nil, errors.New("connection refused")).Once()
	s.Load(context.Background())

	assert.Error(t, s.Err())
	assert.Empty(t, s.Questions())

	// A later successful load clears the recorded error.
	m.questions.On("List").Return(fixtureQuestions(), nil)
	stubEmptyChildren(m)
	s.Load(context.Background())
	assert.NoError(t, s.Err())
	assert.Len(t, s.Questions(), 3)
}

func TestLikedByCurrentUserFollowsViewer(t *testing.T) {
	s, m := newTestStore(t)

	m.questions.On("List").Return([]model.Question{{ID: "q-1", Difficulty: model.DifficultyEasy}}, nil)
	m.solutions.On("ListByQuestion", "q-1").Return([]model.Solution{
		{ID: "sol-1", QuestionID: "q-1", UserID: bob.ID, Likes: 1},
	}, nil)
	m.comments.On("ListBySolution", "sol-1").Return([]model.Comment{}, nil)
	m.users.On("GetProfile", bob.ID).Return(bob, nil)
	m.likes.On("Exists", "sol-1", alice.ID).Return(true, nil)

	s.SetViewer(context.Background(), alice)
	assert.True(t, s.Questions()[0].Solutions[0].LikedByCurrentUser)

	// Identity change resets the flag relative to the new (absent) viewer.
	s.SetViewer(context.Background(), nil)
	assert.False(t, s.Questions()[0].Solutions[0].LikedByCurrentUser)
}

func TestFilter(t *testing.T) {
	s, m := newTestStore(t)
	m.questions.On("List").Return(fixtureQuestions(), nil)
	stubEmptyChildren(m)
	s.Load(context.Background())

	t.Run("empty filter returns all in order", func(t *testing.T) {
		got := s.Filter("", nil, "")
		assert.Len(t, got, 3)
		assert.Equal(t, "Word Ladder", got[0].Title)
		assert.Equal(t, "Sort Colors", got[1].Title)
		assert.Equal(t, "Two Sum", got[2].Title)
	})

	t.Run("search is a case-insensitive substring match", func(t *testing.T) {
		got := s.Filter("two sum", nil, "")
		assert.Len(t, got, 1)
		assert.Equal(t, "Two Sum", got[0].Title)
	})

	t.Run("search matches descriptions too", func(t *testing.T) {
		got := s.Filter("in place", nil, "")
		assert.Len(t, got, 1)
		assert.Equal(t, "Sort Colors", got[0].Title)
	})

	t.Run("tags use OR semantics", func(t *testing.T) {
		got := s.Filter("", []string{"Sorting", "Hash Table"}, "")
		assert.Len(t, got, 2)
		assert.Equal(t, "Sort Colors", got[0].Title)
		assert.Equal(t, "Two Sum", got[1].Title)
	})

	t.Run("difficulty is an exact match", func(t *testing.T) {
		got := s.Filter("", nil, model.DifficultyHard)
		assert.Len(t, got, 1)
		assert.Equal(t, "Word Ladder", got[0].Title)
	})

	t.Run("filters combine", func(t *testing.T) {
		got := s.Filter("sort", []string{"Array"}, model.DifficultyMedium)
		assert.Len(t, got, 1)
		assert.Equal(t, "Sort Colors", got[0].Title)
	})

	t.Run("does not mutate the stored view", func(t *testing.T) {
		_ = s.Filter("zzz", nil, "")
		assert.Len(t, s.Questions(), 3)
	})
}

func TestAddQuestionRequiresAdmin(t *testing.T) {
	s, m := newTestStore(t)
	m.questions.On("List").Return(fixtureQuestions(), nil)
	stubEmptyChildren(m)
	s.SetViewer(context.Background(), bob) // Authenticated, not admin

	_, err := s.AddQuestion(context.Background(), AddQuestionRequest{
		Title:       "Forbidden",
		Description: "should never persist",
		Difficulty:  model.DifficultyEasy,
	})

	assert.ErrorIs(t, err, common.ErrForbidden)
	m.questions.AssertNotCalled(t, "Insert", mock.Anything)
	assert.Len(t, s.Questions(), 3) // View unchanged
}

func TestAddQuestionRequiresAuthentication(t *testing.T) {
	s, m := newTestStore(t)
	m.questions.On("List").Return([]model.Question{}, nil)
	s.Load(context.Background())

	_, err := s.AddQuestion(context.Background(), AddQuestionRequest{
		Title:       "Anonymous",
		Description: "no viewer bound",
		Difficulty:  model.DifficultyEasy,
	})

	assert.ErrorIs(t, err, common.ErrUnauthorized)
	m.questions.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestAddQuestionPrependsNewestFirst(t *testing.T) {
	s, m := newTestStore(t)
	m.questions.On("List").Return([]model.Question{}, nil)
	m.questions.On("Insert", mock.AnythingOfType("*model.Question")).Return(nil)
	s.SetViewer(context.Background(), alice)

	_, err := s.AddQuestion(context.Background(), AddQuestionRequest{
		Title: "First", Description: "d", Difficulty: model.DifficultyEasy,
	})
	assert.NoError(t, err)
	second, err := s.AddQuestion(context.Background(), AddQuestionRequest{
		Title: "Second", Description: "d", Difficulty: model.DifficultyHard, Tags: []string{"DP"},
	})
	assert.NoError(t, err)

	view := s.Questions()
	assert.Len(t, view, 2)
	assert.Equal(t, second.ID, view[0].ID) // Most recent add sits at index 0
	assert.Equal(t, "second", view[0].Slug)
	assert.Empty(t, view[0].Solutions)
}

func TestAddQuestionValidation(t *testing.T) {
	s, m := newTestStore(t)
	m.questions.On("List").Return([]model.Question{}, nil)
	s.SetViewer(context.Background(), alice)

	_, err := s.AddQuestion(context.Background(), AddQuestionRequest{Title: "No description"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = s.AddQuestion(context.Background(), AddQuestionRequest{
		Title: "Bad difficulty", Description: "d", Difficulty: "Impossible",
	})
	assert.ErrorIs(t, err, common.ErrValidation)
	m.questions.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestAddSolutionPrependsAndReloads(t *testing.T) {
	s, m := newTestStore(t)

	m.questions.On("List").Return([]model.Question{{ID: "q-1", Difficulty: model.DifficultyEasy}}, nil)
	m.solutions.On("ListByQuestion", "q-1").Return([]model.Solution{}, nil)
	m.solutions.On("Insert", mock.AnythingOfType("*model.Solution")).Return(nil)
	s.SetViewer(context.Background(), bob)

	sol, err := s.AddSolution(context.Background(), "q-1", AddSolutionRequest{
		Title: "Brute force", Content: "try everything", Code: "for {}",
	})

	assert.NoError(t, err)
	assert.Equal(t, bob.ID, sol.UserID)
	assert.Zero(t, sol.Likes)
	assert.Empty(t, sol.Comments)
	// Initial load on SetViewer plus the post-add consistency reload.
	m.questions.AssertNumberOfCalls(t, "List", 2)
}

func TestAddSolutionRequiresAuthentication(t *testing.T) {
	s, m := newTestStore(t)
	m.questions.On("List").Return([]model.Question{}, nil)
	s.Load(context.Background())

	_, err := s.AddSolution(context.Background(), "q-1", AddSolutionRequest{
		Title: "t", Content: "c", Code: "x",
	})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	m.solutions.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestAddCommentRoundTrip(t *testing.T) {
	s, m := newTestStore(t)

	m.questions.On("List").Return([]model.Question{{ID: "q-1", Difficulty: model.DifficultyEasy}}, nil)
	m.solutions.On("ListByQuestion", "q-1").Return([]model.Solution{
		{ID: "sol-1", QuestionID: "q-1", UserID: alice.ID, Comments: []model.Comment{
			{ID: "c-old", Content: "earlier", User: &model.User{ID: alice.ID}},
		}},
	}, nil)
	m.comments.On("ListBySolution", "sol-1").Return([]model.Comment{
		{ID: "c-old", SolutionID: "sol-1", Content: "earlier", User: &model.User{ID: alice.ID}},
	}, nil)
	m.users.On("GetProfile", alice.ID).Return(alice, nil)
	m.likes.On("Exists", mock.Anything, mock.Anything).Return(false, nil)
	m.comments.On("Insert", mock.AnythingOfType("*model.Comment"), bob.ID).Return(nil)
	s.SetViewer(context.Background(), bob)

	_, err := s.AddComment(context.Background(), "q-1", "sol-1", "hello")
	assert.NoError(t, err)

	q, err := s.GetQuestionByID("q-1")
	assert.NoError(t, err)
	comments := q.Solutions[0].Comments
	last := comments[len(comments)-1] // Chronological append
	assert.Equal(t, "hello", last.Content)
	assert.Equal(t, bob.ID, last.User.ID)
	assert.Equal(t, "bob", last.User.Username)
}

func TestAddCommentValidation(t *testing.T) {
	s, m := newTestStore(t)
	m.questions.On("List").Return([]model.Question{}, nil)
	stubEmptyChildren(m)
	s.SetViewer(context.Background(), bob)

	_, err := s.AddComment(context.Background(), "q-1", "sol-1", "")
	assert.ErrorIs(t, err, common.ErrValidation)
	m.comments.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func likeFixture(t *testing.T) (*QuestionStore, *storeMocks) {
	s, m := newTestStore(t)
	m.questions.On("List").Return([]model.Question{{ID: "q-1", Difficulty: model.DifficultyEasy}}, nil)
	m.solutions.On("ListByQuestion", "q-1").Return([]model.Solution{
		{ID: "sol-1", QuestionID: "q-1", UserID: alice.ID, Likes: 5},
	}, nil)
	m.comments.On("ListBySolution", "sol-1").Return([]model.Comment{}, nil)
	m.users.On("GetProfile", alice.ID).Return(alice, nil)
	m.likes.On("Exists", "sol-1", bob.ID).Return(false, nil)
	s.SetViewer(context.Background(), bob)
	return s, m
}

func TestToggleLikeTwiceRestoresOriginalState(t *testing.T) {
	s, m := likeFixture(t)
	m.likes.On("Insert", "sol-1", bob.ID).Return(nil)
	m.likes.On("Delete", "sol-1", bob.ID).Return(nil)
	m.solutions.On("UpdateLikeCount", "sol-1", 6).Return(nil)
	m.solutions.On("UpdateLikeCount", "sol-1", 5).Return(nil)

	assert.NoError(t, s.ToggleLike(context.Background(), "q-1", "sol-1"))
	sol := s.Questions()[0].Solutions[0]
	assert.True(t, sol.LikedByCurrentUser)
	assert.Equal(t, 6, sol.Likes)

	assert.NoError(t, s.ToggleLike(context.Background(), "q-1", "sol-1"))
	sol = s.Questions()[0].Solutions[0]
	assert.False(t, sol.LikedByCurrentUser)
	assert.Equal(t, 5, sol.Likes)
}

func TestToggleLikeUnknownSolution(t *testing.T) {
	s, m := likeFixture(t)

	err := s.ToggleLike(context.Background(), "q-1", "sol-missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
	m.likes.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestToggleLikeAbortsBeforeLocalPatchOnCounterFailure(t *testing.T) {
	s, m := likeFixture(t)
	m.likes.On("Insert", "sol-1", bob.ID).Return(nil)
	m.solutions.On("UpdateLikeCount", "sol-1", 6).Return(errors.New("write timeout"))

	err := s.ToggleLike(context.Background(), "q-1", "sol-1")
	assert.Error(t, err)

	// Local state untouched: the patch only lands after both writes succeed.
	sol := s.Questions()[0].Solutions[0]
	assert.False(t, sol.LikedByCurrentUser)
	assert.Equal(t, 5, sol.Likes)
}

func TestToggleLikeRequiresAuthentication(t *testing.T) {
	s, m := newTestStore(t)
	m.questions.On("List").Return([]model.Question{}, nil)
	s.Load(context.Background())

	err := s.ToggleLike(context.Background(), "q-1", "sol-1")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	m.likes.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestGetQuestionByIDNeverFetches(t *testing.T) {
	s, m := newTestStore(t)
	m.questions.On("List").Return(fixtureQuestions(), nil).Once()
	stubEmptyChildren(m)
	s.Load(context.Background())

	q, err := s.GetQuestionByID("q-twosum")
	assert.NoError(t, err)
	assert.Equal(t, "Two Sum", q.Title)

	_, err = s.GetQuestionByID("q-nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
	m.questions.AssertNumberOfCalls(t, "List", 1)
}
