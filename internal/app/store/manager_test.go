package store

import (
	"context"
	"errors"
	"testing"

	"algo_answer_hub/internal/domain/model"
	"algo_answer_hub/internal/platform/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) ResolveUser(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func newTestManager(t *testing.T) (*Manager, *storeMocks, *mockResolver) {
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
	m.questions.On("List").Return([]model.Question{}, nil)
	resolver := new(mockResolver)
	mgr := NewManager(
		m.questions, m.solutions, m.comments, m.likes, m.users,
		resolver, m.notifier, zap.NewNop(), 0, 0,
	)
	return mgr, m, resolver
}

func TestStoreForSharesGuestStore(t *testing.T) {
	mgr, _, resolver := newTestManager(t)

	first, err := mgr.StoreFor(context.Background(), "")
	assert.NoError(t, err)
	second, err := mgr.StoreFor(context.Background(), "")
	assert.NoError(t, err)

	assert.Same(t, first, second)
	assert.Nil(t, first.Viewer())
	resolver.AssertNotCalled(t, "ResolveUser", mock.Anything)
}

func TestStoreForResolvesViewerOnce(t *testing.T) {
	mgr, _, resolver := newTestManager(t)
	resolver.On("ResolveUser", "user-1").Return(&model.User{ID: "user-1", Username: "alice"}, nil).Once()

	first, err := mgr.StoreFor(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "alice", first.Viewer().Username)

	// Cached; the single-use expectation would fail on a second resolve.
	second, err := mgr.StoreFor(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Same(t, first, second)
	resolver.AssertExpectations(t)
}

func TestStoreForResolutionFailure(t *testing.T) {
	mgr, _, resolver := newTestManager(t)
	resolver.On("ResolveUser", "user-1").Return(nil, errors.New("db down"))

	_, err := mgr.StoreFor(context.Background(), "user-1")
	assert.Error(t, err)
}

func TestSignedOutEventDropsStore(t *testing.T) {
	mgr, _, resolver := newTestManager(t)
	resolver.On("ResolveUser", "user-1").Return(&model.User{ID: "user-1"}, nil)

	before, _ := mgr.StoreFor(context.Background(), "user-1")
	mgr.handleSessionEvent(context.Background(), cache.SessionEvent{
		Event: cache.EventSignedOut, UserID: "user-1",
	})
	after, _ := mgr.StoreFor(context.Background(), "user-1")

	assert.NotSame(t, before, after)
}

func TestSignedInEventRebindsExistingStore(t *testing.T) {
	mgr, _, resolver := newTestManager(t)
	resolver.On("ResolveUser", "user-1").
		Return(&model.User{ID: "user-1", Username: "alice"}, nil).Once()
	resolver.On("ResolveUser", "user-1").
		Return(&model.User{ID: "user-1", Username: "alice", IsAdmin: true}, nil).Once()

	s, _ := mgr.StoreFor(context.Background(), "user-1")
	assert.False(t, s.Viewer().IsAdmin)

	mgr.handleSessionEvent(context.Background(), cache.SessionEvent{
		Event: cache.EventSignedIn, UserID: "user-1",
	})
	assert.True(t, s.Viewer().IsAdmin)
}

func TestSignedInResolutionFailureClearsIdentity(t *testing.T) {
	mgr, _, resolver := newTestManager(t)
	resolver.On("ResolveUser", "user-1").
		Return(&model.User{ID: "user-1", Username: "alice"}, nil).Once()
	resolver.On("ResolveUser", "user-1").
		Return(nil, errors.New("db down")).Once()

	s, _ := mgr.StoreFor(context.Background(), "user-1")
	assert.NotNil(t, s.Viewer())

	mgr.handleSessionEvent(context.Background(), cache.SessionEvent{
		Event: cache.EventSignedIn, UserID: "user-1",
	})
	assert.Nil(t, s.Viewer())
}

func TestSignedInEventForUnknownUserIsIgnored(t *testing.T) {
	mgr, _, resolver := newTestManager(t)

	mgr.handleSessionEvent(context.Background(), cache.SessionEvent{
		Event: cache.EventSignedIn, UserID: "user-never-seen",
	})
	resolver.AssertNotCalled(t, "ResolveUser", mock.Anything)
}
