package store

import (
	"context"
	"sync"
	"time"

	"algo_answer_hub/internal/common"
	"algo_answer_hub/internal/domain/model"
	"algo_answer_hub/internal/domain/repository"
	"algo_answer_hub/internal/platform/cache"

	"go.uber.org/zap"
)

const guestKey = ""

// IdentityResolver turns a user id into the published identity. Resolution
// failure means the identity must be cleared, never left stale.
type IdentityResolver interface {
	ResolveUser(ctx context.Context, userID string) (*model.User, error)
}

// Manager hands out one QuestionStore per viewer (a shared guest store for
// anonymous reads) and keeps identities in sync with session transitions
// received over the event bus. Idle stores are evicted.
type Manager struct {
	questionRepo repository.QuestionRepository
	solutionRepo repository.SolutionRepository
	commentRepo  repository.CommentRepository
	likeRepo     repository.LikeRepository
	userRepo     repository.UserRepository
	resolver     IdentityResolver
	notifier     Notifier
	logger       *zap.Logger
	reloadDelay  time.Duration
	idleTTL      time.Duration

	mu         sync.Mutex
	stores     map[string]*QuestionStore
	lastAccess map[string]time.Time
}

func NewManager(
	questionRepo repository.QuestionRepository,
	solutionRepo repository.SolutionRepository,
	commentRepo repository.CommentRepository,
	likeRepo repository.LikeRepository,
	userRepo repository.UserRepository,
	resolver IdentityResolver,
	notifier Notifier,
	logger *zap.Logger,
	reloadDelay time.Duration,
	idleTTL time.Duration,
) *Manager {
	return &Manager{
		questionRepo: questionRepo,
		solutionRepo: solutionRepo,
		commentRepo:  commentRepo,
		likeRepo:     likeRepo,
		userRepo:     userRepo,
		resolver:     resolver,
		notifier:     notifier,
		logger:       logger,
		reloadDelay:  reloadDelay,
		idleTTL:      idleTTL,
		stores:       make(map[string]*QuestionStore),
		lastAccess:   make(map[string]time.Time),
	}
}

func (m *Manager) newStore() *QuestionStore {
	return NewQuestionStore(
		m.questionRepo, m.solutionRepo, m.commentRepo, m.likeRepo, m.userRepo,
		m.notifier, m.logger, m.reloadDelay,
	)
}

// StoreFor returns the viewer's store, building and loading it on first use.
// userID "" yields the shared guest store.
func (m *Manager) StoreFor(ctx context.Context, userID string) (*QuestionStore, error) {
	m.mu.Lock()
	if s, ok := m.stores[userID]; ok {
		m.lastAccess[userID] = time.Now()
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	var viewer *model.User
	if userID != guestKey {
		user, err := m.resolver.ResolveUser(ctx, userID)
		if err != nil {
			m.notifier.Error("Resolve Identity", "could not resolve your profile: "+err.Error())
			return nil, common.Errorf("resolving identity for %s: %w", userID, err)
		}
		viewer = user
	}

	s := m.newStore()
	s.SetViewer(ctx, viewer)

	m.mu.Lock()
	// Another request may have built the same store concurrently; last one in
	// wins, matching the view's last-writer semantics.
	m.stores[userID] = s
	m.lastAccess[userID] = time.Now()
	m.mu.Unlock()
	return s, nil
}

// Run consumes session events until ctx is cancelled, evicting idle stores
// between events. Blocks; run it on its own goroutine.
func (m *Manager) Run(ctx context.Context, events <-chan cache.SessionEvent) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle()
		case event, ok := <-events:
			if !ok {
				return
			}
			m.handleSessionEvent(ctx, event)
		}
	}
}

func (m *Manager) handleSessionEvent(ctx context.Context, event cache.SessionEvent) {
	switch event.Event {
	case cache.EventSignedOut:
		m.mu.Lock()
		delete(m.stores, event.UserID)
		delete(m.lastAccess, event.UserID)
		m.mu.Unlock()
		m.logger.Info("session ended, store dropped", zap.String("user_id", event.UserID))
	case cache.EventSignedIn:
		m.mu.Lock()
		s, ok := m.stores[event.UserID]
		m.mu.Unlock()
		if !ok {
			return // Built lazily on the next request
		}
		user, err := m.resolver.ResolveUser(ctx, event.UserID)
		if err != nil {
			// Stale identity is worse than none.
			m.logger.Error("profile resolution failed after sign-in", zap.String("user_id", event.UserID), zap.Error(err))
			m.notifier.Error("Resolve Identity", "could not resolve your profile: "+err.Error())
			s.SetViewer(ctx, nil)
			return
		}
		s.SetViewer(ctx, user)
	}
}

func (m *Manager) evictIdle() {
	if m.idleTTL <= 0 {
		return
	}
	cutoff := time.Now().Add(-m.idleTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, last := range m.lastAccess {
		if key == guestKey {
			continue
		}
		if last.Before(cutoff) {
			delete(m.stores, key)
			delete(m.lastAccess, key)
		}
	}
}
