package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"algo_answer_hub/internal/common"
	"algo_answer_hub/internal/common/security"
	"algo_answer_hub/internal/domain/model"
	"algo_answer_hub/internal/domain/repository"
	"algo_answer_hub/internal/platform/cache"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionStore is the slice of the Redis surface the auth flow needs.
type SessionStore interface {
	PutSession(ctx context.Context, tokenID, userID string, ttl time.Duration) error
	RevokeSession(ctx context.Context, tokenID string) error
	PutVerificationToken(ctx context.Context, token, userID string, ttl time.Duration) error
	TakeVerificationToken(ctx context.Context, token string) (string, error)
}

// EventPublisher broadcasts authentication transitions. The session-change
// notification is the sole mechanism that populates the resolved identity;
// sign-in itself never returns profile data.
type EventPublisher interface {
	Publish(ctx context.Context, event cache.SessionEvent) error
}

type AuthService struct {
	userRepo   repository.UserRepository
	sessions   SessionStore
	events     EventPublisher
	logger     *zap.Logger
	sessionTTL time.Duration
	verifyTTL  time.Duration
	avatarTmpl string
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessions SessionStore,
	events EventPublisher,
	logger *zap.Logger,
	sessionTTL, verifyTTL time.Duration,
	avatarTmpl string,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		sessions:   sessions,
		events:     events,
		logger:     logger,
		sessionTTL: sessionTTL,
		verifyTTL:  verifyTTL,
		avatarTmpl: avatarTmpl,
	}
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SessionResponse struct {
	Token string `json:"token"`
}

// SignUp creates an unconfirmed account and issues a verification token. No
// session is established; the caller is told to verify their email. The
// username check is case-sensitive, matching the uniqueness constraint.
func (s *AuthService) SignUp(ctx context.Context, req SignupRequest) (verificationToken string, err error) {
	if err := common.ValidateStruct(req); err != nil {
		return "", err
	}

	available, err := s.userRepo.CheckUsernameAvailable(ctx, req.Username)
	if err != nil {
		return "", fmt.Errorf("failed to check username availability: %w", err)
	}
	if !available {
		return "", common.Errorf("username already exists: %w", common.ErrConflict)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		AvatarURL:      fmt.Sprintf(s.avatarTmpl, url.QueryEscape(req.Username)),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo might return common.ErrConflict
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	token := uuid.NewString()
	if err := s.sessions.PutVerificationToken(ctx, token, user.ID, s.verifyTTL); err != nil {
		return "", fmt.Errorf("failed to store verification token: %w", err)
	}

	// Stand-in for an outbound verification email.
	s.logger.Info("verification token issued",
		zap.String("user_id", user.ID), zap.String("email", user.Email))
	return token, nil
}

// SignIn establishes a session and publishes the signed_in transition. The
// response carries only the token; identity is populated by the listeners of
// the session-change notification, avoiding two racing writers.
func (s *AuthService) SignIn(ctx context.Context, req LoginRequest) (*SessionResponse, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrInvalidCredentials
	}
	if !user.EmailConfirmed {
		return nil, common.ErrEmailUnconfirmed
	}

	tokenID, token, err := security.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.sessions.PutSession(ctx, tokenID, user.ID, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	if err := s.events.Publish(ctx, cache.SessionEvent{Event: cache.EventSignedIn, UserID: user.ID}); err != nil {
		// Identity will still resolve lazily on the next request.
		s.logger.Warn("failed to publish signed_in event", zap.String("user_id", user.ID), zap.Error(err))
	}
	return &SessionResponse{Token: token}, nil
}

// SignOut revokes the session. The caller's session is considered cleared
// even when revocation fails remotely; the failure is returned so the user
// can be told about it.
func (s *AuthService) SignOut(ctx context.Context, userID, tokenID string) error {
	revokeErr := s.sessions.RevokeSession(ctx, tokenID)

	if err := s.events.Publish(ctx, cache.SessionEvent{Event: cache.EventSignedOut, UserID: userID}); err != nil {
		s.logger.Warn("failed to publish signed_out event", zap.String("user_id", userID), zap.Error(err))
	}

	if revokeErr != nil {
		return fmt.Errorf("remote sign-out failed: %w", revokeErr)
	}
	return nil
}

// ConfirmEmail consumes a verification token and flips the account to
// confirmed.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) error {
	if token == "" {
		return common.Errorf("verification token is required: %w", common.ErrValidation)
	}
	userID, err := s.sessions.TakeVerificationToken(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to look up verification token: %w", err)
	}
	if userID == "" {
		return common.Errorf("unknown or expired verification token: %w", common.ErrNotFound)
	}
	if err := s.userRepo.ConfirmEmail(ctx, userID); err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}
	return nil
}

// ResolveUser resolves the published identity for a user id: public profile
// plus the email the session owns.
func (s *AuthService) ResolveUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile: %w", err)
	}
	resolved := user.Public()
	resolved.Email = user.Email
	return resolved, nil
}
