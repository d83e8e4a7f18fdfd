package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/blog_platform/internal/hash"
	"github.com/Skotchmaster/blog_platform/internal/logging"
	"github.com/Skotchmaster/blog_platform/internal/models"
	"github.com/Skotchmaster/blog_platform/internal/repo"
	"github.com/Skotchmaster/blog_platform/internal/revocation"
	"github.com/Skotchmaster/blog_platform/internal/tokens"
)

var (
	// NotFound and BadPassword collapse into this one error so callers can
	// never tell which usernames exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// Blocked accounts are told so explicitly.
	ErrBlocked             = errors.New("account blocked")
	ErrMissingRefreshToken = errors.New("missing refresh token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

type AuthService struct {
	Repo    *repo.GormRepo
	Codec   *tokens.Codec
	Revoked *revocation.Store
}

type UserSummary struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

func Summarize(u *models.User) UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}

// Session is the freshly minted token pair. It only ever travels as cookies.
type Session struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         UserSummary
}

// ValidateCredentials is the credential check behind Login. Blocked accounts
// fail before the password is compared, so a blocked user gets the same
// answer whether or not their password is right.
func (s *AuthService) ValidateCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.Repo.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.IsBlocked {
		return nil, ErrBlocked
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.ValidateCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrBlocked) {
			l.Warn("login_blocked")
		} else if errors.Is(err, ErrInvalidCredentials) {
			l.Warn("login_failed", "reason", "invalid credentials")
		} else {
			l.Error("login_failed", "error", err)
		}
		return nil, err
	}

	session, err := s.issue(user)
	if err != nil {
		l.Error("login_failed", "error", err)
		return nil, err
	}

	l.Info("login_successful", "user_id", user.ID)
	return session, nil
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	now := time.Now().UTC()

	access, accessExp, err := s.Codec.MintAccess(user, now)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}

	refresh, _, refreshExp, err := s.Codec.MintRefresh(user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("mint refresh token: %w", err)
	}

	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         Summarize(user),
	}, nil
}

// Refresh rotates the pair: the presented token's jti is blacklisted and a
// fresh pair minted from the user's current record, so role and blocked
// claims catch up on every rotation.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if rawRefresh == "" {
		return nil, ErrMissingRefreshToken
	}

	claims, err := s.Codec.ParseRefresh(rawRefresh)
	if err != nil {
		l.Warn("refresh_rejected", "reason", err.Error())
		return nil, ErrInvalidRefreshToken
	}

	revoked, err := s.Revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("revocation check: %w", err)
	}
	if revoked {
		l.Warn("refresh_rejected", "reason", "token revoked", "jti", claims.ID)
		return nil, ErrInvalidRefreshToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if err := s.Revoked.Blacklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, fmt.Errorf("blacklist rotated token: %w", err)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	l.Info("refresh_successful", "user_id", user.ID)
	return session, nil
}

// Logout blacklists the presented refresh token. It never fails on a missing
// or garbage token: logging out without a session is still a logout.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if rawRefresh == "" {
		return nil
	}

	claims, err := s.Codec.ParseRefresh(rawRefresh)
	if err != nil {
		l.Warn("logout_token_unparseable", "reason", err.Error())
		return nil
	}

	if err := s.Revoked.Blacklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("blacklist on logout: %w", err)
	}

	l.Info("logout_successful", "jti", claims.ID)
	return nil
}

type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	Bio            string
	ProfilePicture string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", in.Username)

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_failed", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:       in.Username,
		Email:          in.Email,
		PasswordHash:   pwHash,
		Bio:            in.Bio,
		ProfilePicture: in.ProfilePicture,
	}

	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUsernameTaken) || errors.Is(err, repo.ErrEmailTaken) {
			l.Warn("register_conflict", "reason", err.Error())
		} else {
			l.Error("register_failed", "error", err)
		}
		return nil, err
	}

	l.Info("register_successful", "user_id", user.ID)
	return user, nil
}
