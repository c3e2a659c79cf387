package service

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/lockout"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,50}$`)

type AuthService struct {
	Repo          *repo.GormRepo
	Guard         *lockout.Guard
	JWTSecret     []byte
	RefreshSecret []byte
	Now           func() time.Time
}

type LoginResult struct {
	tokens.Pair
	User *models.User
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func validateIdentity(username, email string) error {
	if !usernameRe.MatchString(username) {
		return validation("username must be 3 to 50 letters, digits or underscores")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return validation("invalid email address")
	}
	return nil
}

func validateRegistration(username, email, password string) error {
	if err := validateIdentity(username, email); err != nil {
		return err
	}
	if len(password) < 8 {
		return validation("password must be at least 8 characters")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return validation("password must contain an uppercase letter, a lowercase letter and a digit")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if err := validateRegistration(username, email, password); err != nil {
		return nil, err
	}

	taken, err := s.Repo.UserTaken(ctx, username, email)
	if err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return nil, storage(err)
	}
	if taken {
		l.Warn("register_error", "status", 409, "reason", "username or email already registered")
		return nil, ErrConflict
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleCustomer,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, storage(err)
	}
	return user, nil
}

// UpdateProfile changes the username and email of a user. Both follow the
// registration rules and must not belong to another user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, username, email string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.update_profile", "user_id", userID)
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if err := validateIdentity(username, email); err != nil {
		return nil, err
	}

	taken, err := s.Repo.UserTakenByOther(ctx, userID, username, email)
	if err != nil {
		l.Error("update_profile_error", "status", 500, "error", err)
		return nil, storage(err)
	}
	if taken {
		l.Warn("update_profile_error", "status", 409, "reason", "username or email already registered")
		return nil, ErrConflict
	}

	if err := s.Repo.UpdateUserProfile(ctx, userID, username, email); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, notFound(err, ErrUserNotFound)
	}
	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

// Login checks credentials and issues a token pair. Failed attempts are
// counted per email; once the limit is hit, logins fail with ErrLockedOut
// until the window expires.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)
	if email == "" || password == "" {
		return nil, validation("email and password are required")
	}

	locked, err := s.Guard.Locked(ctx, email)
	if err != nil {
		l.Error("lockout_store_error", "error", err)
	}
	if locked {
		l.Warn("login_failed", "status", 429, "reason", "locked out")
		return nil, ErrLockedOut
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, storage(err)
	}
	if user == nil || !hash.CheckPassword(user.PasswordHash, password) {
		n, ferr := s.Guard.Fail(ctx, email)
		if ferr != nil {
			l.Error("lockout_store_error", "error", ferr)
		}
		l.Warn("login_failed", "status", 401, "reason", "invalid email or password", "attempts", n)
		return nil, ErrInvalidCredentials
	}

	if err := s.Guard.Succeed(ctx, email); err != nil {
		l.Error("lockout_store_error", "error", err)
	}

	pair, err := s.issue(ctx, s.Repo, user)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	return &LoginResult{Pair: *pair, User: user}, nil
}

func (s *AuthService) issue(ctx context.Context, r *repo.GormRepo, user *models.User) (*tokens.Pair, error) {
	now := s.now()
	accessExp := jwt.NewNumericDate(now.Add(AccessTTL))
	refreshExp := jwt.NewNumericDate(now.Add(RefreshTTL))

	access, err := tokens.SignAccess(s.JWTSecret, user.ID.String(), user.Role, *accessExp)
	if err != nil {
		return nil, err
	}
	jti := tokens.NewJTI()
	refresh, err := tokens.SignRefresh(s.RefreshSecret, user.ID.String(), jti, *refreshExp)
	if err != nil {
		return nil, err
	}

	if err := r.AddRefreshToken(ctx, &models.RefreshToken{
		Token:     tokens.Sha256Hex(refresh),
		JTI:       jti,
		UserID:    user.ID,
		ExpiresAt: refreshExp.Unix(),
	}); err != nil {
		return nil, storage(err)
	}

	return &tokens.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    *accessExp,
		RefreshExp:   *refreshExp,
	}, nil
}

// Refresh revokes the presented refresh token and issues a new pair. A token
// can be used once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "bad refresh token", "error", err)
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var pair *tokens.Pair
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		stored, err := tx.FindRefreshByJTI(ctx, claims.ID)
		if err != nil {
			return notFound(err, ErrInvalidToken)
		}
		if stored.Token != tokens.Sha256Hex(refreshToken) || stored.UserID != userID ||
			stored.ExpiresAt < s.now().Unix() {
			return ErrInvalidToken
		}
		revoked, err := tx.RevokeRefresh(ctx, claims.ID)
		if err != nil {
			return err
		}
		if !revoked {
			return ErrInvalidToken
		}

		user, err := tx.UserByID(ctx, userID)
		if err != nil {
			return notFound(err, ErrInvalidToken)
		}
		pair, err = s.issue(ctx, tx, user)
		return err
	})
	if err != nil {
		l.Warn("refresh_failed", "error", err)
		return nil, storage(err)
	}
	return pair, nil
}

// Logout revokes the refresh token. Unknown or malformed tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil
	}
	if _, err := s.Repo.RevokeRefresh(ctx, claims.ID); err != nil {
		logging.FromContext(ctx).Error("logout_error", "svc", "auth.logout", "error", err)
		return storage(err)
	}
	return nil
}
