package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"snapfeed/internal/models"
	"snapfeed/internal/repository"
	"snapfeed/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer   = "snapfeed-api"
	tokenAudience = "snapfeed-client"

	// DefaultBcryptCost is the work factor for stored password hashes.
	DefaultBcryptCost = 12
)

// Public auth messages.
const (
	ErrInvalidCredentials = "Invalid credentials."
	MsgAccountCreated     = "Account created. You can log in right away."
)

// AuthService registers accounts and issues and resolves login sessions.
// A session token is an HS256 JWT whose jti names a sessions row, so
// deleting the row revokes the token.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
}

type AuthOption func(*AuthService)

// WithAuthClock overrides the clock used for session expiry and token claims.
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.bcryptCost = cost }
}

func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, secret string, ttl time.Duration, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:      users,
		sessions:   sessions,
		secret:     []byte(secret),
		ttl:        ttl,
		bcryptCost: DefaultBcryptCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterInput struct {
	Email       string
	Password    string
	Username    string
	DisplayName string
	Bio         string
}

// LoginResult carries the signed session token and the logged-in user.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.SafeUser
}

// Register creates a verified account. Email and username are stored lower-cased.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.ToLower(strings.TrimSpace(in.Username))

	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	displayName, err := optionalField(in.DisplayName, validation.ValidateDisplayName)
	if err != nil {
		return nil, err
	}
	bio, err := optionalField(in.Bio, validation.ValidateBio)
	if err != nil {
		return nil, err
	}

	taken, err := s.users.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError(repository.ErrIdentityTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Bio:          bio,
		Role:         models.RoleUser,
		IsVerified:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials, replaces the user's previous sessions with a
// new one and returns its signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required.")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError(ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError(ErrInvalidCredentials)
	}

	if err := s.sessions.DeleteByUser(ctx, user.ID); err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	token, err := s.signToken(user.ID, session)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: user.Safe()}, nil
}

// Logout deletes the session a token names. Unknown or invalid tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, claims.ID)
}

// ResolveSession returns the user behind a session token, or nil for an
// anonymous caller. Expired sessions are deleted on sight. Only storage
// failures are returned as errors.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, nil
	}

	session, err := s.sessions.GetByID(ctx, claims.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if session.UserID != claims.Subject {
		return nil, nil
	}
	if session.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// PurgeExpiredSessions removes every session past its expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

func (s *AuthService) signToken(userID string, session *models.Session) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("session secret not configured")
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        session.ID,
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// parseToken verifies the signature, issuer and audience. Expiry is decided
// by the session row the jti names, so expired tokens still parse.
func (s *AuthService) parseToken(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, errors.New("invalid session token")
	}
	if claims.Issuer != tokenIssuer || !slices.Contains(claims.Audience, tokenAudience) {
		return nil, errors.New("session token issued for another service")
	}
	return claims, nil
}

// optionalField trims value and validates it when present. Blank input is absent.
func optionalField(value string, validate func(string) error) (*string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if err := validate(trimmed); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return &trimmed, nil
}

func isNotFound(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeNotFound
}
