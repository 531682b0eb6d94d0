package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/internal/mailqueue"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

var tracer = otel.Tracer("github.com/redmonkez12/go-contacts-api/internal/auth")

const (
	maxEmailLen    = 254
	maxUsernameLen = 50
	minPasswordLen = 8
)

// UserStore is the credential store the workflow reads and writes.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Create(ctx context.Context, u *user.User) (*user.User, error)
	Save(ctx context.Context, u *user.User) error
}

// Transactor runs fn inside one database transaction.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Mailer accepts confirmation email jobs without waiting for delivery.
type Mailer interface {
	Enqueue(ctx context.Context, job mailqueue.Job) error
}

// EventRecorder counts workflow outcomes.
type EventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuthEvent(string, string) {}

// TokenTTL holds the lifetime of each token kind.
type TokenTTL struct {
	Access       time.Duration
	Refresh      time.Duration
	Confirmation time.Duration
}

// TokenPair is returned by login and refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // access token lifetime in seconds
}

type SignupInput struct {
	Email    string
	Username string
	Password string
	// BaseURL prefixes the confirmation link, e.g. http://localhost:8080
	BaseURL string
}

type ConfirmResult int

const (
	ConfirmResultConfirmed ConfirmResult = iota + 1
	ConfirmResultAlreadyConfirmed
)

type ResendResult int

const (
	ResendResultSent ResendResult = iota + 1
	ResendResultAlreadyConfirmed
)

// Service handles authentication business logic
type Service struct {
	users  UserStore
	tx     Transactor
	hasher *PasswordHasher
	tokens TokenService
	mailer Mailer
	events EventRecorder
	ttl    TokenTTL
}

func NewService(
	users UserStore,
	tx Transactor,
	hasher *PasswordHasher,
	tokens TokenService,
	mailer Mailer,
	events EventRecorder,
	ttl TokenTTL,
) *Service {
	if events == nil {
		events = nopRecorder{}
	}

	return &Service{
		users:  users,
		tx:     tx,
		hasher: hasher,
		tokens: tokens,
		mailer: mailer,
		events: events,
		ttl:    ttl,
	}
}

// Signup creates an unconfirmed account and queues the confirmation email
func (s *Service) Signup(ctx context.Context, in SignupInput) (created *user.User, err error) {
	ctx, done := s.observe(ctx, "signup")
	defer func() { done(err) }()

	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := ValidateSignup(in); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrAccountExists
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	avatar := user.GravatarURL(in.Email)
	created, err = s.users.Create(ctx, &user.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: passwordHash,
		AvatarURL:    &avatar,
	})
	if err != nil {
		// lost a race with a concurrent signup for the same email
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.sendConfirmation(ctx, created, in.BaseURL)

	return created, nil
}

// Login authenticates a confirmed user and starts a new session.
// Any previously issued refresh token stops working.
func (s *Service) Login(ctx context.Context, email, password string) (pair *TokenPair, err error) {
	ctx, done := s.observe(ctx, "login")
	defer func() { done(err) }()

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !u.Confirmed {
		return nil, ErrEmailNotConfirmed
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrBadCredentials
	}

	return s.startSession(ctx, u)
}

// Refresh exchanges the current refresh token for a new pair.
// Presenting a token that is no longer the active one revokes the session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	ctx, done := s.observe(ctx, "refresh")
	defer func() { done(err) }()

	claims, err := s.tokens.VerifyToken(refreshToken, ScopeRefresh)
	if err != nil {
		return nil, err
	}

	stale := false
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByEmail(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return ErrUnknownAccount
			}
			return fmt.Errorf("failed to get user: %w", err)
		}

		if !matchesRefreshToken(u, refreshToken) {
			u.RefreshTokenHash = nil
			if err := s.users.Save(ctx, u); err != nil {
				return fmt.Errorf("failed to revoke session: %w", err)
			}
			// commit the revocation; the caller still gets an error
			stale = true
			return nil
		}

		pair, err = s.startSession(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}

	if stale {
		logging.GetLoggerFromContext(ctx).Warn("refresh token reuse detected, session revoked", "email", claims.Subject)
		return nil, ErrStaleRefreshToken
	}

	return pair, nil
}

// ConfirmEmail marks the account named by a confirmation token as confirmed.
// Confirming twice is not an error.
func (s *Service) ConfirmEmail(ctx context.Context, token string) (result ConfirmResult, err error) {
	ctx, done := s.observe(ctx, "confirm")
	defer func() { done(err) }()

	claims, err := s.tokens.VerifyToken(token, ScopeEmailConfirmation)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrVerification, err)
	}

	u, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return 0, ErrVerification
		}
		return 0, fmt.Errorf("failed to get user: %w", err)
	}

	if u.Confirmed {
		return ConfirmResultAlreadyConfirmed, nil
	}

	u.Confirmed = true
	if err := s.users.Save(ctx, u); err != nil {
		return 0, fmt.Errorf("failed to confirm email: %w", err)
	}

	return ConfirmResultConfirmed, nil
}

// ResendConfirmation queues a fresh confirmation email.
// Unknown addresses get the same answer as unconfirmed ones so account existence is not revealed.
func (s *Service) ResendConfirmation(ctx context.Context, email, baseURL string) (result ResendResult, err error) {
	ctx, done := s.observe(ctx, "resend")
	defer func() { done(err) }()

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			logging.GetLoggerFromContext(ctx).Warn("failed to get user for confirmation resend", "error", err)
		}
		return ResendResultSent, nil
	}

	if u.Confirmed {
		return ResendResultAlreadyConfirmed, nil
	}

	s.sendConfirmation(ctx, u, baseURL)

	return ResendResultSent, nil
}

// ResolveCurrentUser returns the user an access token was issued to.
// Every failure is reported as ErrUnauthenticated.
func (s *Service) ResolveCurrentUser(ctx context.Context, accessToken string) (*user.User, error) {
	claims, err := s.tokens.VerifyToken(accessToken, ScopeAccess)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	u, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// Logout ends the user's session by dropping the active refresh token.
func (s *Service) Logout(ctx context.Context, u *user.User) (err error) {
	ctx, done := s.observe(ctx, "logout")
	defer func() { done(err) }()

	u.RefreshTokenHash = nil
	if err := s.users.Save(ctx, u); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// ValidateSignup checks the shape of signup input.
func ValidateSignup(in SignupInput) error {
	if err := ValidateEmail(in.Email); err != nil {
		return err
	}

	n := utf8.RuneCountInString(in.Username)
	if n == 0 {
		return &ValidationError{Field: "username", Message: "is required"}
	}
	if n > maxUsernameLen {
		return &ValidationError{Field: "username", Message: fmt.Sprintf("must be at most %d characters", maxUsernameLen)}
	}

	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}

	return nil
}

// ValidateEmail accepts a bare address such as alice@example.com.
func ValidateEmail(email string) error {
	if email == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}
	if len(email) > maxEmailLen {
		return &ValidationError{Field: "email", Message: "is too long"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Message: "is not a valid email address"}
	}
	return nil
}

// startSession issues a token pair and makes its refresh token the only valid one.
func (s *Service) startSession(ctx context.Context, u *user.User) (*TokenPair, error) {
	accessToken, err := s.tokens.CreateToken(u.Email, ScopeAccess, s.ttl.Access)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokens.CreateToken(u.Email, ScopeRefresh, s.ttl.Refresh)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	hash := hashToken(refreshToken)
	u.RefreshTokenHash = &hash
	if err := s.users.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.ttl.Access.Seconds()),
	}, nil
}

func (s *Service) sendConfirmation(ctx context.Context, u *user.User, baseURL string) {
	logger := logging.GetLoggerFromContext(ctx)

	token, err := s.tokens.CreateToken(u.Email, ScopeEmailConfirmation, s.ttl.Confirmation)
	if err != nil {
		logger.Warn("failed to create confirmation token", "email", u.Email, "error", err)
		return
	}

	job := mailqueue.Job{To: u.Email, Username: u.Username, Token: token, BaseURL: baseURL}
	if err := s.mailer.Enqueue(ctx, job); err != nil {
		// the user can ask for another link through request_email
		logger.Warn("failed to queue confirmation email", "email", u.Email, "error", err)
	}
}

// observe opens a span for a workflow step; the returned func ends it and records the outcome.
func (s *Service) observe(ctx context.Context, event string) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, "auth."+event)

	return ctx, func(err error) {
		outcome := outcomeOf(err)
		s.events.RecordAuthEvent(event, outcome)
		span.SetAttributes(attribute.String("auth.outcome", outcome))
		if outcome == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func outcomeOf(err error) string {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &validationErr):
		return "invalid"
	case errors.Is(err, ErrAccountExists):
		return "account_exists"
	case errors.Is(err, ErrUnknownAccount):
		return "unknown_account"
	case errors.Is(err, ErrEmailNotConfirmed):
		return "not_confirmed"
	case errors.Is(err, ErrBadCredentials):
		return "bad_credentials"
	case errors.Is(err, ErrStaleRefreshToken):
		return "stale_token"
	case errors.Is(err, ErrVerification), errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenMalformed), errors.Is(err, ErrTokenInvalidScope):
		return "rejected"
	default:
		return "error"
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func matchesRefreshToken(u *user.User, token string) bool {
	if u.RefreshTokenHash == nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*u.RefreshTokenHash), []byte(hashToken(token))) == 1
}
