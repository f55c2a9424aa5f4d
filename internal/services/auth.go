package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"supportdesk-backend/internal/middleware"
	"supportdesk-backend/internal/models"
	"supportdesk-backend/internal/repository"
)

const (
	bcryptCost      = 12
	refreshTokenTTL = 7 * 24 * time.Hour

	uniqueViolation = "23505"
)

// UserStore is the subset of repository.UserRepo the auth flows need.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
	LinkGoogle(ctx context.Context, userID uuid.UUID, googleID string) error
}

// RefreshTokenStore is implemented by repository.TokenRepo.
type RefreshTokenStore interface {
	Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	Consume(ctx context.Context, token string) (uuid.UUID, error)
	Delete(ctx context.Context, token string) error
}

type AuthService struct {
	users  UserStore
	tokens RefreshTokenStore
	jwt    *middleware.JWTAuth
	google GoogleVerifier
}

// NewAuthService wires the auth flows. google may be nil, in which case
// Google sign-in reports that it is not configured.
func NewAuthService(users UserStore, tokens RefreshTokenStore, jwt *middleware.JWTAuth, google GoogleVerifier) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		jwt:    jwt,
		google: google,
	}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	fieldErrors := make(map[string]string)
	if req.Name == "" {
		fieldErrors["name"] = "Name is required"
	}
	if !emailRegex.MatchString(req.Email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if err := validatePassword(req.Password); err != nil {
		fieldErrors["password"] = err.Error()
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	_, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil, &ConflictError{Message: "User already exists"}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		AuthProvider: models.ProviderLocal,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent signup for the same email can pass the lookup above.
		if isUniqueViolation(err) {
			return nil, &ConflictError{Message: "User already exists"}
		}
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Msg("user signed up")
	return s.respond(ctx, "Signup successful", user)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	invalid := &UnauthorizedError{Message: "Invalid email or password"}

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalid
		}
		return nil, err
	}

	// Accounts created through Google have no password to check.
	if user.PasswordHash == "" {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalid
	}
	if !user.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	s.touchLogin(ctx, user)
	return s.respond(ctx, "Login successful", user)
}

// GoogleLogin verifies a Google ID token and signs the user in, creating the
// account on first use.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (*models.AuthResponse, error) {
	if s.google == nil {
		return nil, &ValidationError{Fields: map[string]string{"google": "Google sign-in is not configured"}}
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, &ValidationError{Fields: map[string]string{"token": "Token is required"}}
	}

	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		log.Warn().Err(err).Msg("google token rejected")
		return nil, &UnauthorizedError{Message: "Invalid Google token"}
	}

	user, err := s.users.GetByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if !user.IsActive {
			return nil, &UnauthorizedError{Message: "Account is deactivated"}
		}
		if user.GoogleID == nil {
			if err := s.users.LinkGoogle(ctx, user.ID, identity.Subject); err != nil {
				log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to link google account")
			}
		}
		s.touchLogin(ctx, user)

	case errors.Is(err, pgx.ErrNoRows):
		name := identity.Name
		if name == "" {
			name = strings.SplitN(identity.Email, "@", 2)[0]
		}
		subject := identity.Subject
		user = &models.User{
			Name:         name,
			Email:        identity.Email,
			AuthProvider: models.ProviderGoogle,
			GoogleID:     &subject,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if isUniqueViolation(err) {
				return nil, &ConflictError{Message: "User already exists"}
			}
			return nil, err
		}
		log.Info().Str("user_id", user.ID.String()).Msg("user created from google sign-in")

	default:
		return nil, err
	}

	return s.respond(ctx, "Google login successful", user)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	expired := &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	if refreshToken == "" {
		return nil, expired
	}

	// Rotation: a refresh token is good for one use.
	userID, err := s.tokens.Consume(ctx, refreshToken)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return nil, expired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, expired
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Delete(ctx, refreshToken)
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "User not found"}
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) touchLogin(ctx context.Context, user *models.User) {
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to update last login")
	}
}

func (s *AuthService) respond(ctx context.Context, message string, user *models.User) (*models.AuthResponse, error) {
	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		Message:    message,
		Name:       user.Name,
		Email:      user.Email,
		AuthTokens: *tokens,
	}, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(32)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(ctx, refreshToken, user.ID, refreshTokenTTL); err != nil {
		return nil, err
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(middleware.AccessTokenTTL.Seconds()),
	}, nil
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			return nil
		}
	}
	return fmt.Errorf("Password must contain at least one number")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
