package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"scanstock-backend/internal/config"
	"scanstock-backend/internal/domain"
	"scanstock-backend/internal/ports"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	ErrInactiveUser       = fmt.Errorf("user account is inactive: %w", domain.ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
)

type AuthService struct {
	Config       config.Config
	Users        ports.UserStore
	Logger       *slog.Logger
	FirebaseAuth *fbauth.Client
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         domain.User
	ExpiresAt    time.Time
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type LoginInput struct {
	Email    string
	Password string
}

type GoogleLoginInput struct {
	IDToken   string
	Email     string
	FirstName string
	LastName  string
}

type RefreshInput struct {
	RefreshToken string
}

func (s AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	switch {
	case in.FirstName == "":
		return nil, fmt.Errorf("first name is required: %w", domain.ErrValidation)
	case !strings.Contains(in.Email, "@"):
		return nil, fmt.Errorf("email is invalid: %w", domain.ErrValidation)
	case len(in.Password) < 6:
		return nil, fmt.Errorf("password must be at least 6 characters: %w", domain.ErrValidation)
	}

	if _, err := s.Users.GetByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("email is already in use: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.Users.Create(ctx, domain.User{
		FirstName:    in.FirstName,
		LastName:     strings.TrimSpace(in.LastName),
		Email:        in.Email,
		PasswordHash: ptr(string(hash)),
	})
	if err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

func (s AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(user)
}

// GoogleEnabled reports whether a Google/Firebase ID token verifier is configured.
func (s AuthService) GoogleEnabled() bool {
	return s.FirebaseAuth != nil || s.Config.GoogleClientID != ""
}

func (s AuthService) LoginWithGoogle(ctx context.Context, in GoogleLoginInput) (*AuthResult, error) {
	if in.IDToken == "" {
		return nil, fmt.Errorf("idToken is required: %w", domain.ErrValidation)
	}
	var claims map[string]any
	// Prefer Firebase Auth verification if available; otherwise fall back to Google ID token validation.
	switch {
	case s.FirebaseAuth != nil:
		tok, err := s.FirebaseAuth.VerifyIDToken(ctx, in.IDToken)
		if err != nil {
			return nil, fmt.Errorf("firebase token invalid: %w", ErrInvalidToken)
		}
		claims = tok.Claims
	case s.Config.GoogleClientID != "":
		payload, err := idtoken.Validate(ctx, in.IDToken, s.Config.GoogleClientID)
		if err != nil {
			return nil, fmt.Errorf("google token invalid: %w", ErrInvalidToken)
		}
		claims = payload.Claims
	default:
		return nil, fmt.Errorf("google sign-in is not configured: %w", domain.ErrValidation)
	}

	email := in.Email
	if v, ok := claims["email"].(string); ok && v != "" {
		email = v
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("token carries no email: %w", ErrInvalidToken)
	}

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		first, last := in.FirstName, in.LastName
		if v, ok := claims["given_name"].(string); ok && first == "" {
			first = v
		}
		if v, ok := claims["family_name"].(string); ok && last == "" {
			last = v
		}
		if first == "" {
			first = strings.Split(email, "@")[0]
		}
		user, err = s.Users.Create(ctx, domain.User{FirstName: first, LastName: last, Email: email})
		if err != nil {
			return nil, err
		}
		s.logger().InfoContext(ctx, "created user from google sign-in", "user_id", user.ID)
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return s.issueTokens(user)
}

func (s AuthService) Refresh(ctx context.Context, in RefreshInput) (*AuthResult, error) {
	token, err := jwt.Parse(in.RefreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.Config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if claims["token_type"] != "refresh" {
		return nil, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return s.issueTokens(user)
}

func (s AuthService) issueTokens(user *domain.User) (*AuthResult, error) {
	now := time.Now()
	accessExp := now.Add(s.Config.AccessTokenTTL)
	refreshExp := now.Add(s.Config.RefreshTokenTTL)

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        strconv.FormatInt(user.ID, 10),
		"email":      user.Email,
		"name":       domain.FullName(*user),
		"token_type": "access",
		"exp":        accessExp.Unix(),
		"iat":        now.Unix(),
	}).SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return nil, err
	}

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        strconv.FormatInt(user.ID, 10),
		"token_type": "refresh",
		"exp":        refreshExp.Unix(),
		"iat":        now.Unix(),
	}).SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         *user,
		ExpiresAt:    accessExp,
	}, nil
}

func (s AuthService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func ptr[T any](v T) *T { return &v }
