package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"scanstock-backend/internal/domain"
	"scanstock-backend/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	MaxProfilePictureBytes = 2 << 20
	profileUpdateDeadline  = 5 * time.Second
)

type UserService struct {
	Users   ports.UserStore
	Storage ports.ObjectStorage
	Logger  *slog.Logger
	// UpdateTimeout bounds profile updates; zero means five seconds.
	UpdateTimeout time.Duration
}

type UserPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	IsActive  *bool
}

func (p UserPatch) empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.IsActive == nil
}

type ProfilePicture struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (s UserService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	return s.Users.GetByID(ctx, userID)
}

// Update changes the caller's own profile. Passwords are changed through
// ChangePassword only.
func (s UserService) Update(ctx context.Context, callerID, id int64, patch UserPatch) (*domain.User, error) {
	if callerID != id {
		return nil, fmt.Errorf("you can only update your own profile: %w", domain.ErrForbidden)
	}
	if patch.empty() {
		return nil, fmt.Errorf("update data cannot be empty: %w", domain.ErrValidation)
	}

	timeout := s.UpdateTimeout
	if timeout <= 0 {
		timeout = profileUpdateDeadline
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		user *domain.User
		err  error
	}
	done := make(chan result, 1)
	go func() {
		u, err := s.applyUpdate(ctx, id, patch)
		done <- result{u, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("profile update: %w", domain.ErrTimeout)
		}
		return r.user, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("profile update: %w", domain.ErrTimeout)
		}
		return nil, ctx.Err()
	}
}

func (s UserService) applyUpdate(ctx context.Context, id int64, patch UserPatch) (*domain.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.FirstName != nil {
		name := strings.TrimSpace(*patch.FirstName)
		if name == "" {
			return nil, fmt.Errorf("first name cannot be empty: %w", domain.ErrValidation)
		}
		u.FirstName = name
	}
	if patch.LastName != nil {
		u.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if !strings.Contains(email, "@") {
			return nil, fmt.Errorf("email is invalid: %w", domain.ErrValidation)
		}
		u.Email = email
	}
	if patch.IsActive != nil {
		u.IsActive = *patch.IsActive
	}
	return s.Users.Update(ctx, *u)
}

// ChangePassword reports false when currentPassword does not match.
func (s UserService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) (bool, error) {
	if len(newPassword) < 6 {
		return false, fmt.Errorf("new password must be at least 6 characters: %w", domain.ErrValidation)
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if u.PasswordHash == nil {
		return false, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(currentPassword)); err != nil {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	if err := s.Users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return false, err
	}
	return true, nil
}

// UploadProfilePicture stores the image and points the user at it. The
// previous picture is removed best-effort.
func (s UserService) UploadProfilePicture(ctx context.Context, userID int64, pic ProfilePicture) (*domain.User, error) {
	if !strings.HasPrefix(pic.ContentType, "image/") {
		return nil, fmt.Errorf("only image files are allowed: %w", domain.ErrValidation)
	}
	if pic.Size > MaxProfilePictureBytes {
		return nil, fmt.Errorf("file size must not exceed 2MB: %w", domain.ErrValidation)
	}
	if s.Storage == nil {
		return nil, errors.New("object storage is not configured")
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("profile-pictures/%d/%s%s", userID, uuid.NewString(), strings.ToLower(path.Ext(pic.Filename)))
	url, err := s.Storage.Upload(ctx, key, io.LimitReader(pic.Body, MaxProfilePictureBytes+1), pic.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload profile picture: %w", err)
	}
	if err := s.Users.UpdateProfilePicture(ctx, userID, url); err != nil {
		return nil, err
	}
	if previous := u.ProfilePicture; previous != "" && previous != url {
		if err := s.Storage.Delete(ctx, previous); err != nil {
			s.logger().WarnContext(ctx, "failed to delete previous profile picture", "err", err, "user_id", userID)
		}
	}
	return s.Users.GetByID(ctx, userID)
}

func (s UserService) Delete(ctx context.Context, callerID, id int64) error {
	if callerID != id {
		return fmt.Errorf("you can only delete your own account: %w", domain.ErrForbidden)
	}
	return s.Users.Delete(ctx, id)
}

func (s UserService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
