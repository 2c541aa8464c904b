package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scanstock-backend/internal/config"
	"scanstock-backend/internal/domain"
	"scanstock-backend/internal/ports"
)

const welcomeNotes = "Welcome to ScanStock Pro!"

type AppUpdateService struct {
	Config  config.Config
	Updates ports.AppUpdateStore
}

type AppUpdateInput struct {
	Version      *string
	MinVersion   *string
	AndroidURL   *string
	IOSURL       *string
	ReleaseNotes *string
	ForceUpdate  *bool
	IsActive     *bool
}

// UpdateCheck is what a client needs to decide whether to prompt for an update.
type UpdateCheck struct {
	MinVersion    string
	LatestVersion string
	UpdateURL     string
	ReleaseNotes  string
	ForceUpdate   bool
}

func (s AppUpdateService) Create(ctx context.Context, in AppUpdateInput) (*domain.AppUpdate, error) {
	u := domain.AppUpdate{IsActive: true}
	applyAppUpdate(&u, in)
	if u.Version == "" || u.MinVersion == "" {
		return nil, fmt.Errorf("version and minVersion are required: %w", domain.ErrValidation)
	}
	if u.AndroidURL == "" || u.IOSURL == "" {
		return nil, fmt.Errorf("androidUrl and iosUrl are required: %w", domain.ErrValidation)
	}
	return s.Updates.Create(ctx, u)
}

func (s AppUpdateService) FindAll(ctx context.Context) ([]domain.AppUpdate, error) {
	return s.Updates.List(ctx)
}

func (s AppUpdateService) FindLatest(ctx context.Context) (*domain.AppUpdate, error) {
	return s.Updates.Latest(ctx)
}

func (s AppUpdateService) Update(ctx context.Context, id int64, in AppUpdateInput) (*domain.AppUpdate, error) {
	u, err := s.Updates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyAppUpdate(u, in)
	if u.Version == "" || u.MinVersion == "" {
		return nil, fmt.Errorf("version cannot be empty: %w", domain.ErrValidation)
	}
	return s.Updates.Update(ctx, *u)
}

func (s AppUpdateService) SetForceUpdate(ctx context.Context, id int64, force bool) (*domain.AppUpdate, error) {
	return s.Update(ctx, id, AppUpdateInput{ForceUpdate: &force})
}

// Check resolves the public update information for a client. With no active
// configuration stored it answers from the environment defaults.
func (s AppUpdateService) Check(ctx context.Context, userAgent string) (UpdateCheck, error) {
	ios := isIOS(userAgent)
	latest, err := s.Updates.Latest(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return UpdateCheck{}, err
		}
		url := s.Config.UpdateAndroidURL
		if ios {
			url = s.Config.UpdateIOSURL
		}
		return UpdateCheck{
			MinVersion:    s.Config.UpdateMinVersion,
			LatestVersion: s.Config.UpdateLatestVer,
			UpdateURL:     url,
			ReleaseNotes:  welcomeNotes,
			ForceUpdate:   false,
		}, nil
	}
	url := latest.AndroidURL
	if ios {
		url = latest.IOSURL
	}
	return UpdateCheck{
		MinVersion:    latest.MinVersion,
		LatestVersion: latest.Version,
		UpdateURL:     url,
		ReleaseNotes:  latest.ReleaseNotes,
		ForceUpdate:   latest.ForceUpdate,
	}, nil
}

func isIOS(userAgent string) bool {
	for _, marker := range []string{"iPhone", "iPad", "iPod"} {
		if strings.Contains(userAgent, marker) {
			return true
		}
	}
	return false
}

func applyAppUpdate(u *domain.AppUpdate, in AppUpdateInput) {
	if in.Version != nil {
		u.Version = strings.TrimSpace(*in.Version)
	}
	if in.MinVersion != nil {
		u.MinVersion = strings.TrimSpace(*in.MinVersion)
	}
	if in.AndroidURL != nil {
		u.AndroidURL = strings.TrimSpace(*in.AndroidURL)
	}
	if in.IOSURL != nil {
		u.IOSURL = strings.TrimSpace(*in.IOSURL)
	}
	if in.ReleaseNotes != nil {
		u.ReleaseNotes = *in.ReleaseNotes
	}
	if in.ForceUpdate != nil {
		u.ForceUpdate = *in.ForceUpdate
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
}
