package services

import (
	"context"
	"strings"

	"github.com/yungbote/missions-backend/internal/data/repos"
	types "github.com/yungbote/missions-backend/internal/domain"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

type UserProfile struct {
	*types.User
	Certificates []*types.Certificate `json:"certificates"`
}

type UpdatePreferencesInput struct {
	OperatingSystem     *string `json:"operatingSystem"`
	OnboardingCompleted *bool   `json:"onboardingCompleted"`
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	GetProfile(ctx context.Context) (*UserProfile, error)
	UpdatePreferences(ctx context.Context, in UpdatePreferencesInput) (*types.User, error)
}

type userService struct {
	log          *logger.Logger
	users        repos.UserRepo
	certificates repos.CertificateRepo
}

func NewUserService(log *logger.Logger, users repos.UserRepo, certificates repos.CertificateRepo) UserService {
	return &userService{
		log:          log.With("service", "UserService"),
		users:        users,
		certificates: certificates,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	u, err := us.users.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		us.log.Warn("authenticated user missing", "user_id", userID)
		return nil, ErrNotFound
	}
	return u, nil
}

func (us *userService) GetProfile(ctx context.Context) (*UserProfile, error) {
	u, err := us.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	certs, err := us.certificates.ListByUser(dbctx.Context{Ctx: ctx}, u.ID)
	if err != nil {
		return nil, err
	}
	if certs == nil {
		certs = []*types.Certificate{}
	}
	return &UserProfile{User: u, Certificates: certs}, nil
}

func (us *userService) UpdatePreferences(ctx context.Context, in UpdatePreferencesInput) (*types.User, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	var os *types.OperatingSystem
	if in.OperatingSystem != nil {
		v := types.OperatingSystem(strings.ToLower(strings.TrimSpace(*in.OperatingSystem)))
		if !v.Valid() {
			return nil, invalidf("operatingSystem must be one of windows, mac, linux")
		}
		os = &v
	}
	if os == nil && in.OnboardingCompleted == nil {
		return us.GetMe(ctx)
	}
	if err := us.users.UpdatePreferences(dbctx.Context{Ctx: ctx}, userID, os, in.OnboardingCompleted); err != nil {
		return nil, err
	}
	return us.GetMe(ctx)
}
