package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/missions-backend/internal/data/repos"
	types "github.com/yungbote/missions-backend/internal/domain"
	domainagg "github.com/yungbote/missions-backend/internal/domain/aggregates"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
	"github.com/yungbote/missions-backend/internal/platform/firebase"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

type AuthService interface {
	// LoginOrRegister verifies a Firebase ID token and returns the matching
	// user, creating it (with its first mission unlocked) on first login.
	LoginOrRegister(ctx context.Context, idToken string) (*types.User, bool, error)
	// Authenticate resolves a bearer token to an existing user.
	Authenticate(ctx context.Context, idToken string) (*types.User, error)
}

type authService struct {
	log         *logger.Logger
	verifier    firebase.Verifier
	users       repos.UserRepo
	progression domainagg.ProgressionAggregate
	notifier    Notifier
}

func NewAuthService(log *logger.Logger, verifier firebase.Verifier, users repos.UserRepo, progression domainagg.ProgressionAggregate, notifier Notifier) AuthService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &authService{
		log:         log.With("service", "AuthService"),
		verifier:    verifier,
		users:       users,
		progression: progression,
		notifier:    notifier,
	}
}

func (s *authService) verify(ctx context.Context, idToken string) (*firebase.Identity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrUnauthorized
	}
	id, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, firebase.ErrInvalidToken) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return nil, err
	}
	return id, nil
}

func (s *authService) LoginOrRegister(ctx context.Context, idToken string) (*types.User, bool, error) {
	id, err := s.verify(ctx, idToken)
	if err != nil {
		return nil, false, err
	}
	existing, err := s.users.GetByFirebaseUID(dbctx.Context{Ctx: ctx}, id.UID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	if strings.TrimSpace(id.Email) == "" {
		return nil, false, invalidf("firebase account has no email")
	}

	in := domainagg.InitializeUserInput{
		FirebaseUID: id.UID,
		Email:       id.Email,
		Name:        displayName(id),
	}
	if pic := strings.TrimSpace(id.Picture); pic != "" {
		in.PhotoURL = &pic
	}
	res, err := s.progression.InitializeUser(ctx, in)
	if err != nil {
		return nil, false, translateAggregateError(err)
	}
	if res.Created {
		s.log.Info("user registered", "user_id", res.User.ID, "first_mission_id", res.FirstMissionID)
		s.notifier.Welcome(ctx, res.User)
	}
	return res.User, res.Created, nil
}

func (s *authService) Authenticate(ctx context.Context, idToken string) (*types.User, error) {
	id, err := s.verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByFirebaseUID(dbctx.Context{Ctx: ctx}, id.UID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user not registered", ErrUnauthorized)
	}
	return u, nil
}

// displayName prefers the token's name claim, then the email local part.
func displayName(id *firebase.Identity) string {
	if name := strings.TrimSpace(id.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(id.Email, "@")
	return local
}
