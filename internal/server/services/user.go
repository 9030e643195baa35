// Package services contains server-side business logic. This file implements
// UserService: signup, login, e-mail verification, follows and profiles.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/trackshare/internal/common"
	"github.com/dmitrijs2005/trackshare/internal/logging"
	"github.com/dmitrijs2005/trackshare/internal/server/auth"
	"github.com/dmitrijs2005/trackshare/internal/server/mailer"
	"github.com/dmitrijs2005/trackshare/internal/server/models"
	"github.com/dmitrijs2005/trackshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/trackshare/internal/server/session"
	"github.com/dmitrijs2005/trackshare/internal/server/toggle"
)

// SignupResult is a created account. VerificationEmailSent is false when the
// account exists but the verification e-mail could not be dispatched.
type SignupResult struct {
	User                  *models.User
	VerificationEmailSent bool
}

// UserService provides account operations:
// - Signup / Login: create accounts, check credentials and issue sessions
// - VerifyEmail: move an account from pending to verified
// - ToggleFollow / GetProfile: the social graph between users
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	auth        *auth.Service
	mailer      mailer.Sender
	toggles     *toggle.Engine
	log         logging.Logger
	now         func() time.Time

	// compared against when the login name is unknown, so both paths cost a
	// bcrypt comparison
	dummyHash string
}

var randomSecret = common.MakeRandHexString

// NewUserService constructs a UserService over the given store and collaborators.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, a *auth.Service, sender mailer.Sender, log logging.Logger) (*UserService, error) {
	plain, err := randomSecret(16)
	if err != nil {
		return nil, fmt.Errorf("dummy password: %w", err)
	}
	dummy, err := a.HashPassword(plain)
	if err != nil {
		return nil, fmt.Errorf("dummy password hash: %w", err)
	}
	return &UserService{
		db:          db,
		repomanager: m,
		auth:        a,
		mailer:      sender,
		toggles:     newToggleEngine(db, m),
		log:         log.With("module", "users"),
		now:         time.Now,
		dummyHash:   dummy,
	}, nil
}

func newToggleEngine(db *sql.DB, m repomanager.RepositoryManager) *toggle.Engine {
	return toggle.NewEngine(map[toggle.Kind]toggle.Store{
		toggle.Like:   m.Likes(db),
		toggle.Follow: m.Follows(db),
	})
}

// Signup registers a new, unverified account, starts a session for it and
// mails the verification code. A mail failure does not undo the signup.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	existing, err := repo.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	switch {
	case err == nil:
		if existing.Username == in.Username {
			return nil, common.E(common.ErrConflict, "Username is already in use")
		}
		return nil, common.E(common.ErrConflict, "Email is already in use")
	case !errors.Is(err, common.ErrorNotFound):
		return nil, internal(ctx, s.log, "signup lookup", err)
	}

	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, internal(ctx, s.log, "hash password", err)
	}

	code, err := s.auth.IssueVerificationCode()
	if err != nil {
		return nil, internal(ctx, s.log, "issue verification code", err)
	}

	user, err := repo.Create(ctx, &models.User{
		Username:                   in.Username,
		FullName:                   in.FullName,
		Email:                      in.Email,
		PasswordHash:               hash,
		VerificationToken:          &code.Code,
		VerificationTokenExpiresAt: &code.ExpiresAt,
	})
	if err != nil {
		// lost the race against a concurrent signup with the same name or mail
		switch {
		case errors.Is(err, common.ErrUsernameTaken):
			return nil, common.Wrap(common.ErrConflict, "Username is already in use", err)
		case errors.Is(err, common.ErrEmailTaken):
			return nil, common.Wrap(common.ErrConflict, "Email is already in use", err)
		}
		return nil, internal(ctx, s.log, "create user", err)
	}
	s.log.Info(ctx, "user signed up", "user_id", user.ID)

	if err := s.startSession(ctx, user); err != nil {
		return nil, err
	}

	sent := true
	if err := s.mailer.SendVerificationEmail(ctx, user.Email, code.Code); err != nil {
		s.log.Error(ctx, "verification email not sent", "user_id", user.ID, "error", err)
		sent = false
	}

	return &SignupResult{User: user, VerificationEmailSent: sent}, nil
}

// Login checks the credentials and starts a session. Unverified accounts may
// log in.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	login := in.UsernameOrEmail
	user, err := s.repomanager.Users(s.db).FindByUsernameOrEmail(ctx, login, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.auth.VerifyPassword(in.Password, s.dummyHash)
			return nil, common.E(common.ErrUnauthenticated, "Invalid credentials")
		}
		return nil, internal(ctx, s.log, "login lookup", err)
	}

	if !s.auth.VerifyPassword(in.Password, user.PasswordHash) {
		return nil, common.E(common.ErrUnauthenticated, "Invalid credentials")
	}

	if err := s.startSession(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) startSession(ctx context.Context, user *models.User) error {
	token, err := s.auth.IssueSessionToken(user.ID, user.Username)
	if err != nil {
		return internal(ctx, s.log, "issue session token", err)
	}
	if err := session.Deliver(ctx, token); err != nil {
		s.log.Warn(ctx, "session token not delivered", "user_id", user.ID, "error", err)
	}
	return nil
}

// VerifyEmail marks the acting user verified if code matches the stored,
// unexpired verification code.
func (s *UserService) VerifyEmail(ctx context.Context, code string) (*models.User, error) {
	id, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, common.E(common.ErrValidation, "Verification code is required")
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.E(common.ErrorNotFound, "User does not exist")
		}
		return nil, internal(ctx, s.log, "verify lookup", err)
	}

	if user.VerificationToken == nil ||
		subtle.ConstantTimeCompare([]byte(*user.VerificationToken), []byte(code)) != 1 {
		return nil, common.E(common.ErrVerification, "Invalid verification code")
	}
	if user.VerificationTokenExpiresAt == nil || !s.now().Before(*user.VerificationTokenExpiresAt) {
		return nil, common.E(common.ErrVerification, "Verification code has expired")
	}

	verified, err := repo.MarkVerified(ctx, user.ID)
	if err != nil {
		return nil, internal(ctx, s.log, "mark verified", err)
	}
	s.log.Info(ctx, "email verified", "user_id", user.ID)
	return verified, nil
}

// ToggleFollow follows or unfollows userID and reports whether the acting
// user follows it afterwards.
func (s *UserService) ToggleFollow(ctx context.Context, userID string) (bool, error) {
	id, err := session.Require(ctx)
	if err != nil {
		return false, err
	}
	target, err := parseID(userID, "user")
	if err != nil {
		return false, err
	}
	if target == id.UserID {
		return false, common.E(common.ErrValidation, "You cannot follow yourself")
	}

	following, err := s.toggles.Toggle(ctx, id.UserID, target, toggle.Follow)
	if err != nil {
		if errors.Is(err, common.ErrReferenceMissing) {
			return false, common.E(common.ErrorNotFound, "User does not exist")
		}
		if ce, ok := public(err); ok {
			return false, ce
		}
		return false, internal(ctx, s.log, "toggle follow", err)
	}
	return following, nil
}

// GetProfile returns the public profile of username, or nil if there is no
// such user.
func (s *UserService) GetProfile(ctx context.Context, username string) (*models.Profile, error) {
	p, err := s.repomanager.Users(s.db).GetProfile(ctx, username, session.UserID(ctx))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, internal(ctx, s.log, "get profile", err)
	}
	return p, nil
}

// GetUser returns the user with the given ID, or nil if absent.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, internal(ctx, s.log, "get user", err)
	}
	return u, nil
}
