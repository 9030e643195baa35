// Package users persists accounts and derives public profiles from them.
package users

import (
	"context"

	"github.com/dmitrijs2005/trackshare/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills its ID and CreatedAt. A duplicate
	// username or email yields common.ErrUsernameTaken / common.ErrEmailTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// FindByUsernameOrEmail returns a user whose username equals username or
	// whose email equals email, preferring the username match.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	MarkVerified(ctx context.Context, id string) (*models.User, error)
	// GetProfile returns the profile of username as seen by viewerID
	// ("" for anonymous viewers).
	GetProfile(ctx context.Context, username, viewerID string) (*models.Profile, error)
}
