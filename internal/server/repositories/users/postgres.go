package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/trackshare/internal/common"
	"github.com/dmitrijs2005/trackshare/internal/dbx"
	"github.com/dmitrijs2005/trackshare/internal/server/models"
)

const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

const userColumns = `id, username, full_name, email, password_hash, is_verified,
	verification_token, verification_token_expires_at, profile_image_url, bio, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		u         models.User
		token     sql.NullString
		expiresAt sql.NullTime
		image     sql.NullString
		bio       sql.NullString
	)

	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.PasswordHash, &u.IsVerified,
		&token, &expiresAt, &image, &bio, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if token.Valid {
		u.VerificationToken = &token.String
	}
	if expiresAt.Valid {
		u.VerificationTokenExpiresAt = &expiresAt.Time
	}
	if image.Valid {
		u.ProfileImageURL = &image.String
	}
	if bio.Valid {
		u.Bio = &bio.String
	}

	return &u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, full_name, email, password_hash, is_verified,
		     verification_token, verification_token_expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.FullName, user.Email, user.PasswordHash, user.IsVerified,
		user.VerificationToken, user.VerificationTokenExpiresAt).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			switch dbx.ConstraintName(err) {
			case usernameConstraint:
				return nil, common.ErrUsernameTaken
			case emailConstraint:
				return nil, common.ErrEmailTaken
			}
			return nil, fmt.Errorf("%w: %v", common.ErrorAlreadyExists, err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE username = $1 OR email = $2
		 ORDER BY (username = $1) DESC
		 LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, username, email))
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) (*models.User, error) {
	query := `UPDATE users SET is_verified = TRUE WHERE id = $1 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetProfile(ctx context.Context, username, viewerID string) (*models.Profile, error) {
	query :=
		`SELECT u.id, u.username, u.full_name, COALESCE(u.profile_image_url, ''), u.bio,
		     (SELECT COUNT(*) FROM tracks t WHERE t.author_id = u.id),
		     (SELECT COUNT(*) FROM follows f WHERE f.following_id = u.id),
		     (SELECT COUNT(*) FROM follows f WHERE f.follower_id = u.id),
		     EXISTS (SELECT 1 FROM follows f WHERE f.following_id = u.id AND f.follower_id = $2)
		 FROM users u
		 WHERE u.username = $1`

	viewer := sql.NullString{String: viewerID, Valid: viewerID != ""}

	var (
		p   models.Profile
		bio sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, username, viewer).Scan(&p.ID, &p.Username, &p.FullName,
		&p.ProfileImageURL, &bio, &p.TotalTracks, &p.TotalFollowers, &p.TotalFollowings, &p.FollowedByMe)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if bio.Valid {
		p.Bio = &bio.String
	}

	return &p, nil
}
