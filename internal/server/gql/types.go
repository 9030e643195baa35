package gql

import (
	"context"
	"time"

	"github.com/dmitrijs2005/trackshare/internal/server/models"
	"github.com/dmitrijs2005/trackshare/internal/server/services"
	"github.com/dmitrijs2005/trackshare/internal/server/session"
	graphql "github.com/graph-gophers/graphql-go"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

type signupResultResolver struct {
	res *services.SignupResult
}

func (r *signupResultResolver) User() *userResolver {
	return &userResolver{u: r.res.User, self: true}
}

func (r *signupResultResolver) VerificationEmailSent() bool {
	return r.res.VerificationEmailSent
}

// userResolver exposes an account. self marks responses about the caller's
// own account, which include private fields.
type userResolver struct {
	u    *models.User
	self bool
}

func (r *userResolver) ID() graphql.ID    { return graphql.ID(r.u.ID) }
func (r *userResolver) Username() string  { return r.u.Username }
func (r *userResolver) FullName() string  { return r.u.FullName }
func (r *userResolver) IsVerified() bool  { return r.u.IsVerified }
func (r *userResolver) Bio() *string      { return r.u.Bio }
func (r *userResolver) CreatedAt() string { return formatTime(r.u.CreatedAt) }

func (r *userResolver) ProfileImageURL() *string {
	return r.u.ProfileImageURL
}

func (r *userResolver) Email(ctx context.Context) *string {
	if !r.self && session.UserID(ctx) != r.u.ID {
		return nil
	}
	email := r.u.Email
	return &email
}

type profileResolver struct {
	p *models.Profile
}

func (r *profileResolver) ID() graphql.ID          { return graphql.ID(r.p.ID) }
func (r *profileResolver) Username() string        { return r.p.Username }
func (r *profileResolver) FullName() string        { return r.p.FullName }
func (r *profileResolver) ProfileImageURL() string { return r.p.ProfileImageURL }
func (r *profileResolver) Bio() *string            { return r.p.Bio }
func (r *profileResolver) TotalTracks() int32      { return r.p.TotalTracks }
func (r *profileResolver) TotalFollowers() int32   { return r.p.TotalFollowers }
func (r *profileResolver) TotalFollowings() int32  { return r.p.TotalFollowings }
func (r *profileResolver) FollowedByMe() bool      { return r.p.FollowedByMe }

type trackResolver struct {
	t     models.TrackView
	users Users
}

func (r *Resolver) trackList(ts []models.TrackView) []*trackResolver {
	out := make([]*trackResolver, 0, len(ts))
	for _, t := range ts {
		out = append(out, &trackResolver{t: t, users: r.users})
	}
	return out
}

func (r *trackResolver) ID() graphql.ID         { return graphql.ID(r.t.ID) }
func (r *trackResolver) Title() string          { return r.t.Title }
func (r *trackResolver) Artist() *string        { return r.t.Artist }
func (r *trackResolver) Duration() string       { return r.t.Duration }
func (r *trackResolver) AudioFileURL() string   { return r.t.AudioFileURL }
func (r *trackResolver) CoverImageURL() *string { return r.t.CoverImageURL }
func (r *trackResolver) CreatedAt() string      { return formatTime(r.t.CreatedAt) }
func (r *trackResolver) TotalLikeCount() int32  { return r.t.TotalLikeCount }
func (r *trackResolver) HasLiked() bool         { return r.t.HasLiked }

// Author is resolved lazily; tracks whose author vanished resolve to null.
func (r *trackResolver) Author(ctx context.Context) (*userResolver, error) {
	u, err := r.users.GetUser(ctx, r.t.AuthorID)
	if err != nil || u == nil {
		return nil, err
	}
	return &userResolver{u: u}, nil
}
