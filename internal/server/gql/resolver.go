package gql

import (
	"context"

	"github.com/dmitrijs2005/trackshare/internal/server/services"
	graphql "github.com/graph-gophers/graphql-go"
)

// Resolver is the root Query and Mutation resolver.
type Resolver struct {
	users  Users
	tracks Tracks
}

type signupUserPayload struct {
	Username string
	FullName string
	Email    string
	Password string
}

type loginUserPayload struct {
	UsernameOrEmail string
	Password        string
}

type verifyEmailPayload struct {
	Code string
}

type createTrackPayload struct {
	Title         string
	AudioFileURL  string
	CoverImageURL *string
	Artist        *string
	Duration      string
}

// Queries

func (r *Resolver) GetUserProfile(ctx context.Context, args struct{ Username string }) (*profileResolver, error) {
	p, err := r.users.GetProfile(ctx, args.Username)
	if err != nil || p == nil {
		return nil, err
	}
	return &profileResolver{p: p}, nil
}

func (r *Resolver) GetUserTracks(ctx context.Context, args struct{ Username string }) ([]*trackResolver, error) {
	ts, err := r.tracks.GetUserTracks(ctx, args.Username)
	if err != nil {
		return nil, err
	}
	return r.trackList(ts), nil
}

func (r *Resolver) GetFeedTracks(ctx context.Context) ([]*trackResolver, error) {
	ts, err := r.tracks.GetFeed(ctx)
	if err != nil {
		return nil, err
	}
	return r.trackList(ts), nil
}

func (r *Resolver) GetTrackByID(ctx context.Context, args struct{ ID graphql.ID }) (*trackResolver, error) {
	t, err := r.tracks.GetTrack(ctx, string(args.ID))
	if err != nil || t == nil {
		return nil, err
	}
	return &trackResolver{t: *t, users: r.users}, nil
}

// Mutations

func (r *Resolver) SignupUser(ctx context.Context, args struct{ Payload signupUserPayload }) (*signupResultResolver, error) {
	res, err := r.users.Signup(ctx, services.SignupInput{
		Username: args.Payload.Username,
		FullName: args.Payload.FullName,
		Email:    args.Payload.Email,
		Password: args.Payload.Password,
	})
	if err != nil {
		return nil, err
	}
	return &signupResultResolver{res: res}, nil
}

func (r *Resolver) LoginUser(ctx context.Context, args struct{ Payload loginUserPayload }) (*userResolver, error) {
	u, err := r.users.Login(ctx, services.LoginInput{
		UsernameOrEmail: args.Payload.UsernameOrEmail,
		Password:        args.Payload.Password,
	})
	if err != nil {
		return nil, err
	}
	return &userResolver{u: u, self: true}, nil
}

func (r *Resolver) VerifyEmail(ctx context.Context, args struct{ Payload verifyEmailPayload }) (*userResolver, error) {
	u, err := r.users.VerifyEmail(ctx, args.Payload.Code)
	if err != nil {
		return nil, err
	}
	return &userResolver{u: u, self: true}, nil
}

func (r *Resolver) LikeTrack(ctx context.Context, args struct{ TrackID graphql.ID }) (bool, error) {
	return r.tracks.ToggleLike(ctx, string(args.TrackID))
}

func (r *Resolver) FollowUser(ctx context.Context, args struct{ UserID graphql.ID }) (bool, error) {
	return r.users.ToggleFollow(ctx, string(args.UserID))
}

func (r *Resolver) CreateTrack(ctx context.Context, args struct{ Payload createTrackPayload }) (*trackResolver, error) {
	t, err := r.tracks.CreateTrack(ctx, services.CreateTrackInput{
		Title:         args.Payload.Title,
		AudioFileURL:  args.Payload.AudioFileURL,
		CoverImageURL: args.Payload.CoverImageURL,
		Artist:        args.Payload.Artist,
		Duration:      args.Payload.Duration,
	})
	if err != nil {
		return nil, err
	}
	return &trackResolver{t: *t, users: r.users}, nil
}

func (r *Resolver) DeleteTrack(ctx context.Context, args struct{ TrackID graphql.ID }) (bool, error) {
	return r.tracks.DeleteTrack(ctx, string(args.TrackID))
}
