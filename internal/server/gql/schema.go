// Package gql exposes the services as a GraphQL schema.
package gql

import (
	"context"
	_ "embed"
	"errors"

	"github.com/dmitrijs2005/trackshare/internal/common"
	"github.com/dmitrijs2005/trackshare/internal/logging"
	"github.com/dmitrijs2005/trackshare/internal/server/models"
	"github.com/dmitrijs2005/trackshare/internal/server/services"
	graphql "github.com/graph-gophers/graphql-go"
)

//go:embed schema.graphql
var schemaSDL string

const internalMessage = "Something went wrong, please try again"

// Users is the account side of the API.
type Users interface {
	Signup(ctx context.Context, in services.SignupInput) (*services.SignupResult, error)
	Login(ctx context.Context, in services.LoginInput) (*models.User, error)
	VerifyEmail(ctx context.Context, code string) (*models.User, error)
	ToggleFollow(ctx context.Context, userID string) (bool, error)
	GetProfile(ctx context.Context, username string) (*models.Profile, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Tracks is the catalogue side of the API.
type Tracks interface {
	CreateTrack(ctx context.Context, in services.CreateTrackInput) (*models.TrackView, error)
	DeleteTrack(ctx context.Context, trackID string) (bool, error)
	ToggleLike(ctx context.Context, trackID string) (bool, error)
	GetUserTracks(ctx context.Context, username string) ([]models.TrackView, error)
	GetFeed(ctx context.Context) ([]models.TrackView, error)
	GetTrack(ctx context.Context, trackID string) (*models.TrackView, error)
}

// Request is a GraphQL-over-HTTP request body.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

type Schema struct {
	schema *graphql.Schema
	log    logging.Logger
}

// NewSchema parses the embedded schema against the resolvers. maxDepth <= 0
// leaves query depth unlimited.
func NewSchema(users Users, tracks Tracks, maxDepth int, log logging.Logger) (*Schema, error) {
	log = log.With("module", "graphql")

	opts := []graphql.SchemaOpt{graphql.Logger(panicLogger{log: log})}
	if maxDepth > 0 {
		opts = append(opts, graphql.MaxDepth(maxDepth))
	}

	s, err := graphql.ParseSchema(schemaSDL, &Resolver{users: users, tracks: tracks}, opts...)
	if err != nil {
		return nil, err
	}
	return &Schema{schema: s, log: log}, nil
}

// Execute runs req and replaces resolver errors that do not carry a
// caller-safe message with a generic internal error.
func (s *Schema) Execute(ctx context.Context, req Request) *graphql.Response {
	resp := s.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)

	for _, qe := range resp.Errors {
		if qe.ResolverError == nil {
			continue
		}
		var ce *common.Error
		if errors.As(qe.ResolverError, &ce) {
			continue
		}
		s.log.Error(ctx, "unexpected resolver error", "path", qe.Path, "error", qe.ResolverError)
		qe.Message = internalMessage
		qe.Extensions = map[string]interface{}{"code": common.KindCode(common.ErrorInternal)}
	}
	return resp
}

type panicLogger struct {
	log logging.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.log.Error(ctx, "resolver panic", "panic", value)
}
