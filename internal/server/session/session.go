// Package session binds the acting identity of a request into its context
// and carries freshly issued session tokens back to the transport.
package session

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/trackshare/internal/common"
	"github.com/dmitrijs2005/trackshare/internal/server/auth"
)

// Identity is the authenticated subject of a request.
type Identity = auth.Identity

type identityKey struct{}
type sinkKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity bound to ctx; ok is false for anonymous
// requests.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}

// UserID returns the acting user ID, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	id, _ := FromContext(ctx)
	return id.UserID
}

// Require returns the identity bound to ctx or an authentication error.
func Require(ctx context.Context) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return Identity{}, common.E(common.ErrUnauthenticated, "Please login or sign up first")
	}
	return id, nil
}

// Sink receives session tokens issued while handling a request.
type Sink interface {
	SetSessionToken(token string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(token string)

func (f SinkFunc) SetSessionToken(token string) { f(token) }

var ErrNoSink = errors.New("session: no token sink bound to request")

func WithSink(ctx context.Context, s Sink) context.Context {
	return context.WithValue(ctx, sinkKey{}, s)
}

// Deliver hands token to the sink bound to ctx.
func Deliver(ctx context.Context, token string) error {
	s, ok := ctx.Value(sinkKey{}).(Sink)
	if !ok || s == nil {
		return ErrNoSink
	}
	s.SetSessionToken(token)
	return nil
}
