// Package httpapi serves the GraphQL API over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/trackshare/internal/logging"
	"github.com/dmitrijs2005/trackshare/internal/server/auth"
	"github.com/dmitrijs2005/trackshare/internal/server/gql"
	"github.com/gin-gonic/gin"
	graphql "github.com/graph-gophers/graphql-go"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	defaultBodyLimit  = 1 << 20
)

// Executor runs a GraphQL request.
type Executor interface {
	Execute(ctx context.Context, req gql.Request) *graphql.Response
}

// Sessions validates and times session tokens.
type Sessions interface {
	ParseSessionToken(token string) (auth.Identity, error)
	SessionValidity() time.Duration
}

type Options struct {
	Address        string
	CookieName     string
	CookieSecure   bool
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
	MaxBodyBytes   int64
}

type Server struct {
	opts     Options
	engine   *gin.Engine
	exec     Executor
	sessions Sessions
	logger   logging.Logger
}

func NewServer(opts Options, exec Executor, sessions Sessions, l logging.Logger) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultBodyLimit
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		opts:     opts,
		exec:     exec,
		sessions: sessions,
		logger:   l.With("module", "http_server"),
	}

	r := gin.New()
	r.Use(
		s.recovery(),
		s.requestLogger(),
		cors(opts.AllowedOrigins),
		rateLimit(opts.RateLimit, opts.RateBurst),
	)
	s.registerRoutes(r)
	s.engine = r

	return s
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/")
	api.Use(s.sessionMiddleware())
	{
		api.POST("/graphql", s.graphql)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve handles connections on lis and drains in-flight requests once ctx
// is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
