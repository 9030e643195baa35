// Package server wires the trackshare process together: configuration,
// storage, collaborators, services and the HTTP and gRPC servers, with
// graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/trackshare/internal/logging"
	"github.com/dmitrijs2005/trackshare/internal/netx"
	"github.com/dmitrijs2005/trackshare/internal/server/auth"
	"github.com/dmitrijs2005/trackshare/internal/server/config"
	"github.com/dmitrijs2005/trackshare/internal/server/gql"
	"github.com/dmitrijs2005/trackshare/internal/server/httpapi"
	"github.com/dmitrijs2005/trackshare/internal/server/mailer"
	"github.com/dmitrijs2005/trackshare/internal/server/media"
	"github.com/dmitrijs2005/trackshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/trackshare/internal/server/services"

	gs "github.com/dmitrijs2005/trackshare/internal/server/grpc"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.Server
	grpcServer *gs.GRPCServer
}

// NewApp opens the database, applies migrations and builds every component.
// Log output goes to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger, err := logging.New(w, c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, err
	}
	if c.SecretKey == config.DefaultSecretKey {
		logger.Warn(ctx, "session tokens are signed with the built-in development key, set TRACKSHARE_SECRET_KEY or -s")
	}

	authService, err := auth.NewService(auth.Options{
		SecretKey:                []byte(c.SecretKey),
		BcryptCost:               c.BcryptCost,
		SessionValidity:          c.SessionTokenValidityDuration,
		VerificationCodeValidity: c.VerificationCodeValidityDuration,
	})
	if err != nil {
		return nil, err
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := build(ctx, c, logger, db, authService)
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, c *config.Config, logger *logging.SlogLogger, db *sql.DB, authService *auth.Service) (*App, error) {
	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	if v, err := rm.MigrationVersion(ctx, db); err == nil {
		logger.Info(ctx, "database schema ready", "version", v)
	}

	sender, err := newMailer(c, logger)
	if err != nil {
		return nil, err
	}

	uploader, err := media.NewS3Uploader(ctx, media.Options{
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
		PublicURL:    c.S3PublicURL,
		MaxBytes:     c.MediaMaxBytes,
		HTTPClient:   netx.NewPublicClient(time.Minute),
	})
	if err != nil {
		return nil, fmt.Errorf("media storage: %w", err)
	}

	users, err := services.NewUserService(db, rm, authService, sender, logger)
	if err != nil {
		return nil, err
	}
	tracks := services.NewTrackService(db, rm, uploader, c.FeedSize, logger)

	schema, err := gql.NewSchema(users, tracks, c.GraphQLMaxDepth, logger)
	if err != nil {
		return nil, fmt.Errorf("graphql schema: %w", err)
	}

	httpServer := httpapi.NewServer(httpapi.Options{
		Address:        c.EndpointAddrHTTP,
		CookieName:     c.SessionCookieName,
		CookieSecure:   c.SessionCookieSecure,
		AllowedOrigins: c.AllowedOrigins,
		RateLimit:      c.RateLimit,
		RateBurst:      c.RateBurst,
	}, schema, authService, logger)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		httpServer: httpServer,
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db),
	}, nil
}

// newMailer sends over SMTP when a host is configured and logs the codes
// otherwise.
func newMailer(c *config.Config, logger logging.Logger) (mailer.Sender, error) {
	if c.SMTPHost == "" {
		logger.Warn(context.Background(), "SMTP host not configured, verification codes will be logged")
		return mailer.NewLogSender(logger), nil
	}
	return mailer.NewSMTPSender(mailer.SMTPOptions{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

type runner interface {
	Run(ctx context.Context) error
}

func (app *App) start(ctx context.Context, cancelFunc context.CancelFunc, name string, r runner) {
	if err := r.Run(ctx); err != nil {
		app.logger.Error(ctx, name+" server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "HTTP", app.httpServer)
	}()
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "gRPC", app.grpcServer)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
