package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/trackshare/internal/common"
	"github.com/dmitrijs2005/trackshare/internal/dbx"
	"github.com/dmitrijs2005/trackshare/internal/logging"
	"github.com/dmitrijs2005/trackshare/internal/server/media"
	"github.com/dmitrijs2005/trackshare/internal/server/models"
	"github.com/dmitrijs2005/trackshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/trackshare/internal/server/session"
	"github.com/dmitrijs2005/trackshare/internal/server/toggle"
)

type TrackService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	uploader    media.Uploader
	toggles     *toggle.Engine
	feedSize    int
	log         logging.Logger
}

func NewTrackService(db *sql.DB, m repomanager.RepositoryManager, uploader media.Uploader, feedSize int, log logging.Logger) *TrackService {
	if feedSize <= 0 {
		feedSize = 5
	}
	return &TrackService{
		db:          db,
		repomanager: m,
		uploader:    uploader,
		toggles:     newToggleEngine(db, m),
		feedSize:    feedSize,
		log:         log.With("module", "tracks"),
	}
}

// CreateTrack copies the audio (and optional cover) into media storage and
// publishes a track authored by the acting user.
func (s *TrackService) CreateTrack(ctx context.Context, in CreateTrackInput) (*models.TrackView, error) {
	id, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	audioURL, err := s.uploader.Upload(ctx, in.AudioFileURL, media.Audio)
	if err != nil {
		s.log.Error(ctx, "audio upload failed", "error", err)
		return nil, common.Wrap(common.ErrDependency, "Failed to upload audio file", err)
	}

	var coverURL *string
	if in.CoverImageURL != nil && *in.CoverImageURL != "" {
		u, err := s.uploader.Upload(ctx, *in.CoverImageURL, media.Image)
		if err != nil {
			s.log.Error(ctx, "cover upload failed", "error", err)
			return nil, common.Wrap(common.ErrDependency, "Failed to upload cover image", err)
		}
		coverURL = &u
	}

	track, err := s.repomanager.Tracks(s.db).Create(ctx, &models.Track{
		AuthorID:      id.UserID,
		Title:         in.Title,
		Artist:        in.Artist,
		Duration:      in.Duration,
		AudioFileURL:  audioURL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		if errors.Is(err, common.ErrReferenceMissing) {
			return nil, common.E(common.ErrorNotFound, "User does not exist")
		}
		return nil, internal(ctx, s.log, "create track", err)
	}

	s.log.Info(ctx, "track created", "track_id", track.ID, "user_id", id.UserID)
	return &models.TrackView{Track: *track}, nil
}

// DeleteTrack removes a track owned by the acting user. Its likes go with it.
func (s *TrackService) DeleteTrack(ctx context.Context, trackID string) (bool, error) {
	id, err := session.Require(ctx)
	if err != nil {
		return false, err
	}
	trackID, err = parseID(trackID, "track")
	if err != nil {
		return false, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tracks(tx)

		track, err := repo.GetForUpdate(ctx, trackID)
		if err != nil {
			return err
		}
		if track.AuthorID != id.UserID {
			return common.E(common.ErrForbidden, "You cannot delete someone else's track")
		}
		return repo.Delete(ctx, trackID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, common.E(common.ErrorNotFound, "Track does not exist")
		}
		if ce, ok := public(err); ok {
			return false, ce
		}
		return false, internal(ctx, s.log, "delete track", err)
	}

	s.log.Info(ctx, "track deleted", "track_id", trackID, "user_id", id.UserID)
	return true, nil
}

// ToggleLike likes or unlikes trackID and reports whether the acting user
// likes it afterwards.
func (s *TrackService) ToggleLike(ctx context.Context, trackID string) (bool, error) {
	id, err := session.Require(ctx)
	if err != nil {
		return false, err
	}
	trackID, err = parseID(trackID, "track")
	if err != nil {
		return false, err
	}

	liked, err := s.toggles.Toggle(ctx, id.UserID, trackID, toggle.Like)
	if err != nil {
		if errors.Is(err, common.ErrReferenceMissing) {
			return false, common.E(common.ErrorNotFound, "Track does not exist")
		}
		if ce, ok := public(err); ok {
			return false, ce
		}
		return false, internal(ctx, s.log, "toggle like", err)
	}
	return liked, nil
}

// GetUserTracks lists tracks authored by username, newest first.
func (s *TrackService) GetUserTracks(ctx context.Context, username string) ([]models.TrackView, error) {
	list, err := s.repomanager.Tracks(s.db).ListByAuthor(ctx, username, session.UserID(ctx))
	if err != nil {
		return nil, internal(ctx, s.log, "list user tracks", err)
	}
	return list, nil
}

// GetFeed lists the most recent tracks.
func (s *TrackService) GetFeed(ctx context.Context) ([]models.TrackView, error) {
	list, err := s.repomanager.Tracks(s.db).ListRecent(ctx, s.feedSize, session.UserID(ctx))
	if err != nil {
		return nil, internal(ctx, s.log, "list feed", err)
	}
	return list, nil
}

// GetTrack returns one track, or nil if there is no such track.
func (s *TrackService) GetTrack(ctx context.Context, trackID string) (*models.TrackView, error) {
	trackID, err := parseID(trackID, "track")
	if err != nil {
		return nil, err
	}

	v, err := s.repomanager.Tracks(s.db).GetView(ctx, trackID, session.UserID(ctx))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, internal(ctx, s.log, "get track", err)
	}
	return v, nil
}
