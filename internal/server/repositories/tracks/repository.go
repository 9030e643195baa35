// Package tracks persists audio tracks and reads them back decorated with
// like statistics for a viewer.
package tracks

import (
	"context"

	"github.com/dmitrijs2005/trackshare/internal/server/models"
)

type Repository interface {
	// Create inserts track and fills its ID and CreatedAt. An unknown author
	// yields common.ErrReferenceMissing.
	Create(ctx context.Context, track *models.Track) (*models.Track, error)
	// GetForUpdate loads a track and locks its row until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Track, error)
	Delete(ctx context.Context, id string) error

	// The view queries take the viewer's user ID, "" for anonymous viewers.
	GetView(ctx context.Context, id, viewerID string) (*models.TrackView, error)
	ListByAuthor(ctx context.Context, username, viewerID string) ([]models.TrackView, error)
	ListRecent(ctx context.Context, limit int, viewerID string) ([]models.TrackView, error)
}
