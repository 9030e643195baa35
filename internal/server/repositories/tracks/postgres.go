package tracks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/trackshare/internal/common"
	"github.com/dmitrijs2005/trackshare/internal/dbx"
	"github.com/dmitrijs2005/trackshare/internal/server/models"
)

const trackColumns = `t.id, t.author_id, t.title, t.artist, t.duration, t.audio_file_url, t.cover_image_url, t.created_at`

// viewSelect needs the viewer ID bound as $1.
const viewSelect = `SELECT ` + trackColumns + `,
		     (SELECT COUNT(*) FROM likes l WHERE l.track_id = t.id),
		     EXISTS (SELECT 1 FROM likes l WHERE l.track_id = t.id AND l.user_id = $1)
		 FROM tracks t`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(row scanner, extra ...any) (*models.Track, error) {
	var (
		t      models.Track
		artist sql.NullString
		cover  sql.NullString
	)

	dest := append([]any{&t.ID, &t.AuthorID, &t.Title, &artist, &t.Duration, &t.AudioFileURL, &cover, &t.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if artist.Valid {
		t.Artist = &artist.String
	}
	if cover.Valid {
		t.CoverImageURL = &cover.String
	}
	return &t, nil
}

func scanView(row scanner) (*models.TrackView, error) {
	var v models.TrackView
	t, err := scanTrack(row, &v.TotalLikeCount, &v.HasLiked)
	if err != nil {
		return nil, err
	}
	v.Track = *t
	return &v, nil
}

func viewer(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

func (r *PostgresRepository) Create(ctx context.Context, track *models.Track) (*models.Track, error) {
	query :=
		`INSERT INTO tracks (author_id, title, artist, duration, audio_file_url, cover_image_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		track.AuthorID, track.Title, track.Artist, track.Duration, track.AudioFileURL, track.CoverImageURL).
		Scan(&track.ID, &track.CreatedAt)

	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrReferenceMissing
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return track, nil
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks t WHERE t.id = $1 FOR UPDATE`
	return scanTrack(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) GetView(ctx context.Context, id, viewerID string) (*models.TrackView, error) {
	query := viewSelect + ` WHERE t.id = $2`
	return scanView(r.db.QueryRowContext(ctx, query, viewer(viewerID), id))
}

func (r *PostgresRepository) ListByAuthor(ctx context.Context, username, viewerID string) ([]models.TrackView, error) {
	query := viewSelect + `
		 JOIN users u ON u.id = t.author_id
		 WHERE u.username = $2
		 ORDER BY t.created_at DESC`
	return r.list(ctx, query, viewer(viewerID), username)
}

func (r *PostgresRepository) ListRecent(ctx context.Context, limit int, viewerID string) ([]models.TrackView, error) {
	query := viewSelect + `
		 ORDER BY t.created_at DESC
		 LIMIT $2`
	return r.list(ctx, query, viewer(viewerID), limit)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.TrackView, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.TrackView, 0)
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
