package models

import "time"

type Track struct {
	ID            string
	AuthorID      string
	Title         string
	Artist        *string
	Duration      string
	AudioFileURL  string
	CoverImageURL *string
	CreatedAt     time.Time
}

// TrackView decorates a track with like statistics for the viewer.
// HasLiked is always false for anonymous viewers.
type TrackView struct {
	Track
	TotalLikeCount int32
	HasLiked       bool
}
