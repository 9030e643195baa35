// Package edges persists existence-only relationship rows (likes and follows)
// keyed by a composite (source, target) primary key.
package edges

import "context"

type Repository interface {
	// Create inserts the edge. An existing edge yields
	// common.ErrorAlreadyExists, a missing endpoint common.ErrReferenceMissing.
	Create(ctx context.Context, sourceID, targetID string) error
	// Delete removes the edge, or returns common.ErrorNotFound if absent.
	Delete(ctx context.Context, sourceID, targetID string) error
}

// Table names an edge table and its key columns.
type Table struct {
	Name         string
	SourceColumn string
	TargetColumn string
}

var (
	Likes   = Table{Name: "likes", SourceColumn: "user_id", TargetColumn: "track_id"}
	Follows = Table{Name: "follows", SourceColumn: "follower_id", TargetColumn: "following_id"}
)
