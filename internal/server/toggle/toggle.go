// Package toggle flips existence-only relationship edges (likes, follows)
// without a prior existence check. The store's uniqueness constraint on the
// (source, target) pair is the only synchronisation.
package toggle

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/trackshare/internal/common"
)

// Kind selects the relationship being toggled.
type Kind int

const (
	Like Kind = iota + 1
	Follow
)

func (k Kind) String() string {
	switch k {
	case Like:
		return "like"
	case Follow:
		return "follow"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Store persists edges of one kind. Delete must return common.ErrorNotFound
// when the edge is absent; Create must return common.ErrorAlreadyExists when
// it is already present.
type Store interface {
	Create(ctx context.Context, sourceID, targetID string) error
	Delete(ctx context.Context, sourceID, targetID string) error
}

type Engine struct {
	stores map[Kind]Store
}

func NewEngine(stores map[Kind]Store) *Engine {
	return &Engine{stores: stores}
}

// Toggle flips the edge source→target and returns whether it exists afterwards.
func (e *Engine) Toggle(ctx context.Context, sourceID, targetID string, kind Kind) (bool, error) {
	store, ok := e.stores[kind]
	if !ok {
		return false, common.E(common.ErrValidation, fmt.Sprintf("unknown relationship %s", kind))
	}
	if sourceID == "" || targetID == "" {
		return false, common.E(common.ErrValidation, "both ends of a relationship are required")
	}

	err := store.Delete(ctx, sourceID, targetID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return false, fmt.Errorf("remove %s: %w", kind, err)
	}

	err = store.Create(ctx, sourceID, targetID)
	if err == nil || errors.Is(err, common.ErrorAlreadyExists) {
		// a concurrent request created the edge first; it exists either way
		return true, nil
	}
	return false, fmt.Errorf("add %s: %w", kind, err)
}
