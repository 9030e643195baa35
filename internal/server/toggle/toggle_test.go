package toggle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/trackshare/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore enforces the pair uniqueness like the database does.
type memStore struct {
	mu    sync.Mutex
	edges map[[2]string]bool

	// beforeCreate runs between the failed delete and the insert.
	beforeCreate func()
	deleteErr    error
	createErr    error
}

func newMemStore() *memStore {
	return &memStore{edges: map[[2]string]bool{}}
}

func (s *memStore) Delete(_ context.Context, src, dst string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.edges[[2]string{src, dst}] {
		return common.ErrorNotFound
	}
	delete(s.edges, [2]string{src, dst})
	return nil
}

func (s *memStore) Create(_ context.Context, src, dst string) error {
	if s.beforeCreate != nil {
		s.beforeCreate()
	}
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edges[[2]string{src, dst}] {
		return common.ErrorAlreadyExists
	}
	s.edges[[2]string{src, dst}] = true
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.edges)
}

func TestToggle_FlipsState(t *testing.T) {
	store := newMemStore()
	e := NewEngine(map[Kind]Store{Follow: store})
	ctx := context.Background()

	on, err := e.Toggle(ctx, "A", "U", Follow)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 1, store.count())

	on, err = e.Toggle(ctx, "A", "U", Follow)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, 0, store.count())
}

func TestToggle_KindsAreIndependent(t *testing.T) {
	likes, follows := newMemStore(), newMemStore()
	e := NewEngine(map[Kind]Store{Like: likes, Follow: follows})

	_, err := e.Toggle(context.Background(), "A", "X", Like)
	require.NoError(t, err)

	assert.Equal(t, 1, likes.count())
	assert.Equal(t, 0, follows.count())
}

func TestToggle_RaceOnCreateCountsAsSuccess(t *testing.T) {
	store := newMemStore()
	// Another request inserts the same edge after our delete missed.
	store.beforeCreate = func() {
		store.mu.Lock()
		store.edges[[2]string{"A", "T"}] = true
		store.mu.Unlock()
	}
	e := NewEngine(map[Kind]Store{Like: store})

	on, err := e.Toggle(context.Background(), "A", "T", Like)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 1, store.count())
}

func TestToggle_ConcurrentDuplicates(t *testing.T) {
	store := newMemStore()
	var gate sync.WaitGroup
	gate.Add(2)
	// Hold both requests after their deletes missed so both race the insert.
	store.beforeCreate = func() {
		gate.Done()
		gate.Wait()
	}
	e := NewEngine(map[Kind]Store{Like: store})

	var wg sync.WaitGroup
	results := make([]bool, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Toggle(context.Background(), "A", "T", Like)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.True(t, results[i])
	}
	assert.Equal(t, 1, store.count())

	store.beforeCreate = nil
	on, err := e.Toggle(context.Background(), "A", "T", Like)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, 0, store.count())
}

func TestToggle_DeleteFailureIsFatal(t *testing.T) {
	store := newMemStore()
	store.deleteErr = errors.New("connection refused")
	created := false
	store.beforeCreate = func() { created = true }
	e := NewEngine(map[Kind]Store{Like: store})

	_, err := e.Toggle(context.Background(), "A", "T", Like)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.deleteErr)
	assert.False(t, created, "create must not be attempted after a transport error")
}

func TestToggle_CreateFailureIsFatal(t *testing.T) {
	store := newMemStore()
	store.createErr = common.ErrReferenceMissing
	e := NewEngine(map[Kind]Store{Like: store})

	on, err := e.Toggle(context.Background(), "A", "T", Like)
	require.Error(t, err)
	assert.False(t, on)
	assert.ErrorIs(t, err, common.ErrReferenceMissing)
}

func TestToggle_RejectsBadInput(t *testing.T) {
	e := NewEngine(map[Kind]Store{Like: newMemStore()})

	_, err := e.Toggle(context.Background(), "A", "T", Follow)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = e.Toggle(context.Background(), "", "T", Like)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = e.Toggle(context.Background(), "A", "", Like)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "like", Like.String())
	assert.Equal(t, "follow", Follow.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
