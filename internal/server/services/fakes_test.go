package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/trackshare/internal/common"
	"github.com/dmitrijs2005/trackshare/internal/dbx"
	"github.com/dmitrijs2005/trackshare/internal/server/media"
	"github.com/dmitrijs2005/trackshare/internal/server/models"
	"github.com/dmitrijs2005/trackshare/internal/server/repositories/edges"
	"github.com/dmitrijs2005/trackshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/trackshare/internal/server/repositories/tracks"
	"github.com/dmitrijs2005/trackshare/internal/server/repositories/users"
)

// --- repository manager ---

type fakeRepoManager struct {
	repomanager.RepositoryManager
	users   *fakeUsersRepo
	tracks  *fakeTracksRepo
	likes   *fakeEdgesRepo
	follows *fakeEdgesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:   newFakeUsersRepo(),
		tracks:  newFakeTracksRepo(),
		likes:   newFakeEdgesRepo(),
		follows: newFakeEdgesRepo(),
	}
}

func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository   { return m.users }
func (m *fakeRepoManager) Tracks(dbx.DBTX) tracks.Repository { return m.tracks }
func (m *fakeRepoManager) Likes(dbx.DBTX) edges.Repository   { return m.likes }
func (m *fakeRepoManager) Follows(dbx.DBTX) edges.Repository { return m.follows }

// --- users ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	nextID int

	findErr   error
	createErr error
	created   int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, e := range r.byID {
		if e.Username == u.Username {
			return nil, common.ErrUsernameTaken
		}
		if e.Email == u.Email {
			return nil, common.ErrEmailTaken
		}
	}
	r.nextID++
	u.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", r.nextID)
	u.CreatedAt = time.Now()
	cp := *u
	r.byID[u.ID] = &cp
	r.created++
	return u, nil
}

func (r *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if u, err := r.GetByUsername(ctx, username); err == nil {
		return u, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) MarkVerified(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.IsVerified = true
	cp := *u
	return &cp, nil
}

func (r *fakeUsersRepo) GetProfile(ctx context.Context, username, viewerID string) (*models.Profile, error) {
	u, err := r.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &models.Profile{ID: u.ID, Username: u.Username, FullName: u.FullName, FollowedByMe: viewerID != ""}, nil
}

func (r *fakeUsersRepo) set(u *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.byID[u.ID] = &cp
}

// --- tracks ---

type fakeTracksRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.Track
	nextID int

	createErr error
	listErr   error

	lastViewer string
	lastLimit  int
	deleted    []string
}

func newFakeTracksRepo() *fakeTracksRepo {
	return &fakeTracksRepo{byID: map[string]*models.Track{}}
}

func (r *fakeTracksRepo) Create(_ context.Context, t *models.Track) (*models.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	t.ID = fmt.Sprintf("10000000-0000-0000-0000-%012d", r.nextID)
	t.CreatedAt = time.Now()
	cp := *t
	r.byID[t.ID] = &cp
	return t, nil
}

func (r *fakeTracksRepo) GetForUpdate(_ context.Context, id string) (*models.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.byID[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (r *fakeTracksRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeTracksRepo) GetView(_ context.Context, id, viewerID string) (*models.TrackView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastViewer = viewerID
	if t, ok := r.byID[id]; ok {
		return &models.TrackView{Track: *t}, nil
	}
	return nil, common.ErrorNotFound
}

func (r *fakeTracksRepo) ListByAuthor(_ context.Context, username, viewerID string) ([]models.TrackView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastViewer = viewerID
	if r.listErr != nil {
		return nil, r.listErr
	}
	return []models.TrackView{}, nil
}

func (r *fakeTracksRepo) ListRecent(_ context.Context, limit int, viewerID string) ([]models.TrackView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastViewer = viewerID
	r.lastLimit = limit
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.TrackView, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, models.TrackView{Track: *t})
	}
	return out, nil
}

func (r *fakeTracksRepo) put(t models.Track) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[t.ID] = &t
}

// --- edges ---

type fakeEdgesRepo struct {
	mu    sync.Mutex
	edges map[[2]string]bool

	// createErr is returned by Create instead of inserting.
	createErr error
}

func newFakeEdgesRepo() *fakeEdgesRepo {
	return &fakeEdgesRepo{edges: map[[2]string]bool{}}
}

func (r *fakeEdgesRepo) Create(_ context.Context, src, dst string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if r.edges[[2]string{src, dst}] {
		return common.ErrorAlreadyExists
	}
	r.edges[[2]string{src, dst}] = true
	return nil
}

func (r *fakeEdgesRepo) Delete(_ context.Context, src, dst string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.edges[[2]string{src, dst}] {
		return common.ErrorNotFound
	}
	delete(r.edges, [2]string{src, dst})
	return nil
}

func (r *fakeEdgesRepo) has(src, dst string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.edges[[2]string{src, dst}]
}

// --- collaborators ---

type fakeMailer struct {
	mu   sync.Mutex
	sent map[string]string
	err  error
}

func (m *fakeMailer) SendVerificationEmail(_ context.Context, address, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.sent == nil {
		m.sent = map[string]string{}
	}
	m.sent[address] = code
	return nil
}

type fakeUploader struct {
	mu      sync.Mutex
	calls   []string
	failOn  string
	failErr error
}

func (u *fakeUploader) Upload(_ context.Context, src string, kind media.Kind) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, string(kind)+":"+src)
	if u.failOn != "" && u.failOn == src {
		return "", u.failErr
	}
	return "https://cdn.example.com/" + string(kind) + "/stored", nil
}
