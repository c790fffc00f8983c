package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"cloudsync/internal/auth/password"
	"cloudsync/internal/auth/token"
	"cloudsync/internal/model"
	"cloudsync/internal/repository"
	"cloudsync/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory stand-ins that honour the repository and storage contracts.

type memUsers struct {
	mu   sync.Mutex
	rows map[string]model.User
}

func (m *memUsers) Create(_ context.Context, u *model.User) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if strings.EqualFold(r.Email, u.Email) {
			return nil, repository.ErrDuplicate
		}
	}
	m.rows[u.ID] = *u
	out := *u
	return &out, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if strings.EqualFold(r.Email, email) {
			out := r
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) SetActive(_ context.Context, email string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rows {
		if strings.EqualFold(r.Email, email) {
			r.IsActive = active
			m.rows[id] = r
			return nil
		}
	}
	return repository.ErrNotFound
}

type memFiles struct {
	mu    sync.Mutex
	rows  map[string]model.File
	links *memLinks
}

func (m *memFiles) Create(_ context.Context, f *model.File) (*model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.StorageKey == f.StorageKey {
			return nil, repository.ErrDuplicate
		}
	}
	m.rows[f.ID] = *f
	out := *f
	return &out, nil
}

func (m *memFiles) FindByID(_ context.Context, id string) (*model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok {
		return &r, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memFiles) FindOwned(_ context.Context, ownerID, id string) (*model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok && r.OwnerID == ownerID {
		return &r, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memFiles) ListByOwner(_ context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.File], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.File
	for _, r := range m.rows {
		if r.OwnerID == ownerID {
			all = append(all, r)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	items := make([]model.File, 0)
	for i := pq.Offset; i < len(all) && i < pq.Offset+pq.Limit; i++ {
		items = append(items, all[i])
	}
	return &repository.PageResult[model.File]{Items: items, Total: len(all)}, nil
}

func (m *memFiles) DeleteOwned(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	m.links.cascade(id)
	return nil
}

func (m *memFiles) SetPublic(_ context.Context, ownerID, id string, public bool) (*model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	r.IsPublic = public
	m.rows[id] = r
	return &r, nil
}

func (m *memFiles) owner(id string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	return r.OwnerID, ok
}

type memLinks struct {
	mu    sync.Mutex
	rows  map[string]model.ShareLink
	files *memFiles
}

func (m *memLinks) Create(_ context.Context, l *model.ShareLink) (*model.ShareLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[l.ID] = *l
	out := *l
	return &out, nil
}

func (m *memLinks) FindByToken(_ context.Context, tok string) (*model.ShareLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Token == tok {
			out := r
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memLinks) IncrementAccess(_ context.Context, tok string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rows {
		if r.Token == tok && r.ExpiresAt.After(now) {
			r.AccessCount++
			m.rows[id] = r
			return r.AccessCount, nil
		}
	}
	return 0, repository.ErrNotFound
}

func (m *memLinks) ListByFile(_ context.Context, fileID string) ([]model.ShareLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ShareLink, 0)
	for _, r := range m.rows {
		if r.FileID == fileID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memLinks) DeleteOwned(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	r, ok := m.rows[id]
	m.mu.Unlock()
	if !ok {
		return repository.ErrNotFound
	}
	if owner, ok := m.files.owner(r.FileID); !ok || owner != ownerID {
		return repository.ErrNotFound
	}
	m.mu.Lock()
	delete(m.rows, id)
	m.mu.Unlock()
	return nil
}

func (m *memLinks) cascade(fileID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rows {
		if r.FileID == fileID {
			delete(m.rows, id)
		}
	}
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deletes map[string]int
}

func (m *memStore) Put(_ context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	// Like S3, Put reports the declared size rather than what was read.
	return storage.ObjectInfo{Key: key, Size: opt.Size, ContentType: opt.ContentType}, nil
}

func (m *memStore) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(b))}, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deletes[key]++
	return nil
}

func (m *memStore) PresignGet(_ context.Context, key string, expiry time.Duration, filename string) (string, error) {
	return fmt.Sprintf("https://blobs.test/%s?ttl=%d&name=%s", key, int(expiry.Seconds()), filename), nil
}

type world struct {
	users  UserService
	files  FileService
	shares ShareService
	gate   AccessGate
	store  *memStore
	clock  *time.Time
}

func newWorld(t *testing.T) *world {
	t.Helper()
	now := fixedNow
	clock := func() time.Time { return now }

	tokens, err := token.New(strings.Repeat("s", 32), "HS256", 30*time.Minute, token.WithClock(clock))
	require.NoError(t, err)

	users := &memUsers{rows: map[string]model.User{}}
	links := &memLinks{rows: map[string]model.ShareLink{}}
	files := &memFiles{rows: map[string]model.File{}, links: links}
	links.files = files
	store := &memStore{objects: map[string][]byte{}, deletes: map[string]int{}}

	userSvc := NewUserService(users, password.NewHasher(4), tokens)
	fileSvc := NewFileService(store, files, FileConfig{MaxUploadBytes: 1 << 20, DownloadURLTTL: time.Hour, MaxPageSize: 200}, nil, nil)
	fileSvc.(*fileService).now = clock
	shareSvc := NewShareService(fileSvc, files, links, nil)
	shareSvc.(*shareService).now = clock

	return &world{
		users:  userSvc,
		files:  fileSvc,
		shares: shareSvc,
		gate:   NewAccessGate(tokens, userSvc, shareSvc),
		store:  store,
		clock:  &now,
	}
}

func (w *world) advance(d time.Duration) { *w.clock = w.clock.Add(d) }

func (w *world) login(t *testing.T, email, pw string) *model.User {
	t.Helper()
	ctx := context.Background()
	_, err := w.users.Register(ctx, email, pw)
	require.NoError(t, err)
	sess, err := w.users.Login(ctx, email, pw)
	require.NoError(t, err)
	u, err := w.gate.AuthenticateRequest(ctx, "Bearer "+sess.AccessToken)
	require.NoError(t, err)
	return u
}

func TestScenario_RegisterLoginAndDuplicates(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	u := w.login(t, "Alice@Example.com", "pw-alice")
	assert.Equal(t, "alice@example.com", u.Email)

	_, err := w.users.Register(ctx, "ALICE@example.COM", "other")
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, wrong := w.users.Authenticate(ctx, "alice@example.com", "nope")
	_, unknown := w.users.Authenticate(ctx, "bob@example.com", "pw-alice")
	assert.ErrorIs(t, wrong, ErrInvalidCredentials)
	assert.Equal(t, wrong, unknown)

	sess, err := w.users.Login(ctx, "alice@example.com", "pw-alice")
	require.NoError(t, err)
	require.NoError(t, w.users.SetActive(ctx, "alice@example.com", false))

	_, err = w.gate.AuthenticateRequest(ctx, "Bearer "+sess.AccessToken)
	var ue *UnauthorizedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ReasonAccountDisabled, ue.Reason)

	_, err = w.users.Login(ctx, "alice@example.com", "pw-alice")
	assert.ErrorIs(t, err, ErrAccountDisabled)

	w.advance(31 * time.Minute)
	require.NoError(t, w.users.SetActive(ctx, "alice@example.com", true))
	_, err = w.gate.AuthenticateRequest(ctx, "Bearer "+sess.AccessToken)
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ReasonInvalidToken, ue.Reason, "session expired")
}

func TestScenario_ReportPDF(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	alice := w.login(t, "alice@example.com", "pw")
	bob := w.login(t, "bob@example.com", "pw")

	body := []byte("%PDF-1.7 quarterly numbers")
	first, err := w.files.Upload(ctx, alice.ID, bytes.NewReader(body), "report.pdf", "application/pdf", int64(len(body)))
	require.NoError(t, err)
	w.advance(time.Second)
	second, err := w.files.Upload(ctx, alice.ID, bytes.NewReader(body), "report.pdf", "application/pdf", int64(len(body)))
	require.NoError(t, err)

	assert.NotEqual(t, first.StorageKey, second.StorageKey, "re-upload gets a fresh key")
	assert.True(t, strings.HasPrefix(first.StorageKey, "users/"+alice.ID+"/"))
	assert.True(t, strings.HasSuffix(first.StorageKey, ".pdf"))
	assert.Equal(t, int64(len(body)), first.Size)

	list, err := w.files.List(ctx, alice.ID, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, first.ID, list.Items[0].ID, "oldest first")

	bobs, err := w.files.List(ctx, bob.ID, 1, 50)
	require.NoError(t, err)
	assert.Zero(t, bobs.Total)

	_, err = w.files.Get(ctx, bob.ID, first.ID)
	assert.ErrorIs(t, err, ErrNotFoundOrForbidden)
	_, err = w.files.DownloadURL(ctx, bob.ID, first.ID)
	assert.ErrorIs(t, err, ErrNotFoundOrForbidden)
	assert.ErrorIs(t, w.files.Delete(ctx, bob.ID, first.ID), ErrNotFoundOrForbidden)

	dl, err := w.files.DownloadURL(ctx, alice.ID, first.ID)
	require.NoError(t, err)
	assert.Contains(t, dl.URL, first.StorageKey)
	assert.Contains(t, dl.URL, "ttl=3600")

	require.NoError(t, w.files.Delete(ctx, alice.ID, first.ID))
	assert.ErrorIs(t, w.files.Delete(ctx, alice.ID, first.ID), ErrNotFoundOrForbidden)
	assert.Equal(t, 1, w.store.deletes[first.StorageKey], "blob removed exactly once")
	_, err = w.store.Stat(ctx, second.StorageKey)
	assert.NoError(t, err)
}

func TestScenario_ShareLinks(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	alice := w.login(t, "alice@example.com", "pw")
	bob := w.login(t, "bob@example.com", "pw")

	f, err := w.files.Upload(ctx, alice.ID, strings.NewReader("hello"), "hello.txt", "text/plain", 5)
	require.NoError(t, err)

	_, err = w.shares.Create(ctx, bob.ID, f.ID, 1, true)
	assert.ErrorIs(t, err, ErrNotFoundOrForbidden)

	dlLink, err := w.shares.Create(ctx, alice.ID, f.ID, 1, true)
	require.NoError(t, err)
	metaLink, err := w.shares.Create(ctx, alice.ID, f.ID, 2, false)
	require.NoError(t, err)
	assert.NotEqual(t, dlLink.Token, metaLink.Token)

	for i := 1; i <= 3; i++ {
		g, err := w.gate.RedeemShare(ctx, dlLink.Token)
		require.NoError(t, err)
		assert.Equal(t, GrantDownload, g.Kind)
		assert.NotEmpty(t, g.URL)
		assert.Equal(t, int64(i), g.AccessCount)
	}

	g, err := w.gate.RedeemShare(ctx, metaLink.Token)
	require.NoError(t, err)
	assert.Equal(t, GrantMetadata, g.Kind)
	assert.Empty(t, g.URL, "metadata links never yield byte access")
	assert.Equal(t, f.ID, g.File.ID)

	_, err = w.gate.RedeemShare(ctx, "made-up")
	assert.ErrorIs(t, err, ErrInvalidShareLink)

	w.advance(time.Hour)
	_, err = w.gate.RedeemShare(ctx, dlLink.Token)
	assert.ErrorIs(t, err, ErrShareLinkExpired)

	links, err := w.shares.List(ctx, alice.ID, f.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	for _, l := range links {
		if l.ID == dlLink.ID {
			assert.Equal(t, int64(3), l.AccessCount, "expired redemption not counted")
		}
	}

	assert.ErrorIs(t, w.shares.Revoke(ctx, bob.ID, metaLink.ID), ErrNotFoundOrForbidden)
	require.NoError(t, w.shares.Revoke(ctx, alice.ID, metaLink.ID))
	_, err = w.gate.RedeemShare(ctx, metaLink.Token)
	assert.ErrorIs(t, err, ErrInvalidShareLink)

	require.NoError(t, w.files.Delete(ctx, alice.ID, f.ID))
	_, err = w.gate.RedeemShare(ctx, dlLink.Token)
	assert.ErrorIs(t, err, ErrInvalidShareLink, "links cascade with their file")
}

func TestScenario_PublicFiles(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	alice := w.login(t, "alice@example.com", "pw")

	f, err := w.files.Upload(ctx, alice.ID, strings.NewReader("pub"), "pub.txt", "text/plain", 3)
	require.NoError(t, err)

	_, err = w.files.PublicDownloadURL(ctx, f.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = w.files.SetVisibility(ctx, alice.ID, f.ID, true)
	require.NoError(t, err)
	g, err := w.files.PublicDownloadURL(ctx, f.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, g.URL)
}

func TestScenario_UploadSizeMismatch(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	alice := w.login(t, "alice@example.com", "pw")

	_, err := w.files.Upload(ctx, alice.ID, strings.NewReader("short"), "a.txt", "text/plain", 50)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, w.store.objects, "mismatched blob removed")

	list, err := w.files.List(ctx, alice.ID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}
