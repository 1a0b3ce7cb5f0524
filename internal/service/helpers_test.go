package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/collab/internal/blob"
	"github.com/mesh-intelligence/collab/internal/roster"
	"github.com/mesh-intelligence/collab/internal/sqlite"
	"github.com/mesh-intelligence/collab/pkg/types"
)

// memBlobs is an in-memory blob.Store that counts Clear calls per file.
type memBlobs struct {
	mu      sync.Mutex
	seq     int
	objects map[string][]byte
	clears  map[string]int
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}, clears: map[string]int{}}
}

func (m *memBlobs) Put(ctx context.Context, fileID, filename string, r io.Reader) (string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ref := fmt.Sprintf("%s/%d_%s", fileID, m.seq, filename)
	m.objects[ref] = data
	return ref, int64(len(data)), nil
}

func (m *memBlobs) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[ref]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (m *memBlobs) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, ref)
	return nil
}

func (m *memBlobs) Clear(ctx context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears[fileID]++
	for ref := range m.objects {
		if strings.HasPrefix(ref, fileID+"/") {
			delete(m.objects, ref)
		}
	}
	return nil
}

func (m *memBlobs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// failingThumbs fails every thumbnail after the payload has been stored.
type failingThumbs struct{}

func (failingThumbs) Generate(context.Context, string, string, string) (string, error) {
	return "", errors.New("renderer crashed")
}

const testRoster = `
owner: acme
users:
  - id: alice
    company: acme
  - id: bob
    company: acme
  - id: carol
    company: partners
projects:
  - id: p1
    members:
      alice: [can_upload_files, can_manage_files, can_manage_wiki_pages]
      bob: [can_upload_files]
      carol: []
  - id: p2
    members:
      alice: [can_upload_files]
`

type fixture struct {
	backend *sqlite.Backend
	blobs   *memBlobs
	files   *Files
	wiki    *Wiki
	audit   *AuditLog
	roster  *roster.Roster
}

func newFixture(t *testing.T, cfg types.Config) *fixture {
	t.Helper()
	cfg.Backend = types.BackendSQLite
	cfg.DataDir = t.TempDir()

	backend := sqlite.NewBackend()
	require.NoError(t, backend.Attach(cfg))
	t.Cleanup(func() { backend.Detach() })

	r, err := roster.Parse([]byte(testRoster))
	require.NoError(t, err)

	blobs := newMemBlobs()
	return &fixture{
		backend: backend,
		blobs:   blobs,
		files:   NewFiles(backend, blobs, nil, cfg, zerolog.Nop()),
		wiki:    NewWiki(backend, cfg, zerolog.Nop()),
		audit:   NewAuditLog(backend),
		roster:  r,
	}
}

func (fx *fixture) user(t *testing.T, id string) types.User {
	t.Helper()
	u, err := fx.roster.User(id)
	require.NoError(t, err)
	return u
}

func (fx *fixture) project(t *testing.T, id string) types.Project {
	t.Helper()
	p, err := fx.roster.Project(id)
	require.NoError(t, err)
	return p
}

func upload(name, body string) *types.Upload {
	return &types.Upload{Filename: name, Content: strings.NewReader(body)}
}

// uploadOne creates a single file in p1 as user and returns it.
func (fx *fixture) uploadOne(t *testing.T, user, name, body string) *types.FileArtifact {
	t.Helper()
	owner := types.ProjectOwner{Project: fx.project(t, "p1")}
	res, err := fx.files.HandleFiles(context.Background(), []*types.Upload{upload(name, body)}, owner, fx.user(t, user), false)
	require.NoError(t, err)
	require.Empty(t, res.Failures)
	require.Len(t, res.Files, 1)
	return res.Files[0]
}

func strPtr(s string) *string { return &s }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
