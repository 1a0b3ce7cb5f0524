package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain builds the collab binary once before running tests.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		buildErr = err
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "collab-test-*")
	if err != nil {
		buildErr = err
		os.Exit(1)
	}
	collabBin = filepath.Join(tmpDir, "collab")

	cmd := exec.Command("go", "build", "-o", collabBin, "./cmd/collab")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		buildErr = &BuildError{Err: err, Output: string(output)}
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

// initEnv initializes an installation whose starter roster makes alice the
// administrator of project demo.
func initEnv(t *testing.T) *TestEnv {
	t.Helper()
	env := NewTestEnv(t)
	result := env.MustRun("--as", "alice", "--project", "demo", "init", "--owner", "acme")
	require.Contains(t, result.Stdout, "collab initialized successfully")
	return env
}

func TestInit_WritesConfigAndRoster(t *testing.T) {
	env := initEnv(t)

	assert.FileExists(t, filepath.Join(env.Config, "config.yaml"))
	assert.FileExists(t, filepath.Join(env.Config, "roster.yaml"))
	assert.FileExists(t, filepath.Join(env.DataDir, "collab.db"))

	again := env.MustRun("--as", "alice", "--project", "demo", "init")
	assert.NotContains(t, again.Stdout, "wrote", "existing files are left alone")
}

func TestFileLifecycle(t *testing.T) {
	env := initEnv(t)
	as := []string{"--as", "alice", "--project", "demo"}

	// Upload.
	path := env.WriteFile("notes v1.txt", "first draft")
	up := ParseJSON[Intake](t, env.MustRun(append(as, "--json", "upload", path)...).Stdout)
	require.Len(t, up.Files, 1)
	file := up.Files[0]
	assert.Equal(t, "notes_v1.txt", file.Filename)
	assert.Equal(t, "demo", file.ProjectID)
	require.Len(t, file.Revisions, 1)
	assert.Equal(t, 1, file.Revisions[0].RevisionNumber)
	assert.Equal(t, "alice", file.Revisions[0].CreatedBy)

	// Revise.
	v2 := env.WriteFile("v2.txt", "second draft, longer")
	rev := ParseJSON[Revision](t, env.MustRun(append(as, "--json", "revise", file.FileID, v2, "-m", "expanded")...).Stdout)
	assert.Equal(t, 2, rev.RevisionNumber)
	assert.Equal(t, "expanded", rev.Comment)
	assert.Equal(t, int64(len("second draft, longer")), rev.Filesize)

	// Download serves the latest revision.
	dl := env.MustRun(append(as, "files", "download", file.FileID)...)
	assert.Equal(t, "second draft, longer", dl.Stdout)

	// Tags.
	tagged := env.MustRun(append(as, "tags", "set", file.FileID, "alpha", "beta")...)
	assert.Equal(t, "alpha,beta", strings.TrimSpace(tagged.Stdout))

	// List.
	listed := ParseJSON[[]File](t, env.MustRun(append(as, "--json", "files", "list")...).Stdout)
	require.Len(t, listed, 1)
	assert.Len(t, listed[0].Revisions, 2)

	// Delete.
	rm := env.MustRun(append(as, "files", "rm", file.FileID)...)
	assert.Contains(t, rm.Stdout, "Deleted "+file.FileID)
	after := ParseJSON[[]File](t, env.MustRun(append(as, "--json", "files", "list")...).Stdout)
	assert.Empty(t, after)

	gone := env.Run(append(as, "files", "show", file.FileID)...)
	assert.Equal(t, 1, gone.ExitCode)

	// Audit trail: the upload and the delete.
	exportPath := filepath.Join(env.TempDir, "audit.jsonl")
	env.MustRun(append(as, "audit", "export", exportPath)...)
	entries := ReadJSONLFile[AuditEntry](t, exportPath)
	var actions []string
	for _, e := range entries {
		if e.RelID == file.FileID {
			actions = append(actions, e.Action)
			assert.Equal(t, "demo", e.ProjectID)
			assert.Equal(t, "alice", e.ActorID)
		}
	}
	assert.Contains(t, actions, "add")
	assert.Contains(t, actions, "delete")
}

func TestWikiLifecycle(t *testing.T) {
	env := initEnv(t)
	as := []string{"--as", "alice", "--project", "demo"}

	created := ParseJSON[WikiPage](t, env.MustRun(append(as, "--json", "wiki", "create", "Release Notes 2.0", "--main", "--content", "hello")...).Stdout)
	assert.Equal(t, "release-notes-2-0", created.Slug)
	assert.True(t, created.Main)
	assert.Equal(t, "alice", created.CreatedBy)

	// Same title again gets a disambiguated slug.
	second := ParseJSON[WikiPage](t, env.MustRun(append(as, "--json", "wiki", "create", "Release Notes 2.0")...).Stdout)
	assert.NotEqual(t, created.Slug, second.Slug)
	assert.True(t, strings.HasPrefix(second.Slug, "release-notes-2-0"))

	// Without a slug, show returns the main page.
	shown := ParseJSON[WikiPage](t, env.MustRun(append(as, "--json", "wiki", "show")...).Stdout)
	assert.Equal(t, created.Slug, shown.Slug)
	assert.Equal(t, "hello", shown.Content)

	env.MustRun(append(as, "wiki", "edit", created.Slug, "--content", "updated")...)
	shown = ParseJSON[WikiPage](t, env.MustRun(append(as, "--json", "wiki", "show", created.Slug)...).Stdout)
	assert.Equal(t, "updated", shown.Content)

	rm := env.MustRun(append(as, "wiki", "rm", second.Slug)...)
	assert.Contains(t, rm.Stdout, "Deleted "+second.Slug)
	missing := env.Run(append(as, "wiki", "show", second.Slug)...)
	assert.Equal(t, 1, missing.ExitCode)
}

func TestExitCodes(t *testing.T) {
	env := initEnv(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "version", args: []string{"version"}, code: 0},
		{name: "unknown command", args: []string{"frobnicate"}, code: 1},
		{name: "unknown user", args: []string{"--as", "mallory", "--project", "demo", "files", "list"}, code: 1},
		{name: "unknown project", args: []string{"--as", "alice", "--project", "nope", "files", "list"}, code: 1},
		{name: "missing actor", args: []string{"--project", "demo", "upload", "x"}, code: 1},
		{name: "unknown can action", args: []string{"--as", "alice", "--project", "demo", "can", "fly"}, code: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := env.Run(tt.args...)
			assert.Equal(t, tt.code, result.ExitCode, "stderr: %s", result.Stderr)
		})
	}
}
