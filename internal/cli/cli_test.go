package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/collab/internal/roster"
	"github.com/mesh-intelligence/collab/internal/sqlite"
	"github.com/mesh-intelligence/collab/pkg/types"
)

type harness struct {
	t         *testing.T
	dir       string
	configDir string
	dataDir   string
}

func newHarness(t *testing.T, withRoster bool) *harness {
	t.Helper()
	for _, key := range []string{"COLLAB_USER", "COLLAB_PROJECT", "COLLAB_ROSTER", "COLLAB_CONFIG_DIR", "COLLAB_DATA_DIR", "COLLAB_BLOB_DRIVER"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	h := &harness{t: t, dir: dir, configDir: filepath.Join(dir, "config"), dataDir: filepath.Join(dir, "data")}
	if withRoster {
		require.NoError(t, os.MkdirAll(h.configDir, 0o755))
		inactive := false
		require.NoError(t, roster.Write(filepath.Join(h.configDir, rosterFileName), roster.File{
			Owner: "acme",
			Users: []roster.UserEntry{
				{ID: "alice", Company: "acme"},
				{ID: "bob", Company: "acme"},
				{ID: "carol", Company: "partners"},
				{ID: "root", Company: "acme", Admin: true},
			},
			Projects: []roster.ProjectEntry{
				{ID: "demo", Members: map[string][]string{
					"alice": {types.CanUploadFiles, types.CanManageFiles, types.CanManageWikiPages},
					"bob":   {types.CanUploadFiles},
					"carol": {},
				}},
				{ID: "archived", Active: &inactive, Members: map[string][]string{
					"alice": {types.CanUploadFiles, types.CanManageFiles, types.CanManageWikiPages},
				}},
			},
		}))
	}
	return h
}

// run executes the CLI with the harness directories appended.
func (h *harness) run(args ...string) (string, string, int) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	args = append(args, "--config-dir", h.configDir, "--data-dir", h.dataDir)
	code := Run(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), code
}

// as runs a command as user in the demo project.
func (h *harness) as(user string, args ...string) (string, string, int) {
	h.t.Helper()
	return h.run(append(args, "--as", user, "--project", "demo")...)
}

func (h *harness) writeFile(name, body string) string {
	h.t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(h.t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// upload stores one file as alice and returns its ID.
func (h *harness) upload(name, body string) string {
	h.t.Helper()
	out, stderr, code := h.as("alice", "upload", h.writeFile(name, body), "--json")
	require.Equal(h.t, exitSuccess, code, stderr)
	var v intakeView
	require.NoError(h.t, json.Unmarshal([]byte(out), &v))
	require.Len(h.t, v.Files, 1)
	return v.Files[0].FileID
}

func TestVersion(t *testing.T) {
	h := newHarness(t, false)
	out, _, code := h.run("version")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "collab "+Version)
	_, err := os.Stat(h.configDir)
	assert.True(t, os.IsNotExist(err), "version never touches the config directory")
}

func TestInit_WritesConfigRosterAndStore(t *testing.T) {
	h := newHarness(t, false)

	out, stderr, code := h.run("init", "--as", "zoe", "--project", "research")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "collab initialized successfully")

	assert.FileExists(t, filepath.Join(h.configDir, configFileExt))
	assert.FileExists(t, filepath.Join(h.dataDir, sqlite.DatabaseFile))
	r, err := roster.Load(filepath.Join(h.configDir, rosterFileName))
	require.NoError(t, err)
	zoe, err := r.User("zoe")
	require.NoError(t, err)
	research, err := r.Project("research")
	require.NoError(t, err)
	assert.True(t, zoe.HasPermission(research, types.CanManageFiles))

	out, stderr, code = h.run("init")
	require.Equal(t, exitSuccess, code, stderr)
	assert.NotContains(t, out, "wrote", "existing files are left alone")
}

func TestUpload_ListShowDownload(t *testing.T) {
	h := newHarness(t, true)
	a := h.writeFile("notes.txt", "first notes")
	b := h.writeFile("plan.txt", "the plan")

	out, stderr, code := h.as("alice", "upload", a, b, "--json")
	require.Equal(t, exitSuccess, code, stderr)
	var intake intakeView
	require.NoError(t, json.Unmarshal([]byte(out), &intake))
	require.Len(t, intake.Files, 2)
	assert.Empty(t, intake.Failures)
	id := intake.Files[0].FileID

	out, stderr, code = h.as("bob", "files", "list", "--json")
	require.Equal(t, exitSuccess, code, stderr)
	var files []*types.FileArtifact
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	assert.Len(t, files, 2)

	out, stderr, code = h.as("alice", "files", "show", id, "--json")
	require.Equal(t, exitSuccess, code, stderr)
	var shown fileView
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "notes.txt", shown.File.Filename)
	assert.Equal(t, "alice", shown.OwnerID)
	assert.Equal(t, "/project/demo/files/file_details/"+id, shown.URL)
	assert.Equal(t, "/images/filetypes/text.png", shown.IconURL)

	dst := filepath.Join(h.dir, "copy.txt")
	_, stderr, code = h.as("bob", "files", "download", id, "-o", dst)
	require.Equal(t, exitSuccess, code, stderr)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "first notes", string(data))
}

func TestUpload_PrivateFilesHiddenFromOutsiders(t *testing.T) {
	h := newHarness(t, true)
	_, stderr, code := h.as("alice", "upload", h.writeFile("secret.txt", "s"), "--private")
	require.Equal(t, exitSuccess, code, stderr)

	out, _, code := h.as("bob", "files", "list")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "secret.txt", "owner company members see private files")

	out, _, code = h.as("carol", "files", "list", "--json")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestPermissionDenialsExitOne(t *testing.T) {
	h := newHarness(t, true)
	id := h.upload("a.txt", "a")

	_, stderr, code := h.as("carol", "upload", h.writeFile("c.txt", "c"))
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, types.ErrPermissionDenied.Error())

	_, stderr, code = h.as("bob", "files", "rm", id)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, types.ErrPermissionDenied.Error())
	_, _, code = h.as("alice", "files", "show", id)
	assert.Equal(t, exitSuccess, code, "a denied delete changes nothing")

	_, stderr, code = h.as("mallory", "files", "list")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, roster.ErrUnknownUser.Error())

	_, _, code = h.run("files", "list", "--project", "demo")
	assert.Equal(t, exitUserError, code, "an acting user is required")
}

func TestReviseTagAndDelete(t *testing.T) {
	h := newHarness(t, true)
	id := h.upload("report.txt", "draft")

	out, stderr, code := h.as("alice", "revise", id, h.writeFile("report-v2.txt", "final version"), "-m", "final")
	require.Equal(t, exitSuccess, code, stderr)
	assert.True(t, strings.HasPrefix(out, "r2\t"), out)

	out, stderr, code = h.as("alice", "files", "show", id, "--json")
	require.Equal(t, exitSuccess, code, stderr)
	var shown fileView
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	require.Len(t, shown.File.Revisions, 2)
	assert.Equal(t, 2, shown.File.Revisions[0].RevisionNumber)
	assert.Equal(t, "final", shown.File.Revisions[0].Comment)

	out, stderr, code = h.as("alice", "tags", "set", id, "x", "y")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Equal(t, "x,y", strings.TrimSpace(out))
	out, _, code = h.as("bob", "tags", "get", id)
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "x,y", strings.TrimSpace(out))
	out, _, code = h.as("alice", "tags", "set", id)
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "", strings.TrimSpace(out))

	out, stderr, code = h.as("alice", "files", "rm", id)
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "Deleted "+id)

	_, stderr, code = h.as("alice", "files", "show", id)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, types.ErrNotFound.Error())

	out, stderr, code = h.as("alice", "audit", "list", "--subject", id, "--json")
	require.Equal(t, exitSuccess, code, stderr)
	var entries []types.AuditLogEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, types.AuditAdd, entries[0].Action)
	assert.Equal(t, types.AuditDelete, entries[1].Action)
}

func TestFilesOptionsAndComments(t *testing.T) {
	h := newHarness(t, true)
	id := h.upload("a.txt", "a")

	_, stderr, code := h.as("alice", "files", "options", id, "--description", "budget", "--comments=false")
	require.Equal(t, exitSuccess, code, stderr)

	_, stderr, code = h.as("bob", "files", "comment", id, "hello")
	assert.Equal(t, exitUserError, code, "comments are disabled")
	assert.Contains(t, stderr, types.ErrPermissionDenied.Error())

	_, stderr, code = h.as("alice", "files", "options", id, "--comments=true")
	require.Equal(t, exitSuccess, code, stderr)
	_, stderr, code = h.as("bob", "files", "comment", id, "hello")
	require.Equal(t, exitSuccess, code, stderr)

	out, _, code := h.as("alice", "files", "show", id, "--json")
	require.Equal(t, exitSuccess, code)
	var shown fileView
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "budget", shown.File.Description)
	require.Len(t, shown.Comments, 1)
	assert.Equal(t, "bob", shown.Comments[0].AuthorID)

	_, _, code = h.as("alice", "files", "options", id, "--expires", "tomorrow")
	assert.Equal(t, exitUserError, code)
}

func TestWikiCommands(t *testing.T) {
	h := newHarness(t, true)

	out, stderr, code := h.as("alice", "wiki", "create", "Getting Started", "--main", "--content", "welcome")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "getting-started")
	out, stderr, code = h.as("alice", "wiki", "create", "Getting Started")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "getting-started-2")

	out, stderr, code = h.as("carol", "wiki", "show", "--json")
	require.Equal(t, exitSuccess, code, stderr)
	var page types.WikiPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, "getting-started", page.Slug, "no slug shows the main page")
	assert.Equal(t, "welcome", page.Content)

	_, stderr, code = h.as("alice", "wiki", "edit", "getting-started-2", "--main")
	require.Equal(t, exitSuccess, code, stderr)
	out, _, code = h.as("alice", "wiki", "show")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "slug: getting-started-2")

	_, _, code = h.as("bob", "wiki", "create", "Mine")
	assert.Equal(t, exitUserError, code)
	_, _, code = h.run("wiki", "create", "Frozen", "--as", "alice", "--project", "archived")
	assert.Equal(t, exitUserError, code, "inactive projects take no new pages")

	_, stderr, code = h.as("alice", "wiki", "rm", "getting-started")
	require.Equal(t, exitSuccess, code, stderr)
	out, _, code = h.as("alice", "wiki", "list")
	require.Equal(t, exitSuccess, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "getting-started-2\t"))
}

func TestCan(t *testing.T) {
	h := newHarness(t, true)
	id := h.upload("a.txt", "a")

	tests := []struct {
		name     string
		user     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{name: "uploader may upload", user: "bob", args: []string{"upload"}, wantCode: exitSuccess, wantOut: "allowed"},
		{name: "member without capability", user: "carol", args: []string{"upload"}, wantCode: exitUserError, wantOut: "denied"},
		{name: "owner may delete", user: "alice", args: []string{"delete", id}, wantCode: exitSuccess, wantOut: "allowed"},
		{name: "other uploader may not delete", user: "bob", args: []string{"delete", id}, wantCode: exitUserError, wantOut: "denied"},
		{name: "member may see", user: "carol", args: []string{"see", id}, wantCode: exitSuccess, wantOut: "allowed"},
		{name: "unknown action", user: "alice", args: []string{"fly"}, wantCode: exitUserError},
		{name: "missing subject", user: "alice", args: []string{"edit"}, wantCode: exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, code := h.as(tt.user, append([]string{"can"}, tt.args...)...)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantOut != "" {
				assert.Equal(t, tt.wantOut, strings.TrimSpace(out))
			}
		})
	}
}

func TestAuditExport(t *testing.T) {
	h := newHarness(t, true)
	h.upload("a.txt", "a")
	_, stderr, code := h.as("alice", "wiki", "create", "Notes")
	require.Equal(t, exitSuccess, code, stderr)

	path := filepath.Join(h.dir, "audit.jsonl")
	out, stderr, code := h.as("alice", "audit", "export", path, "--type", types.RelTypeWikiPage)
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "Exported 1 entries")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())
	var e types.AuditLogEntry
	require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
	assert.Equal(t, "Notes", e.ObjectName)
	assert.False(t, sc.Scan())

	_, stderr, code = h.run("audit", "list", "--as", "alice")
	assert.Equal(t, exitUserError, code, "only administrators read every project")
	assert.Contains(t, stderr, types.ErrPermissionDenied.Error())
	_, stderr, code = h.run("audit", "list", "--as", "root")
	assert.Equal(t, exitSuccess, code, stderr)
}

func TestConfigFromEnvironment(t *testing.T) {
	h := newHarness(t, true)
	t.Setenv("COLLAB_BLOB_DRIVER", "ftp")

	_, stderr, code := h.as("alice", "files", "list")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, types.ErrBlobDriverUnknown.Error())
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	h := newHarness(t, true)
	_, _, code := h.run("frobnicate")
	assert.Equal(t, exitUserError, code)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: exitSuccess},
		{name: "validation", err: classify(fmt.Errorf("x: %w", types.ErrInvalidTitle)), want: exitUserError},
		{name: "lookup", err: classify(types.ErrNotFound), want: exitUserError},
		{name: "permission", err: classify(types.ErrPermissionDenied), want: exitUserError},
		{name: "storage", err: classify(errors.New("disk full")), want: exitSysError},
		{name: "transaction wins", err: classify(fmt.Errorf("%w: %w", types.ErrTransaction, types.ErrInvalidField)), want: exitSysError},
		{name: "explicit code kept", err: classify(userErr(errors.New("bad path"))), want: exitUserError},
		{name: "cobra usage error", err: errors.New(`unknown command "x"`), want: exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
