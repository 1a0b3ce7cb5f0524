// Package integration runs the built collab binary end to end against
// isolated config and data directories.
package integration

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// collabBin is the path to the built collab binary.
	collabBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot walks up from the working directory to the directory
// holding go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// TestEnv is an isolated installation: its own config directory, data
// directory and working directory for files to upload.
type TestEnv struct {
	t       *testing.T
	TempDir string
	Config  string
	DataDir string
	WorkDir string
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build collab: %v", buildErr)
	}
	if collabBin == "" {
		t.Fatal("collab binary not built")
	}

	tempDir := t.TempDir()
	env := &TestEnv{
		t:       t,
		TempDir: tempDir,
		Config:  filepath.Join(tempDir, "config"),
		DataDir: filepath.Join(tempDir, "data"),
		WorkDir: filepath.Join(tempDir, "work"),
	}
	if err := os.MkdirAll(env.WorkDir, 0o755); err != nil {
		t.Fatalf("failed to create work dir: %v", err)
	}
	return env
}

// CmdResult holds the result of a collab command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes collab with the environment's directories prepended.
func (e *TestEnv) Run(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--config-dir", e.Config, "--data-dir", e.DataDir}, args...)
	cmd := exec.Command(collabBin, allArgs...)
	cmd.Dir = e.WorkDir
	cmd.Env = append(os.Environ(), "COLLAB_LOG_LEVEL=error")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	exitCode := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			e.t.Fatalf("failed to run collab: %v", err)
		}
		exitCode = exitErr.ExitCode()
	}
	return CmdResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}
}

// MustRun executes collab and fails the test on a non-zero exit code.
func (e *TestEnv) MustRun(args ...string) CmdResult {
	e.t.Helper()
	result := e.Run(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("collab %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// WriteFile creates a file in the working directory and returns its path.
func (e *TestEnv) WriteFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.WorkDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}

// ReadJSONLFile reads a JSONL file (one JSON object per line) and returns a slice.
func ReadJSONLFile[T any](t *testing.T, path string) []T {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open JSONL file %s: %v", path, err)
	}
	defer f.Close()

	var results []T
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			t.Fatalf("failed to parse JSONL line in %s: %v", path, err)
		}
		results = append(results, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to scan JSONL file %s: %v", path, err)
	}
	return results
}

// File mirrors the JSON shape of a file artifact.
type File struct {
	FileID    string     `json:"file_id"`
	ProjectID string     `json:"project_id"`
	Filename  string     `json:"filename"`
	IsPrivate bool       `json:"is_private"`
	Revisions []Revision `json:"revisions"`
}

// Revision mirrors the JSON shape of a file revision.
type Revision struct {
	RevisionNumber int    `json:"revision_number"`
	Filesize       int64  `json:"filesize"`
	ContentType    string `json:"content_type"`
	Comment        string `json:"comment"`
	CreatedBy      string `json:"created_by"`
}

// Intake mirrors the JSON output of upload.
type Intake struct {
	Files []File `json:"files"`
}

// WikiPage mirrors the JSON shape of a wiki page.
type WikiPage struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Main      bool   `json:"main"`
	CreatedBy string `json:"created_by"`
}

// AuditEntry mirrors one audit log line.
type AuditEntry struct {
	RelType    string `json:"rel_type"`
	RelID      string `json:"rel_id"`
	ObjectName string `json:"object_name"`
	ProjectID  string `json:"project_id"`
	ActorID    string `json:"actor_id"`
	Action     string `json:"action"`
}
