package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hpungsan/jot/internal/config"
	"github.com/hpungsan/jot/internal/db"
	"github.com/hpungsan/jot/internal/ops"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// testConfig returns a default config that allows exports to temp dirs.
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	return cfg
}

// runCLI runs the app with args, feeding stdin when non-empty, and returns stdout.
func runCLI(t *testing.T, database *sql.DB, cfg *config.Config, stdin string, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(database, cfg)

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	if stdin != "" {
		oldStdin := os.Stdin
		stdinR, stdinW, err := os.Pipe()
		require.NoError(t, err)
		os.Stdin = stdinR
		defer func() { os.Stdin = oldStdin }()
		go func() {
			_, _ = stdinW.WriteString(stdin)
			stdinW.Close()
		}()
	}

	runErr := app.Run(append([]string{"jot"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), runErr
}

func decodeJSON(t *testing.T, out string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m), "output: %s", out)
	return m
}

func TestCLIAdd(t *testing.T) {
	database := setupTestDB(t)
	cfg := testConfig()

	out, err := runCLI(t, database, cfg, "", "add", "--description", "bring ID", "-", "Call", "mom", "@Family", "#urgent", "5/8/25", "/3")
	require.NoError(t, err)

	res := decodeJSON(t, out)
	item := res["item"].(map[string]any)
	require.Equal(t, "Call mom", item["title"])
	require.Equal(t, "task", item["type"])
	require.Equal(t, "Family", item["project"])
	require.Equal(t, "2025-08-05", item["due_date"])
	require.Equal(t, "high", item["priority"])
	require.Equal(t, "bring ID", item["description"])
	require.Equal(t, []any{"urgent"}, item["hashtags"])
	require.Equal(t, true, res["project_created"])
}

func TestCLIAdd_Stdin(t *testing.T) {
	database := setupTestDB(t)

	out, err := runCLI(t, database, testConfig(), "-- Meditate #morning\n", "add")
	require.NoError(t, err)

	item := decodeJSON(t, out)["item"].(map[string]any)
	require.Equal(t, "Meditate", item["title"])
	require.Equal(t, "habit", item["type"])
}

func TestCLIParse_NoDatabase(t *testing.T) {
	out, err := runCLI(t, nil, config.DefaultConfig(), "", "parse", ": remember the milk")
	require.NoError(t, err)

	res := decodeJSON(t, out)
	require.Equal(t, "note", res["type"])
	require.Equal(t, "remember the milk", res["title"])
	require.Nil(t, res["status"])
}

func TestCLIListAndFetch(t *testing.T) {
	database := setupTestDB(t)
	cfg := testConfig()
	ctx := context.Background()

	captured, err := ops.Capture(ctx, database, cfg, ops.CaptureInput{Text: "Buy milk @Errands"})
	require.NoError(t, err)
	_, err = ops.Capture(ctx, database, cfg, ops.CaptureInput{Text: "-- Walk"})
	require.NoError(t, err)

	t.Run("filtered list", func(t *testing.T) {
		out, err := runCLI(t, database, cfg, "", "list", "--project", "errands")
		require.NoError(t, err)

		res := decodeJSON(t, out)
		items := res["items"].([]any)
		require.Len(t, items, 1)
		require.Equal(t, "Buy milk", items[0].(map[string]any)["title"])
		require.Equal(t, "updated_at_desc", res["sort"])
	})

	t.Run("yaml output", func(t *testing.T) {
		out, err := runCLI(t, database, cfg, "", "--format", "yaml", "list", "--type", "habit")
		require.NoError(t, err)

		var res map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &res))
		items := res["items"].([]any)
		require.Len(t, items, 1)
		require.Equal(t, "Walk", items[0].(map[string]any)["title"])
	})

	t.Run("fetch", func(t *testing.T) {
		out, err := runCLI(t, database, cfg, "", "fetch", captured.Item.ID)
		require.NoError(t, err)
		require.Equal(t, "Buy milk", decodeJSON(t, out)["title"])
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := runCLI(t, database, cfg, "", "--format", "xml", "list")
		require.Error(t, err)
	})
}

func TestCLIUpdate(t *testing.T) {
	database := setupTestDB(t)
	cfg := testConfig()

	captured, err := ops.Capture(context.Background(), database, cfg, ops.CaptureInput{Text: "File taxes 1/4/2026 /2 /R"})
	require.NoError(t, err)
	id := captured.Item.ID

	out, err := runCLI(t, database, cfg, "", "update", "--status", "completed", "--due", "", "--hashtags", "money, #admin", id)
	require.NoError(t, err)

	item := decodeJSON(t, out)["item"].(map[string]any)
	require.Equal(t, "completed", item["status"])
	require.NotNil(t, item["completed_at"])
	require.Nil(t, item["due_date"], "empty flag value clears the field")
	require.Equal(t, "red", item["category"], "unset flags leave fields alone")
	require.Equal(t, []any{"money", "admin"}, item["hashtags"])
}

func TestCLIDeleteAndPurge(t *testing.T) {
	database := setupTestDB(t)
	cfg := testConfig()

	captured, err := ops.Capture(context.Background(), database, cfg, ops.CaptureInput{Text: "scratch"})
	require.NoError(t, err)

	out, err := runCLI(t, database, cfg, "", "delete", captured.Item.ID)
	require.NoError(t, err)
	require.Equal(t, true, decodeJSON(t, out)["deleted"])

	out, err = runCLI(t, database, cfg, "", "purge")
	require.NoError(t, err)
	res := decodeJSON(t, out)
	require.Equal(t, float64(1), res["purged"])
	require.Contains(t, res["message"], "Permanently deleted 1")
}

func TestCLIExportImport(t *testing.T) {
	source := setupTestDB(t)
	cfg := testConfig()

	_, err := ops.Capture(context.Background(), source, cfg, ops.CaptureInput{Text: "Portable @Move #box"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "items.jsonl")
	out, err := runCLI(t, source, cfg, "", "export", "--path", path)
	require.NoError(t, err)
	require.Equal(t, float64(1), decodeJSON(t, out)["count"])

	target := setupTestDB(t)
	out, err = runCLI(t, target, cfg, "", "import", "--path", path, "--mode", "skip")
	require.NoError(t, err)
	require.Equal(t, float64(1), decodeJSON(t, out)["imported"])

	out, err = runCLI(t, target, cfg, "", "projects")
	require.NoError(t, err)
	projects := decodeJSON(t, out)["projects"].([]any)
	require.Len(t, projects, 1)
	require.Equal(t, "Move", projects[0].(map[string]any)["name"])
}

func TestCLIErrorHandling(t *testing.T) {
	database := setupTestDB(t)
	cfg := testConfig()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"fetch not found", []string{"fetch", "NOPE"}, "[NOT_FOUND]"},
		{"fetch without id", []string{"fetch"}, "[INVALID_REQUEST]"},
		{"delete not found", []string{"delete", "NOPE"}, "[NOT_FOUND]"},
		{"bad duration", []string{"purge", "--older-than", "soon"}, "[INVALID_REQUEST]"},
		{"bad list type", []string{"list", "--type", "chore"}, "[INVALID_REQUEST]"},
		{"bad import mode", []string{"import", "--path", "x.jsonl", "--mode", "merge"}, "[INVALID_REQUEST]"},
		{"serve bad port", []string{"serve", "--port", "70000"}, "[INVALID_REQUEST]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, database, cfg, "", tt.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", []string{}},
		{"foo", []string{"foo"}},
		{" foo , bar ", []string{"foo", "bar"}},
		{"foo,,bar,", []string{"foo", "bar"}},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, parseTags(tt.input), "input %q", tt.input)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input       string
		expected    int
		expectError bool
	}{
		{"7d", 7, false},
		{"0d", 0, false},
		{"-1d", 0, true},
		{"7", 0, true},
		{"xd", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.input)
		if tt.expectError {
			require.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.expected, got)
	}
}

func TestCommandArg(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"jot"}, ""},
		{[]string{"jot", "add", "x"}, "add"},
		{[]string{"jot", "--format", "yaml", "list"}, "list"},
		{[]string{"jot", "--format=yaml", "list"}, "list"},
		{[]string{"jot", "-f", "json"}, ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, commandArg(tt.args), "args %v", tt.args)
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		args     []string
		expected bool
	}{
		{[]string{"jot"}, false},
		{[]string{"jot", "add"}, true},
		{[]string{"jot", "serve"}, true},
		{[]string{"jot", "--format", "yaml", "projects"}, true},
		{[]string{"jot", "--help"}, true},
		{[]string{"jot", "-v"}, true},
		{[]string{"jot", "--unknown"}, false},
	}
	for _, tt := range tests {
		oldArgs := os.Args
		os.Args = tt.args
		got := isCLIMode()
		os.Args = oldArgs
		require.Equal(t, tt.expected, got, "args %v", tt.args)
	}
}

func TestNeedsNoDB(t *testing.T) {
	tests := []struct {
		args     []string
		expected bool
	}{
		{[]string{"jot", "parse", "x"}, true},
		{[]string{"jot", "help"}, true},
		{[]string{"jot", "--version"}, true},
		{[]string{"jot", "add", "x"}, false},
		{[]string{"jot"}, false},
	}
	for _, tt := range tests {
		oldArgs := os.Args
		os.Args = tt.args
		got := needsNoDB()
		os.Args = oldArgs
		require.Equal(t, tt.expected, got, "args %v", tt.args)
	}
}

func TestReadStdinWithLimit(t *testing.T) {
	feed := func(t *testing.T, content string) {
		t.Helper()
		r, w, err := os.Pipe()
		require.NoError(t, err)
		go func() {
			_, _ = w.WriteString(content)
			w.Close()
		}()
		oldStdin := os.Stdin
		os.Stdin = r
		t.Cleanup(func() { os.Stdin = oldStdin })
	}

	t.Run("within limit", func(t *testing.T) {
		feed(t, "  small content\n")
		got, err := readStdin(1000)
		require.NoError(t, err)
		require.Equal(t, "small content", got)
	})

	t.Run("exceeds limit", func(t *testing.T) {
		feed(t, strings.Repeat("x", 100))
		_, err := readStdin(50)
		require.Error(t, err)
	})
}
