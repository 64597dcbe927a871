package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/jot/internal/config"
	"github.com/hpungsan/jot/internal/db"
	"github.com/hpungsan/jot/internal/errors"
)

const testHeader = `{"_jot_export":true,"schema_version":"1.0","exported_at":1700000000}`

func writeImportFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func countItems(t *testing.T, q db.Querier) int {
	t.Helper()
	_, total, err := db.ListItems(context.Background(), q, db.ItemFilters{}, 1, 0, true)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	return total
}

func TestImport_RoundTrip(t *testing.T) {
	src := setupDB(t)
	ctx := context.Background()
	dir := t.TempDir()
	cfg := exportConfig(dir)

	mustCapture(t, src, "- Call mom @Family #phone /3")
	mustCapture(t, src, "Pay rent 05/08/25 /R")
	deleted := mustCapture(t, src, ": scratch")
	if _, err := Delete(ctx, src, DeleteInput{ID: deleted}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	path := filepath.Join(dir, "backup.jsonl")
	if _, err := Export(ctx, src, cfg, ExportInput{Path: path, IncludeDeleted: true}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	dst := setupDB(t)
	out, err := Import(ctx, dst, cfg, ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 3 || out.Skipped != 0 || len(out.Errors) != 0 {
		t.Fatalf("output = %+v", out)
	}

	list, err := List(ctx, dst, ListInput{Project: stringPtr("family")})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].Title != "Call mom" {
		t.Fatalf("project not restored: %v", listTitles(list.Items))
	}
	it := list.Items[0]
	if it.Priority == nil || len(it.Hashtags) != 1 {
		t.Errorf("fields lost in round trip: %+v", it)
	}

	gone, err := Fetch(ctx, dst, FetchInput{ID: deleted, IncludeDeleted: true})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gone.DeletedAt == nil {
		t.Error("deleted_at lost in round trip")
	}
}

func TestImport_ModeError_AtomicOnCollision(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	dir := t.TempDir()
	existing := mustCapture(t, database, "already here")

	path := writeImportFile(t, dir, "in.jsonl",
		testHeader,
		`{"id":"01NEW","type":"task","title":"new","raw_input":"new","created_at":1,"updated_at":1}`,
		`{"id":"`+existing+`","type":"task","title":"dup","raw_input":"dup","created_at":1,"updated_at":1}`,
	)

	out, err := Import(ctx, database, exportConfig(dir), ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 0 || len(out.Errors) != 1 || out.Errors[0].Code != "ID_COLLISION" || out.Errors[0].Line != 3 {
		t.Fatalf("output = %+v", out)
	}
	if n := countItems(t, database); n != 1 {
		t.Errorf("items = %d, want 1 (rolled back)", n)
	}
}

func TestImport_ModeError_BadLine(t *testing.T) {
	database := setupDB(t)
	dir := t.TempDir()

	path := writeImportFile(t, dir, "in.jsonl",
		testHeader,
		`{"id":"01A","type":"task","title":"ok","raw_input":"ok","created_at":1,"updated_at":1}`,
		`{not json`,
		`{"id":"01B","type":"chore","title":"bad type","raw_input":"x","created_at":1,"updated_at":1}`,
	)

	out, err := Import(context.Background(), database, exportConfig(dir), ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 0 || len(out.Errors) != 2 {
		t.Fatalf("output = %+v", out)
	}
	if out.Errors[0].Code != "PARSE_ERROR" || out.Errors[1].Code != "INVALID_RECORD" {
		t.Errorf("codes = %s, %s", out.Errors[0].Code, out.Errors[1].Code)
	}
	if n := countItems(t, database); n != 0 {
		t.Errorf("items = %d, want 0", n)
	}
}

func TestImport_InvalidFieldsForType(t *testing.T) {
	tests := []struct {
		name   string
		record string
	}{
		{"note with status", `{"id":"01N","type":"note","title":"n","status":"todo","raw_input":": n","created_at":1,"updated_at":1}`},
		{"habit with priority", `{"id":"01H","type":"habit","title":"h","priority":"high","raw_input":"-- h","created_at":1,"updated_at":1}`},
		{"note with due_date", `{"id":"01N","type":"note","title":"n","due_date":"2025-08-05","raw_input":": n","created_at":1,"updated_at":1}`},
		{"habit with category", `{"id":"01H","type":"habit","title":"h","category":"red","raw_input":"-- h","created_at":1,"updated_at":1}`},
		{"task with bad due_date", `{"id":"01T","type":"task","title":"t","due_date":"not-a-date","raw_input":"t","created_at":1,"updated_at":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database := setupDB(t)
			dir := t.TempDir()
			path := writeImportFile(t, dir, "in.jsonl", testHeader, tt.record)

			out, err := Import(context.Background(), database, exportConfig(dir), ImportInput{Path: path})
			if err != nil {
				t.Fatalf("Import failed: %v", err)
			}
			if out.Imported != 0 || len(out.Errors) != 1 || out.Errors[0].Code != "INVALID_RECORD" {
				t.Fatalf("output = %+v", out)
			}
			if n := countItems(t, database); n != 0 {
				t.Errorf("items = %d, want 0", n)
			}
		})
	}
}

func TestImport_KeepsUncheckedCalendarDate(t *testing.T) {
	database := setupDB(t)
	dir := t.TempDir()
	path := writeImportFile(t, dir, "in.jsonl", testHeader,
		`{"id":"01T","type":"task","title":"t","due_date":"2025-02-31","raw_input":"t 31/02/25","created_at":1,"updated_at":1}`,
	)

	out, err := Import(context.Background(), database, exportConfig(dir), ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 1 || len(out.Errors) != 0 {
		t.Fatalf("output = %+v", out)
	}
}

func TestImport_ModeReplace(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	dir := t.TempDir()
	existing := mustCapture(t, database, "old title")

	path := writeImportFile(t, dir, "in.jsonl",
		testHeader,
		`{"id":"`+existing+`","type":"task","title":"new title","project":"Restored","raw_input":"new title","created_at":1,"updated_at":2}`,
		`{"id":"01FRESH","type":"habit","title":"walk","status":"todo","raw_input":"-- walk","created_at":1,"updated_at":1}`,
		`garbage`,
	)

	out, err := Import(ctx, database, exportConfig(dir), ImportInput{Path: path, Mode: ImportModeReplace})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 2 || out.Skipped != 1 || len(out.Errors) != 1 {
		t.Fatalf("output = %+v", out)
	}

	it, err := Fetch(ctx, database, FetchInput{ID: existing})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if it.Title != "new title" || it.Project == nil || *it.Project != "Restored" {
		t.Errorf("item not replaced: %+v", it)
	}
}

func TestImport_ModeSkip(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	dir := t.TempDir()
	existing := mustCapture(t, database, "keep me")

	path := writeImportFile(t, dir, "in.jsonl",
		testHeader,
		`{"id":"`+existing+`","type":"task","title":"overwritten","raw_input":"x","created_at":1,"updated_at":1}`,
		`{"id":"01FRESH","type":"note","title":"thought","raw_input":": thought","created_at":1,"updated_at":1}`,
	)

	out, err := Import(ctx, database, exportConfig(dir), ImportInput{Path: path, Mode: ImportModeSkip})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 1 || out.Skipped != 1 {
		t.Fatalf("output = %+v", out)
	}

	it, err := Fetch(ctx, database, FetchInput{ID: existing})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if it.Title != "keep me" {
		t.Errorf("Title = %q, existing item should be kept", it.Title)
	}
}

func TestImport_UnsupportedVersion(t *testing.T) {
	database := setupDB(t)
	dir := t.TempDir()

	path := writeImportFile(t, dir, "in.jsonl",
		`{"_jot_export":true,"schema_version":"9.9","exported_at":1}`,
	)
	out, err := Import(context.Background(), database, exportConfig(dir), ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(out.Errors) != 1 || out.Errors[0].Code != "UNSUPPORTED_VERSION" {
		t.Errorf("output = %+v", out)
	}
}

func TestImport_InputValidation(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	dir := t.TempDir()
	cfg := exportConfig(dir)

	_, err := Import(ctx, database, cfg, ImportInput{Path: ""})
	requireCode(t, err, errors.ErrInvalidRequest)

	_, err = Import(ctx, database, cfg, ImportInput{Path: filepath.Join(dir, "x.jsonl"), Mode: "rename"})
	requireCode(t, err, errors.ErrInvalidRequest)

	_, err = Import(ctx, database, cfg, ImportInput{Path: filepath.Join(dir, "missing.jsonl")})
	requireCode(t, err, errors.ErrFileNotFound)

	_, err = Import(ctx, database, config.DefaultConfig(), ImportInput{Path: writeImportFile(t, dir, "x.jsonl", testHeader)})
	requireCode(t, err, errors.ErrInvalidRequest)
}
