package ops

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/hpungsan/jot/internal/config"
	"github.com/hpungsan/jot/internal/db"
	"github.com/hpungsan/jot/internal/errors"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// mustCapture stores text and returns the new item id.
func mustCapture(t *testing.T, database *sql.DB, text string) string {
	t.Helper()
	out, err := Capture(context.Background(), database, config.DefaultConfig(), CaptureInput{Text: text})
	if err != nil {
		t.Fatalf("Capture(%q) failed: %v", text, err)
	}
	return out.Item.ID
}

func stringPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	if !errors.Is(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		limit, offset  int
		wantL, wantOff int
	}{
		{0, 0, DefaultListLimit, 0},
		{-5, -1, DefaultListLimit, 0},
		{500, 3, MaxListLimit, 3},
		{7, 14, 7, 14},
	}
	for _, tc := range tests {
		p := newPagination(tc.limit, tc.offset)
		if p.Limit != tc.wantL || p.Offset != tc.wantOff {
			t.Errorf("newPagination(%d, %d) = %d/%d, want %d/%d",
				tc.limit, tc.offset, p.Limit, p.Offset, tc.wantL, tc.wantOff)
		}
	}

	p := newPagination(2, 2).fill(2, 5)
	if !p.HasMore || p.Total != 5 {
		t.Errorf("fill(2, 5) = %+v, want has_more with total 5", p)
	}
	p = newPagination(2, 4).fill(1, 5)
	if p.HasMore {
		t.Errorf("last page should not have more: %+v", p)
	}
}

func TestCleanOptionalString(t *testing.T) {
	if cleanOptionalString(nil) != nil {
		t.Error("nil should stay nil")
	}
	if cleanOptionalString(stringPtr("   ")) != nil {
		t.Error("blank should become nil")
	}
	if got := cleanOptionalString(stringPtr("  hi ")); got == nil || *got != "hi" {
		t.Errorf("got %v, want hi", got)
	}
}

func TestGenerateULID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := generateULID()
		if err != nil {
			t.Fatalf("generateULID failed: %v", err)
		}
		if len(id) != 26 {
			t.Fatalf("ULID length = %d, want 26", len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate ULID %s", id)
		}
		seen[id] = true
	}
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tm
}
