package ops

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hpungsan/jot/internal/capture"
	"github.com/hpungsan/jot/internal/config"
	"github.com/hpungsan/jot/internal/errors"
	"github.com/stretchr/testify/require"
)

// TestFullWorkflow exercises the item lifecycle:
// capture → fetch → update → list → export → delete → purge → import → fetch
func TestFullWorkflow(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	// 1. Capture
	capOut, err := Capture(ctx, database, cfg, CaptureInput{Text: "- Renew passport @Travel #admin 1/2/25 /2"})
	require.NoError(t, err)
	require.True(t, capOut.ProjectCreated)
	id := capOut.Item.ID

	// 2. Fetch
	it, err := Fetch(ctx, database, FetchInput{ID: id})
	require.NoError(t, err)
	require.Equal(t, "Renew passport", it.Title)
	require.Equal(t, "2025-02-01", *it.DueDate)
	require.Equal(t, capture.PriorityMedium, *it.Priority)
	require.Equal(t, "Travel", *it.Project)

	// 3. Complete it
	upd, err := Update(ctx, database, cfg, UpdateInput{ID: id, Status: stringPtr(string(capture.StatusCompleted))})
	require.NoError(t, err)
	require.NotNil(t, upd.Item.CompletedAt)

	// 4. List by status
	completed := capture.StatusCompleted
	listOut, err := List(ctx, database, ListInput{Status: &completed})
	require.NoError(t, err)
	require.Len(t, listOut.Items, 1)
	require.Equal(t, id, listOut.Items[0].ID)

	// 5. Export
	path := filepath.Join(dir, "backup.jsonl")
	expOut, err := Export(ctx, database, cfg, ExportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 1, expOut.Count)

	// 6. Delete then purge
	_, err = Delete(ctx, database, DeleteInput{ID: id})
	require.NoError(t, err)
	purgeOut, err := Purge(ctx, database, PurgeInput{})
	require.NoError(t, err)
	require.Equal(t, 1, purgeOut.Purged)

	_, err = Fetch(ctx, database, FetchInput{ID: id, IncludeDeleted: true})
	require.Error(t, err)
	var jErr *errors.JotError
	require.ErrorAs(t, err, &jErr)
	require.Equal(t, errors.ErrNotFound, jErr.Code)

	// 7. Import restores it with the same id
	impOut, err := Import(ctx, database, cfg, ImportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 1, impOut.Imported)

	it, err = Fetch(ctx, database, FetchInput{ID: id})
	require.NoError(t, err)
	require.Equal(t, capture.StatusCompleted, *it.Status)
	require.Equal(t, []string{"admin"}, it.Hashtags)

	// 8. The project survived the round trip with its item
	projOut, err := Projects(ctx, database, ProjectsInput{})
	require.NoError(t, err)
	require.Len(t, projOut.Projects, 1)
	require.Equal(t, 1, projOut.Projects[0].ItemCount)
}
