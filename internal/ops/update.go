package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/jot/internal/capture"
	"github.com/hpungsan/jot/internal/config"
	"github.com/hpungsan/jot/internal/db"
	"github.com/hpungsan/jot/internal/errors"
)

// UpdateInput contains parameters for the Update operation.
// A nil field is left unchanged. An empty string clears an optional field.
type UpdateInput struct {
	ID string

	Title       *string
	Status      *string
	Priority    *string
	DueDate     *string // YYYY-MM-DD
	Category    *string
	Description *string
	Project     *string   // project name; created on demand unless disabled
	Hashtags    *[]string // replaces the whole set
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	Item           capture.Item `json:"item"`
	ProjectCreated bool         `json:"project_created"`
}

// Update edits an existing live item.
func Update(ctx context.Context, database *sql.DB, cfg *config.Config, input UpdateInput) (*UpdateOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	if input.Title == nil && input.Status == nil && input.Priority == nil && input.DueDate == nil &&
		input.Category == nil && input.Description == nil && input.Project == nil && input.Hashtags == nil {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	it, err := db.GetItemByID(ctx, tx, id, false)
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, errors.NewInvalidRequest("title must not be empty")
		}
		it.Title = title
	}

	if input.Status != nil {
		if it.Type == capture.TypeNote {
			return nil, errors.NewInvalidFieldForType("status", string(it.Type))
		}
		s := capture.Status(strings.TrimSpace(*input.Status))
		if !capture.IsValidStatus(s) {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown status %q", s))
		}
		applyStatus(it, s, now)
	}

	if input.Priority != nil {
		if it.Type != capture.TypeTask {
			return nil, errors.NewInvalidFieldForType("priority", string(it.Type))
		}
		it.Priority = nil
		if v := cleanOptionalString(input.Priority); v != nil {
			p := capture.Priority(*v)
			if !capture.IsValidPriority(p) {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown priority %q", p))
			}
			it.Priority = &p
		}
	}

	if input.DueDate != nil {
		if it.Type != capture.TypeTask {
			return nil, errors.NewInvalidFieldForType("due_date", string(it.Type))
		}
		it.DueDate = cleanOptionalString(input.DueDate)
		if it.DueDate != nil && !isValidDate(*it.DueDate) {
			return nil, errors.NewInvalidRequest("due_date must be a YYYY-MM-DD date")
		}
	}

	if input.Category != nil {
		if it.Type != capture.TypeTask {
			return nil, errors.NewInvalidFieldForType("category", string(it.Type))
		}
		it.Category = nil
		if v := cleanOptionalString(input.Category); v != nil {
			c := capture.Category(strings.ToLower(*v))
			if !capture.IsValidCategory(c) {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown category %q", *v))
			}
			it.Category = &c
		}
	}

	if input.Description != nil {
		it.Description = cleanOptionalString(input.Description)
	}

	if input.Hashtags != nil {
		it.Hashtags = cleanHashtags(*input.Hashtags)
	}

	created := false
	if input.Project != nil {
		it.ProjectID, it.Project = nil, nil
		if name := cleanOptionalString(input.Project); name != nil {
			autoCreate := cfg == nil || !cfg.DisableProjectAutocreate
			p, wasCreated, err := ResolveProject(ctx, tx, *name, autoCreate)
			if err != nil {
				return nil, err
			}
			it.ProjectID, it.Project = &p.ID, &p.Name
			created = wasCreated
		}
	}

	it.UpdatedAt = now
	if err := db.UpdateItem(ctx, tx, it); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &UpdateOutput{Item: *it, ProjectCreated: created}, nil
}

// applyStatus sets s and keeps completed_at in step: entering a done status
// stamps it, leaving one clears it.
func applyStatus(it *capture.Item, s capture.Status, now int64) {
	wasDone := it.Status != nil && capture.IsDone(*it.Status)
	it.Status = &s
	switch {
	case capture.IsDone(s) && !wasDone:
		it.CompletedAt = &now
	case !capture.IsDone(s):
		it.CompletedAt = nil
	}
}

func cleanHashtags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = trimHash(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func isValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
