package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/jot/internal/capture"
	"github.com/hpungsan/jot/internal/config"
	"github.com/hpungsan/jot/internal/db"
	"github.com/hpungsan/jot/internal/errors"
)

// CaptureInput contains parameters for the Capture operation.
type CaptureInput struct {
	Text        string  // required, one quick-capture line
	Description *string // optional free-form body
}

// CaptureOutput contains the result of the Capture operation.
type CaptureOutput struct {
	Item           capture.Item `json:"item"`
	ParseKey       string       `json:"parse_key"`
	ProjectCreated bool         `json:"project_created"`
}

// Capture parses one line and stores the resulting item.
func Capture(ctx context.Context, database *sql.DB, cfg *config.Config, input CaptureInput) (*CaptureOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}
	maxChars := config.DefaultConfig().MaxInputChars
	if cfg != nil && cfg.MaxInputChars > 0 {
		maxChars = cfg.MaxInputChars
	}
	if n := capture.CountChars(input.Text); n > maxChars {
		return nil, errors.NewInputTooLarge(maxChars, n)
	}

	parsed := capture.Parse(input.Text)
	if parsed.Title == "" {
		return nil, errors.NewInvalidRequest("capture has no title")
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()

	it := &capture.Item{
		ID:          id,
		Type:        parsed.Type,
		Title:       parsed.Title,
		Status:      parsed.Status,
		Hashtags:    parsed.Hashtags,
		Priority:    parsed.Priority,
		DueDate:     parsed.DueDate,
		Category:    parsed.Category,
		Description: cleanOptionalString(input.Description),
		RawInput:    input.Text,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if it.Description == nil {
		it.Description = parsed.Description
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	created := false
	if parsed.Project != nil {
		autoCreate := cfg == nil || !cfg.DisableProjectAutocreate
		p, wasCreated, err := ResolveProject(ctx, tx, *parsed.Project, autoCreate)
		if err != nil {
			return nil, err
		}
		it.ProjectID = &p.ID
		it.Project = &p.Name
		created = wasCreated
	}

	if err := db.InsertItem(ctx, tx, it); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &CaptureOutput{
		Item:           *it,
		ParseKey:       parsed.ID,
		ProjectCreated: created,
	}, nil
}

// ResolveProject returns the project whose normalized name matches name,
// creating it when autoCreate is set. The bool reports whether it was created.
func ResolveProject(ctx context.Context, q db.Querier, name string, autoCreate bool) (*capture.Project, bool, error) {
	norm := capture.Normalize(name)
	if norm == "" {
		return nil, false, errors.NewInvalidRequest("project name must not be empty")
	}

	p, err := db.GetProjectByName(ctx, q, norm)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, errors.ErrNotFound) || !autoCreate {
		return nil, false, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}
	now := time.Now().Unix()
	p = &capture.Project{
		ID:        id,
		Name:      strings.TrimSpace(name),
		NameNorm:  norm,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := db.InsertProject(ctx, q, p); err != nil {
		if err != db.ErrUniqueConstraint {
			return nil, false, err
		}
		// Lost a race with another creator.
		existing, err := db.GetProjectByName(ctx, q, norm)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return p, true, nil
}
