package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/jot/internal/capture"
	"github.com/hpungsan/jot/internal/db"
	"github.com/hpungsan/jot/internal/errors"
)

// ListInput contains parameters for the List operation. Nil filters are ignored.
type ListInput struct {
	Type      *capture.Type
	Status    *capture.Status
	Project   *string // project name, matched after normalization
	Hashtag   *string // without the leading '#'
	Query     *string // substring of the title
	DueBefore *string // YYYY-MM-DD, inclusive

	Limit          int // default: 20, max: 100
	Offset         int
	IncludeDeleted bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []capture.Item `json:"items"`
	Pagination Pagination     `json:"pagination"`
	Sort       string         `json:"sort"`
}

// List retrieves items, most recently updated first.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	page := newPagination(input.Limit, input.Offset)

	filters, err := buildFilters(input)
	if err != nil {
		return nil, err
	}

	out := &ListOutput{Items: []capture.Item{}, Sort: "updated_at_desc"}

	if project := cleanOptionalString(input.Project); project != nil {
		p, err := db.GetProjectByName(ctx, database, capture.Normalize(*project))
		if errors.Is(err, errors.ErrNotFound) {
			// Unknown project: nothing can match.
			out.Pagination = page.fill(0, 0)
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		filters.ProjectID = &p.ID
	}

	items, total, err := db.ListItems(ctx, database, filters, page.Limit, page.Offset, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	if items != nil {
		out.Items = items
	}
	out.Pagination = page.fill(len(out.Items), total)
	return out, nil
}

func buildFilters(input ListInput) (db.ItemFilters, error) {
	var f db.ItemFilters

	if input.Type != nil {
		if !capture.IsValidType(*input.Type) {
			return f, errors.NewInvalidRequest(fmt.Sprintf("unknown type %q", *input.Type))
		}
		f.Type = input.Type
	}
	if input.Status != nil {
		if !capture.IsValidStatus(*input.Status) {
			return f, errors.NewInvalidRequest(fmt.Sprintf("unknown status %q", *input.Status))
		}
		f.Status = input.Status
	}
	if tag := cleanOptionalString(input.Hashtag); tag != nil {
		v := trimHash(*tag)
		f.Hashtag = &v
	}
	f.Query = cleanOptionalString(input.Query)
	if due := cleanOptionalString(input.DueBefore); due != nil {
		if !isValidDate(*due) {
			return f, errors.NewInvalidRequest("due_before must be a YYYY-MM-DD date")
		}
		f.DueBefore = due
	}
	return f, nil
}

func trimHash(s string) string {
	if len(s) > 0 && s[0] == '#' {
		return s[1:]
	}
	return s
}
