package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/jot/internal/capture"
	"github.com/hpungsan/jot/internal/db"
)

// ProjectsInput contains parameters for the Projects operation.
type ProjectsInput struct {
	Limit  int
	Offset int
}

// ProjectsOutput contains the result of the Projects operation.
type ProjectsOutput struct {
	Projects   []capture.ProjectSummary `json:"projects"`
	Pagination Pagination               `json:"pagination"`
}

// Projects lists projects alphabetically with their live item counts.
func Projects(ctx context.Context, database *sql.DB, input ProjectsInput) (*ProjectsOutput, error) {
	page := newPagination(input.Limit, input.Offset)

	summaries, total, err := db.ListProjects(ctx, database, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []capture.ProjectSummary{}
	}

	return &ProjectsOutput{
		Projects:   summaries,
		Pagination: page.fill(len(summaries), total),
	}, nil
}
