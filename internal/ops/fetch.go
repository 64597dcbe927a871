package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/jot/internal/capture"
	"github.com/hpungsan/jot/internal/db"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string
	IncludeDeleted bool
}

// Fetch retrieves one item by id.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*capture.Item, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	return db.GetItemByID(ctx, database, id, input.IncludeDeleted)
}
