package ops

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hpungsan/jot/internal/capture"
	"github.com/hpungsan/jot/internal/db"
	"github.com/hpungsan/jot/internal/errors"
)

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	Type          *capture.Type // optional filter by item type
	OlderThanDays *int          // optional, only purge if deleted_at < (now - N days)
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged  int    `json:"purged"`
	Message string `json:"message"`
}

const secondsPerDay = 24 * 60 * 60

// Purge permanently deletes soft-deleted items.
func Purge(ctx context.Context, database *sql.DB, input PurgeInput) (*PurgeOutput, error) {
	if input.Type != nil && !capture.IsValidType(*input.Type) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown type %q", *input.Type))
	}

	var cutoff *int64
	if input.OlderThanDays != nil {
		if *input.OlderThanDays < 0 {
			return nil, errors.NewInvalidRequest("older_than_days must not be negative")
		}
		c := time.Now().Unix() - int64(*input.OlderThanDays)*secondsPerDay
		cutoff = &c
	}

	count, err := db.PurgeDeleted(ctx, database, input.Type, cutoff)
	if err != nil {
		return nil, err
	}

	return &PurgeOutput{
		Purged:  count,
		Message: formatPurgeMessage(count, input.Type, input.OlderThanDays),
	}, nil
}

// formatPurgeMessage creates a human-readable message for the purge result.
func formatPurgeMessage(count int, typ *capture.Type, olderThanDays *int) string {
	if count == 0 {
		return "No deleted items to purge"
	}

	word := "item"
	if typ != nil {
		word = string(*typ)
	}
	if count > 1 {
		word += "s"
	}

	msg := fmt.Sprintf("Permanently deleted %d %s", count, word)
	if olderThanDays != nil {
		msg += fmt.Sprintf(" (deleted more than %d days ago)", *olderThanDays)
	}
	return msg
}
