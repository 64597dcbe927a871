package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/hpungsan/jot/internal/capture"
	"github.com/hpungsan/jot/internal/config"
	"github.com/hpungsan/jot/internal/db"
	"github.com/hpungsan/jot/internal/errors"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on any bad line or id collision (atomic)
	ImportModeReplace ImportMode = "replace" // overwrite on collision
	ImportModeSkip    ImportMode = "skip"    // keep the existing item on collision
)

const maxImportLine = 1 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one line that was not imported.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importRecord struct {
	line int
	capture.ExportRecord
}

// Import restores items from a JSONL export file. Projects are matched by
// name and created when missing.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	switch input.Mode {
	case ImportModeError, ImportModeReplace, ImportModeSkip:
	default:
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, skip")
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openNoFollow(input.Path, 0, 0)
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) || errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file)
	out := &ImportOutput{Errors: []ImportError{}}

	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		out.Errors = parseErrors
		return out, nil
	}
	out.Errors = append(out.Errors, parseErrors...)
	out.Skipped = len(parseErrors)

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, rec := range records {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("import")
		}

		exists, err := db.ItemExists(ctx, tx, rec.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			switch input.Mode {
			case ImportModeError:
				// Abort: nothing from this file is kept.
				return &ImportOutput{Errors: []ImportError{{
					Line:    rec.line,
					ID:      rec.ID,
					Code:    "ID_COLLISION",
					Message: fmt.Sprintf("item with id %q already exists", rec.ID),
				}}}, nil
			case ImportModeSkip:
				out.Skipped++
				continue
			}
		}

		it := rec.ToItem()
		if rec.Project != nil {
			p, _, err := ResolveProject(ctx, tx, *rec.Project, true)
			if err != nil {
				return nil, err
			}
			it.ProjectID, it.Project = &p.ID, &p.Name
		}

		if err := db.UpsertItem(ctx, tx, it); err != nil {
			return nil, err
		}
		out.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// parseExportFile reads every line, skipping the header. Lines that are not
// valid item records come back as ImportErrors.
func parseExportFile(r io.Reader) ([]importRecord, []ImportError) {
	var (
		records []importRecord
		errs    []ImportError
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec capture.ExportRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			errs = append(errs, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if rec.JotExport {
			var h ExportHeader
			if err := json.Unmarshal([]byte(line), &h); err == nil && h.SchemaVersion != ExportSchemaVersion {
				errs = append(errs, ImportError{
					Line:    lineNum,
					Code:    "UNSUPPORTED_VERSION",
					Message: fmt.Sprintf("unsupported schema_version %q", h.SchemaVersion),
				})
			}
			continue
		}
		if msg := checkRecord(&rec); msg != "" {
			errs = append(errs, ImportError{
				Line:    lineNum,
				ID:      rec.ID,
				Code:    "INVALID_RECORD",
				Message: msg,
			})
			continue
		}

		records = append(records, importRecord{line: lineNum, ExportRecord: rec})
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, ImportError{
			Line:    lineNum + 1,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, errs
}

// dueDateShape checks format only. The parser stores dates like 2025-02-31
// without calendar validation, and those must survive a round trip.
var dueDateShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func checkRecord(rec *capture.ExportRecord) string {
	switch {
	case strings.TrimSpace(rec.ID) == "":
		return "missing id field"
	case !capture.IsValidType(rec.Type):
		return fmt.Sprintf("unknown type %q", rec.Type)
	case strings.TrimSpace(rec.Title) == "":
		return "missing title field"
	case rec.Status != nil && !capture.IsValidStatus(*rec.Status):
		return fmt.Sprintf("unknown status %q", *rec.Status)
	case rec.Priority != nil && !capture.IsValidPriority(*rec.Priority):
		return fmt.Sprintf("unknown priority %q", *rec.Priority)
	case rec.Category != nil && !capture.IsValidCategory(*rec.Category):
		return fmt.Sprintf("unknown category %q", *rec.Category)
	case rec.DueDate != nil && !dueDateShape.MatchString(*rec.DueDate):
		return fmt.Sprintf("invalid due_date %q, expected YYYY-MM-DD", *rec.DueDate)
	}
	return checkFieldsForType(rec)
}

// checkFieldsForType applies the same per-type field rules as Update.
func checkFieldsForType(rec *capture.ExportRecord) string {
	field := ""
	switch {
	case rec.Type == capture.TypeNote && rec.Status != nil:
		field = "status"
	case rec.Type != capture.TypeTask && rec.Priority != nil:
		field = "priority"
	case rec.Type != capture.TypeTask && rec.DueDate != nil:
		field = "due_date"
	case rec.Type != capture.TypeTask && rec.Category != nil:
		field = "category"
	default:
		return ""
	}
	return errors.NewInvalidFieldForType(field, string(rec.Type)).Message
}
